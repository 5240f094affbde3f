// Package weaviate provides the search store adapter backed by a
// Weaviate instance. Each chunking strategy gets its own class so the
// strategies can be compared without re-indexing.
package weaviate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/fault"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/manualhq/manualqa-cli/internal/backoff"
	"github.com/manualhq/manualqa-cli/internal/core/domain"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driven"
	"github.com/manualhq/manualqa-cli/internal/logger"
)

// Ensure SearchStore implements the interface.
var _ driven.SearchStore = (*SearchStore)(nil)

// Default configuration values.
const (
	DefaultHost   = "localhost:8080"
	DefaultScheme = "http"

	// classPrefix namespaces our classes inside a shared instance.
	classPrefix = "ManualChunks"
)

// objectNamespace seeds the deterministic object UUIDs so re-inserting
// a chunk overwrites its previous object.
var objectNamespace = uuid.MustParse("8e5a3f1c-2b74-4c19-9f05-6d1d2b6a7e41")

// Config holds configuration for the Weaviate search store.
type Config struct {
	// Host is the instance address (default: localhost:8080).
	Host string

	// Scheme is http or https (default: http).
	Scheme string

	// APIKey enables API-key auth when non-empty.
	APIKey string
}

// SearchStore stores and searches chunk vectors in Weaviate.
type SearchStore struct {
	client *weaviate.Client
	retry  backoff.Policy
}

// NewSearchStore creates a search store connected to one instance.
func NewSearchStore(cfg Config) (*SearchStore, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Scheme == "" {
		cfg.Scheme = DefaultScheme
	}
	wcfg := weaviate.Config{
		Host:   cfg.Host,
		Scheme: cfg.Scheme,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}
	client, err := weaviate.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("weaviate client: %w", err)
	}
	return &SearchStore{client: client, retry: backoff.Default()}, nil
}

// ClassName maps a strategy onto its Weaviate class.
func ClassName(strategy domain.ChunkingStrategy) string {
	parts := strings.Split(string(strategy), "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return classPrefix + strings.Join(parts, "")
}

// hitFields are the properties fetched for every search hit.
var hitFields = []graphql.Field{
	{Name: "chunkId"},
	{Name: "text"},
	{Name: "pageNumber"},
	{Name: "sourceFile"},
}

// VectorSearch finds the k nearest chunks to the query embedding.
func (s *SearchStore) VectorSearch(ctx context.Context, strategy domain.ChunkingStrategy, embedding []float32, topK int, filter driven.Filter) ([]driven.StoreHit, error) {
	class := ClassName(strategy)
	fields := append(hitFields, graphql.Field{
		Name:   "_additional",
		Fields: []graphql.Field{{Name: "distance"}},
	})

	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(embedding)
	query := s.client.GraphQL().Get().
		WithClassName(class).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(topK)
	if where := whereFilter(filter); where != nil {
		query = query.WithWhere(where)
	}

	resp, err := s.runQuery(ctx, func() (*models.GraphQLResponse, error) {
		return query.Do(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("weaviate near-vector query: %w", err)
	}
	return parseHits(resp, class, scoreFromDistance)
}

// KeywordSearch performs BM25 lexical search over chunk text.
func (s *SearchStore) KeywordSearch(ctx context.Context, strategy domain.ChunkingStrategy, text string, topK int, filter driven.Filter) ([]driven.StoreHit, error) {
	class := ClassName(strategy)
	fields := append(hitFields, graphql.Field{
		Name:   "_additional",
		Fields: []graphql.Field{{Name: "score"}},
	})

	bm25 := s.client.GraphQL().Bm25ArgBuilder().
		WithQuery(text).
		WithProperties("text")
	query := s.client.GraphQL().Get().
		WithClassName(class).
		WithFields(fields...).
		WithBM25(bm25).
		WithLimit(topK)
	if where := whereFilter(filter); where != nil {
		query = query.WithWhere(where)
	}

	resp, err := s.runQuery(ctx, func() (*models.GraphQLResponse, error) {
		return query.Do(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("weaviate bm25 query: %w", err)
	}
	return parseHits(resp, class, scoreFromBM25)
}

// runQuery executes one GraphQL query, retrying transient failures with
// the store's backoff policy.
func (s *SearchStore) runQuery(ctx context.Context, do func() (*models.GraphQLResponse, error)) (*models.GraphQLResponse, error) {
	var resp *models.GraphQLResponse
	err := backoff.Retry(ctx, s.retry, transientQueryErr, func() error {
		var attemptErr error
		resp, attemptErr = do()
		return attemptErr
	})
	return resp, err
}

// transientQueryErr reports whether a query failure is worth retrying.
// The client surfaces transport failures as a WeaviateClientError with
// a non-positive status code.
func transientQueryErr(err error) bool {
	var wce *fault.WeaviateClientError
	if !errors.As(err, &wce) {
		return false
	}
	return wce.StatusCode <= 0 ||
		wce.StatusCode == http.StatusTooManyRequests ||
		wce.StatusCode >= 500
}

// whereFilter builds the vehicle-model partition filter, nil when the
// filter matches everything.
func whereFilter(filter driven.Filter) *filters.WhereBuilder {
	if filter.Empty() {
		return nil
	}
	return filters.Where().
		WithPath([]string{"vehicleModel"}).
		WithOperator(filters.Equal).
		WithValueText(filter.VehicleModel)
}

// Insert adds chunks with their embeddings to the strategy's class.
// Object IDs derive from chunk IDs, so re-insertion overwrites.
func (s *SearchStore) Insert(ctx context.Context, strategy domain.ChunkingStrategy, chunks []domain.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("weaviate insert: %d chunks but %d embeddings", len(chunks), len(embeddings))
	}
	if len(chunks) == 0 {
		return nil
	}
	class := ClassName(strategy)

	batcher := s.client.Batch().ObjectsBatcher()
	for i, chunk := range chunks {
		props := map[string]any{
			"chunkId":      chunk.ID,
			"documentId":   chunk.DocumentID,
			"text":         chunk.Text,
			"orderIndex":   chunk.OrderIndex,
			"pageNumber":   chunk.PageNumber,
			"sourceFile":   chunk.Metadata["source_file"],
			"vehicleModel": chunk.Metadata["vehicle_model"],
			"elementType":  chunk.ElementType,
		}
		batcher = batcher.WithObjects(&models.Object{
			Class:      class,
			ID:         objectID(class, chunk.ID),
			Properties: props,
			Vector:     embeddings[i],
		})
	}

	results, err := batcher.Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate batch insert: %w", err)
	}
	for _, r := range results {
		if r.Result != nil && r.Result.Errors != nil && len(r.Result.Errors.Error) > 0 {
			return fmt.Errorf("weaviate batch insert: object %s: %s", r.ID, r.Result.Errors.Error[0].Message)
		}
	}
	logger.Debug("Inserted %d objects into %s", len(chunks), class)
	return nil
}

// objectID derives a stable UUID from the class and chunk ID.
func objectID(class, chunkID string) strfmt.UUID {
	id := uuid.NewSHA1(objectNamespace, []byte(class+"/"+chunkID))
	return strfmt.UUID(id.String())
}

// EnsureCollection creates the strategy's class if missing.
func (s *SearchStore) EnsureCollection(ctx context.Context, strategy domain.ChunkingStrategy) error {
	exists, err := s.CollectionExists(ctx, strategy)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	class := classSchema(strategy)
	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("create class %s: %w", class.Class, err)
	}
	logger.Info("Created Weaviate class %s", class.Class)
	return nil
}

// CollectionExists reports whether the strategy's class exists.
func (s *SearchStore) CollectionExists(ctx context.Context, strategy domain.ChunkingStrategy) (bool, error) {
	exists, err := s.client.Schema().ClassExistenceChecker().
		WithClassName(ClassName(strategy)).
		Do(ctx)
	if err != nil {
		return false, fmt.Errorf("check class %s: %w", ClassName(strategy), err)
	}
	return exists, nil
}

// classSchema is the per-strategy class definition. Vectors come from
// our own embedding service, so the class carries no vectorizer.
func classSchema(strategy domain.ChunkingStrategy) *models.Class {
	return &models.Class{
		Class:      ClassName(strategy),
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "chunkId", DataType: []string{"text"}},
			{Name: "documentId", DataType: []string{"text"}},
			{Name: "text", DataType: []string{"text"}},
			{Name: "orderIndex", DataType: []string{"int"}},
			{Name: "pageNumber", DataType: []string{"int"}},
			{Name: "sourceFile", DataType: []string{"text"}},
			{Name: "vehicleModel", DataType: []string{"text"}},
			{Name: "elementType", DataType: []string{"text"}},
		},
	}
}

// Close releases resources.
func (s *SearchStore) Close() error {
	return nil
}

// scoreFromDistance converts a cosine distance into a similarity.
func scoreFromDistance(additional map[string]any) float64 {
	if d, ok := additional["distance"].(float64); ok {
		return 1 - d
	}
	return 0
}

// scoreFromBM25 reads the BM25 score, which GraphQL carries as a string.
func scoreFromBM25(additional map[string]any) float64 {
	switch v := additional["score"].(type) {
	case string:
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return score
	case float64:
		return v
	}
	return 0
}

// parseHits unpacks a GraphQL Get response for one class.
func parseHits(resp *models.GraphQLResponse, class string, score func(map[string]any) float64) ([]driven.StoreHit, error) {
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("weaviate query: %s", resp.Errors[0].Message)
	}
	get, ok := resp.Data["Get"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("weaviate query: missing Get payload")
	}
	rows, ok := get[class].([]any)
	if !ok {
		// Class present but no rows.
		return nil, nil
	}

	hits := make([]driven.StoreHit, 0, len(rows))
	for _, row := range rows {
		obj, ok := row.(map[string]any)
		if !ok {
			continue
		}
		hit := driven.StoreHit{
			ChunkID:    stringProp(obj, "chunkId"),
			Text:       stringProp(obj, "text"),
			SourceFile: stringProp(obj, "sourceFile"),
		}
		if page, ok := obj["pageNumber"].(float64); ok {
			hit.PageNumber = int(page)
		}
		if additional, ok := obj["_additional"].(map[string]any); ok {
			hit.Score = score(additional)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func stringProp(obj map[string]any, name string) string {
	s, _ := obj[name].(string)
	return s
}

package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driven"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driving"
	"github.com/manualhq/manualqa-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// rrfK is the reciprocal rank fusion constant. 60 keeps top ranks from
// dominating the fused score.
const rrfK = 60

// DefaultChannelTimeout bounds each search channel in hybrid mode.
const DefaultChannelTimeout = 10 * time.Second

// RetrievalService performs vector, keyword and hybrid search over the
// per-strategy chunk collections.
type RetrievalService struct {
	store    driven.SearchStore
	embedder driven.EmbeddingService

	// channelTimeout bounds each channel of a hybrid search.
	channelTimeout time.Duration
}

// RetrievalOption configures a RetrievalService.
type RetrievalOption func(*RetrievalService)

// WithChannelTimeout overrides the per-channel timeout for hybrid search.
func WithChannelTimeout(d time.Duration) RetrievalOption {
	return func(s *RetrievalService) {
		if d > 0 {
			s.channelTimeout = d
		}
	}
}

// NewRetrievalService creates a retrieval service.
func NewRetrievalService(store driven.SearchStore, embedder driven.EmbeddingService, opts ...RetrievalOption) *RetrievalService {
	s := &RetrievalService{
		store:          store,
		embedder:       embedder,
		channelTimeout: DefaultChannelTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retrieve returns at most cfg.TopK ranked passages for the query.
// When the query carries an extracted model the search is scoped to
// that model's partition; a partition with no matches yields an empty
// slice, not an error.
func (s *RetrievalService) Retrieve(ctx context.Context, query domain.RewrittenQuery, cfg domain.RetrievalConfig) ([]domain.ContextPassage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	filter := driven.Filter{VehicleModel: query.ExtractedModel}
	logger.Section("Retrieval")
	logger.Debug("Query: %q, strategy=%s, type=%s, top_k=%d, model=%q",
		query.CanonicalText, cfg.Strategy, cfg.SearchType, cfg.TopK, query.ExtractedModel)

	var hits []driven.StoreHit
	var err error
	switch cfg.SearchType {
	case domain.SearchTypeVector:
		hits, err = s.vectorChannel(ctx, query.CanonicalText, cfg, filter)
	case domain.SearchTypeKeyword:
		hits, err = s.keywordChannel(ctx, query.CanonicalText, cfg, filter)
	case domain.SearchTypeHybrid:
		hits, err = s.hybridSearch(ctx, query.CanonicalText, cfg, filter)
	}
	if err != nil {
		return nil, err
	}

	if len(hits) > cfg.TopK {
		hits = hits[:cfg.TopK]
	}
	passages := make([]domain.ContextPassage, len(hits))
	for i, hit := range hits {
		passages[i] = domain.ContextPassage{
			ChunkID:    hit.ChunkID,
			Text:       hit.Text,
			Score:      hit.Score,
			Rank:       i + 1,
			PageNumber: hit.PageNumber,
			SourceFile: hit.SourceFile,
		}
	}
	logger.Debug("Retrieved %d passages", len(passages))
	return passages, nil
}

// vectorChannel embeds the query and searches by vector similarity.
func (s *RetrievalService) vectorChannel(ctx context.Context, query string, cfg domain.RetrievalConfig, filter driven.Filter) ([]driven.StoreHit, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: embedding service unavailable", domain.ErrEmbeddingUnavailable)
	}
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := s.store.VectorSearch(ctx, cfg.Strategy, embedding, cfg.TopK, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector channel: %d hits", len(hits))
	return hits, nil
}

// keywordChannel performs BM25 lexical search.
func (s *RetrievalService) keywordChannel(ctx context.Context, query string, cfg domain.RetrievalConfig, filter driven.Filter) ([]driven.StoreHit, error) {
	hits, err := s.store.KeywordSearch(ctx, cfg.Strategy, query, cfg.TopK, filter)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	logger.Debug("Keyword channel: %d hits", len(hits))
	return hits, nil
}

// hybridSearch runs both channels concurrently, each under its own
// timeout, and fuses the survivors. A single failed channel degrades
// to the other; both failing is a transient service error.
func (s *RetrievalService) hybridSearch(ctx context.Context, query string, cfg domain.RetrievalConfig, filter driven.Filter) ([]driven.StoreHit, error) {
	var vectorHits, keywordHits []driven.StoreHit
	var vectorErr, keywordErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, s.channelTimeout)
		defer cancel()
		vectorHits, vectorErr = s.vectorChannel(cctx, query, cfg, filter)
	}()

	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, s.channelTimeout)
		defer cancel()
		keywordHits, keywordErr = s.keywordChannel(cctx, query, cfg, filter)
	}()

	wg.Wait()

	if vectorErr != nil && keywordErr != nil {
		return nil, fmt.Errorf("%w: hybrid search: vector=%v, keyword=%v",
			domain.ErrTransientService, vectorErr, keywordErr)
	}
	if vectorErr != nil {
		logger.Warn("Hybrid search: vector channel failed: %v (keyword only)", vectorErr)
		return keywordHits, nil
	}
	if keywordErr != nil {
		logger.Warn("Hybrid search: keyword channel failed: %v (vector only)", keywordErr)
		return vectorHits, nil
	}

	logger.Debug("Hybrid search: fusing %d vector + %d keyword hits",
		len(vectorHits), len(keywordHits))
	return fuseRRF(vectorHits, keywordHits, rrfK), nil
}

// fuseRRF merges two ranked hit lists with reciprocal rank fusion.
// Each hit scores 1/(k+rank) per list it appears in, rank 1-based.
// Ties keep the vector list's order; duplicate chunk IDs within one
// list count once at their best rank. Pure function.
func fuseRRF(vector, keyword []driven.StoreHit, k int) []driven.StoreHit {
	scores := make(map[string]float64)
	payload := make(map[string]driven.StoreHit)
	order := make([]string, 0, len(vector)+len(keyword))

	accumulate := func(list []driven.StoreHit) {
		counted := make(map[string]bool, len(list))
		for rank, hit := range list {
			if counted[hit.ChunkID] {
				continue
			}
			counted[hit.ChunkID] = true
			if _, seen := scores[hit.ChunkID]; !seen {
				order = append(order, hit.ChunkID)
				payload[hit.ChunkID] = hit
			}
			scores[hit.ChunkID] += 1.0 / float64(k+rank+1)
		}
	}
	accumulate(vector)
	accumulate(keyword)

	fused := make([]driven.StoreHit, len(order))
	for i, id := range order {
		hit := payload[id]
		hit.Score = scores[id]
		fused[i] = hit
	}
	// Stable sort so equal scores keep vector-first order.
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})
	return fused
}

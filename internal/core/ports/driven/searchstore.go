package driven

import (
	"context"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
)

// SearchStore provides vector and lexical search over indexed chunks.
// Backed by Weaviate: one collection per chunking strategy, with a
// vehicle-model property used for partition filtering.
type SearchStore interface {
	// VectorSearch finds the k nearest chunks to the query embedding.
	// An empty filter searches the whole collection.
	VectorSearch(ctx context.Context, strategy domain.ChunkingStrategy, embedding []float32, topK int, filter Filter) ([]StoreHit, error)

	// KeywordSearch performs BM25 lexical search over chunk text.
	KeywordSearch(ctx context.Context, strategy domain.ChunkingStrategy, query string, topK int, filter Filter) ([]StoreHit, error)

	// Insert adds chunks with their embeddings to the strategy's
	// collection. Object identity is derived from chunk IDs, so
	// re-inserting the same chunks is idempotent.
	Insert(ctx context.Context, strategy domain.ChunkingStrategy, chunks []domain.Chunk, embeddings [][]float32) error

	// EnsureCollection creates the strategy's collection if missing.
	EnsureCollection(ctx context.Context, strategy domain.ChunkingStrategy) error

	// CollectionExists reports whether the strategy's collection exists.
	CollectionExists(ctx context.Context, strategy domain.ChunkingStrategy) (bool, error)

	// Close releases resources.
	Close() error
}

// Filter restricts a search to one vehicle-model partition.
// The zero value matches everything.
type Filter struct {
	// VehicleModel selects the model partition when non-empty.
	VehicleModel string
}

// Empty reports whether the filter matches everything.
func (f Filter) Empty() bool {
	return f.VehicleModel == ""
}

// StoreHit is one search result from the store.
type StoreHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the channel relevance score (cosine similarity for
	// vector search, BM25 for keyword search).
	Score float64

	// Text is the chunk content carried in the payload.
	Text string

	// PageNumber is the source page of the chunk.
	PageNumber int

	// SourceFile is the originating manual file.
	SourceFile string
}

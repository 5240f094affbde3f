package domain

import "fmt"

// SearchType enumerates the retrieval channels.
type SearchType string

// Supported search types.
const (
	SearchTypeVector  SearchType = "vector"
	SearchTypeKeyword SearchType = "keyword"
	SearchTypeHybrid  SearchType = "hybrid"
)

// AllSearchTypes lists every supported search type in a stable order.
func AllSearchTypes() []SearchType {
	return []SearchType{SearchTypeVector, SearchTypeKeyword, SearchTypeHybrid}
}

// Valid reports whether t names a known search type.
func (t SearchType) Valid() bool {
	switch t {
	case SearchTypeVector, SearchTypeKeyword, SearchTypeHybrid:
		return true
	}
	return false
}

// DefaultTopK is the number of passages retrieved when unspecified.
const DefaultTopK = 5

// RetrievalConfig configures one retrieval invocation.
type RetrievalConfig struct {
	// TopK is the maximum number of passages to return. Must be >= 1.
	TopK int

	// SearchType selects vector, keyword or hybrid search.
	SearchType SearchType

	// Strategy selects which chunk collection to search.
	Strategy ChunkingStrategy

	// Threshold is the similarity threshold forwarded to evaluation
	// artifacts. Must be in [0,1].
	Threshold float64
}

// Validate checks every invariant eagerly, before any external call.
func (c RetrievalConfig) Validate() error {
	if c.TopK < 1 {
		return fmt.Errorf("%w: top_k must be >= 1, got %d", ErrInvalidConfig, c.TopK)
	}
	if !c.SearchType.Valid() {
		return fmt.Errorf("%w: unknown search type %q", ErrInvalidConfig, c.SearchType)
	}
	if !c.Strategy.Valid() {
		return fmt.Errorf("%w: unknown chunking strategy %q", ErrInvalidConfig, c.Strategy)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("%w: threshold must be in [0,1], got %g", ErrInvalidConfig, c.Threshold)
	}
	return nil
}

// ContextPassage is one ranked retrieval result.
// Rank is 1-based and strictly increasing with decreasing score within
// one retrieval result.
type ContextPassage struct {
	// ChunkID identifies the retrieved chunk.
	ChunkID string

	// Text is the chunk content.
	Text string

	// Score is the channel or fused relevance score.
	Score float64

	// Rank is the 1-based position in the final ranking.
	Rank int

	// PageNumber is the source page of the chunk (0 when unknown).
	PageNumber int

	// SourceFile is the originating manual file.
	SourceFile string
}

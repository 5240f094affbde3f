package domain

import "fmt"

// ChunkingStrategy enumerates the supported chunking variants.
type ChunkingStrategy string

// Supported chunking strategies.
const (
	StrategyBasicRecursive ChunkingStrategy = "basic_recursive"
	StrategySemantic       ChunkingStrategy = "semantic"
	StrategyParagraph      ChunkingStrategy = "paragraph"
	StrategyLandingAI      ChunkingStrategy = "landingai"
)

// AllStrategies lists every supported strategy in a stable order.
func AllStrategies() []ChunkingStrategy {
	return []ChunkingStrategy{
		StrategyBasicRecursive,
		StrategySemantic,
		StrategyParagraph,
		StrategyLandingAI,
	}
}

// Valid reports whether s names a known strategy.
func (s ChunkingStrategy) Valid() bool {
	switch s {
	case StrategyBasicRecursive, StrategySemantic, StrategyParagraph, StrategyLandingAI:
		return true
	}
	return false
}

// Default chunking parameters.
const (
	DefaultChunkSize           = 500
	DefaultChunkOverlap        = 50
	DefaultSimilarityThreshold = 0.7
	DefaultMaxChunkSize        = 800
	DefaultMinParagraphSize    = 100

	// MinIndexableChunkLen is the shortest chunk worth indexing.
	// Shorter fragments (page numbers, stray headings) are dropped at
	// ingestion for all strategies except landingai.
	MinIndexableChunkLen = 50
)

// ChunkingConfig configures one chunking strategy invocation.
type ChunkingConfig struct {
	// Strategy selects the chunking variant.
	Strategy ChunkingStrategy

	// ChunkSize is the window size in characters (basic_recursive).
	ChunkSize int

	// Overlap is the number of characters shared between consecutive
	// windows (basic_recursive). Must satisfy ChunkSize > Overlap >= 0.
	Overlap int

	// SimilarityThreshold closes a semantic chunk when the next sentence
	// falls below it. Must be in [0,1].
	SimilarityThreshold float64

	// MaxChunkSize bounds semantic chunk growth in characters.
	MaxChunkSize int

	// MinParagraphSize is the merge-forward minimum for the paragraph
	// strategy.
	MinParagraphSize int
}

// DefaultChunkingConfig returns a validated config for the given strategy.
func DefaultChunkingConfig(strategy ChunkingStrategy) ChunkingConfig {
	return ChunkingConfig{
		Strategy:            strategy,
		ChunkSize:           DefaultChunkSize,
		Overlap:             DefaultChunkOverlap,
		SimilarityThreshold: DefaultSimilarityThreshold,
		MaxChunkSize:        DefaultMaxChunkSize,
		MinParagraphSize:    DefaultMinParagraphSize,
	}
}

// Validate checks every invariant eagerly, before any external call.
func (c ChunkingConfig) Validate() error {
	if !c.Strategy.Valid() {
		return fmt.Errorf("%w: unknown chunking strategy %q", ErrInvalidConfig, c.Strategy)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must be non-negative, got %d", ErrInvalidConfig, c.Overlap)
	}
	if c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be smaller than chunk_size %d",
			ErrInvalidConfig, c.Overlap, c.ChunkSize)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity_threshold must be in [0,1], got %g",
			ErrInvalidConfig, c.SimilarityThreshold)
	}
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("%w: max_chunk_size must be positive, got %d",
			ErrInvalidConfig, c.MaxChunkSize)
	}
	if c.MinParagraphSize < 0 {
		return fmt.Errorf("%w: min_paragraph_size must be non-negative, got %d",
			ErrInvalidConfig, c.MinParagraphSize)
	}
	return nil
}

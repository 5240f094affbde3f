package driving

import (
	"context"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
)

// Rewriter turns a raw question into a retrieval-optimized query.
type Rewriter interface {
	// Rewrite extracts the vehicle model and reformulates the query.
	// It fails open: on service error or ambiguous extraction it
	// returns the original text with no model and confidence 0,
	// never an error the caller must handle.
	Rewrite(ctx context.Context, query domain.Query) (domain.RewrittenQuery, error)
}

// Retriever performs hybrid (vector + lexical) search with model-scoped
// filtering.
type Retriever interface {
	// Retrieve returns at most cfg.TopK ranked passages. A missing
	// partition match yields an empty slice, not an error.
	Retrieve(ctx context.Context, query domain.RewrittenQuery, cfg domain.RetrievalConfig) ([]domain.ContextPassage, error)
}

// Generator produces a grounded answer from retrieved passages.
type Generator interface {
	// Answer generates an answer citing the passages.
	Answer(ctx context.Context, query domain.RewrittenQuery, passages []domain.ContextPassage) (string, error)
}

// Ingestor chunks, embeds and indexes a document under one strategy.
type Ingestor interface {
	// Ingest returns the number of chunks indexed.
	Ingest(ctx context.Context, doc domain.Document, cfg domain.ChunkingConfig) (int, error)
}

package driven

import (
	"context"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
)

// Chunker converts a document into an ordered sequence of chunks under
// one strategy. Implementations are selected through the chunker registry
// by domain.ChunkingStrategy; adding a strategy means adding a variant
// and registering it, not branching call sites.
type Chunker interface {
	// Name returns the strategy this chunker implements.
	Name() domain.ChunkingStrategy

	// Chunk splits the document. Chunk IDs are sequence-derived and
	// order indexes strictly increasing. Local strategies fail only on
	// malformed configuration; the landingai variant may also return
	// domain.ErrExternalService.
	Chunk(ctx context.Context, doc domain.Document, cfg domain.ChunkingConfig) ([]domain.Chunk, error)
}

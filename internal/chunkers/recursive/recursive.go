// Package recursive implements fixed-size character-window chunking
// with overlap. It is deterministic and purely local.
package recursive

import (
	"context"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// Chunker splits document text into windows of ChunkSize characters
// with Overlap shared characters between consecutive windows.
type Chunker struct{}

// New creates a basic_recursive chunker.
func New() *Chunker {
	return &Chunker{}
}

// Name returns the strategy this chunker implements.
func (c *Chunker) Name() domain.ChunkingStrategy {
	return domain.StrategyBasicRecursive
}

// Chunk splits the document. Window starts advance by ChunkSize-Overlap,
// so a 1200-character document with size 500 and overlap 50 yields
// windows starting at 0, 450 and 900. The final window may be shorter
// than ChunkSize. A trailing window that would only repeat overlap from
// the previous one is dropped, which keeps concatenation (minus the
// declared overlap) an exact reconstruction of the document text.
func (c *Chunker) Chunk(_ context.Context, doc domain.Document, cfg domain.ChunkingConfig) ([]domain.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	text := doc.Text()
	if text == "" {
		return nil, nil
	}

	step := cfg.ChunkSize - cfg.Overlap
	chunks := make([]domain.Chunk, 0, len(text)/step+1)

	index := 0
	for start := 0; start < len(text); start += step {
		end := start + cfg.ChunkSize
		if end > len(text) {
			end = len(text)
		}
		if start > 0 && end-start <= cfg.Overlap {
			break
		}

		chunks = append(chunks, domain.Chunk{
			ID:          domain.ChunkID(doc.ID, index),
			DocumentID:  doc.ID,
			Text:        text[start:end],
			OrderIndex:  index,
			PageNumber:  doc.PageAt(start),
			ElementType: "text",
		})
		index++

		if end == len(text) {
			break
		}
	}

	return chunks, nil
}

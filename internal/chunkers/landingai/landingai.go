// Package landingai implements chunking through the Landing AI document
// parsing service. Each structured block the service returns (text,
// markdown table, figure caption) becomes one chunk tagged with its
// element type.
//
// This variant is best effort: the service may reorder or summarise
// content, so its chunks do not partition the source text.
package landingai

import (
	"context"
	"fmt"
	"strings"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// keptTypes are the block kinds worth indexing. Everything else
// (headers, footers, page numbers) is discarded.
var keptTypes = map[string]bool{
	"text":   true,
	"table":  true,
	"figure": true,
}

// Chunker delegates parsing to an external document-parsing service.
type Chunker struct {
	parser driven.DocumentParser
}

// New creates a landingai chunker backed by the given parser.
func New(parser driven.DocumentParser) *Chunker {
	return &Chunker{parser: parser}
}

// Name returns the strategy this chunker implements.
func (c *Chunker) Name() domain.ChunkingStrategy {
	return domain.StrategyLandingAI
}

// Chunk parses the document's source file and converts the returned
// blocks into chunks. Parser unavailability surfaces as
// domain.ErrExternalService; other strategies are unaffected.
func (c *Chunker) Chunk(ctx context.Context, doc domain.Document, cfg domain.ChunkingConfig) ([]domain.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if c.parser == nil {
		return nil, fmt.Errorf("%w: no document parser configured", domain.ErrExternalService)
	}

	blocks, err := c.parser.Parse(ctx, doc.SourceFile)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", doc.SourceFile, err)
	}

	chunks := make([]domain.Chunk, 0, len(blocks))
	index := 0
	for _, block := range blocks {
		if !keptTypes[block.Type] {
			continue
		}
		text := cleanMarkdown(block.Text)
		if text == "" {
			continue
		}

		chunks = append(chunks, domain.Chunk{
			ID:          domain.ChunkID(doc.ID, index),
			DocumentID:  doc.ID,
			Text:        text,
			OrderIndex:  index,
			PageNumber:  block.PageNumber,
			ElementType: block.Type,
			Metadata:    map[string]any{"element_type": block.Type},
		})
		index++
	}

	return chunks, nil
}

// cleanMarkdown strips HTML comment annotations the parsing service
// embeds in its markdown output.
func cleanMarkdown(text string) string {
	for {
		start := strings.Index(text, "<!--")
		if start < 0 {
			break
		}
		end := strings.Index(text[start:], "-->")
		if end < 0 {
			text = text[:start]
			break
		}
		text = text[:start] + text[start+end+len("-->"):]
	}
	return strings.TrimSpace(text)
}

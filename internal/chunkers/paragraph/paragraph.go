// Package paragraph implements blank-line chunking: the document is
// split at blank-line boundaries, consecutive short paragraphs are
// merged forward until a minimum size is met, and oversize paragraphs
// are split at sentence boundaries.
package paragraph

import (
	"context"
	"regexp"
	"strings"

	"github.com/manualhq/manualqa-cli/internal/chunkers/sentence"
	"github.com/manualhq/manualqa-cli/internal/core/domain"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// blankLine matches a blank-line run, the paragraph boundary.
var blankLine = regexp.MustCompile(`\n[ \t\r]*\n[\s]*`)

// Chunker splits on blank-line boundaries.
type Chunker struct{}

// New creates a paragraph chunker.
func New() *Chunker {
	return &Chunker{}
}

// Name returns the strategy this chunker implements.
func (c *Chunker) Name() domain.ChunkingStrategy {
	return domain.StrategyParagraph
}

// Chunk splits the document at blank lines. Each boundary run stays
// attached to the paragraph before it, so concatenating the chunk texts
// reconstructs the document exactly. Paragraphs whose visible content is
// below MinParagraphSize are merged forward until the minimum is met or
// the input is exhausted; a whitespace-only remnant at the end is folded
// into the last chunk. Paragraphs longer than MaxChunkSize are split at
// sentence boundaries, each piece packed as full as the limit allows; a
// single sentence over the limit stays whole.
func (c *Chunker) Chunk(_ context.Context, doc domain.Document, cfg domain.ChunkingConfig) ([]domain.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	text := doc.Text()
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	segments := splitParagraphs(text)
	merged := mergeForward(segments, cfg.MinParagraphSize)

	var sized []string
	for _, seg := range merged {
		sized = append(sized, splitOversize(seg, cfg.MaxChunkSize)...)
	}

	chunks := make([]domain.Chunk, 0, len(sized))
	offset := 0
	for i, seg := range sized {
		chunks = append(chunks, domain.Chunk{
			ID:          domain.ChunkID(doc.ID, i),
			DocumentID:  doc.ID,
			Text:        seg,
			OrderIndex:  i,
			PageNumber:  doc.PageAt(offset),
			ElementType: "text",
		})
		offset += len(seg)
	}

	return chunks, nil
}

// splitParagraphs cuts text after every blank-line run. The run is kept
// with the preceding segment; segment concatenation equals the input.
func splitParagraphs(text string) []string {
	bounds := blankLine.FindAllStringIndex(text, -1)
	if len(bounds) == 0 {
		return []string{text}
	}

	var segments []string
	prev := 0
	for _, b := range bounds {
		segments = append(segments, text[prev:b[1]])
		prev = b[1]
	}
	if prev < len(text) {
		segments = append(segments, text[prev:])
	}
	return segments
}

// splitOversize breaks a segment exceeding maxSize into pieces cut at
// sentence boundaries. Sentences are packed greedily up to maxSize; a
// lone sentence over the limit is emitted whole. Cuts keep trailing
// whitespace with the preceding piece, so concatenation of the pieces
// equals the input.
func splitOversize(seg string, maxSize int) []string {
	if len(seg) <= maxSize {
		return []string{seg}
	}

	cuts := sentence.Cuts(seg)
	if len(cuts) == 0 {
		return []string{seg}
	}

	var pieces []string
	start := 0
	lastCut := 0
	for _, cut := range cuts {
		if cut-start > maxSize && lastCut > start {
			pieces = append(pieces, seg[start:lastCut])
			start = lastCut
		}
		lastCut = cut
	}
	if len(seg)-start > maxSize && lastCut > start {
		pieces = append(pieces, seg[start:lastCut])
		start = lastCut
	}
	pieces = append(pieces, seg[start:])
	return pieces
}

// mergeForward joins consecutive segments until the visible (trimmed)
// content reaches minSize.
func mergeForward(segments []string, minSize int) []string {
	var out []string
	var current strings.Builder
	visible := 0

	for _, seg := range segments {
		current.WriteString(seg)
		visible += len(strings.TrimSpace(seg))
		if visible >= minSize {
			out = append(out, current.String())
			current.Reset()
			visible = 0
		}
	}

	if current.Len() > 0 {
		remnant := current.String()
		if strings.TrimSpace(remnant) == "" && len(out) > 0 {
			out[len(out)-1] += remnant
		} else {
			out = append(out, remnant)
		}
	}

	return out
}

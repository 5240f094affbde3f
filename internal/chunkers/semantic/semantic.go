// Package semantic implements similarity-driven chunking: sentences are
// grouped while the cosine similarity between the chunk's running
// centroid and the next sentence stays above the configured threshold.
package semantic

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/manualhq/manualqa-cli/internal/chunkers/sentence"
	"github.com/manualhq/manualqa-cli/internal/core/domain"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// Chunker groups sentences by embedding similarity.
type Chunker struct {
	embedder driven.EmbeddingService
}

// New creates a semantic chunker backed by the given embedding service.
func New(embedder driven.EmbeddingService) *Chunker {
	return &Chunker{embedder: embedder}
}

// Name returns the strategy this chunker implements.
func (c *Chunker) Name() domain.ChunkingStrategy {
	return domain.StrategySemantic
}

// Chunk sentence-segments each page, embeds the sentences in one batch,
// and grows a chunk while the similarity between the running centroid and
// the next sentence stays >= the threshold AND the projected chunk length
// stays within MaxChunkSize. A drop below threshold, or hitting the size
// bound, closes the chunk. Every chunk contains at least one sentence,
// so progress is guaranteed even on pathologically similar text.
func (c *Chunker) Chunk(ctx context.Context, doc domain.Document, cfg domain.ChunkingConfig) ([]domain.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if c.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	var chunks []domain.Chunk
	index := 0

	for _, page := range doc.Pages {
		sentences := sentence.Split(page.Text)
		if len(sentences) == 0 {
			continue
		}

		pageChunks, err := c.chunkSentences(ctx, sentences, cfg)
		if err != nil {
			return nil, fmt.Errorf("semantic chunking page %d: %w", page.Number, err)
		}

		for _, text := range pageChunks {
			chunks = append(chunks, domain.Chunk{
				ID:          domain.ChunkID(doc.ID, index),
				DocumentID:  doc.ID,
				Text:        text,
				OrderIndex:  index,
				PageNumber:  page.Number,
				ElementType: "text",
			})
			index++
		}
	}

	return chunks, nil
}

// chunkSentences groups one page's sentences into chunk texts.
func (c *Chunker) chunkSentences(ctx context.Context, sentences []string, cfg domain.ChunkingConfig) ([]string, error) {
	if len(sentences) == 1 {
		return []string{sentences[0]}, nil
	}

	embeddings, err := c.embedder.EmbedBatch(ctx, sentences)
	if err != nil {
		return nil, fmt.Errorf("embed sentences: %w", err)
	}
	if len(embeddings) != len(sentences) {
		return nil, fmt.Errorf("embed sentences: got %d embeddings for %d sentences",
			len(embeddings), len(sentences))
	}

	var chunks []string
	current := []string{sentences[0]}
	centroid := clone(embeddings[0])

	for i := 1; i < len(sentences); i++ {
		similarity := CosineSimilarity(centroid, embeddings[i])
		projected := joinedLen(current) + 1 + len(sentences[i])

		if similarity >= cfg.SimilarityThreshold && projected <= cfg.MaxChunkSize {
			current = append(current, sentences[i])
			centroid = mean(centroid, embeddings[i])
			continue
		}

		chunks = append(chunks, strings.Join(current, " "))
		current = []string{sentences[i]}
		centroid = clone(embeddings[i])
	}

	chunks = append(chunks, strings.Join(current, " "))
	return chunks, nil
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for mismatched or zero-magnitude vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// mean averages the running centroid with the newly appended sentence,
// matching the incremental centroid the similarity test was run against.
func mean(a, b []float32) []float32 {
	out := make([]float32, len(a))
	for i := range a {
		out[i] = (a[i] + b[i]) / 2
	}
	return out
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

func joinedLen(parts []string) int {
	n := 0
	for i, p := range parts {
		if i > 0 {
			n++
		}
		n += len(p)
	}
	return n
}

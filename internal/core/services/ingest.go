package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/manualhq/manualqa-cli/internal/chunkers"
	"github.com/manualhq/manualqa-cli/internal/core/domain"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driven"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driving"
	"github.com/manualhq/manualqa-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService chunks, embeds and indexes manual documents.
type IngestService struct {
	registry *chunkers.Registry
	embedder driven.EmbeddingService
	store    driven.SearchStore
}

// NewIngestService creates an ingestor.
func NewIngestService(registry *chunkers.Registry, embedder driven.EmbeddingService, store driven.SearchStore) *IngestService {
	return &IngestService{
		registry: registry,
		embedder: embedder,
		store:    store,
	}
}

// Ingest chunks the document under cfg.Strategy and indexes the result
// in that strategy's collection. Chunk IDs are deterministic, so
// re-ingesting the same document replaces rather than duplicates.
// Returns the number of chunks indexed.
func (s *IngestService) Ingest(ctx context.Context, doc domain.Document, cfg domain.ChunkingConfig) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if doc.ID == "" {
		return 0, fmt.Errorf("%w: document missing id", domain.ErrInvalidConfig)
	}
	if doc.VehicleModel == "" {
		return 0, fmt.Errorf("%w: document %s missing vehicle model", domain.ErrInvalidConfig, doc.ID)
	}

	chunker, err := s.registry.Get(cfg.Strategy)
	if err != nil {
		return 0, err
	}

	logger.Section("Ingestion")
	logger.Info("Ingesting %s (%s) with strategy %s", doc.ID, doc.VehicleModel, cfg.Strategy)

	if err := s.store.EnsureCollection(ctx, cfg.Strategy); err != nil {
		return 0, fmt.Errorf("ensure collection %s: %w", cfg.Strategy, err)
	}

	chunks, err := chunker.Chunk(ctx, doc, cfg)
	if err != nil {
		return 0, fmt.Errorf("chunk document %s: %w", doc.ID, err)
	}
	logger.Debug("Chunked into %d chunks", len(chunks))

	chunks = dropShortChunks(chunks, cfg.Strategy)
	if len(chunks) == 0 {
		logger.Warn("Document %s produced no indexable chunks", doc.ID)
		return 0, nil
	}

	// Stamp document-level metadata; the store's partition filter
	// depends on vehicle_model being present on every chunk.
	for i := range chunks {
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = make(map[string]any, 2)
		}
		chunks[i].Metadata["vehicle_model"] = doc.VehicleModel
		chunks[i].Metadata["source_file"] = doc.SourceFile
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: %d chunks, %d vectors",
			len(chunks), len(embeddings))
	}

	if err := s.store.Insert(ctx, cfg.Strategy, chunks, embeddings); err != nil {
		return 0, fmt.Errorf("insert %d chunks: %w", len(chunks), err)
	}

	logger.Info("Indexed %d chunks for %s", len(chunks), doc.ID)
	return len(chunks), nil
}

// dropShortChunks removes fragments too short to be worth indexing
// (page numbers, stray headings). The landingai strategy is exempt:
// its blocks are already structural units.
func dropShortChunks(chunks []domain.Chunk, strategy domain.ChunkingStrategy) []domain.Chunk {
	if strategy == domain.StrategyLandingAI {
		return chunks
	}
	kept := chunks[:0]
	for _, c := range chunks {
		if len(strings.TrimSpace(c.Text)) >= domain.MinIndexableChunkLen {
			kept = append(kept, c)
		}
	}
	return kept
}

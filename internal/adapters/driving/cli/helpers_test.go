package cli

import (
	"context"
	"strings"

	"github.com/manualhq/manualqa-cli/internal/adapters/driven/results/memory"
	"github.com/manualhq/manualqa-cli/internal/chunkers"
	"github.com/manualhq/manualqa-cli/internal/core/domain"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driven"
)

// setupTestServices swaps the package-level services for fakes and
// returns a cleanup that restores the previous wiring.
func setupTestServices() func() {
	oldRewriter := rewriterService
	oldRetriever := retrievalService
	oldGenerator := generatorService
	oldIngestor := ingestService
	oldEvaluator := evaluatorService
	oldResults := resultStore
	oldRegistry := chunkerRegistry

	rewriterService = &fakeRewriter{}
	retrievalService = &fakeRetriever{passages: []domain.ContextPassage{
		{ChunkID: "c1", Text: "Inflate the tyres to 33 PSI when cold.", Score: 0.91, Rank: 1, PageNumber: 112, SourceFile: "mg_astor.txt"},
		{ChunkID: "c2", Text: "Check pressures monthly.", Score: 0.64, Rank: 2, PageNumber: 113, SourceFile: "mg_astor.txt"},
	}}
	generatorService = &fakeGenerator{answer: "Inflate the tyres to 33 PSI when cold. [Page 112]"}
	ingestService = &fakeIngestor{count: 42}
	evaluatorService = &fakeEvaluator{}
	resultStore = memory.NewStore()

	registry := chunkers.NewRegistry()
	registry.Register(fakeChunker{strategy: domain.StrategyBasicRecursive})
	registry.Register(fakeChunker{strategy: domain.StrategySemantic})
	chunkerRegistry = registry

	return func() {
		rewriterService = oldRewriter
		retrievalService = oldRetriever
		generatorService = oldGenerator
		ingestService = oldIngestor
		evaluatorService = oldEvaluator
		resultStore = oldResults
		chunkerRegistry = oldRegistry
	}
}

type fakeRewriter struct {
	calls int
}

func (f *fakeRewriter) Rewrite(_ context.Context, query domain.Query) (domain.RewrittenQuery, error) {
	f.calls++
	rewritten := domain.RewrittenQuery{CanonicalText: query.Raw, Confidence: 1.0}
	if strings.Contains(strings.ToLower(query.Raw), "astor") {
		rewritten.ExtractedModel = "MG_Astor"
	}
	return rewritten, nil
}

type fakeRetriever struct {
	passages []domain.ContextPassage
	err      error
	lastCfg  domain.RetrievalConfig
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ domain.RewrittenQuery, cfg domain.RetrievalConfig) ([]domain.ContextPassage, error) {
	f.lastCfg = cfg
	if f.err != nil {
		return nil, f.err
	}
	if cfg.TopK < len(f.passages) {
		return f.passages[:cfg.TopK], nil
	}
	return f.passages, nil
}

type fakeGenerator struct {
	answer string
	err    error
}

func (f *fakeGenerator) Answer(_ context.Context, _ domain.RewrittenQuery, _ []domain.ContextPassage) (string, error) {
	return f.answer, f.err
}

type fakeIngestor struct {
	count   int
	err     error
	calls   int
	lastDoc domain.Document
}

func (f *fakeIngestor) Ingest(_ context.Context, doc domain.Document, _ domain.ChunkingConfig) (int, error) {
	f.calls++
	f.lastDoc = doc
	return f.count, f.err
}

type fakeEvaluator struct {
	err error
}

func (f *fakeEvaluator) Run(_ context.Context, _ []domain.GroundTruthItem, configs []domain.EvalConfig) (map[string]*domain.EvaluationRun, error) {
	runs := make(map[string]*domain.EvaluationRun, len(configs))
	for _, cfg := range configs {
		runs[cfg.Key()] = &domain.EvaluationRun{
			ID:     "run-" + cfg.Key(),
			Config: cfg,
			Status: domain.RunCompleted,
			Metrics: domain.Metrics{
				Retriever:      domain.RetrieverMetrics{HitRate: 1, Recall: 0.8, Precision: 0.4, MRR: 0.9},
				Composite:      0.72,
				ItemsEvaluated: 2,
			},
		}
	}
	return runs, f.err
}

type fakeChunker struct {
	strategy domain.ChunkingStrategy
}

func (f fakeChunker) Name() domain.ChunkingStrategy {
	return f.strategy
}

func (f fakeChunker) Chunk(_ context.Context, doc domain.Document, _ domain.ChunkingConfig) ([]domain.Chunk, error) {
	return []domain.Chunk{{ID: doc.ID + "-0", Text: doc.Text()}}, nil
}

var _ driven.Chunker = fakeChunker{}

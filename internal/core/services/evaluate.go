package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driven"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driving"
	"github.com/manualhq/manualqa-cli/internal/logger"
)

// Ensure EvaluationService implements the interface.
var _ driving.Evaluator = (*EvaluationService)(nil)

// Evaluation defaults.
const (
	defaultConfigWorkers = 2
	defaultItemWorkers   = 4
	defaultRateLimit     = 5 // pipeline starts per second, shared across configs
)

// EvaluationService runs the ground-truth set across a configuration
// matrix. Each config is one EvaluationRun with a pending -> running ->
// completed|failed lifecycle, persisted at terminal states only.
type EvaluationService struct {
	rewriter  driving.Rewriter
	retriever driving.Retriever
	generator driving.Generator
	judge     driven.LLMService
	prompts   driven.PromptStore
	results   driven.ResultStore

	limiter       *rate.Limiter
	configWorkers int
	itemWorkers   int
	judgeOpts     driven.CompleteOptions
}

// EvaluationOption configures an EvaluationService.
type EvaluationOption func(*EvaluationService)

// WithConfigWorkers bounds how many configs run concurrently.
func WithConfigWorkers(n int) EvaluationOption {
	return func(s *EvaluationService) {
		if n > 0 {
			s.configWorkers = n
		}
	}
}

// WithItemWorkers bounds the per-config item fan-out.
func WithItemWorkers(n int) EvaluationOption {
	return func(s *EvaluationService) {
		if n > 0 {
			s.itemWorkers = n
		}
	}
}

// WithRateLimit caps pipeline starts per second across all configs.
func WithRateLimit(perSecond float64) EvaluationOption {
	return func(s *EvaluationService) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), int(perSecond)+1)
		}
	}
}

// NewEvaluationService creates an evaluation harness.
func NewEvaluationService(
	rewriter driving.Rewriter,
	retriever driving.Retriever,
	generator driving.Generator,
	judge driven.LLMService,
	prompts driven.PromptStore,
	results driven.ResultStore,
	opts ...EvaluationOption,
) *EvaluationService {
	s := &EvaluationService{
		rewriter:      rewriter,
		retriever:     retriever,
		generator:     generator,
		judge:         judge,
		prompts:       prompts,
		results:       results,
		limiter:       rate.NewLimiter(defaultRateLimit, defaultRateLimit+1),
		configWorkers: defaultConfigWorkers,
		itemWorkers:   defaultItemWorkers,
		judgeOpts: driven.CompleteOptions{
			MaxTokens:   16,
			Temperature: 0,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes every config against the items and returns the runs
// keyed by EvalConfig.Key(). Configs with a completed artifact are
// skipped without any external call. Per-item failures are recorded in
// the run, not returned; the error aggregates config-level failures
// (persistence, cancellation) and invalid inputs.
func (s *EvaluationService) Run(ctx context.Context, items []domain.GroundTruthItem, configs []domain.EvalConfig) (map[string]*domain.EvaluationRun, error) {
	// Validate everything before the first external call.
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no ground-truth items", domain.ErrInvalidConfig)
	}

	logger.Section("Evaluation")
	logger.Info("Evaluating %d configs over %d items (%d config workers)",
		len(configs), len(items), s.configWorkers)

	runs := make(map[string]*domain.EvaluationRun, len(configs))
	var runErrs []error
	var mu sync.Mutex

	sem := make(chan struct{}, s.configWorkers)
	var wg sync.WaitGroup
	for _, cfg := range configs {
		wg.Add(1)
		sem <- struct{}{}
		go func(cfg domain.EvalConfig) {
			defer wg.Done()
			defer func() { <-sem }()

			run, err := s.runConfig(ctx, cfg, items)
			mu.Lock()
			defer mu.Unlock()
			runs[cfg.Key()] = run
			if err != nil {
				runErrs = append(runErrs, fmt.Errorf("config %s: %w", cfg.Key(), err))
			}
		}(cfg)
	}
	wg.Wait()

	return runs, errors.Join(runErrs...)
}

// runConfig evaluates one matrix cell, reusing a completed artifact
// when one exists for the exact config key.
func (s *EvaluationService) runConfig(ctx context.Context, cfg domain.EvalConfig, items []domain.GroundTruthItem) (*domain.EvaluationRun, error) {
	key := cfg.Key()

	existing, err := s.results.Get(ctx, key)
	switch {
	case err == nil && existing.Status == domain.RunCompleted:
		logger.Info("Config %s: completed artifact found, skipping", key)
		return existing, nil
	case err == nil:
		logger.Info("Config %s: previous run %s, re-running", key, existing.Status)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("load artifact: %w", err)
	}

	run := &domain.EvaluationRun{
		ID:        uuid.NewString(),
		Config:    cfg,
		Status:    domain.RunRunning,
		StartedAt: time.Now().UTC(),
	}
	logger.Info("Config %s: running %d items", key, len(items))

	outcomes, failures := s.evaluateItems(ctx, cfg, items)

	if ctx.Err() != nil {
		run.Status = domain.RunFailed
		run.Error = fmt.Sprintf("%v: %v", domain.ErrRunCancelled, ctx.Err())
		run.Failures = failures
		run.CompletedAt = time.Now().UTC()
		if perr := s.persist(ctx, run); perr != nil {
			return run, perr
		}
		return run, fmt.Errorf("%w: %v", domain.ErrRunCancelled, ctx.Err())
	}

	run.Status = domain.RunCompleted
	run.Failures = failures
	for _, o := range outcomes {
		run.Items = append(run.Items, o.result)
	}
	run.Metrics = aggregate(outcomes, len(failures))
	run.CompletedAt = time.Now().UTC()
	logger.Info("Config %s: composite=%.4f from %d items (%d failed)",
		key, run.Metrics.Composite, run.Metrics.ItemsEvaluated, run.Metrics.ItemsFailed)

	if err := s.persist(ctx, run); err != nil {
		return run, err
	}
	return run, nil
}

// persist writes a terminal run, surviving caller cancellation so a
// failed run still leaves an artifact.
func (s *EvaluationService) persist(ctx context.Context, run *domain.EvaluationRun) error {
	if err := s.results.Put(context.WithoutCancel(ctx), run); err != nil {
		return fmt.Errorf("persist run %s: %w", run.Config.Key(), err)
	}
	return nil
}

// itemOutcome carries one item's persisted record plus the aggregates
// that are not stored per item.
type itemOutcome struct {
	result   domain.ItemResult
	hit      bool
	ndcg     float64
	ap       float64
	coverage float64
	hasFacts bool
}

// evaluateItems fans the items out under the item-worker bound.
// Failed items are recorded and excluded; order follows the input.
func (s *EvaluationService) evaluateItems(ctx context.Context, cfg domain.EvalConfig, items []domain.GroundTruthItem) ([]itemOutcome, []domain.ItemFailure) {
	outcomes := make([]*itemOutcome, len(items))
	failures := make([]*domain.ItemFailure, len(items))

	sem := make(chan struct{}, s.itemWorkers)
	var wg sync.WaitGroup
	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item domain.GroundTruthItem) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome, stage, err := s.evaluateItem(ctx, cfg, item)
			if err != nil {
				logger.Warn("Item %s failed at %s: %v", item.ID, stage, err)
				failures[i] = &domain.ItemFailure{
					ItemID: item.ID,
					Stage:  stage,
					Reason: err.Error(),
				}
				return
			}
			outcomes[i] = outcome
		}(i, item)
	}
	wg.Wait()

	var okOutcomes []itemOutcome
	var failed []domain.ItemFailure
	for i := range items {
		if outcomes[i] != nil {
			okOutcomes = append(okOutcomes, *outcomes[i])
		}
		if failures[i] != nil {
			failed = append(failed, *failures[i])
		}
	}
	return okOutcomes, failed
}

// evaluateItem runs the full pipeline for one ground-truth item.
// stage names where a failure happened ("rewrite", "retrieve",
// "generate", "judge").
func (s *EvaluationService) evaluateItem(ctx context.Context, cfg domain.EvalConfig, item domain.GroundTruthItem) (*itemOutcome, string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, "rewrite", fmt.Errorf("rate limit wait: %w", err)
	}
	start := time.Now()

	rq, err := s.rewriter.Rewrite(ctx, domain.Query{Raw: item.Query})
	if err != nil {
		return nil, "rewrite", err
	}

	passages, err := s.retriever.Retrieve(ctx, rq, cfg.Retrieval())
	if err != nil {
		return nil, "retrieve", err
	}
	retrieved := make([]string, len(passages))
	for i, p := range passages {
		retrieved[i] = p.ChunkID
	}

	answer, err := s.generator.Answer(ctx, rq, passages)
	if err != nil {
		return nil, "generate", err
	}

	relevance, err := s.judgeRelevance(ctx, item.Query, answer)
	if err != nil {
		return nil, "judge", err
	}
	faithfulness, err := s.judgeFaithfulness(ctx, ContextBlock(passages), item.ReferenceAnswer, answer)
	if err != nil {
		return nil, "judge", err
	}

	latency := float64(time.Since(start).Milliseconds())
	recall := recallAtK(retrieved, item.RelevantChunkIDs)
	precision := precisionAtK(retrieved, item.RelevantChunkIDs)
	rr := reciprocalRank(retrieved, item.RelevantChunkIDs)

	return &itemOutcome{
		result: domain.ItemResult{
			ItemID:          item.ID,
			Query:           item.Query,
			RewrittenQuery:  rq.CanonicalText,
			ExtractedModel:  rq.ExtractedModel,
			RetrievedChunks: retrieved,
			GeneratedAnswer: answer,
			Recall:          recall,
			Precision:       precision,
			ReciprocalRank:  rr,
			Relevance:       relevance,
			Faithfulness:    faithfulness,
			LatencyMS:       latency,
		},
		hit:      rr > 0,
		ndcg:     ndcgAtK(retrieved, item.RelevantChunkIDs),
		ap:       averagePrecision(retrieved, item.RelevantChunkIDs),
		coverage: keyFactCoverage(answer, item.KeyFacts),
		hasFacts: len(item.KeyFacts) > 0,
	}, "", nil
}

// judgeRelevance scores how well the answer addresses the query, 1-5.
func (s *EvaluationService) judgeRelevance(ctx context.Context, query, answer string) (float64, error) {
	tmpl, err := s.prompts.Load(driven.PromptJudgeRelevance)
	if err != nil {
		return 0, fmt.Errorf("load prompt %s: %w", driven.PromptJudgeRelevance, err)
	}
	reply, err := s.judge.Complete(ctx, fmt.Sprintf(tmpl, query, answer), s.judgeOpts)
	if err != nil {
		return 0, fmt.Errorf("judge relevance: %w", err)
	}
	return parseJudgeScore(reply)
}

// judgeFaithfulness scores how grounded the answer is in the context, 1-5.
func (s *EvaluationService) judgeFaithfulness(ctx context.Context, contextBlock, reference, answer string) (float64, error) {
	tmpl, err := s.prompts.Load(driven.PromptJudgeFaithfulness)
	if err != nil {
		return 0, fmt.Errorf("load prompt %s: %w", driven.PromptJudgeFaithfulness, err)
	}
	reply, err := s.judge.Complete(ctx, fmt.Sprintf(tmpl, contextBlock, reference, answer), s.judgeOpts)
	if err != nil {
		return 0, fmt.Errorf("judge faithfulness: %w", err)
	}
	return parseJudgeScore(reply)
}

var firstInteger = regexp.MustCompile(`\d+`)

// parseJudgeScore extracts the first integer in the reply and requires
// it to be on the 1-5 rubric.
func parseJudgeScore(reply string) (float64, error) {
	match := firstInteger.FindString(reply)
	if match == "" {
		return 0, fmt.Errorf("judge reply has no score: %q", reply)
	}
	score, err := strconv.Atoi(match)
	if err != nil || score < 1 || score > 5 {
		return 0, fmt.Errorf("judge score %q out of 1-5 range", match)
	}
	return float64(score), nil
}

// keyFactCoverage is the fraction of key facts present in the answer,
// matched case-insensitively.
func keyFactCoverage(answer string, facts []string) float64 {
	if len(facts) == 0 {
		return 0
	}
	lower := strings.ToLower(answer)
	found := 0
	for _, f := range facts {
		if strings.Contains(lower, strings.ToLower(strings.TrimSpace(f))) {
			found++
		}
	}
	return float64(found) / float64(len(facts))
}

// aggregate folds per-item outcomes into config metrics. Failed items
// are excluded from every denominator.
func aggregate(outcomes []itemOutcome, failed int) domain.Metrics {
	m := domain.Metrics{
		ItemsEvaluated: len(outcomes),
		ItemsFailed:    failed,
	}
	if len(outcomes) == 0 {
		return m
	}

	n := float64(len(outcomes))
	hits := 0
	withFacts := 0
	for _, o := range outcomes {
		if o.hit {
			hits++
		}
		m.Retriever.Recall += o.result.Recall / n
		m.Retriever.Precision += o.result.Precision / n
		m.Retriever.MRR += o.result.ReciprocalRank / n
		m.Retriever.NDCG += o.ndcg / n
		m.Retriever.MAP += o.ap / n
		m.Generator.Relevance += o.result.Relevance / n
		m.Generator.Faithfulness += o.result.Faithfulness / n
		m.MeanLatencyMS += o.result.LatencyMS / n
		if o.hasFacts {
			withFacts++
			m.Generator.KeyFactCoverage += o.coverage
		}
	}
	m.Retriever.HitRate = float64(hits) / n
	if withFacts > 0 {
		m.Generator.KeyFactCoverage /= float64(withFacts)
	}
	m.Composite = compositeScore(m.Retriever, m.Generator)
	return m
}

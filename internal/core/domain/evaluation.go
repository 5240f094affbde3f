package domain

import (
	"fmt"
	"time"
)

// GroundTruthItem is one curated query with known-relevant chunks.
// Immutable input, loaded once per evaluation run.
type GroundTruthItem struct {
	// ID identifies the item in artifacts and failure records.
	ID string `json:"id"`

	// Query is the natural-language question.
	Query string `json:"query"`

	// VehicleModel is the model the question is about, when known.
	VehicleModel string `json:"vehicle_model,omitempty"`

	// RelevantChunkIDs are the chunk IDs a perfect retriever would return.
	RelevantChunkIDs []string `json:"relevant_chunk_ids"`

	// ReferenceAnswer is the expected answer used by the judge.
	ReferenceAnswer string `json:"reference_answer"`

	// KeyFacts are short strings the generated answer should contain.
	KeyFacts []string `json:"key_facts,omitempty"`
}

// Validate checks the ground-truth schema at load time.
func (g GroundTruthItem) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("%w: ground-truth item missing id", ErrInvalidConfig)
	}
	if g.Query == "" {
		return fmt.Errorf("%w: ground-truth item %s missing query", ErrInvalidConfig, g.ID)
	}
	if len(g.RelevantChunkIDs) == 0 {
		return fmt.Errorf("%w: ground-truth item %s has no relevant_chunk_ids", ErrInvalidConfig, g.ID)
	}
	if g.ReferenceAnswer == "" {
		return fmt.Errorf("%w: ground-truth item %s missing reference_answer", ErrInvalidConfig, g.ID)
	}
	return nil
}

// EvalConfig is one cell of the evaluation configuration matrix.
type EvalConfig struct {
	// Strategy selects the chunk collection under test.
	Strategy ChunkingStrategy `json:"strategy"`

	// TopK is the retrieval depth under test.
	TopK int `json:"top_k"`

	// SearchType is the retrieval channel under test.
	SearchType SearchType `json:"search_type"`

	// Threshold is the similarity threshold under test.
	Threshold float64 `json:"threshold"`
}

// Key returns the stable artifact key for this config.
// Re-running with the same key is idempotent.
func (c EvalConfig) Key() string {
	return fmt.Sprintf("%s_top%d_%s_t%.2f", c.Strategy, c.TopK, c.SearchType, c.Threshold)
}

// Retrieval converts the cell into a retrieval configuration.
func (c EvalConfig) Retrieval() RetrievalConfig {
	return RetrievalConfig{
		TopK:       c.TopK,
		SearchType: c.SearchType,
		Strategy:   c.Strategy,
		Threshold:  c.Threshold,
	}
}

// Validate checks the cell before any external call.
func (c EvalConfig) Validate() error {
	return c.Retrieval().Validate()
}

// RunStatus is the lifecycle state of one EvaluationRun.
type RunStatus string

// Run lifecycle: pending -> running -> {completed, failed}.
// Terminal states are final.
const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Terminal reports whether the status is final.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed
}

// RetrieverMetrics scores retrieval quality against relevant chunk IDs.
type RetrieverMetrics struct {
	// HitRate is the fraction of items with at least one relevant chunk
	// in the top k.
	HitRate float64 `json:"hit_rate"`

	// Recall is mean recall@k.
	Recall float64 `json:"recall"`

	// Precision is mean precision@k.
	Precision float64 `json:"precision"`

	// MRR is the mean reciprocal rank of the first relevant chunk.
	MRR float64 `json:"mrr"`

	// NDCG is mean normalised discounted cumulative gain at k.
	NDCG float64 `json:"ndcg"`

	// MAP is mean average precision at k.
	MAP float64 `json:"map"`
}

// GeneratorMetrics scores answer quality on a 1-5 judge rubric.
type GeneratorMetrics struct {
	// Relevance is the mean judge score for answer relevance (1-5).
	Relevance float64 `json:"relevance"`

	// Faithfulness is the mean judge score for grounding in the
	// retrieved context (1-5).
	Faithfulness float64 `json:"faithfulness"`

	// KeyFactCoverage is the mean fraction of key facts present in the
	// generated answer.
	KeyFactCoverage float64 `json:"key_fact_coverage"`
}

// Metrics is the full per-config metric breakdown.
type Metrics struct {
	Retriever RetrieverMetrics `json:"retriever"`
	Generator GeneratorMetrics `json:"generator"`

	// Composite is the fixed-weight end-to-end score in [0,1]:
	// 0.5 * mean(recall, precision, mrr) + 0.5 * mean of the two judge
	// scores normalised to [0,1] via (score-1)/4.
	Composite float64 `json:"composite"`

	// MeanLatencyMS is the mean per-item pipeline latency.
	MeanLatencyMS float64 `json:"mean_latency_ms"`

	// ItemsEvaluated is the aggregation denominator.
	ItemsEvaluated int `json:"items_evaluated"`

	// ItemsFailed counts items excluded from aggregation.
	ItemsFailed int `json:"items_failed"`
}

// ItemFailure records one ground-truth item that failed mid-batch.
// Failures are excluded from metric denominators; the batch continues.
type ItemFailure struct {
	// ItemID is the failing ground-truth item.
	ItemID string `json:"item_id"`

	// Stage names the pipeline stage that failed
	// ("rewrite", "retrieve", "generate", "judge").
	Stage string `json:"stage"`

	// Reason is the wrapped error text.
	Reason string `json:"reason"`
}

// ItemResult is the persisted per-item record inside an artifact.
type ItemResult struct {
	ItemID          string   `json:"item_id"`
	Query           string   `json:"query"`
	RewrittenQuery  string   `json:"rewritten_query"`
	ExtractedModel  string   `json:"extracted_model,omitempty"`
	RetrievedChunks []string `json:"retrieved_chunks"`
	GeneratedAnswer string   `json:"generated_answer,omitempty"`
	Recall          float64  `json:"recall"`
	Precision       float64  `json:"precision"`
	ReciprocalRank  float64  `json:"reciprocal_rank"`
	Relevance       float64  `json:"relevance,omitempty"`
	Faithfulness    float64  `json:"faithfulness,omitempty"`
	LatencyMS       float64  `json:"latency_ms"`
}

// EvaluationRun is one configuration's execution record.
// Owned exclusively by the evaluation harness; persisted on completion
// or failure; never mutated after reaching a terminal state.
type EvaluationRun struct {
	// ID is unique per execution attempt.
	ID string `json:"id"`

	// Config is the matrix cell this run evaluated.
	Config EvalConfig `json:"config"`

	// Status is the lifecycle state.
	Status RunStatus `json:"status"`

	// Metrics is populated for completed runs.
	Metrics Metrics `json:"metrics"`

	// Items holds the per-item records for completed runs.
	Items []ItemResult `json:"items,omitempty"`

	// Failures records items excluded from aggregation.
	Failures []ItemFailure `json:"failures,omitempty"`

	// Error is set for failed runs.
	Error string `json:"error,omitempty"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

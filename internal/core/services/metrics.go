package services

import (
	"math"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
)

// Retrieval metrics are pure functions on chunk-ID membership. The
// retrieved list is assumed rank ordered, best first, and already
// truncated to k; relevance is binary.

// idSet builds a membership set from relevant chunk IDs.
func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// recallAtK is the fraction of relevant chunks that were retrieved.
func recallAtK(retrieved, relevant []string) float64 {
	if len(relevant) == 0 {
		return 0
	}
	rel := idSet(relevant)
	found := 0
	for _, id := range retrieved {
		if rel[id] {
			found++
			delete(rel, id)
		}
	}
	return float64(found) / float64(len(relevant))
}

// precisionAtK is the fraction of retrieved chunks that are relevant.
func precisionAtK(retrieved, relevant []string) float64 {
	if len(retrieved) == 0 {
		return 0
	}
	rel := idSet(relevant)
	found := 0
	for _, id := range retrieved {
		if rel[id] {
			found++
			delete(rel, id)
		}
	}
	return float64(found) / float64(len(retrieved))
}

// reciprocalRank is 1/rank of the first relevant chunk, 0 when none.
func reciprocalRank(retrieved, relevant []string) float64 {
	rel := idSet(relevant)
	for i, id := range retrieved {
		if rel[id] {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// ndcgAtK is normalised discounted cumulative gain with binary gains.
func ndcgAtK(retrieved, relevant []string) float64 {
	if len(relevant) == 0 || len(retrieved) == 0 {
		return 0
	}
	rel := idSet(relevant)
	dcg := 0.0
	for i, id := range retrieved {
		if rel[id] {
			dcg += 1.0 / math.Log2(float64(i+2))
			delete(rel, id)
		}
	}
	ideal := len(relevant)
	if len(retrieved) < ideal {
		ideal = len(retrieved)
	}
	idcg := 0.0
	for i := 0; i < ideal; i++ {
		idcg += 1.0 / math.Log2(float64(i+2))
	}
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

// averagePrecision is AP@k: mean precision at each relevant position,
// normalised by the number of relevant chunks reachable at depth k.
func averagePrecision(retrieved, relevant []string) float64 {
	if len(relevant) == 0 || len(retrieved) == 0 {
		return 0
	}
	rel := idSet(relevant)
	sum := 0.0
	found := 0
	for i, id := range retrieved {
		if rel[id] {
			found++
			sum += float64(found) / float64(i+1)
			delete(rel, id)
		}
	}
	denom := len(relevant)
	if len(retrieved) < denom {
		denom = len(retrieved)
	}
	return sum / float64(denom)
}

// normalizeJudge maps a 1-5 judge score onto [0,1].
func normalizeJudge(score float64) float64 {
	return (score - 1) / 4
}

// compositeScore is the fixed-weight end-to-end score:
// half retrieval quality, half judged answer quality.
func compositeScore(ret domain.RetrieverMetrics, gen domain.GeneratorMetrics) float64 {
	retScore := (ret.Recall + ret.Precision + ret.MRR) / 3
	genScore := (normalizeJudge(gen.Relevance) + normalizeJudge(gen.Faithfulness)) / 2
	return 0.5*retScore + 0.5*genScore
}

package domain

// Query is a raw natural-language question from the user.
// Created per request, never persisted.
type Query struct {
	// Raw is the user's question verbatim.
	Raw string
}

// RewrittenQuery is the retrieval-optimized form of a Query.
type RewrittenQuery struct {
	// CanonicalText is the reformulated query sent to the retriever.
	// Equal to the original text when rewriting failed open.
	CanonicalText string

	// ExtractedModel is the detected vehicle model ("MG_Astor"), empty
	// when no model could be extracted. Retrieval is unfiltered then.
	ExtractedModel string

	// Confidence in the extraction, in [0,1]. 1.0 for a local pattern
	// match, lower for LLM extraction, 0 when rewriting failed open.
	Confidence float64
}

// HasModel reports whether a vehicle model was extracted.
func (q RewrittenQuery) HasModel() bool {
	return q.ExtractedModel != ""
}

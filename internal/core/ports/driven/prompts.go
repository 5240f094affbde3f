package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Returns the prompt content and any error encountered.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptQueryRewrite reformulates a question for retrieval.
	// The prompt template expects a %s placeholder for the original query.
	PromptQueryRewrite = "query_rewrite"

	// PromptDetectRewrite extracts a vehicle model AND rewrites the query
	// in a single call. The template expects %s (known models, comma
	// separated) and %s (original query); the reply must carry
	// CAR_MODEL: and QUERY: lines.
	PromptDetectRewrite = "detect_rewrite"

	// PromptAnswerSystem is the system prompt for answer generation.
	// This prompt has no format placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser builds the grounded answer request. The template
	// expects %s (vehicle model), %s (context block) and %s (query).
	PromptAnswerUser = "answer_user"

	// PromptJudgeRelevance scores answer relevance 1-5. The template
	// expects %s (query) and %s (answer).
	PromptJudgeRelevance = "judge_relevance"

	// PromptJudgeFaithfulness scores answer grounding 1-5. The template
	// expects %s (context), %s (reference answer) and %s (answer).
	PromptJudgeFaithfulness = "judge_faithfulness"
)

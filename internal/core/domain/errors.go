package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidConfig indicates malformed configuration or ground-truth schema.
	// Raised before any external call; aborts the affected run.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTransientService indicates a network or service failure on an
	// embedding, search or generation call. Call sites retry with bounded
	// backoff before surfacing this error.
	ErrTransientService = errors.New("transient service failure")

	// ErrExternalService indicates the document-parsing service is
	// unavailable. Only the landingai chunking variant can return this.
	ErrExternalService = errors.New("external parsing service unavailable")

	// ErrAmbiguousModel indicates vehicle-model extraction was inconclusive.
	// Non-fatal: the rewriter falls back to unfiltered search.
	ErrAmbiguousModel = errors.New("ambiguous vehicle model")

	// ErrRunCancelled indicates an evaluation config was cancelled mid-flight.
	ErrRunCancelled = errors.New("evaluation run cancelled")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Features requiring generation (query rewriting, answering, judging)
	// are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Vector search and semantic chunking are disabled.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStoreUnavailable indicates the vector/lexical store is not
	// configured or unreachable.
	ErrStoreUnavailable = errors.New("search store unavailable")
)

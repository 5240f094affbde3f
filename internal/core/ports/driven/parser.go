package driven

import "context"

// DocumentParser extracts structured blocks from a source document via an
// external parsing service. Only the landingai chunking variant uses it.
// Best effort: the service may reorder or summarise content, so its output
// is not required to partition the source text.
type DocumentParser interface {
	// Parse submits the document at path and returns the ordered blocks.
	// Service unavailability surfaces as domain.ErrExternalService.
	Parse(ctx context.Context, path string) ([]ParsedBlock, error)
}

// ParsedBlock is one structured element returned by the parsing service.
type ParsedBlock struct {
	// Type is the element kind: "text", "table" or "figure".
	Type string

	// Text is the block content (markdown for tables, caption for figures).
	Text string

	// PageNumber is the source page, when the service reports one.
	PageNumber int
}

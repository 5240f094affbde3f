package domain

import "fmt"

// Page is one page of a source manual.
type Page struct {
	// Number is the 1-based page number in the source document.
	Number int

	// Text is the extracted page text.
	Text string
}

// Document represents a source manual to be chunked and indexed.
// It is immutable once ingested.
type Document struct {
	// ID is the unique identifier for the document (e.g. "mg_astor_manual").
	ID string

	// VehicleModel is the model this manual covers (e.g. "MG_Astor").
	// Empty when the manual is not model-specific.
	VehicleModel string

	// SourceFile is the original file name or path.
	SourceFile string

	// Format describes the source format ("text", "pdf", "markdown").
	Format string

	// Pages holds the page-segmented text. Documents without page
	// information carry a single page numbered 1.
	Pages []Page
}

// Text returns the full document text with pages joined by newlines.
func (d Document) Text() string {
	switch len(d.Pages) {
	case 0:
		return ""
	case 1:
		return d.Pages[0].Text
	}
	var out string
	for i, p := range d.Pages {
		if i > 0 {
			out += "\n"
		}
		out += p.Text
	}
	return out
}

// PageAt returns the page number containing the byte offset into Text().
// Returns 0 for documents without pages or out-of-range offsets.
func (d Document) PageAt(offset int) int {
	if len(d.Pages) == 0 || offset < 0 {
		return 0
	}
	pos := 0
	for i, p := range d.Pages {
		if i > 0 {
			pos++ // newline joining pages in Text()
		}
		end := pos + len(p.Text)
		if offset < end || i == len(d.Pages)-1 {
			return p.Number
		}
		pos = end
	}
	return 0
}

// Chunk represents one indexable unit produced by a chunking strategy.
type Chunk struct {
	// ID is sequence-derived and stable across re-ingestion:
	// "<documentID>_chunk<orderIndex>".
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Text is the chunk content.
	Text string

	// OrderIndex is the ordinal position within the document,
	// strictly increasing.
	OrderIndex int

	// PageNumber is the source page this chunk starts on (0 when unknown).
	PageNumber int

	// ElementType tags the block kind for the landingai strategy
	// ("text", "table", "figure"). Plain "text" for local strategies.
	ElementType string

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// ChunkID builds the stable sequence-derived chunk identifier.
func ChunkID(documentID string, orderIndex int) string {
	return fmt.Sprintf("%s_chunk%d", documentID, orderIndex)
}

// Package manual loads owner's manual files from disk into documents.
// Plain-text manuals use form feeds (\f) as page separators, the
// convention produced by pdftotext. PDF manuals are handed to a
// DocumentParser by the landingai chunking strategy instead.
package manual

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manualhq/manualqa-cli/internal/core/domain"
)

// Load reads a manual file and segments it into pages.
// The document ID is derived from the file name; the vehicle model is
// supplied by the caller.
func Load(path, vehicleModel string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read manual %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return domain.Document{}, fmt.Errorf("%w: manual %s is empty", domain.ErrInvalidConfig, path)
	}

	doc := domain.Document{
		ID:           DocumentID(path),
		VehicleModel: vehicleModel,
		SourceFile:   filepath.Base(path),
		Format:       format(path),
		Pages:        splitPages(string(data)),
	}
	return doc, nil
}

// DocumentID derives a stable document ID from the file name:
// lower-cased base name without extension, spaces and dashes folded
// to underscores ("MG Astor Manual.txt" -> "mg_astor_manual").
func DocumentID(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ToLower(base)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return "markdown"
	case ".pdf":
		return "pdf"
	default:
		return "text"
	}
}

// splitPages segments text on form feeds. Page numbers follow the
// position of the separator, so blank pages keep their number and
// chunk page attribution stays aligned with the printed manual.
func splitPages(text string) []domain.Page {
	raw := strings.Split(text, "\f")

	pages := make([]domain.Page, 0, len(raw))
	for i, pageText := range raw {
		pageText = strings.TrimRight(pageText, "\n")
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		pages = append(pages, domain.Page{Number: i + 1, Text: pageText})
	}
	if len(pages) == 0 {
		return []domain.Page{{Number: 1, Text: strings.TrimSpace(text)}}
	}
	return pages
}

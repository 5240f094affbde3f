// Package sentence provides the sentence segmentation shared by the
// semantic and paragraph chunkers.
package sentence

import (
	"strings"
	"unicode"
)

// Split splits text into sentences on common terminators.
// Abbreviation handling is intentionally crude; manual prose rarely
// needs more, and the chunkers only require consistent boundaries,
// not linguistic precision.
func Split(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for _, r := range text {
		current.WriteRune(r)
		if terminator(r) {
			flush()
		}
	}
	flush()

	return sentences
}

// Cuts returns the byte offsets where text can be cut at sentence
// boundaries. Each offset is the start of the sentence following a
// terminator and its trailing whitespace run, so slicing at the cuts
// keeps every byte with the preceding piece and concatenation
// reconstructs the input exactly.
func Cuts(text string) []int {
	var cuts []int
	boundary := false
	for i, r := range text {
		switch {
		case terminator(r):
			boundary = true
		case boundary && !unicode.IsSpace(r):
			cuts = append(cuts, i)
			boundary = false
		}
	}
	return cuts
}

func terminator(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '\n'
}

// Package chunkers provides the chunking-strategy registry and shared
// text helpers. Each strategy lives in its own subpackage and implements
// the driven.Chunker interface:
//
//   - recursive: fixed character windows with overlap
//   - semantic: similarity-driven sentence grouping
//   - paragraph: blank-line splitting with merge-forward of short paragraphs
//   - landingai: structured blocks from an external parsing service
package chunkers

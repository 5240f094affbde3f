package chunkers

import (
	"github.com/manualhq/manualqa-cli/internal/chunkers/landingai"
	"github.com/manualhq/manualqa-cli/internal/chunkers/paragraph"
	"github.com/manualhq/manualqa-cli/internal/chunkers/recursive"
	"github.com/manualhq/manualqa-cli/internal/chunkers/semantic"
	"github.com/manualhq/manualqa-cli/internal/core/ports/driven"
)

// Defaults builds a registry with every available strategy.
//
// The recursive and paragraph chunkers need no external services and
// are always registered. Semantic chunking requires an embedder and
// the landingai strategy a document parser; pass nil to leave either
// out, in which case selecting that strategy fails at lookup time.
func Defaults(embedder driven.EmbeddingService, parser driven.DocumentParser) *Registry {
	reg := NewRegistry()
	reg.Register(recursive.New())
	reg.Register(paragraph.New())
	if embedder != nil {
		reg.Register(semantic.New(embedder))
	}
	if parser != nil {
		reg.Register(landingai.New(parser))
	}
	return reg
}

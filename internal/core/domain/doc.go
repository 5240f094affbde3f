// Package domain defines the core business entities for the manual-QA
// retrieval pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document / Chunk: A source manual and its indexable units
//   - ChunkingConfig: A validated chunking strategy configuration
//   - Query / RewrittenQuery: A question and its retrieval-optimized form
//   - RetrievalConfig / ContextPassage: Retrieval input and ranked output
//   - GroundTruthItem / EvalConfig / EvaluationRun: Evaluation inputs,
//     the configuration matrix, and per-config execution records
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain

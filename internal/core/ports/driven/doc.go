// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - SearchStore: Vector + lexical store (Weaviate). Holds one chunk
//     collection per chunking strategy.
//   - EmbeddingService: Generates vector embeddings for queries, chunks
//     and semantic chunking.
//   - LLMService: Text generation for query rewriting, answering and
//     judge scoring.
//   - ResultStore: Persistence of per-config evaluation artifacts.
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - DocumentParser: External structured parsing (Landing AI). Only the
//     landingai chunking variant requires it.
//   - PromptStore: User-editable prompt templates with embedded defaults.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or chunker package
package driven

// Package services contains the business logic implementations of the
// driving ports.
//
// # Architectural Position
//
// Services sit at the center of the application. They implement the
// driving port interfaces (what the CLI calls) and depend only on the
// driven port interfaces (what the adapters implement). No service
// imports an adapter.
//
// # Services
//
//   - RewriterService: vehicle-model extraction and query reformulation
//   - RetrievalService: vector, keyword and hybrid search with RRF fusion
//   - GeneratorService: grounded answer generation over retrieved passages
//   - EvaluationService: ground-truth evaluation across a config matrix
//   - IngestService: chunk, embed and index manual documents
//
// # Import Rules
//
//   - May import: domain, ports/driven, ports/driving, logger, backoff
//   - Must not import: adapters, cli
package services

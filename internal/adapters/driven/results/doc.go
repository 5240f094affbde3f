// Package results groups the ResultStore implementations.
//
// Three backends are provided:
//
//   - file: one JSON artifact per config key, the default for
//     evaluation runs that feed the aggregate command
//   - sqlite: a single-table database for querying runs with SQL
//   - memory: ephemeral store for tests and dry runs
package results

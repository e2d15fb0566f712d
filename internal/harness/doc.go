// Package harness provides a conformance testing framework for the query
// engine.
//
// Scenarios are YAML files: a sequence of setup queries, then a main flow
// of queries with expected rows, created ids, or protocol error codes.
// Each scenario runs against a fresh in-memory graph with a deterministic
// authority keypair, so a scenario file fully determines its trace.
//
// Golden files capture the full execution trace (seq, code hash, rows,
// steps, error codes) per scenario. Regenerate with:
//
//	go test ./internal/harness -update
package harness

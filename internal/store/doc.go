// Package store provides SQLite-backed durable storage for graphs.
//
// Three tables:
//   - graphs: one row per named graph, holding the serialized snapshot,
//     the authority key, and the capacity the snapshot was sized for
//   - commitments: the live commit-reveal ledger per graph
//   - executions: an append-only log of executed programs, ordered by the
//     engine's logical clock
//
// # Critical Patterns
//
// CP-2: Logical Identity and Time
//   - Execution ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - Commitment expiry is the one wall-clock value; it is stored as unix
//     seconds and compared against the ledger's injected clock
//
// Snapshots are whole-graph blobs, not per-record rows: the graph is
// bounded by capacity, so rewriting the full snapshot on commit is cheap
// and keeps the load path a single read.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store

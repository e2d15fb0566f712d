// Package graph implements the bounded, append-only graph store.
//
// The store is an explicit mutable handle, never ambient global state:
// every component that reads or mutates the graph receives a *Store. One
// store backs one logical graph; the surrounding execution context
// serializes mutating invocations, so the store performs no locking.
//
// ARCHITECTURE:
//
// Append-only arena:
// Nodes and edges live in ordered slices (insertion order = creation
// order). Ids come from a single monotonic nonce shared between nodes and
// edges, so an id is globally unique across kinds and is never reused or
// mutated. There is no delete and no in-place edit.
//
// Bounded capacity:
// The store is sized for a fixed-capacity backing buffer supplied by an
// external persistence collaborator. Every append first checks that the
// serialized snapshot still fits; overflow is a reportable
// StoreCapacityExceeded, never undefined behavior.
//
// Transactional staging:
// Clone() produces a deep copy the VM mutates in isolation. The engine
// commits the clone back into the handle only when execution succeeds,
// which gives all-or-nothing semantics without undo logs.
package graph

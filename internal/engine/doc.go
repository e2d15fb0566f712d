// Package engine orchestrates the query pipeline.
//
// ARCHITECTURE:
//
// Single-Writer Execution:
// The engine owns the store handle and runs one query at a time. All
// mutations flow through Run in the caller's goroutine; there is no
// internal concurrency. This keeps execution deterministic and makes the
// logical clock's sequence numbers a total order over executions.
//
// Query Pipeline:
// 1. Parse the query text (length-capped) into an AST
// 2. Lower the AST into a bytecode program and compute its code hash
// 3. For mutating programs: check the authority key, then run the
//    configured authorization policy against the code hash
// 4. Execute the program in the VM against a staging clone of the store
// 5. On success, commit the clone back into the live handle; on any
//    failure the clone is discarded and the store is untouched
//
// CP-2: Logical Clock
// Every execution is stamped with a monotonic seq from Clock.Next().
// Ordering never depends on wall-clock time.
package engine

// Package vm implements the bytecode interpreter.
//
// ARCHITECTURE:
//
// Single-threaded fetch/execute loop:
// The VM fetches the instruction at the program counter, executes it,
// advances, and charges the step counter. There are no suspension points,
// no goroutines, and no I/O: executing the same program against the same
// store state always yields the same result set and the same mutation.
//
// Step budget:
// Every instruction costs one step plus one step per element it touches,
// so cost tracks actual work. Before the loop starts the VM rejects any
// program whose static worst-case estimate already exceeds the limit;
// during the loop, crossing the limit aborts with QueryStepLimitExceeded.
// The budget is the only termination bound - there is no timeout and no
// mid-execution cancellation.
//
// Atomicity:
// The VM mutates whatever store handle it is given. The engine hands it a
// staging clone and commits the clone only on success, so a failure at any
// step (budget, missing node, capacity) leaves the caller's store exactly
// as it was before the query began.
//
// Determinism invariant:
// The working set is kept sorted by ascending id at all times. LIMIT
// truncation and result ordering follow creation order by construction.
package vm

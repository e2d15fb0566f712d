package codegen

import "github.com/roach88/cypherlite/internal/bytecode"

// EstimateSteps computes the worst-case step cost of running prog against
// a store with the given node and edge counts, using the same cost model
// as the VM: one step per instruction plus one per element the
// instruction touches.
//
// The estimate tracks an upper bound on the working-set size through the
// program, so a query that narrows early (FILTER_NODE_ID, LIMIT) is
// charged for its narrowed shape, not for a full scan at every step. The
// bound is conservative: the VM's actual step count never exceeds it.
func EstimateSteps(prog *bytecode.Program, nodeCount, edgeCount int) uint64 {
	nodes := uint64(nodeCount)
	edges := uint64(edgeCount)

	var steps uint64
	var working uint64 // upper bound on working-set size

	for _, in := range prog.Instructions {
		steps++
		switch in.Op {
		case bytecode.OpSetCurrentFromAllNodes:
			steps += nodes
			working = nodes
		case bytecode.OpFilterNodeLabel, bytecode.OpFilterNodeAttrEq:
			steps += working
		case bytecode.OpFilterNodeID:
			steps += working
			if working > 1 {
				working = 1
			}
		case bytecode.OpTraverseOut:
			// Worst case the traversal walks every outgoing edge in the
			// store and the frontier grows back to all nodes.
			steps += working + edges
			working = nodes
		case bytecode.OpLimit:
			steps += working
			if in.K < working {
				working = in.K
			}
		case bytecode.OpSaveResults:
			steps += working
		}
	}
	return steps
}

package vm

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/roach88/cypherlite/internal/bytecode"
	"github.com/roach88/cypherlite/internal/codegen"
	"github.com/roach88/cypherlite/internal/errcode"
	"github.com/roach88/cypherlite/internal/graph"
)

// DefaultStepLimit bounds instruction execution per query.
const DefaultStepLimit = 1000

// Row is one projected result. Value is the rendered field: decimal for
// id, the label text for label, 0x-prefixed hex for data.
type Row struct {
	NodeID uint64 `json:"node_id"`
	Value  string `json:"value"`
}

// Result is the outcome of a successful execution.
type Result struct {
	// Projection is the field SAVE_RESULTS copied ("" for mutations).
	Projection string `json:"projection,omitempty"`

	// Rows holds saved results in ascending node-id order.
	Rows []Row `json:"rows,omitempty"`

	// CreatedIDs lists ids allocated by CREATE_NODE / CREATE_EDGE in
	// execution order.
	CreatedIDs []uint64 `json:"created_ids,omitempty"`

	// Steps is the number of steps actually charged.
	Steps uint64 `json:"steps"`
}

// VM executes one program against one store handle and is then done;
// create a fresh VM per query.
type VM struct {
	store     *graph.Store
	stepLimit uint64

	stack   []uint64
	working []uint64 // node ids, always sorted ascending
	result  Result
	pc      int
	steps   uint64
}

// New creates a VM bound to the given store handle. A stepLimit of zero
// falls back to DefaultStepLimit.
func New(store *graph.Store, stepLimit uint64) *VM {
	if stepLimit == 0 {
		stepLimit = DefaultStepLimit
	}
	return &VM{store: store, stepLimit: stepLimit}
}

// Run executes the program to completion or failure. On any error the
// store handle may hold partial mutations; callers own atomicity by
// passing a staging clone and discarding it on error.
func (m *VM) Run(prog *bytecode.Program) (*Result, error) {
	if len(prog.Instructions) > bytecode.MaxProgramLen {
		return nil, errcode.New(errcode.QueryExecutionFailed,
			"program has %d instructions, limit is %d", len(prog.Instructions), bytecode.MaxProgramLen)
	}

	// Static budget check: reject programs that cannot finish within the
	// limit before doing any work.
	estimate := codegen.EstimateSteps(prog, m.store.NodeCount(), m.store.EdgeCount())
	if estimate > m.stepLimit {
		return nil, errcode.New(errcode.QueryStepLimitExceeded,
			"estimated %d steps exceeds limit %d", estimate, m.stepLimit).
			WithDetail("estimate", fmt.Sprintf("%d", estimate))
	}

	m.result.Projection = prog.Return
	for m.pc = 0; m.pc < len(prog.Instructions); m.pc++ {
		in := prog.Instructions[m.pc]
		if err := m.charge(1); err != nil {
			return nil, err
		}
		if in.Op == bytecode.OpHalt {
			m.result.Steps = m.steps
			return &m.result, nil
		}
		if err := m.execute(in); err != nil {
			return nil, err
		}
	}
	return nil, errcode.New(errcode.QueryExecutionFailed, "program ended without HALT")
}

func (m *VM) execute(in bytecode.Instruction) error {
	switch in.Op {
	case bytecode.OpPushConst:
		m.stack = append(m.stack, in.K)
		return nil

	case bytecode.OpSetCurrentFromAllNodes:
		nodes := m.store.Nodes()
		if err := m.charge(uint64(len(nodes))); err != nil {
			return err
		}
		m.working = m.working[:0]
		for i := range nodes {
			m.working = append(m.working, nodes[i].ID)
		}
		// Creation order is ascending id order; assert the invariant
		// rather than trusting it.
		sort.Slice(m.working, func(i, j int) bool { return m.working[i] < m.working[j] })
		return nil

	case bytecode.OpFilterNodeLabel:
		return m.filter(func(n *graph.Node) bool { return n.Label == in.Label })

	case bytecode.OpFilterNodeAttrEq:
		return m.filter(func(n *graph.Node) bool { return bytes.Equal(n.Data, in.Bytes) })

	case bytecode.OpFilterNodeID:
		if len(m.stack) == 0 {
			return errcode.New(errcode.QueryExecutionFailed, "value stack underflow at pc %d", m.pc)
		}
		want := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
		return m.filter(func(n *graph.Node) bool { return n.ID == want })

	case bytecode.OpTraverseOut:
		return m.traverseOut(in.Label)

	case bytecode.OpLimit:
		if err := m.charge(uint64(len(m.working))); err != nil {
			return err
		}
		if uint64(len(m.working)) > in.K {
			m.working = m.working[:in.K]
		}
		return nil

	case bytecode.OpSaveResults:
		return m.saveResults()

	case bytecode.OpCreateNode:
		id, err := m.store.CreateNode(in.Label, in.Bytes)
		if err != nil {
			return err
		}
		m.result.CreatedIDs = append(m.result.CreatedIDs, id)
		m.working = append(m.working[:0], id)
		return nil

	case bytecode.OpCreateEdge:
		id, err := m.store.CreateEdge(in.From, in.To, in.Label)
		if err != nil {
			return err
		}
		m.result.CreatedIDs = append(m.result.CreatedIDs, id)
		m.working = append(m.working[:0], in.To)
		return nil

	default:
		return errcode.New(errcode.QueryExecutionFailed, "unknown opcode 0x%02x at pc %d", uint8(in.Op), m.pc)
	}
}

// filter narrows the working set in place, preserving ascending order.
func (m *VM) filter(keep func(*graph.Node) bool) error {
	if err := m.charge(uint64(len(m.working))); err != nil {
		return err
	}
	kept := m.working[:0]
	for _, id := range m.working {
		node, err := m.store.GetNode(id)
		if err != nil {
			return err
		}
		if keep(node) {
			kept = append(kept, id)
		}
	}
	m.working = kept
	return nil
}

// traverseOut replaces the working set with the deduplicated union of
// nodes reachable by exactly one outgoing edge with the given label.
func (m *VM) traverseOut(label string) error {
	if err := m.charge(uint64(len(m.working))); err != nil {
		return err
	}
	edges := m.store.Edges()
	seen := make(map[uint64]bool)
	next := make([]uint64, 0, len(m.working))

	for _, id := range m.working {
		node, err := m.store.GetNode(id)
		if err != nil {
			return err
		}
		if err := m.charge(uint64(len(node.OutEdges))); err != nil {
			return err
		}
		for _, idx := range node.OutEdges {
			if idx < 0 || idx >= len(edges) {
				return errcode.New(errcode.EdgeNotFound, "node %d references edge index %d", id, idx)
			}
			e := &edges[idx]
			if e.Label != label || seen[e.To] {
				continue
			}
			seen[e.To] = true
			next = append(next, e.To)
		}
	}
	sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
	m.working = next
	return nil
}

// saveResults copies the working set's projection into the result buffer.
func (m *VM) saveResults() error {
	if err := m.charge(uint64(len(m.working))); err != nil {
		return err
	}
	for _, id := range m.working {
		node, err := m.store.GetNode(id)
		if err != nil {
			return err
		}
		row := Row{NodeID: id}
		switch m.result.Projection {
		case "label":
			row.Value = node.Label
		case "data":
			row.Value = "0x" + hex.EncodeToString(node.Data)
		default:
			row.Value = fmt.Sprintf("%d", id)
		}
		m.result.Rows = append(m.result.Rows, row)
	}
	return nil
}

// charge adds n steps and enforces the budget.
func (m *VM) charge(n uint64) error {
	m.steps += n
	if m.steps > m.stepLimit {
		return errcode.New(errcode.QueryStepLimitExceeded,
			"query exceeded step limit: %d steps > %d", m.steps, m.stepLimit)
	}
	return nil
}

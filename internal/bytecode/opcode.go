package bytecode

import (
	"encoding/hex"
	"fmt"
)

// Opcode identifies an instruction. Tag values are part of the wire format
// and must never be renumbered.
type Opcode uint8

const (
	// OpPushConst pushes a u64 literal onto the value stack.
	OpPushConst Opcode = 0x01

	// OpSetCurrentFromAllNodes loads every node id in the store into the
	// working set (read-time snapshot, ascending id order).
	OpSetCurrentFromAllNodes Opcode = 0x02

	// OpFilterNodeLabel keeps only working-set nodes with the operand label.
	OpFilterNodeLabel Opcode = 0x03

	// OpFilterNodeAttrEq keeps only working-set nodes whose data equals the
	// operand bytes.
	OpFilterNodeAttrEq Opcode = 0x04

	// OpFilterNodeID pops one id from the value stack and keeps only that
	// id in the working set. Paired with OpPushConst by the code generator
	// to compile WHERE id equality.
	OpFilterNodeID Opcode = 0x05

	// OpTraverseOut replaces the working set with the deduplicated set of
	// nodes reachable by exactly one outgoing edge with the operand label.
	OpTraverseOut Opcode = 0x06

	// OpLimit truncates the working set to its first K elements
	// (ascending id order).
	OpLimit Opcode = 0x07

	// OpSaveResults copies the working set's requested projection into the
	// result buffer.
	OpSaveResults Opcode = 0x08

	// OpCreateNode appends a node: id := nonce, nonce += 1.
	OpCreateNode Opcode = 0x09

	// OpCreateEdge appends an edge after validating both endpoints exist.
	OpCreateEdge Opcode = 0x0a

	// OpHalt terminates execution successfully.
	OpHalt Opcode = 0x0b
)

// String returns the mnemonic used in disassembly and traces.
func (op Opcode) String() string {
	switch op {
	case OpPushConst:
		return "PUSH_CONST"
	case OpSetCurrentFromAllNodes:
		return "SET_CURRENT_FROM_ALL_NODES"
	case OpFilterNodeLabel:
		return "FILTER_NODE_LABEL"
	case OpFilterNodeAttrEq:
		return "FILTER_NODE_ATTR_EQ"
	case OpFilterNodeID:
		return "FILTER_NODE_ID"
	case OpTraverseOut:
		return "TRAVERSE_OUT"
	case OpLimit:
		return "LIMIT"
	case OpSaveResults:
		return "SAVE_RESULTS"
	case OpCreateNode:
		return "CREATE_NODE"
	case OpCreateEdge:
		return "CREATE_EDGE"
	case OpHalt:
		return "HALT"
	default:
		return fmt.Sprintf("Opcode(0x%02x)", uint8(op))
	}
}

// Instruction is one opcode with its operands. Which fields are meaningful
// depends on the opcode; unused fields stay zero so instructions compare
// and serialize deterministically.
type Instruction struct {
	Op Opcode

	// K is the literal for PUSH_CONST and LIMIT.
	K uint64

	// Label is the operand for FILTER_NODE_LABEL, TRAVERSE_OUT,
	// CREATE_NODE, and CREATE_EDGE.
	Label string

	// Bytes is the operand for FILTER_NODE_ATTR_EQ and CREATE_NODE data.
	Bytes []byte

	// From and To are the endpoints for CREATE_EDGE.
	From uint64
	To   uint64
}

// String renders one instruction in disassembly form.
func (in Instruction) String() string {
	switch in.Op {
	case OpPushConst, OpLimit:
		return fmt.Sprintf("%s %d", in.Op, in.K)
	case OpFilterNodeLabel, OpTraverseOut:
		return fmt.Sprintf("%s %s", in.Op, in.Label)
	case OpFilterNodeAttrEq:
		return fmt.Sprintf("%s 0x%s", in.Op, hex.EncodeToString(in.Bytes))
	case OpCreateNode:
		if len(in.Bytes) > 0 {
			return fmt.Sprintf("%s %s 0x%s", in.Op, in.Label, hex.EncodeToString(in.Bytes))
		}
		return fmt.Sprintf("%s %s", in.Op, in.Label)
	case OpCreateEdge:
		return fmt.Sprintf("%s %d -> %d %s", in.Op, in.From, in.To, in.Label)
	default:
		return in.Op.String()
	}
}

// Mutates reports whether the instruction writes to the graph store.
// CREATE_NODE and CREATE_EDGE are the only side-effecting opcodes.
func (in Instruction) Mutates() bool {
	return in.Op == OpCreateNode || in.Op == OpCreateEdge
}

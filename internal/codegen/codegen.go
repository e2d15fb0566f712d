// Package codegen lowers the AST into bytecode.
//
// Lowering is a total, deterministic function: a syntactically valid AST
// always produces exactly one program, and the same AST always produces
// the same program. Each clause maps to a fixed opcode sequence:
//
//	CREATE (n:L {0xHH})      CREATE_NODE(L, bytes), HALT
//	CREATE (a)-[:R]->(b)     CREATE_EDGE(a, b, R), HALT
//	MATCH (n:L)              SET_CURRENT_FROM_ALL_NODES, FILTER_NODE_LABEL(L)
//	WHERE n.id = X           PUSH_CONST(X), FILTER_NODE_ID
//	-[:R]->(m:L2)            TRAVERSE_OUT(R), FILTER_NODE_LABEL(L2)
//	RETURN m.f LIMIT k       LIMIT(k), SAVE_RESULTS, HALT
//
// The package also derives a static worst-case step estimate from the
// program shape, used by the VM to reject over-budget programs before the
// execution loop starts.
package codegen

import (
	"github.com/roach88/cypherlite/internal/ast"
	"github.com/roach88/cypherlite/internal/bytecode"
)

// Generate lowers a parsed query into a bytecode program.
func Generate(q *ast.Query) *bytecode.Program {
	if q.Create != nil {
		return generateCreate(q.Create)
	}
	return generateMatch(q.Match)
}

func generateCreate(c *ast.CreateQuery) *bytecode.Program {
	var in bytecode.Instruction
	if c.Node != nil {
		in = bytecode.Instruction{
			Op:    bytecode.OpCreateNode,
			Label: c.Node.Label,
			Bytes: c.Node.Data,
		}
	} else {
		in = bytecode.Instruction{
			Op:    bytecode.OpCreateEdge,
			From:  c.Edge.From,
			To:    c.Edge.To,
			Label: c.Edge.Label,
		}
	}
	return &bytecode.Program{
		Instructions: []bytecode.Instruction{in, {Op: bytecode.OpHalt}},
	}
}

func generateMatch(m *ast.MatchQuery) *bytecode.Program {
	ins := []bytecode.Instruction{
		{Op: bytecode.OpSetCurrentFromAllNodes},
		{Op: bytecode.OpFilterNodeLabel, Label: m.Pattern.From.Label},
	}

	if m.Where != nil {
		ins = append(ins,
			bytecode.Instruction{Op: bytecode.OpPushConst, K: m.Where.ID},
			bytecode.Instruction{Op: bytecode.OpFilterNodeID},
		)
	}

	if m.Pattern.Rel != nil {
		ins = append(ins, bytecode.Instruction{
			Op:    bytecode.OpTraverseOut,
			Label: m.Pattern.Rel.Label,
		})
		if m.Pattern.To.Label != "" {
			ins = append(ins, bytecode.Instruction{
				Op:    bytecode.OpFilterNodeLabel,
				Label: m.Pattern.To.Label,
			})
		}
	}

	ins = append(ins,
		bytecode.Instruction{Op: bytecode.OpLimit, K: m.Limit},
		bytecode.Instruction{Op: bytecode.OpSaveResults},
		bytecode.Instruction{Op: bytecode.OpHalt},
	)

	return &bytecode.Program{
		Instructions: ins,
		Return:       string(m.Return.Field),
	}
}

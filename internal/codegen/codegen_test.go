package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cypherlite/internal/bytecode"
	"github.com/roach88/cypherlite/internal/parser"
)

func compile(t *testing.T, query string) *bytecode.Program {
	t.Helper()
	q, err := parser.Parse(query)
	require.NoError(t, err)
	return Generate(q)
}

func ops(p *bytecode.Program) []bytecode.Opcode {
	out := make([]bytecode.Opcode, len(p.Instructions))
	for i, in := range p.Instructions {
		out[i] = in.Op
	}
	return out
}

func TestGenerateCreateNode(t *testing.T) {
	p := compile(t, `CREATE (n:Person {0xab})`)

	require.Len(t, p.Instructions, 2)
	assert.Equal(t, bytecode.OpCreateNode, p.Instructions[0].Op)
	assert.Equal(t, "Person", p.Instructions[0].Label)
	assert.Equal(t, []byte{0xab}, p.Instructions[0].Bytes)
	assert.Equal(t, bytecode.OpHalt, p.Instructions[1].Op)
	assert.Empty(t, p.Return)
	assert.True(t, p.Mutates())
}

func TestGenerateCreateEdge(t *testing.T) {
	p := compile(t, `CREATE (3)-[:KNOWS]->(9)`)

	require.Len(t, p.Instructions, 2)
	in := p.Instructions[0]
	assert.Equal(t, bytecode.OpCreateEdge, in.Op)
	assert.Equal(t, uint64(3), in.From)
	assert.Equal(t, uint64(9), in.To)
	assert.Equal(t, "KNOWS", in.Label)
}

func TestGenerateMatchSimple(t *testing.T) {
	p := compile(t, `MATCH (a:Person) RETURN a.id LIMIT 10`)

	assert.Equal(t, []bytecode.Opcode{
		bytecode.OpSetCurrentFromAllNodes,
		bytecode.OpFilterNodeLabel,
		bytecode.OpLimit,
		bytecode.OpSaveResults,
		bytecode.OpHalt,
	}, ops(p))
	assert.Equal(t, "id", p.Return)
	assert.Equal(t, uint64(10), p.Instructions[2].K)
	assert.False(t, p.Mutates())
}

func TestGenerateMatchWithWhere(t *testing.T) {
	p := compile(t, `MATCH (a:Person) WHERE a.id = 7 RETURN a.label LIMIT 1`)

	assert.Equal(t, []bytecode.Opcode{
		bytecode.OpSetCurrentFromAllNodes,
		bytecode.OpFilterNodeLabel,
		bytecode.OpPushConst,
		bytecode.OpFilterNodeID,
		bytecode.OpLimit,
		bytecode.OpSaveResults,
		bytecode.OpHalt,
	}, ops(p))
	assert.Equal(t, uint64(7), p.Instructions[2].K)
	assert.Equal(t, "label", p.Return)
}

func TestGenerateMatchRelationship(t *testing.T) {
	p := compile(t, `MATCH (a:Person)-[:KNOWS]->(b:City) RETURN b.id LIMIT 5`)

	assert.Equal(t, []bytecode.Opcode{
		bytecode.OpSetCurrentFromAllNodes,
		bytecode.OpFilterNodeLabel,
		bytecode.OpTraverseOut,
		bytecode.OpFilterNodeLabel,
		bytecode.OpLimit,
		bytecode.OpSaveResults,
		bytecode.OpHalt,
	}, ops(p))
	assert.Equal(t, "Person", p.Instructions[1].Label)
	assert.Equal(t, "KNOWS", p.Instructions[2].Label)
	assert.Equal(t, "City", p.Instructions[3].Label)
}

func TestGenerateMatchRelationshipUnlabeledTarget(t *testing.T) {
	p := compile(t, `MATCH (a:Person)-[:KNOWS]->(b) RETURN b.id LIMIT 5`)

	// No second label filter when the target has no label.
	assert.Equal(t, []bytecode.Opcode{
		bytecode.OpSetCurrentFromAllNodes,
		bytecode.OpFilterNodeLabel,
		bytecode.OpTraverseOut,
		bytecode.OpLimit,
		bytecode.OpSaveResults,
		bytecode.OpHalt,
	}, ops(p))
}

func TestGenerateDeterministic(t *testing.T) {
	const query = `MATCH (a:Person) WHERE a.id = 3 RETURN a.data LIMIT 2`
	h1, err := compile(t, query).CodeHash()
	require.NoError(t, err)
	h2, err := compile(t, query).CodeHash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

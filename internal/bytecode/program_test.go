package bytecode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func matchProgram() *Program {
	return &Program{
		Instructions: []Instruction{
			{Op: OpSetCurrentFromAllNodes},
			{Op: OpFilterNodeLabel, Label: "Person"},
			{Op: OpPushConst, K: 7},
			{Op: OpFilterNodeID},
			{Op: OpTraverseOut, Label: "KNOWS"},
			{Op: OpLimit, K: 10},
			{Op: OpSaveResults},
			{Op: OpHalt},
		},
		Return: "id",
	}
}

func createProgram() *Program {
	return &Program{
		Instructions: []Instruction{
			{Op: OpCreateNode, Label: "Person", Bytes: []byte{0xde, 0xad}},
			{Op: OpHalt},
		},
	}
}

func TestWireRoundTrip(t *testing.T) {
	for _, p := range []*Program{matchProgram(), createProgram()} {
		wire, err := p.MarshalWire()
		require.NoError(t, err)

		got, err := UnmarshalWire(wire)
		require.NoError(t, err)
		assert.Equal(t, p.Return, got.Return)
		assert.Equal(t, p.Instructions, got.Instructions)
	}
}

func TestWireRoundTripEdge(t *testing.T) {
	p := &Program{
		Instructions: []Instruction{
			{Op: OpCreateEdge, From: 3, To: 9, Label: "KNOWS"},
			{Op: OpHalt},
		},
	}
	wire, err := p.MarshalWire()
	require.NoError(t, err)
	got, err := UnmarshalWire(wire)
	require.NoError(t, err)
	assert.Equal(t, p.Instructions, got.Instructions)
}

func TestCodeHashStable(t *testing.T) {
	h1, err := matchProgram().CodeHash()
	require.NoError(t, err)
	h2, err := matchProgram().CodeHash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, string(h1), 64) // hex SHA-256
}

func TestCodeHashSensitiveToOperands(t *testing.T) {
	p1 := matchProgram()
	p2 := matchProgram()
	p2.Instructions[2].K = 8

	h1, err := p1.CodeHash()
	require.NoError(t, err)
	h2, err := p2.CodeHash()
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestCodeHashSensitiveToReturn(t *testing.T) {
	p1 := matchProgram()
	p2 := matchProgram()
	p2.Return = "label"

	h1, _ := p1.CodeHash()
	h2, _ := p2.CodeHash()
	assert.NotEqual(t, h1, h2)
}

func TestCodeHashUnicodeNormalization(t *testing.T) {
	// "é" composed vs decomposed must hash identically after NFC.
	p1 := &Program{Instructions: []Instruction{
		{Op: OpFilterNodeLabel, Label: "Café"},
		{Op: OpHalt},
	}}
	p2 := &Program{Instructions: []Instruction{
		{Op: OpFilterNodeLabel, Label: "Café"},
		{Op: OpHalt},
	}}

	h1, err := p1.CodeHash()
	require.NoError(t, err)
	h2, err := p2.CodeHash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestMarshalWireRejectsOversizedProgram(t *testing.T) {
	p := &Program{}
	for i := 0; i <= MaxProgramLen; i++ {
		p.Instructions = append(p.Instructions, Instruction{Op: OpHalt})
	}
	_, err := p.MarshalWire()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit is 100")
}

func TestMarshalWireRejectsOversizedLabel(t *testing.T) {
	p := &Program{Instructions: []Instruction{
		{Op: OpFilterNodeLabel, Label: strings.Repeat("x", 256)},
	}}
	_, err := p.MarshalWire()
	assert.Error(t, err)
}

func TestUnmarshalWireRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad version", []byte{0x7f}},
		{"truncated header", []byte{0x01, 0x00}},
		{"unknown opcode", []byte{0x01, 0x00, 0x00, 0x01, 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalWire(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalWireRejectsTrailingBytes(t *testing.T) {
	wire, err := createProgram().MarshalWire()
	require.NoError(t, err)
	_, err = UnmarshalWire(append(wire, 0x00))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trailing bytes")
}

func TestMutates(t *testing.T) {
	assert.False(t, matchProgram().Mutates())
	assert.True(t, createProgram().Mutates())
}

func TestDisassemble(t *testing.T) {
	out := matchProgram().Disassemble()
	assert.Contains(t, out, "0000  SET_CURRENT_FROM_ALL_NODES")
	assert.Contains(t, out, "0001  FILTER_NODE_LABEL Person")
	assert.Contains(t, out, "0002  PUSH_CONST 7")
	assert.Contains(t, out, "0004  TRAVERSE_OUT KNOWS")
	assert.Contains(t, out, "0005  LIMIT 10")
	assert.Contains(t, out, "return id")

	create := createProgram().Disassemble()
	assert.Contains(t, create, "CREATE_NODE Person 0xdead")
	assert.NotContains(t, create, "return")
}

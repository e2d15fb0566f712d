package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cypherlite/internal/errcode"
)

func TestCreateNodeAssignsSequentialIDs(t *testing.T) {
	s := New("", Config{})

	id0, err := s.CreateNode("Person", []byte{0x01})
	require.NoError(t, err)
	id1, err := s.CreateNode("Person", nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(0), id0)
	assert.Equal(t, uint64(1), id1)
	assert.Equal(t, uint64(2), s.Nonce())
	assert.Equal(t, 2, s.NodeCount())
}

func TestGetNode(t *testing.T) {
	s := New("", Config{})
	id, err := s.CreateNode("Person", []byte{0xab})
	require.NoError(t, err)

	n, err := s.GetNode(id)
	require.NoError(t, err)
	assert.Equal(t, "Person", n.Label)
	assert.Equal(t, []byte{0xab}, n.Data)

	_, err = s.GetNode(99)
	require.Error(t, err)
	assert.True(t, errcode.Is(err, errcode.NodeNotFound))
}

func TestCreateEdgeSharesNonceWithNodes(t *testing.T) {
	s := New("", Config{})
	a, _ := s.CreateNode("Person", nil)
	b, _ := s.CreateNode("Person", nil)

	edgeID, err := s.CreateEdge(a, b, "KNOWS")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), edgeID)

	// The next node continues after the edge's id.
	c, err := s.CreateNode("Person", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), c)
}

func TestCreateEdgeMaintainsAdjacency(t *testing.T) {
	s := New("", Config{})
	a, _ := s.CreateNode("Person", nil)
	b, _ := s.CreateNode("Person", nil)
	c, _ := s.CreateNode("Person", nil)

	_, err := s.CreateEdge(a, b, "KNOWS")
	require.NoError(t, err)
	_, err = s.CreateEdge(a, c, "KNOWS")
	require.NoError(t, err)

	from, err := s.GetNode(a)
	require.NoError(t, err)
	require.Len(t, from.OutEdges, 2)
	assert.Equal(t, b, s.Edges()[from.OutEdges[0]].To)
	assert.Equal(t, c, s.Edges()[from.OutEdges[1]].To)
}

func TestCreateEdgeMissingEndpoint(t *testing.T) {
	s := New("", Config{})
	a, _ := s.CreateNode("Person", nil)

	_, err := s.CreateEdge(a, 42, "KNOWS")
	require.Error(t, err)
	assert.True(t, errcode.Is(err, errcode.NodeNotFound))

	_, err = s.CreateEdge(42, a, "KNOWS")
	require.Error(t, err)
	assert.True(t, errcode.Is(err, errcode.NodeNotFound))

	// Failed creates must not burn ids or leave partial state.
	assert.Equal(t, uint64(1), s.Nonce())
	assert.Equal(t, 0, s.EdgeCount())
}

func TestLabelAndDataLimits(t *testing.T) {
	s := New("", Config{})

	_, err := s.CreateNode("", nil)
	require.Error(t, err)
	assert.True(t, errcode.Is(err, errcode.QueryExecutionFailed))

	_, err = s.CreateNode(strings.Repeat("x", DefaultMaxLabelLen+1), nil)
	require.Error(t, err)
	assert.True(t, errcode.Is(err, errcode.QueryExecutionFailed))

	_, err = s.CreateNode("Person", make([]byte, DefaultMaxDataLen+1))
	require.Error(t, err)
	assert.True(t, errcode.Is(err, errcode.QueryExecutionFailed))
}

func TestCapacityExceeded(t *testing.T) {
	s := New("", Config{CapacityBytes: 128})

	var err error
	for i := 0; i < 100 && err == nil; i++ {
		_, err = s.CreateNode("Person", []byte{0x01, 0x02, 0x03, 0x04})
	}
	require.Error(t, err)
	assert.True(t, errcode.Is(err, errcode.StoreCapacityExceeded))

	// The failed append left nothing behind.
	snap, merr := s.MarshalSnapshot()
	require.NoError(t, merr)
	assert.LessOrEqual(t, len(snap), 128)
}

func TestCloneIsolation(t *testing.T) {
	s := New("auth-key", Config{})
	a, _ := s.CreateNode("Person", []byte{0x01})

	c := s.Clone()
	_, err := c.CreateNode("Person", nil)
	require.NoError(t, err)
	b, _ := c.CreateNode("Person", nil)
	_, err = c.CreateEdge(a, b, "KNOWS")
	require.NoError(t, err)

	// Original is untouched.
	assert.Equal(t, 1, s.NodeCount())
	assert.Equal(t, 0, s.EdgeCount())
	assert.Equal(t, uint64(1), s.Nonce())

	// Mutating shared node data in the clone must not leak back.
	cn, _ := c.GetNode(a)
	cn.Data[0] = 0xff
	sn, _ := s.GetNode(a)
	assert.Equal(t, byte(0x01), sn.Data[0])
}

func TestReplaceWithAdoptsClone(t *testing.T) {
	s := New("", Config{})
	c := s.Clone()
	id, err := c.CreateNode("Person", nil)
	require.NoError(t, err)

	s.ReplaceWith(c)
	assert.Equal(t, 1, s.NodeCount())
	assert.True(t, s.HasNode(id))
}

func TestGetEdge(t *testing.T) {
	s := New("", Config{})
	a, _ := s.CreateNode("Person", nil)
	b, _ := s.CreateNode("Person", nil)
	id, _ := s.CreateEdge(a, b, "KNOWS")

	e, err := s.GetEdge(id)
	require.NoError(t, err)
	assert.Equal(t, a, e.From)
	assert.Equal(t, b, e.To)

	_, err = s.GetEdge(999)
	require.Error(t, err)
	assert.True(t, errcode.Is(err, errcode.EdgeNotFound))
}

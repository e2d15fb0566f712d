package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cypherlite/internal/parser"
)

func estimate(t *testing.T, query string, nodes, edges int) uint64 {
	t.Helper()
	q, err := parser.Parse(query)
	require.NoError(t, err)
	return EstimateSteps(Generate(q), nodes, edges)
}

func TestEstimateCreate(t *testing.T) {
	// CREATE_NODE + HALT, no per-element work.
	assert.Equal(t, uint64(2), estimate(t, `CREATE (n:Person)`, 100, 100))
}

func TestEstimateScanScalesWithNodes(t *testing.T) {
	small := estimate(t, `MATCH (a:Person) RETURN a.id LIMIT 10`, 10, 0)
	large := estimate(t, `MATCH (a:Person) RETURN a.id LIMIT 10`, 1000, 0)
	assert.Greater(t, large, small)
}

func TestEstimateWhereNarrowsWorkingSet(t *testing.T) {
	// After FILTER_NODE_ID the bound is one node, so the id-filtered query
	// costs less than the full scan even though it has more instructions.
	filtered := estimate(t, `MATCH (a:Person) WHERE a.id = 1 RETURN a.id LIMIT 100`, 1000, 0)
	scan := estimate(t, `MATCH (a:Person) RETURN a.id LIMIT 100`, 1000, 0)
	assert.Less(t, filtered, scan)
}

func TestEstimateTraversalChargesEdges(t *testing.T) {
	sparse := estimate(t, `MATCH (a:P)-[:K]->(b) RETURN b.id LIMIT 10`, 100, 10)
	dense := estimate(t, `MATCH (a:P)-[:K]->(b) RETURN b.id LIMIT 10`, 100, 5000)
	assert.Greater(t, dense, sparse)
}

func TestEstimateIsUpperBoundShape(t *testing.T) {
	// Exact value for a known shape: SET(1+n) FILTER(1+n) LIMIT(1+n)
	// SAVE(1+min(n,k)) HALT(1) with n=10, k=3. LIMIT is charged for the
	// elements it inspects, not the survivors.
	got := estimate(t, `MATCH (a:Person) RETURN a.id LIMIT 3`, 10, 0)
	assert.Equal(t, uint64(1+10+1+10+1+10+1+3+1), got)
}

package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runScenarioFile(t *testing.T, name string) *Result {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", name))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	return result
}

func TestScenarioFixtures(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		file := file
		t.Run(filepath.Base(file), func(t *testing.T) {
			result := runScenarioFile(t, filepath.Base(file))
			assert.True(t, result.Passed, "failures: %v", result.Failures)
		})
	}
}

func TestBasicCrudTrace(t *testing.T) {
	result := runScenarioFile(t, "basic_crud.yaml")
	require.True(t, result.Passed, "failures: %v", result.Failures)

	// 5 setup events followed by 5 flow events, stamped in order.
	require.Len(t, result.Trace, 10)
	assert.Equal(t, "setup", result.Trace[0].Phase)
	assert.Equal(t, "flow", result.Trace[5].Phase)
	for i, ev := range result.Trace {
		assert.Equal(t, int64(i+1), ev.Seq, "event %d", i)
		assert.Len(t, ev.CodeHash, 64)
	}
}

func TestSignedMutationsTrace(t *testing.T) {
	result := runScenarioFile(t, "signed_mutations.yaml")
	require.True(t, result.Passed, "failures: %v", result.Failures)

	var rejected *TraceEvent
	for i := range result.Trace {
		if result.Trace[i].Error != "" {
			rejected = &result.Trace[i]
			break
		}
	}
	require.NotNil(t, rejected)
	assert.Equal(t, "AuthorizationFailed", rejected.Error)
	assert.Empty(t, rejected.Created)
}

func TestRunReportsMismatchesAsFailures(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "expectations that cannot hold",
		Flow: []FlowStep{
			{Query: `CREATE (n:Person)`, Expect: &ExpectClause{Created: []uint64{42}}},
			{Query: `MATCH (a:Person) RETURN a.id LIMIT 5`, Expect: &ExpectClause{Error: "QueryParseFailed"}},
		},
	}
	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Len(t, result.Failures, 2)
}

func TestRunFailsOnBrokenSetup(t *testing.T) {
	scenario := &Scenario{
		Name:        "broken-setup",
		Description: "setup queries must succeed",
		Setup:       []string{`CREATE (0)-[:K]->(9)`},
		Flow:        []FlowStep{{Query: `MATCH (a:P) RETURN a.id LIMIT 1`}},
	}
	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup[0] failed")
}

func TestTraceIsReproducible(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		file := file
		t.Run(filepath.Base(file), func(t *testing.T) {
			scenario, err := LoadScenario(file)
			require.NoError(t, err)

			first, err := Run(scenario)
			require.NoError(t, err)
			second, err := Run(scenario)
			require.NoError(t, err)
			assert.Equal(t, first.Trace, second.Trace)
		})
	}
}

func TestGoldenTraces(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "golden", "*.golden"))
	require.NoError(t, err)
	require.NotEmpty(t, files, "golden fixtures missing; run with -update to record them")
	for _, file := range files {
		name := filepath.Base(file)
		scenarioFile := name[:len(name)-len(".golden")] + ".yaml"
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata", scenarioFile))
			require.NoError(t, err)
			_, err = RunWithGolden(t, scenario)
			require.NoError(t, err)
		})
	}
}

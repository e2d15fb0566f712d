package harness

import (
	"context"
	"fmt"

	"github.com/roach88/cypherlite/internal/authz"
	"github.com/roach88/cypherlite/internal/engine"
	"github.com/roach88/cypherlite/internal/errcode"
	"github.com/roach88/cypherlite/internal/graph"
	"github.com/roach88/cypherlite/internal/testutil"
	"github.com/roach88/cypherlite/internal/vm"
)

// TraceEvent records one executed step for golden comparison.
type TraceEvent struct {
	Seq      int64    `json:"seq"`
	Phase    string   `json:"phase"` // "setup" or "flow"
	Query    string   `json:"query"`
	CodeHash string   `json:"code_hash"`
	Error    string   `json:"error,omitempty"` // protocol code name
	Rows     []vm.Row `json:"rows,omitempty"`
	Created  []uint64 `json:"created,omitempty"`
	Steps    uint64   `json:"steps,omitempty"`
}

// Result is the outcome of running a scenario.
type Result struct {
	Passed   bool
	Failures []string
	Trace    []TraceEvent
}

// NewResult creates an empty passing result.
func NewResult() *Result {
	return &Result{Passed: true}
}

func (r *Result) fail(format string, args ...any) {
	r.Passed = false
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

// Run executes a scenario against a fresh in-memory graph.
//
// Each scenario gets its own graph and engine, sized and keyed by the
// scenario header, so runs are isolated and reproducible.
func Run(scenario *Scenario) (*Result, error) {
	var (
		authority string
		key       testutil.Keypair
	)
	if scenario.AuthoritySeed != 0 {
		key = testutil.KeyFromByte(scenario.AuthoritySeed)
		authority = key.PubHex
	}

	g := graph.New(authority, graph.Config{CapacityBytes: scenario.CapacityBytes})

	opts := []engine.Option{}
	if scenario.StepLimit > 0 {
		opts = append(opts, engine.WithStepLimit(scenario.StepLimit))
	}
	eng := engine.New(g, opts...)

	h := &runner{eng: eng, authority: authority, key: key}
	ctx := context.Background()
	result := NewResult()

	for i, query := range scenario.Setup {
		ev := h.execute(ctx, "setup", query, true)
		result.Trace = append(result.Trace, ev)
		if ev.Error != "" {
			return nil, fmt.Errorf("setup[%d] failed with %s: %s", i, ev.Error, query)
		}
	}
	for i, step := range scenario.Flow {
		ev := h.execute(ctx, "flow", step.Query, !step.Unsigned)
		result.Trace = append(result.Trace, ev)
		checkStep(result, i, step.Expect, ev)
	}
	return result, nil
}

type runner struct {
	eng       *engine.Engine
	authority string
	key       testutil.Keypair
}

// execute runs one query, signing it with the authority key when signed
// is set and the scenario has an authority.
func (r *runner) execute(ctx context.Context, phase, query string, signed bool) TraceEvent {
	ev := TraceEvent{Phase: phase, Query: query}

	_, hash, err := r.eng.Compile(query)
	if err == nil {
		ev.CodeHash = string(hash)
		var auth *authz.Request
		if signed && r.authority != "" {
			auth = &authz.Request{
				PubKeyHex: r.authority,
				Signature: authz.Sign(r.key.Priv, hash),
			}
		}
		var res *vm.Result
		res, err = r.eng.Run(ctx, query, auth)
		if err == nil {
			ev.Rows = res.Rows
			ev.Created = res.CreatedIDs
			ev.Steps = res.Steps
		}
	}
	ev.Seq = r.eng.Clock().Current()
	if err != nil {
		ev.Error = errcode.CodeOf(err).String()
	}
	return ev
}

func checkStep(result *Result, i int, expect *ExpectClause, ev TraceEvent) {
	if expect == nil {
		if ev.Error != "" {
			result.fail("flow[%d]: unexpected error %s", i, ev.Error)
		}
		return
	}
	if expect.Error != "" {
		if ev.Error != expect.Error {
			result.fail("flow[%d]: error = %q, want %q", i, ev.Error, expect.Error)
		}
		return
	}
	if ev.Error != "" {
		result.fail("flow[%d]: unexpected error %s", i, ev.Error)
		return
	}
	if expect.Rows != nil {
		got := make([]string, len(ev.Rows))
		for j, row := range ev.Rows {
			got[j] = row.Value
		}
		if !equalStrings(got, expect.Rows) {
			result.fail("flow[%d]: rows = %v, want %v", i, got, expect.Rows)
		}
	}
	if expect.IDs != nil {
		got := make([]uint64, len(ev.Rows))
		for j, row := range ev.Rows {
			got[j] = row.NodeID
		}
		if !equalUint64s(got, expect.IDs) {
			result.fail("flow[%d]: ids = %v, want %v", i, got, expect.IDs)
		}
	}
	if expect.Created != nil && !equalUint64s(ev.Created, expect.Created) {
		result.fail("flow[%d]: created = %v, want %v", i, ev.Created, expect.Created)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalUint64s(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

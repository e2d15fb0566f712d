package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/cypherlite/internal/authz"
	"github.com/roach88/cypherlite/internal/bytecode"
	"github.com/roach88/cypherlite/internal/codegen"
	"github.com/roach88/cypherlite/internal/errcode"
	"github.com/roach88/cypherlite/internal/graph"
	"github.com/roach88/cypherlite/internal/parser"
	"github.com/roach88/cypherlite/internal/vm"
)

// DefaultStepLimit is the per-query step budget applied when no option
// overrides it.
const DefaultStepLimit = vm.DefaultStepLimit

// Engine runs queries against one graph store.
//
// All mutations happen through Run. The engine holds the only mutable
// reference to its store; callers read through accessor methods.
type Engine struct {
	store     *graph.Store
	policy    authz.Policy
	ledger    *authz.Ledger
	clock     *Clock
	stepLimit uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithStepLimit sets the per-query step budget.
//
// Default: 1000 steps (DefaultStepLimit).
// Use WithStepLimit(10) for testing budget enforcement.
func WithStepLimit(limit uint64) Option {
	return func(e *Engine) { e.stepLimit = limit }
}

// WithPolicy sets the authorization policy for mutating programs.
func WithPolicy(p authz.Policy) Option {
	return func(e *Engine) {
		e.policy = p
		if l, ok := p.(*authz.Ledger); ok {
			e.ledger = l
		}
	}
}

// WithClock substitutes the logical clock, used when resuming against a
// persisted execution log.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New creates an engine around the given store.
//
// The default policy depends on the store: a store with an authority key
// requires a direct Ed25519 signature for every mutation; a store without
// one admits all programs.
func New(s *graph.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		clock:     NewClock(),
		stepLimit: DefaultStepLimit,
	}
	if s.Authority() != "" {
		e.policy = authz.Direct{}
	} else {
		e.policy = authz.Open{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the engine's live store handle. Read-only: all writes go
// through Run.
func (e *Engine) Store() *graph.Store { return e.store }

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock { return e.clock }

// StepLimit returns the configured per-query step budget.
func (e *Engine) StepLimit() uint64 { return e.stepLimit }

// Compile parses and lowers a query without executing it. The returned
// hash is the program's content address, the value callers sign or commit
// to before revealing.
func (e *Engine) Compile(query string) (*bytecode.Program, bytecode.Hash, error) {
	q, perr := parser.Parse(query)
	if perr != nil {
		return nil, "", parser.Protocol(perr)
	}
	prog := codegen.Generate(q)
	hash, err := prog.CodeHash()
	if err != nil {
		return nil, "", errcode.New(errcode.QueryExecutionFailed, "hash program: %v", err)
	}
	return prog, hash, nil
}

// Commit registers a blinded commitment digest for a later reveal.
// Fails unless the engine was configured with a commit-reveal ledger.
func (e *Engine) Commit(digest string) error {
	if e.ledger == nil {
		return errcode.New(errcode.CommitRevealMismatch,
			"engine is not configured for commit-reveal authorization")
	}
	if err := e.ledger.Commit(digest); err != nil {
		return err
	}
	slog.Info("commitment registered", "digest", digest, "pending", e.ledger.Pending())
	return nil
}

// Run executes one query to completion.
//
// Mutating programs require auth: the caller's key must equal the store's
// authority and the configured policy must admit the program. Read-only
// programs run without proof.
//
// Atomicity: the VM executes against a staging clone; the live store is
// replaced only when execution succeeds, so a failed query has no effect.
func (e *Engine) Run(ctx context.Context, query string, auth *authz.Request) (*vm.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, errcode.New(errcode.QueryExecutionFailed, "execution cancelled: %v", err)
	}

	prog, hash, err := e.Compile(query)
	if err != nil {
		return nil, err
	}
	seq := e.clock.Next()

	if prog.Mutates() {
		if err := e.authorize(hash, auth); err != nil {
			slog.Warn("mutation rejected",
				"seq", seq,
				"code_hash", string(hash),
				"error", err,
			)
			return nil, err
		}
	}

	staging := e.store.Clone()
	res, err := vm.New(staging, e.stepLimit).Run(prog)
	if err != nil {
		slog.Error("query failed",
			"seq", seq,
			"code_hash", string(hash),
			"code", errcode.CodeOf(err).String(),
			"error", err,
		)
		return nil, err
	}
	if prog.Mutates() {
		e.store.ReplaceWith(staging)
	}

	slog.Info("query executed",
		"seq", seq,
		"code_hash", string(hash),
		"mutates", prog.Mutates(),
		"steps", res.Steps,
		"rows", len(res.Rows),
		"created", len(res.CreatedIDs),
	)
	return res, nil
}

// NodeInfo returns a copy of the stored node with the given id.
func (e *Engine) NodeInfo(id uint64) (graph.Node, error) {
	n, err := e.store.GetNode(id)
	if err != nil {
		return graph.Node{}, err
	}
	out := *n
	out.Data = append([]byte(nil), n.Data...)
	out.OutEdges = append([]int(nil), n.OutEdges...)
	return out, nil
}

// EdgeInfo returns a copy of the stored edge with the given id.
func (e *Engine) EdgeInfo(id uint64) (graph.Edge, error) {
	edge, err := e.store.GetEdge(id)
	if err != nil {
		return graph.Edge{}, err
	}
	return *edge, nil
}

func (e *Engine) authorize(hash bytecode.Hash, auth *authz.Request) error {
	if authority := e.store.Authority(); authority != "" {
		if auth == nil {
			return errcode.New(errcode.AuthorizationFailed,
				"mutation requires proof from authority %s", authority)
		}
		if auth.PubKeyHex != authority {
			return errcode.New(errcode.AuthorizationFailed,
				"key %s is not the store authority", auth.PubKeyHex)
		}
	}
	req := authz.Request{CodeHash: hash}
	if auth != nil {
		req.PubKeyHex = auth.PubKeyHex
		req.Signature = auth.Signature
		req.CommitDigest = auth.CommitDigest
	}
	return e.policy.Authorize(req)
}

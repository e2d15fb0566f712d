package cli

import (
	"context"
	"fmt"

	"github.com/roach88/cypherlite/internal/authz"
	"github.com/roach88/cypherlite/internal/config"
	"github.com/roach88/cypherlite/internal/engine"
	"github.com/roach88/cypherlite/internal/store"
)

// session wires one command invocation to a stored graph: config, the
// sqlite store, the engine, and (in commit-reveal mode) the restored
// ledger.
type session struct {
	cfg      *config.Config
	db       *store.Store
	graphKey string
	eng      *engine.Engine
	ledger   *authz.Ledger
}

// loadConfig resolves the effective configuration for a command.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.Config != "" {
		cfg, err = config.Load(opts.Config)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	return cfg, nil
}

// openDB opens the sqlite store named by the effective config.
func openDB(opts *RootOptions) (*config.Config, *store.Store, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	db, err := store.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

// openSession loads a stored graph and builds an engine around it.
func openSession(ctx context.Context, opts *RootOptions, graphKey string) (*session, error) {
	cfg, db, err := openDB(opts)
	if err != nil {
		return nil, err
	}

	g, _, err := db.LoadGraph(ctx, graphKey)
	if err != nil {
		db.Close()
		return nil, err
	}
	lastSeq, err := db.LastSeq(ctx, graphKey)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &session{cfg: cfg, db: db, graphKey: graphKey}

	engOpts := []engine.Option{
		engine.WithStepLimit(cfg.StepLimit),
		engine.WithClock(engine.NewClockAt(lastSeq)),
	}
	switch cfg.Auth.Mode {
	case config.AuthModeOpen:
		engOpts = append(engOpts, engine.WithPolicy(authz.Open{}))
	case config.AuthModeDirect:
		engOpts = append(engOpts, engine.WithPolicy(authz.Direct{}))
	case config.AuthModeCommitReveal:
		ledger := authz.NewLedger(
			authz.WithRevealWindow(cfg.Auth.RevealWindow()),
			authz.WithMaxAttempts(cfg.Auth.MaxAttempts),
		)
		recs, err := db.LoadCommitments(ctx, graphKey)
		if err != nil {
			db.Close()
			return nil, err
		}
		ledger.Restore(recs)
		s.ledger = ledger
		engOpts = append(engOpts, engine.WithPolicy(ledger))
	default:
		db.Close()
		return nil, fmt.Errorf("invalid auth mode %q", cfg.Auth.Mode)
	}

	s.eng = engine.New(g, engOpts...)
	return s, nil
}

// persist writes the session's mutable state back to the database: the
// graph snapshot, the ledger (when present), and nothing else. Execution
// rows are appended separately by the commands that run programs.
func (s *session) persist(ctx context.Context) error {
	seq := s.eng.Clock().Current()
	if err := s.db.SaveGraph(ctx, s.graphKey, s.eng.Store(), seq); err != nil {
		return err
	}
	if s.ledger != nil {
		if err := s.db.SaveCommitments(ctx, s.graphKey, s.ledger.Records()); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) Close() error {
	return s.db.Close()
}

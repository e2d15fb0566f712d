package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/cypherlite/internal/graph"
)

// ErrGraphNotFound is returned when a named graph has no row.
var ErrGraphNotFound = errors.New("graph not found")

// GraphMeta describes a stored graph without decoding its snapshot.
type GraphMeta struct {
	Key          string
	Authority    string
	Capacity     int
	SnapshotSize int
	UpdatedSeq   int64
}

// SaveGraph upserts the full snapshot of a graph under the given key.
// seq is the engine's logical clock position at commit time.
func (s *Store) SaveGraph(ctx context.Context, key string, g *graph.Store, seq int64) error {
	snapshot, err := g.MarshalSnapshot()
	if err != nil {
		return fmt.Errorf("marshal snapshot for %q: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO graphs (key, authority, capacity, snapshot, updated_seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			authority   = excluded.authority,
			capacity    = excluded.capacity,
			snapshot    = excluded.snapshot,
			updated_seq = excluded.updated_seq
	`, key, g.Authority(), g.Capacity(), snapshot, seq)
	if err != nil {
		return fmt.Errorf("save graph %q: %w", key, err)
	}
	return nil
}

// LoadGraph reconstructs a stored graph. The returned seq is the logical
// clock position recorded at the last save, used to resume the engine's
// clock past already-logged executions.
func (s *Store) LoadGraph(ctx context.Context, key string) (*graph.Store, int64, error) {
	var (
		capacity int
		snapshot []byte
		seq      int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT capacity, snapshot, updated_seq FROM graphs WHERE key = ?
	`, key).Scan(&capacity, &snapshot, &seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("load graph %q: %w", key, ErrGraphNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load graph %q: %w", key, err)
	}

	g, err := graph.UnmarshalSnapshot(snapshot, graph.Config{CapacityBytes: capacity})
	if err != nil {
		return nil, 0, fmt.Errorf("decode snapshot for %q: %w", key, err)
	}
	return g, seq, nil
}

// ListGraphs returns metadata for every stored graph in key order.
func (s *Store) ListGraphs(ctx context.Context) ([]GraphMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, authority, capacity, length(snapshot), updated_seq
		FROM graphs ORDER BY key ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	defer rows.Close()

	var out []GraphMeta
	for rows.Next() {
		var m GraphMeta
		if err := rows.Scan(&m.Key, &m.Authority, &m.Capacity, &m.SnapshotSize, &m.UpdatedSeq); err != nil {
			return nil, fmt.Errorf("scan graph row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	return out, nil
}

// DeleteGraph removes a graph and, via foreign keys, its commitments and
// execution log.
func (s *Store) DeleteGraph(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM graphs WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete graph %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete graph %q: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("delete graph %q: %w", key, ErrGraphNotFound)
	}
	return nil
}

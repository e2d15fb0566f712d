package store

import (
	"context"
	"fmt"
)

// Execution is one row of the append-only execution log.
type Execution struct {
	Seq      int64
	CodeHash string
	Mutates  bool
	Steps    uint64
}

// AppendExecution records one executed program for a graph.
func (s *Store) AppendExecution(ctx context.Context, graphKey string, ex Execution) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO executions (graph_key, seq, code_hash, mutates, steps)
		VALUES (?, ?, ?, ?, ?)
	`, graphKey, ex.Seq, ex.CodeHash, ex.Mutates, ex.Steps)
	if err != nil {
		return fmt.Errorf("append execution seq %d for %q: %w", ex.Seq, graphKey, err)
	}
	return nil
}

// Executions returns the execution log for a graph in seq order.
func (s *Store) Executions(ctx context.Context, graphKey string) ([]Execution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, code_hash, mutates, steps
		FROM executions WHERE graph_key = ? ORDER BY seq ASC
	`, graphKey)
	if err != nil {
		return nil, fmt.Errorf("load executions for %q: %w", graphKey, err)
	}
	defer rows.Close()

	var out []Execution
	for rows.Next() {
		var ex Execution
		if err := rows.Scan(&ex.Seq, &ex.CodeHash, &ex.Mutates, &ex.Steps); err != nil {
			return nil, fmt.Errorf("scan execution row: %w", err)
		}
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load executions for %q: %w", graphKey, err)
	}
	return out, nil
}

// LastSeq returns the highest logged seq for a graph, or zero when the
// log is empty.
func (s *Store) LastSeq(ctx context.Context, graphKey string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM executions WHERE graph_key = ?
	`, graphKey).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq for %q: %w", graphKey, err)
	}
	return seq, nil
}

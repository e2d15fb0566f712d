package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/cypherlite/internal/authz"
)

// SaveCommitments replaces the persisted ledger for a graph with the
// given records. Called after every commit or reveal so the on-disk
// ledger always mirrors the in-memory one.
func (s *Store) SaveCommitments(ctx context.Context, graphKey string, recs []authz.CommitmentRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save commitments for %q: %w", graphKey, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM commitments WHERE graph_key = ?`, graphKey); err != nil {
		return fmt.Errorf("clear commitments for %q: %w", graphKey, err)
	}
	for _, r := range recs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO commitments (graph_key, digest, created_at, attempts)
			VALUES (?, ?, ?, ?)
		`, graphKey, r.Digest, r.CreatedAt.Unix(), r.Attempts)
		if err != nil {
			return fmt.Errorf("insert commitment %s: %w", r.Digest, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save commitments for %q: %w", graphKey, err)
	}
	return nil
}

// LoadCommitments returns the persisted ledger records for a graph in
// digest order.
func (s *Store) LoadCommitments(ctx context.Context, graphKey string) ([]authz.CommitmentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT digest, created_at, attempts
		FROM commitments WHERE graph_key = ? ORDER BY digest ASC
	`, graphKey)
	if err != nil {
		return nil, fmt.Errorf("load commitments for %q: %w", graphKey, err)
	}
	defer rows.Close()

	var out []authz.CommitmentRecord
	for rows.Next() {
		var (
			r       authz.CommitmentRecord
			created int64
		)
		if err := rows.Scan(&r.Digest, &created, &r.Attempts); err != nil {
			return nil, fmt.Errorf("scan commitment row: %w", err)
		}
		r.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load commitments for %q: %w", graphKey, err)
	}
	return out, nil
}

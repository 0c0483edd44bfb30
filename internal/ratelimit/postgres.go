package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore shares windows between several server processes through a
// single PostgreSQL table (see migrations/).
type PGStore struct {
	pool pgxQuerier
}

type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPGStore constructs a PostgreSQL-backed store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// NewPGStoreWithQuerier constructs a store over any pgx querier.
func NewPGStoreWithQuerier(q pgxQuerier) *PGStore {
	return &PGStore{pool: q}
}

const takeQuery = `
INSERT INTO rate_limits (key, window_start, last_request_at, count)
VALUES ($1, $2::timestamptz, $2::timestamptz, 1)
ON CONFLICT (key) DO UPDATE
SET
  count = CASE WHEN $2::timestamptz - rate_limits.window_start >= $3::interval THEN 1 ELSE rate_limits.count + 1 END,
  window_start = CASE WHEN $2::timestamptz - rate_limits.window_start >= $3::interval THEN $2::timestamptz ELSE rate_limits.window_start END,
  last_request_at = $2::timestamptz
RETURNING window_start, count`

// Take runs the whole check-and-increment as one statement so concurrent
// requests for the same key serialize on the row.
func (s *PGStore) Take(ctx context.Context, key string, p Policy, now time.Time) (Decision, error) {
	var (
		windowStart time.Time
		count       int
	)
	if err := s.pool.QueryRow(ctx, takeQuery, key, now.UTC(), p.Window).Scan(&windowStart, &count); err != nil {
		return Decision{}, fmt.Errorf("failed to take rate limit slot: %w", err)
	}
	return decide(windowStart, count, p, now), nil
}

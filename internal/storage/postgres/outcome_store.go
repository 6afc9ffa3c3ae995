// Package postgres provides Postgres-backed persistence for run auditing.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/compound"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// OutcomeStoreConfig controls the Postgres connection pool used for
// outcome rows.
type OutcomeStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// OutcomeStore writes one row per fetch outcome into Postgres.
type OutcomeStore struct {
	pool  execCloser
	table string
}

// NewOutcomeStore creates a Postgres-backed OutcomeStore using the provided
// config.
func NewOutcomeStore(ctx context.Context, cfg OutcomeStoreConfig) (*OutcomeStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "fetch_outcomes"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &OutcomeStore{pool: pool, table: table}, nil
}

// NewOutcomeStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewOutcomeStoreWithPool(pool execCloser, table string) (*OutcomeStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "fetch_outcomes"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &OutcomeStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *OutcomeStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// RecordOutcome inserts one outcome row.
func (s *OutcomeStore) RecordOutcome(ctx context.Context, runID uuid.UUID, outcome compound.FetchOutcome) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("outcome store is not configured")
	}
	if outcome.ID == "" {
		return fmt.Errorf("outcome id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	run_uuid,
	compound_id,
	status,
	http_status,
	bytes_written,
	attempts,
	detail,
	duration_ms,
	recorded_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9
)`, s.table)

	args := []any{
		runID,
		outcome.ID,
		string(outcome.Status),
		outcome.HTTPStatus,
		outcome.BytesWritten,
		outcome.Attempts,
		outcome.Detail,
		outcome.Duration.Milliseconds(),
		time.Now().UTC(),
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// RecordSummary inserts the final run summary row.
func (s *OutcomeStore) RecordSummary(ctx context.Context, summary compound.RunSummary) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("outcome store is not configured")
	}
	query := fmt.Sprintf(`
INSERT INTO %s_runs (
	run_uuid,
	total,
	succeeded,
	failed,
	elapsed_ms,
	finished_at
) VALUES (
	$1,$2,$3,$4,$5,$6
)`, s.table)

	args := []any{
		summary.RunID,
		summary.Total,
		summary.Succeeded,
		summary.Failed,
		summary.Elapsed.Milliseconds(),
		time.Now().UTC(),
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run summary: %w", err)
	}
	return nil
}

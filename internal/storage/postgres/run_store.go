// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mirrorlake/pinharvest/internal/store"
)

// runPool is the subset of pgxpool.Pool the store relies on; pgxmock
// satisfies it for tests.
type runPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// RunStoreConfig controls the Postgres connection pool used for run history.
type RunStoreConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// RunStore implements the store.RunRepository interface using Postgres.
type RunStore struct {
	pool runPool
}

// NewRunStore creates a Postgres-backed RunStore using the provided config.
func NewRunStore(ctx context.Context, cfg RunStoreConfig) (*RunStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.postgres_dsn is required")
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
	return &RunStore{pool: pool}, nil
}

// NewRunStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewRunStoreWithPool(pool runPool) (*RunStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &RunStore{pool: pool}, nil
}

// Close closes the underlying connection pool.
func (s *RunStore) Close() {
	s.pool.Close()
}

// StartRun inserts the run row; replays of the same run ID are ignored.
// It assumes a table schema like:
// CREATE TABLE harvest_runs (
//
//	id UUID PRIMARY KEY,
//	started_at TIMESTAMPTZ NOT NULL,
//	finished_at TIMESTAMPTZ,
//	status TEXT NOT NULL,
//	completed_topics INT NOT NULL DEFAULT 0,
//	failed_topics INT NOT NULL DEFAULT 0,
//	accepted_total BIGINT NOT NULL DEFAULT 0
//
// );
func (s *RunStore) StartRun(ctx context.Context, runID uuid.UUID, startedAt time.Time) error {
	query := `
		INSERT INTO harvest_runs (id, started_at, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING;
	`
	_, err := s.pool.Exec(ctx, query, runID, startedAt, store.RunRunning)
	if err != nil {
		return fmt.Errorf("failed to insert run start: %w", err)
	}
	return nil
}

// RecordTopicCompletion appends one terminal topic row for the run.
// It assumes a table schema like:
// CREATE TABLE harvest_topics (
//
//	run_id UUID NOT NULL REFERENCES harvest_runs (id),
//	category TEXT NOT NULL,
//	topic TEXT NOT NULL,
//	status TEXT NOT NULL,
//	accepted BIGINT NOT NULL,
//	recorded_at TIMESTAMPTZ NOT NULL
//
// );
func (s *RunStore) RecordTopicCompletion(
	ctx context.Context,
	runID uuid.UUID,
	category, topic, status string,
	accepted int64,
	at time.Time,
) error {
	query := `
		INSERT INTO harvest_topics (run_id, category, topic, status, accepted, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := s.pool.Exec(ctx, query, runID, category, topic, status, accepted, at)
	if err != nil {
		return fmt.Errorf("failed to insert topic completion: %w", err)
	}
	return nil
}

// CompleteRun marks the run finished with its final tallies.
func (s *RunStore) CompleteRun(
	ctx context.Context,
	runID uuid.UUID,
	finishedAt time.Time,
	completed, failed int,
	accepted int64,
) error {
	query := `
		UPDATE harvest_runs
		SET finished_at = $1, status = $2, completed_topics = $3, failed_topics = $4, accepted_total = $5
		WHERE id = $6;
	`
	_, err := s.pool.Exec(ctx, query, finishedAt, store.RunCompleted, completed, failed, accepted, runID)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// GetRun retrieves a single run by its ID.
func (s *RunStore) GetRun(ctx context.Context, runID uuid.UUID) (store.RunRecord, error) {
	query := `
		SELECT id, started_at, finished_at, status, completed_topics, failed_topics, accepted_total
		FROM harvest_runs
		WHERE id = $1;
	`
	var rec store.RunRecord
	err := s.pool.QueryRow(ctx, query, runID).Scan(
		&rec.ID,
		&rec.StartedAt,
		&rec.FinishedAt,
		&rec.Status,
		&rec.CompletedTopics,
		&rec.FailedTopics,
		&rec.AcceptedTotal,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.RunRecord{}, store.ErrNotFound
		}
		return store.RunRecord{}, fmt.Errorf("failed to get run: %w", err)
	}
	return rec, nil
}

// ListRunTopics retrieves the terminal topic rows for one run in completion order.
func (s *RunStore) ListRunTopics(
	ctx context.Context,
	runID uuid.UUID,
	limit, offset int,
) ([]store.TopicRecord, error) {
	query := `
		SELECT run_id, category, topic, status, accepted, recorded_at
		FROM harvest_topics
		WHERE run_id = $1
		ORDER BY recorded_at ASC
		LIMIT $2 OFFSET $3;
	`
	rows, err := s.pool.Query(ctx, query, runID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list run topics: %w", err)
	}
	defer rows.Close()

	var topics []store.TopicRecord
	for rows.Next() {
		var rec store.TopicRecord
		err := rows.Scan(
			&rec.RunID,
			&rec.Category,
			&rec.Topic,
			&rec.Status,
			&rec.Accepted,
			&rec.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan topic row: %w", err)
		}
		topics = append(topics, rec)
	}
	return topics, nil
}

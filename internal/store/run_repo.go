// Package store declares interfaces for persisting harvest run history.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound signals that the requested record does not exist.
var ErrNotFound = errors.New("run record not found")

// RunStatus mirrors the harvest_runs status column.
type RunStatus string

// Run statuses persisted in harvest_runs.status.
const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
)

// RunRecord models the harvest_runs table for API responses.
type RunRecord struct {
	// ID is the run identifier shared with progress events.
	ID uuid.UUID
	// StartedAt captures when the run was first marked running.
	StartedAt time.Time
	// FinishedAt is nil until the run completes.
	FinishedAt *time.Time
	// Status is running or completed.
	Status RunStatus
	// CompletedTopics and FailedTopics are the final topic tallies.
	CompletedTopics int
	FailedTopics    int
	// AcceptedTotal is the number of records accepted across all topics.
	AcceptedTotal int64
}

// TopicRecord models one row of the harvest_topics table.
type TopicRecord struct {
	// RunID is the owning run.
	RunID uuid.UUID
	// Category and Topic identify the catalog entry.
	Category string
	Topic    string
	// Status is the terminal topic state (succeeded, exhausted, aborted).
	Status string
	// Accepted counts records the topic contributed.
	Accepted int64
	// RecordedAt is when the topic reached its terminal state.
	RecordedAt time.Time
}

// RunRepository persists run history.
type RunRepository interface {
	// StartRun inserts (or idempotently updates) the run's started_at row.
	StartRun(ctx context.Context, runID uuid.UUID, startedAt time.Time) error
	// RecordTopicCompletion appends one terminal topic row for the run.
	RecordTopicCompletion(
		ctx context.Context,
		runID uuid.UUID,
		category, topic, status string,
		accepted int64,
		at time.Time,
	) error
	// CompleteRun marks the run finished with its final tallies.
	CompleteRun(
		ctx context.Context,
		runID uuid.UUID,
		finishedAt time.Time,
		completed, failed int,
		accepted int64,
	) error

	// GetRun loads a single run or returns ErrNotFound.
	GetRun(ctx context.Context, runID uuid.UUID) (RunRecord, error)
	// ListRunTopics returns the terminal topic rows for one run.
	ListRunTopics(ctx context.Context, runID uuid.UUID, limit, offset int) ([]TopicRecord, error)
}

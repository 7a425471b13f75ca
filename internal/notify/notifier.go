// Package notify defines the interface for announcing finished harvest runs.
// This abstraction keeps the pipeline independent of a specific messaging
// backend (e.g., GCP Pub/Sub, RabbitMQ, Kafka).
package notify

import (
	"context"
	"time"
)

// RunSummary is the payload announced when a harvest run finishes. Downstream
// consumers use it to pick up the freshly written output tree.
type RunSummary struct {
	RunID           string    `json:"run_id"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	CompletedTopics int       `json:"completed_topics"`
	FailedTopics    int       `json:"failed_topics"`
	AcceptedTotal   int64     `json:"accepted_total"`
	OutputRoot      string    `json:"output_root"`
}

// Notifier announces run completion to interested consumers.
type Notifier interface {
	// Announce publishes the summary and returns the backend's message ID.
	Announce(ctx context.Context, summary RunSummary) (string, error)

	// Close cleans up any client connections and resources.
	Close() error
}

// NoOp is a notifier that performs no operations. It is useful for local
// harvests that nothing subscribes to.
type NoOp struct{}

// Announce for NoOp does nothing and returns an empty ID.
func (NoOp) Announce(_ context.Context, _ RunSummary) (string, error) { return "", nil }

// Close for NoOp does nothing and returns nil.
func (NoOp) Close() error { return nil }

// Package harvest defines core types shared across the pipeline.
package harvest

import "time"

// TopicStatus represents the lifecycle state of one topic's harvest.
type TopicStatus string

// Topic harvest states. Starting and Collecting are transient; the rest are
// terminal.
const (
	TopicStarting   TopicStatus = "starting"
	TopicCollecting TopicStatus = "collecting"
	TopicSucceeded  TopicStatus = "succeeded"
	TopicExhausted  TopicStatus = "exhausted"
	TopicAborted    TopicStatus = "aborted"
)

// Terminal reports whether the status ends a topic's lifecycle.
func (s TopicStatus) Terminal() bool {
	switch s {
	case TopicSucceeded, TopicExhausted, TopicAborted:
		return true
	}
	return false
}

// Pin is one harvested record. The JSON field names match the on-disk output
// format consumed by downstream tooling.
type Pin struct {
	ID          string    `json:"pin_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	PinURL      string    `json:"pin_url"`
	Category    string    `json:"category"`
	Topic       string    `json:"topic"`
	ScrapedAt   time.Time `json:"scraped_at"`
}

// TopicTask is the unit of scheduling: one (category, query) pair plus the
// attempt counter driven by the retry policy.
type TopicTask struct {
	Category string
	Query    string
	Attempt  int
}

// DownloadOutcome is the terminal disposition of one asset download. A
// failed fetch is counted, never re-queued within the same run.
type DownloadOutcome string

// Download outcomes.
const (
	OutcomeSaved           DownloadOutcome = "saved"
	OutcomeSkippedExisting DownloadOutcome = "skipped_existing"
	OutcomeFailedFetch     DownloadOutcome = "failed_fetch"
	OutcomeFilteredUnsafe  DownloadOutcome = "filtered_unsafe"
)

// DownloadStats aggregates outcomes for a batch of asset downloads.
type DownloadStats struct {
	Saved           int `json:"saved"`
	SkippedExisting int `json:"skipped_existing"`
	FailedFetch     int `json:"failed_fetch"`
	FilteredUnsafe  int `json:"filtered_unsafe"`
}

// Add records one outcome.
func (s *DownloadStats) Add(outcome DownloadOutcome) {
	switch outcome {
	case OutcomeSaved:
		s.Saved++
	case OutcomeSkippedExisting:
		s.SkippedExisting++
	case OutcomeFailedFetch:
		s.FailedFetch++
	case OutcomeFilteredUnsafe:
		s.FilteredUnsafe++
	}
}

// Merge folds another batch's counts into s.
func (s *DownloadStats) Merge(other DownloadStats) {
	s.Saved += other.Saved
	s.SkippedExisting += other.SkippedExisting
	s.FailedFetch += other.FailedFetch
	s.FilteredUnsafe += other.FilteredUnsafe
}

// Total returns the number of records the batch processed.
func (s DownloadStats) Total() int {
	return s.Saved + s.SkippedExisting + s.FailedFetch + s.FilteredUnsafe
}

// Verdict is an image safety score from a classifier backend.
type Verdict struct {
	Unsafe bool
	Score  float64
}

// TopicResult is the terminal record of one topic's harvest.
type TopicResult struct {
	Task      TopicTask
	Status    TopicStatus
	Pins      []Pin
	Attempts  int
	Err       error
	Downloads DownloadStats
}

// RunReport summarizes a whole scheduler run.
type RunReport struct {
	Results         []TopicResult
	CompletedTopics int
	FailedTopics    int
	AcceptedTotal   int
	Downloads       DownloadStats
	MasterPath      string
	Elapsed         time.Duration
}

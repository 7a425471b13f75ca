package progress

import (
	"sort"
	"sync"
	"time"
)

// Tracker is the live run ledger: per-category accepted counts plus topic
// completion tallies. The scheduler records into it from concurrent topic
// goroutines; the status API and the end-of-run summary read snapshots.
type Tracker struct {
	mu          sync.Mutex
	startedAt   time.Time
	totalTopics int
	completed   int
	failed      int
	accepted    int64
	byCategory  map[string]int64
}

// NewTracker creates a ledger for a run covering totalTopics topics.
func NewTracker(totalTopics int) *Tracker {
	return &Tracker{
		startedAt:   time.Now().UTC(),
		totalTopics: totalTopics,
		byCategory:  make(map[string]int64),
	}
}

// RecordTopicCompletion adds a successful topic's accepted count to the
// category tally.
func (t *Tracker) RecordTopicCompletion(category string, accepted int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed++
	t.accepted += int64(accepted)
	t.byCategory[category] += int64(accepted)
}

// RecordTopicFailure counts a topic that ended without accepted records.
func (t *Tracker) RecordTopicFailure(category string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed++
	// Failed topics still surface their category in the breakdown so a
	// category that produced nothing is visible rather than absent.
	if _, ok := t.byCategory[category]; !ok {
		t.byCategory[category] = 0
	}
}

// Snapshot returns an immutable copy of the ledger. It never blocks writers
// beyond the copy itself.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	categories := make(map[string]int64, len(t.byCategory))
	for name, count := range t.byCategory {
		categories[name] = count
	}
	return Snapshot{
		StartedAt:       t.startedAt,
		TotalTopics:     t.totalTopics,
		CompletedTopics: t.completed,
		FailedTopics:    t.failed,
		AcceptedTotal:   t.accepted,
		Categories:      categories,
	}
}

// Snapshot is a point-in-time copy of the run ledger. The JSON field names
// form the status API response shape.
type Snapshot struct {
	StartedAt       time.Time        `json:"started_at"`
	TotalTopics     int              `json:"total_topics"`
	CompletedTopics int              `json:"completed_topics"`
	FailedTopics    int              `json:"failed_topics"`
	AcceptedTotal   int64            `json:"accepted_total"`
	Categories      map[string]int64 `json:"categories"`
}

// Done reports how many topics have reached a terminal state.
func (s Snapshot) Done() int {
	return s.CompletedTopics + s.FailedTopics
}

// CategoryCount pairs a category with its accepted record count.
type CategoryCount struct {
	Category string `json:"category"`
	Accepted int64  `json:"accepted"`
}

// Breakdown returns the per-category counts sorted by accepted count
// descending, ties broken by category name.
func (s Snapshot) Breakdown() []CategoryCount {
	out := make([]CategoryCount, 0, len(s.Categories))
	for name, count := range s.Categories {
		out = append(out, CategoryCount{Category: name, Accepted: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Accepted != out[j].Accepted {
			return out[i].Accepted > out[j].Accepted
		}
		return out[i].Category < out[j].Category
	})
	return out
}

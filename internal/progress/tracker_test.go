package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestTrackerTallies verifies completions and failures accumulate into the
// snapshot, including zero-count categories from failed topics.
func TestTrackerTallies(t *testing.T) {
	t.Parallel()

	tr := NewTracker(4)
	tr.RecordTopicCompletion("ART", 10)
	tr.RecordTopicCompletion("ART", 5)
	tr.RecordTopicCompletion("DESIGN", 7)
	tr.RecordTopicFailure("MUSIC")

	snap := tr.Snapshot()
	require.Equal(t, 4, snap.TotalTopics)
	require.Equal(t, 3, snap.CompletedTopics)
	require.Equal(t, 1, snap.FailedTopics)
	require.Equal(t, 4, snap.Done())
	require.Equal(t, int64(22), snap.AcceptedTotal)
	require.Equal(t, map[string]int64{"ART": 15, "DESIGN": 7, "MUSIC": 0}, snap.Categories)
}

// TestTrackerSnapshotIsCopy ensures mutating a snapshot cannot corrupt the ledger.
func TestTrackerSnapshotIsCopy(t *testing.T) {
	t.Parallel()

	tr := NewTracker(1)
	tr.RecordTopicCompletion("ART", 3)

	snap := tr.Snapshot()
	snap.Categories["ART"] = 999
	snap.Categories["FAKE"] = 1

	fresh := tr.Snapshot()
	require.Equal(t, int64(3), fresh.Categories["ART"])
	require.NotContains(t, fresh.Categories, "FAKE")
}

// TestTrackerConcurrentRecords exercises the ledger under parallel writers.
func TestTrackerConcurrentRecords(t *testing.T) {
	t.Parallel()

	const workers = 8
	const perWorker = 50

	tr := NewTracker(workers * perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				tr.RecordTopicCompletion("ART", 2)
			}
		}()
	}
	wg.Wait()

	snap := tr.Snapshot()
	require.Equal(t, workers*perWorker, snap.CompletedTopics)
	require.Equal(t, int64(workers*perWorker*2), snap.AcceptedTotal)
	require.Equal(t, int64(workers*perWorker*2), snap.Categories["ART"])
}

// TestSnapshotBreakdownOrder verifies descending counts with name ties broken
// alphabetically, which the run summary prints directly.
func TestSnapshotBreakdownOrder(t *testing.T) {
	t.Parallel()

	snap := Snapshot{Categories: map[string]int64{
		"MUSIC":  4,
		"ART":    9,
		"DESIGN": 4,
		"FOOD":   0,
	}}

	got := snap.Breakdown()
	want := []CategoryCount{
		{Category: "ART", Accepted: 9},
		{Category: "DESIGN", Accepted: 4},
		{Category: "MUSIC", Accepted: 4},
		{Category: "FOOD", Accepted: 0},
	}
	require.Equal(t, want, got)
}

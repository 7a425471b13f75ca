package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/mirrorlake/pinharvest/internal/progress"
)

// TestPrometheusSinkRecordsMetrics ensures counters and histograms are incremented from events.
func TestPrometheusSinkRecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := progress.UUIDToBytes(uuid.New())
	now := time.Now()
	batch := []progress.Event{
		{RunID: runID, TS: now, Stage: progress.StageRunStart},
		{
			RunID:    runID,
			TS:       now.Add(time.Second),
			Stage:    progress.StageTopicStart,
			Category: "ART",
			Topic:    "watercolor landscapes",
		},
		{
			RunID:    runID,
			TS:       now.Add(40 * time.Second),
			Stage:    progress.StageTopicDone,
			Category: "ART",
			Topic:    "watercolor landscapes",
			Status:   "succeeded",
			Accepted: 25,
			Dur:      39 * time.Second,
		},
		{
			RunID:     runID,
			TS:        now.Add(time.Minute),
			Stage:     progress.StageRunDone,
			Accepted:  25,
			Completed: 1,
			Dur:       time.Minute,
		},
	}

	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsStarted))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.runsCompleted))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.topicsStarted))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.topicsFinished.WithLabelValues("succeeded")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.topicsFinished.WithLabelValues("exhausted")))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.topicsInFlight))
	require.Equal(t, 1, testutil.CollectAndCount(sink.topicRuntime, "pinharvest_topic_runtime_seconds"))
}

// TestPrometheusSinkTracksInFlight verifies the gauge rises on topic start and
// falls only when the same topic finishes.
func TestPrometheusSinkTracksInFlight(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	runID := progress.UUIDToBytes(uuid.New())
	now := time.Now()
	start := progress.Event{
		RunID:    runID,
		TS:       now,
		Stage:    progress.StageTopicStart,
		Category: "MUSIC",
		Topic:    "vinyl shelf",
	}

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{start, start}))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.topicsInFlight))

	other := start
	other.Topic = "concert posters"
	other.Stage = progress.StageTopicFailed
	other.Status = "exhausted"
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{other}))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.topicsInFlight))

	finish := start
	finish.Stage = progress.StageTopicFailed
	finish.Status = "aborted"
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{finish}))
	require.Equal(t, 0.0, testutil.ToFloat64(sink.topicsInFlight))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.topicsFinished.WithLabelValues("aborted")))
}

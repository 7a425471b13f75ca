package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mirrorlake/pinharvest/internal/progress"
	"github.com/mirrorlake/pinharvest/internal/store"
)

// TestStoreSinkPersistsEvents ensures run and topic milestones reach the repository.
func TestStoreSinkPersistsEvents(t *testing.T) {
	t.Parallel()

	repo := &fakeRunRepo{}
	sink := NewStoreSink(repo, nil)
	runUUID := uuid.New()
	runID := progress.UUIDToBytes(runUUID)
	now := time.Now()

	batch := []progress.Event{
		{RunID: runID, Stage: progress.StageRunStart, TS: now},
		{
			RunID:    runID,
			Stage:    progress.StageTopicDone,
			Category: "ART",
			Topic:    "watercolor landscapes",
			Status:   "succeeded",
			Accepted: 12,
			TS:       now.Add(30 * time.Second),
		},
		{
			RunID:    runID,
			Stage:    progress.StageTopicFailed,
			Category: "MUSIC",
			Topic:    "vinyl shelf",
			Status:   "exhausted",
			TS:       now.Add(45 * time.Second),
		},
		{
			RunID:     runID,
			Stage:     progress.StageRunDone,
			Accepted:  12,
			Completed: 1,
			Failed:    1,
			TS:        now.Add(time.Minute),
		},
	}

	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Equal(t, []uuid.UUID{runUUID}, repo.starts)
	require.Len(t, repo.topics, 2)
	require.Equal(t, topicCall{
		runID:    runUUID,
		category: "ART",
		topic:    "watercolor landscapes",
		status:   "succeeded",
		accepted: 12,
	}, repo.topics[0])
	require.Equal(t, "exhausted", repo.topics[1].status)
	require.Len(t, repo.completes, 1)
	require.Equal(t, completeCall{runID: runUUID, completed: 1, failed: 1, accepted: 12}, repo.completes[0])
}

// TestStoreSinkDefaultsStatus verifies the label fallback when an emitter
// omits the terminal status.
func TestStoreSinkDefaultsStatus(t *testing.T) {
	t.Parallel()

	repo := &fakeRunRepo{}
	sink := NewStoreSink(repo, nil)
	runID := progress.UUIDToBytes(uuid.New())

	batch := []progress.Event{
		{
			RunID:    runID,
			Stage:    progress.StageTopicDone,
			Category: "ART",
			Topic:    "gallery walls",
			Accepted: 3,
			TS:       time.Now(),
		},
	}
	require.NoError(t, sink.Consume(context.Background(), batch))
	require.Len(t, repo.topics, 1)
	require.Equal(t, "succeeded", repo.topics[0].status)
}

// TestStoreSinkHandlesErrors surfaces repository failures back to the caller.
func TestStoreSinkHandlesErrors(t *testing.T) {
	t.Parallel()

	repo := &fakeRunRepo{fail: true}
	sink := NewStoreSink(repo, nil)
	runID := progress.UUIDToBytes(uuid.New())
	err := sink.Consume(context.Background(), []progress.Event{
		{RunID: runID, Stage: progress.StageRunStart, TS: time.Now()},
	})
	require.Error(t, err)
}

type fakeRunRepo struct {
	fail      bool
	starts    []uuid.UUID
	topics    []topicCall
	completes []completeCall
}

type topicCall struct {
	runID    uuid.UUID
	category string
	topic    string
	status   string
	accepted int64
}

type completeCall struct {
	runID     uuid.UUID
	completed int
	failed    int
	accepted  int64
}

func (f *fakeRunRepo) StartRun(_ context.Context, runID uuid.UUID, startedAt time.Time) error {
	if f.fail {
		return assertErr("start")
	}
	_ = startedAt
	f.starts = append(f.starts, runID)
	return nil
}

func (f *fakeRunRepo) RecordTopicCompletion(
	_ context.Context,
	runID uuid.UUID,
	category, topic, status string,
	accepted int64,
	at time.Time,
) error {
	if f.fail {
		return assertErr("topic")
	}
	_ = at
	f.topics = append(f.topics, topicCall{
		runID:    runID,
		category: category,
		topic:    topic,
		status:   status,
		accepted: accepted,
	})
	return nil
}

func (f *fakeRunRepo) CompleteRun(
	_ context.Context,
	runID uuid.UUID,
	finishedAt time.Time,
	completed, failed int,
	accepted int64,
) error {
	if f.fail {
		return assertErr("complete")
	}
	_ = finishedAt
	f.completes = append(f.completes, completeCall{
		runID:     runID,
		completed: completed,
		failed:    failed,
		accepted:  accepted,
	})
	return nil
}

func (f *fakeRunRepo) GetRun(context.Context, uuid.UUID) (store.RunRecord, error) {
	return store.RunRecord{}, assertErr("read")
}

func (f *fakeRunRepo) ListRunTopics(context.Context, uuid.UUID, int, int) ([]store.TopicRecord, error) {
	return nil, assertErr("list")
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

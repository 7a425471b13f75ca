package sinks

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mirrorlake/pinharvest/internal/progress"
	"github.com/mirrorlake/pinharvest/internal/store"
)

// StoreSink persists run history via a store.RunRepository. Topic events are
// low-volume (one terminal row per topic), so each one maps to a single
// repository write with no collapsing.
type StoreSink struct {
	repo   store.RunRepository
	logger *zap.Logger
}

// NewStoreSink constructs a StoreSink for the provided repository.
func NewStoreSink(repo store.RunRepository, logger *zap.Logger) *StoreSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreSink{repo: repo, logger: logger}
}

// Consume forwards run and topic milestones to the repository. It respects
// ctx deadlines and returns the first repository error.
func (s *StoreSink) Consume(ctx context.Context, batch []progress.Event) error {
	if s == nil || s.repo == nil {
		return nil
	}
	for _, evt := range batch {
		runID := evt.RunUUID()
		switch evt.Stage {
		case progress.StageRunStart:
			if err := s.repo.StartRun(ctx, runID, evt.TS); err != nil {
				return fmt.Errorf("start run: %w", err)
			}
		case progress.StageTopicDone, progress.StageTopicFailed:
			status := statusLabel(evt)
			err := s.repo.RecordTopicCompletion(ctx, runID, evt.Category, evt.Topic, status, evt.Accepted, evt.TS)
			if err != nil {
				return fmt.Errorf("record topic completion: %w", err)
			}
		case progress.StageRunDone:
			err := s.repo.CompleteRun(ctx, runID, evt.TS, int(evt.Completed), int(evt.Failed), evt.Accepted)
			if err != nil {
				return fmt.Errorf("complete run: %w", err)
			}
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *StoreSink) Close(context.Context) error {
	return nil
}

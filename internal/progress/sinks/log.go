package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/mirrorlake/pinharvest/internal/progress"
)

// LogSink emits structured logs for debugging progress streams. It is useful
// during development or audits where a durable store is unavailable.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs each event in the batch using structured fields.
func (s *LogSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunUUID().String()),
			zap.String("stage", string(evt.Stage)),
			zap.String("category", evt.Category),
			zap.String("topic", evt.Topic),
			zap.String("status", evt.Status),
			zap.Int64("accepted", evt.Accepted),
			zap.Duration("dur", evt.Dur),
		}
		if evt.Stage == progress.StageRunDone {
			fields = append(fields,
				zap.Int64("completed", evt.Completed),
				zap.Int64("failed", evt.Failed))
		}
		if evt.Note != "" {
			fields = append(fields, zap.String("note", evt.Note))
		}
		s.logger.Info("Progress event", fields...)
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}

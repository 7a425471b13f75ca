package progress

import (
	"context"
	"time"

	"github.com/mirrorlake/pinharvest/internal/harvest"
)

// InstrumentRunner wraps a TopicRunner so every topic emits start and
// terminal events for runID. The harvest path itself stays unaware of the
// event stream; sinks observe it through the emitter.
func InstrumentRunner(inner harvest.TopicRunner, emitter Emitter, runID [16]byte) harvest.TopicRunner {
	return &instrumentedRunner{inner: inner, emitter: emitter, runID: runID}
}

type instrumentedRunner struct {
	inner   harvest.TopicRunner
	emitter Emitter
	runID   [16]byte
}

func (r *instrumentedRunner) Run(ctx context.Context, task harvest.TopicTask) harvest.TopicResult {
	start := time.Now().UTC()
	r.emitter.Emit(Event{
		RunID:    r.runID,
		TS:       start,
		Stage:    StageTopicStart,
		Category: task.Category,
		Topic:    task.Query,
	})

	res := r.inner.Run(ctx, task)

	end := time.Now().UTC()
	evt := Event{
		RunID:    r.runID,
		TS:       end,
		Stage:    StageTopicFailed,
		Category: task.Category,
		Topic:    task.Query,
		Status:   string(res.Status),
		Dur:      end.Sub(start),
	}
	if res.Status == harvest.TopicSucceeded {
		evt.Stage = StageTopicDone
		evt.Accepted = int64(len(res.Pins))
	} else if res.Err != nil {
		evt.Note = res.Err.Error()
	}
	r.emitter.Emit(evt)
	return res
}

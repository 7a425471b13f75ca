// Package progress defines the event structures emitted during a harvest run.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart    Stage = "RUN_START"
	StageRunDone     Stage = "RUN_DONE"
	StageTopicStart  Stage = "TOPIC_START"
	StageTopicDone   Stage = "TOPIC_DONE"
	StageTopicFailed Stage = "TOPIC_FAILED"
)

// Event captures a single milestone of harvest progress.
type Event struct {
	// RunID uniquely identifies a harvest run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which run or topic milestone occurred.
	Stage Stage
	// Category scopes topic events to their catalog category.
	Category string
	// Topic is the search query the topic event belongs to.
	Topic string
	// Status carries the terminal topic state (succeeded, exhausted, aborted).
	Status string
	// Accepted counts records accepted for a topic, or the run total on RUN_DONE.
	Accepted int64
	// Completed and Failed carry run-level topic tallies on RUN_DONE.
	Completed int64
	Failed    int64
	// Dur captures wall time for topic and run completions.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone:
	case StageTopicStart, StageTopicDone, StageTopicFailed:
		if e.Category == "" {
			return fmt.Errorf("%s requires category", e.Stage)
		}
		if e.Topic == "" {
			return fmt.Errorf("%s requires topic", e.Stage)
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Accepted < 0 {
		return errors.New("accepted count must be >= 0")
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID for repositories.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}

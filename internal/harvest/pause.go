package harvest

import (
	"context"
	"math/rand"
	"time"
)

// TimerPauser implements Pauser with a real timer. The pause ends early when
// the context is canceled.
type TimerPauser struct{}

// Pause blocks for delay or until ctx is done.
func (TimerPauser) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// JitterBetween returns a uniformly random duration in [min, max]. It backs
// the inter-topic delay that keeps request patterns from bursting. The
// top-level rand source is already safe for concurrent use.
func JitterBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

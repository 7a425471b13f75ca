// Package memory contains an in-memory notifier implementation for tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mirrorlake/pinharvest/internal/notify"
)

// Notifier stores announced summaries for inspection.
type Notifier struct {
	mu        sync.RWMutex
	summaries []notify.RunSummary
}

// New returns a memory Notifier.
func New() *Notifier {
	return &Notifier{}
}

// Announce records the summary and returns a pseudo ID.
func (n *Notifier) Announce(_ context.Context, summary notify.RunSummary) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.summaries = append(n.summaries, summary)
	return fmt.Sprintf("memory-%d", len(n.summaries)), nil
}

// Close does nothing.
func (n *Notifier) Close() error { return nil }

// Summaries returns the recorded announcements.
func (n *Notifier) Summaries() []notify.RunSummary {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]notify.RunSummary, len(n.summaries))
	copy(out, n.summaries)
	return out
}

package harvest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	batches [][]Pin
	errs    []error
	calls   int
	closed  bool
}

func (s *fakeSession) NextBatch(_ context.Context) ([]Pin, error) {
	i := s.calls
	s.calls++
	if i >= len(s.batches) {
		return nil, ErrEndOfStream
	}
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.batches[i], err
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeSource struct {
	mu       sync.Mutex
	sessions []*fakeSession
	openErrs []error
	opens    int
}

func (f *fakeSource) Open(_ context.Context, _ string) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.opens
	f.opens++
	if i < len(f.openErrs) && f.openErrs[i] != nil {
		return nil, f.openErrs[i]
	}
	if i < len(f.sessions) {
		return f.sessions[i], nil
	}
	return &fakeSession{}, nil
}

type fakeDedup struct {
	mu      sync.Mutex
	seen    map[Fingerprint]bool
	failFor map[Fingerprint]error
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{seen: make(map[Fingerprint]bool), failFor: make(map[Fingerprint]error)}
}

func (d *fakeDedup) TryAccept(_ context.Context, fp Fingerprint) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err, ok := d.failFor[fp]; ok {
		return false, err
	}
	if d.seen[fp] {
		return false, nil
	}
	d.seen[fp] = true
	return true, nil
}

type recordingPauser struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (p *recordingPauser) Pause(_ context.Context, delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delays = append(p.delays, delay)
}

func (p *recordingPauser) recorded() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]time.Duration, len(p.delays))
	copy(out, p.delays)
	return out
}

func pinsFor(ids ...string) []Pin {
	out := make([]Pin, 0, len(ids))
	for _, id := range ids {
		out = append(out, Pin{
			ID:       id,
			Title:    "tile " + id,
			ImageURL: "https://i.pinimg.com/236x/" + id + ".jpg",
			PinURL:   "https://www.pinterest.com/pin/" + id + "/",
		})
	}
	return out
}

func newTestHarvester(source Source, dedup Deduplicator, pauser Pauser, cfg HarvesterConfig) *Harvester {
	return NewHarvester(source, dedup, NewDefaultKeywordFilter(), pauser, cfg, nil)
}

func TestHarvesterAcceptsUpToCap(t *testing.T) {
	t.Parallel()

	source := &fakeSource{sessions: []*fakeSession{{
		batches: [][]Pin{pinsFor("1", "2", "3"), pinsFor("1", "2", "3", "4", "5", "6", "7")},
	}}}
	h := newTestHarvester(source, newFakeDedup(), &recordingPauser{}, HarvesterConfig{
		MaxPins: 5,
		Policy:  LinearRetryPolicy{MaxAttempts: 3, BackoffBase: time.Millisecond},
	})

	res := h.Run(context.Background(), TopicTask{Category: "STUDY_ACADEMIA", Query: "dark academia study"})

	require.Equal(t, TopicSucceeded, res.Status)
	require.Equal(t, 1, res.Attempts)
	require.Len(t, res.Pins, 5)
	for _, pin := range res.Pins {
		require.Equal(t, "STUDY_ACADEMIA", pin.Category)
		require.Equal(t, "dark academia study", pin.Topic)
	}
	require.True(t, source.sessions[0].closed, "session must be closed after the attempt")
}

func TestHarvesterDedupAcrossBatches(t *testing.T) {
	t.Parallel()

	// The grid re-reports everything visible on each pull.
	source := &fakeSource{sessions: []*fakeSession{{
		batches: [][]Pin{pinsFor("1", "2"), pinsFor("1", "2", "3"), pinsFor("1", "2", "3")},
	}}}
	h := newTestHarvester(source, newFakeDedup(), &recordingPauser{}, HarvesterConfig{MaxPins: 100})

	res := h.Run(context.Background(), TopicTask{Category: "C", Query: "q"})

	require.Equal(t, TopicSucceeded, res.Status)
	require.Len(t, res.Pins, 3)
	require.Equal(t, []string{"1", "2", "3"}, []string{res.Pins[0].ID, res.Pins[1].ID, res.Pins[2].ID})
}

func TestHarvesterFiltersUnsafeText(t *testing.T) {
	t.Parallel()

	batch := pinsFor("1", "2")
	batch[1].Title = "hot nsfw pics"
	source := &fakeSource{sessions: []*fakeSession{{batches: [][]Pin{batch}}}}
	h := newTestHarvester(source, newFakeDedup(), &recordingPauser{}, HarvesterConfig{MaxPins: 10})

	res := h.Run(context.Background(), TopicTask{Category: "C", Query: "q"})

	require.Equal(t, TopicSucceeded, res.Status)
	require.Len(t, res.Pins, 1)
	require.Equal(t, "1", res.Pins[0].ID)
}

func TestHarvesterDropsCandidateOnDedupError(t *testing.T) {
	t.Parallel()

	dedup := newFakeDedup()
	dedup.failFor[FingerprintOf("2")] = errors.New("ledger unavailable")

	source := &fakeSource{sessions: []*fakeSession{{batches: [][]Pin{pinsFor("1", "2", "3")}}}}
	h := newTestHarvester(source, dedup, &recordingPauser{}, HarvesterConfig{MaxPins: 10})

	res := h.Run(context.Background(), TopicTask{Category: "C", Query: "q"})

	require.Equal(t, TopicSucceeded, res.Status)
	require.Len(t, res.Pins, 2)
	require.Equal(t, "1", res.Pins[0].ID)
	require.Equal(t, "3", res.Pins[1].ID)
}

func TestHarvesterPartialYieldIsFinal(t *testing.T) {
	t.Parallel()

	source := &fakeSource{sessions: []*fakeSession{{
		batches: [][]Pin{pinsFor("1", "2"), nil},
		errs:    []error{nil, errors.New("render crashed")},
	}}}
	pauser := &recordingPauser{}
	h := newTestHarvester(source, newFakeDedup(), pauser, HarvesterConfig{
		MaxPins: 100,
		Policy:  LinearRetryPolicy{MaxAttempts: 3, BackoffBase: 5 * time.Second},
	})

	res := h.Run(context.Background(), TopicTask{Category: "C", Query: "q"})

	require.Equal(t, TopicSucceeded, res.Status)
	require.Len(t, res.Pins, 2)
	require.Equal(t, 1, res.Attempts)
	require.Equal(t, 1, source.opens, "a partial yield must not be retried")
	require.Empty(t, pauser.recorded(), "no backoff after a yielding attempt")
}

func TestHarvesterExhaustionBackoffSchedule(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		openErrs: []error{
			errors.New("boom 1"),
			errors.New("boom 2"),
			errors.New("boom 3"),
		},
	}
	pauser := &recordingPauser{}
	base := 10 * time.Millisecond
	h := newTestHarvester(source, newFakeDedup(), pauser, HarvesterConfig{
		MaxPins: 10,
		Policy:  LinearRetryPolicy{MaxAttempts: 3, BackoffBase: base},
	})

	res := h.Run(context.Background(), TopicTask{Category: "C", Query: "q"})

	require.Equal(t, TopicExhausted, res.Status)
	require.Equal(t, 3, res.Attempts)
	require.Error(t, res.Err)
	// Every failed attempt pays its backoff, the final one included.
	require.Equal(t, []time.Duration{base, 2 * base, 3 * base}, pauser.recorded())
}

func TestHarvesterEmptyAttemptsAlsoBackOff(t *testing.T) {
	t.Parallel()

	source := &fakeSource{sessions: []*fakeSession{{}, {}, {}}}
	pauser := &recordingPauser{}
	h := newTestHarvester(source, newFakeDedup(), pauser, HarvesterConfig{
		MaxPins: 10,
		Policy:  LinearRetryPolicy{MaxAttempts: 3, BackoffBase: time.Millisecond},
	})

	res := h.Run(context.Background(), TopicTask{Category: "C", Query: "q"})

	require.Equal(t, TopicExhausted, res.Status)
	require.NoError(t, res.Err, "a clean empty attempt is not an error")
	require.Equal(t, 3, source.opens)
	require.Len(t, pauser.recorded(), 3)
}

func TestHarvesterFatalErrorAborts(t *testing.T) {
	t.Parallel()

	source := &fakeSource{openErrs: []error{Fatal(errors.New("bad proxy configuration"))}}
	pauser := &recordingPauser{}
	h := newTestHarvester(source, newFakeDedup(), pauser, HarvesterConfig{MaxPins: 10})

	res := h.Run(context.Background(), TopicTask{Category: "C", Query: "q"})

	require.Equal(t, TopicAborted, res.Status)
	require.Equal(t, 1, res.Attempts)
	require.True(t, IsFatal(res.Err))
	require.Empty(t, pauser.recorded(), "fatal errors skip the backoff")
}

func TestHarvesterStagnationStopsPulling(t *testing.T) {
	t.Parallel()

	// Every pull re-reports the same two pins, so everything after the
	// first pull is a duplicate.
	same := pinsFor("1", "2")
	session := &fakeSession{batches: [][]Pin{same, same, same, same, same, same, same, same}}
	source := &fakeSource{sessions: []*fakeSession{session}}
	h := newTestHarvester(source, newFakeDedup(), &recordingPauser{}, HarvesterConfig{
		MaxPins:           100,
		StagnantPullLimit: 3,
	})

	res := h.Run(context.Background(), TopicTask{Category: "C", Query: "q"})

	require.Equal(t, TopicSucceeded, res.Status)
	require.Len(t, res.Pins, 2)
	require.Equal(t, 4, session.calls, "one yielding pull plus the stagnation allowance")
}

func TestHarvesterMaxPullsCeiling(t *testing.T) {
	t.Parallel()

	// Each pull yields one brand-new pin, so only the ceiling can stop it.
	session := &fakeSession{}
	for i := 0; i < 100; i++ {
		session.batches = append(session.batches, pinsFor(fmt.Sprintf("pin-%d", i)))
	}
	source := &fakeSource{sessions: []*fakeSession{session}}
	h := newTestHarvester(source, newFakeDedup(), &recordingPauser{}, HarvesterConfig{
		MaxPins:  1000,
		MaxPulls: 4,
	})

	res := h.Run(context.Background(), TopicTask{Category: "C", Query: "q"})

	require.Equal(t, TopicSucceeded, res.Status)
	require.Len(t, res.Pins, 4)
	require.Equal(t, 4, session.calls)
}

func TestHarvesterAbortsOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &fakeSource{sessions: []*fakeSession{{batches: [][]Pin{pinsFor("1")}}}}
	h := newTestHarvester(source, newFakeDedup(), &recordingPauser{}, HarvesterConfig{MaxPins: 10})

	res := h.Run(ctx, TopicTask{Category: "C", Query: "q"})

	require.Equal(t, TopicAborted, res.Status)
	require.ErrorIs(t, res.Err, context.Canceled)
}

package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mirrorlake/pinharvest/internal/progress"
)

// PrometheusSink exports run and topic lifecycle metrics via Prometheus. It
// owns all collectors for runs started/completed and per-topic progress; the
// record-level counters live with the harvest pipeline itself.
type PrometheusSink struct {
	runsStarted   prometheus.Counter
	runsCompleted prometheus.Counter
	runDuration   prometheus.Histogram

	topicsStarted  prometheus.Counter
	topicsFinished *prometheus.CounterVec
	topicsInFlight prometheus.Gauge
	topicRuntime   *prometheus.HistogramVec

	tracker *topicTracker
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pinharvest_runs_started_total",
			Help: "Total harvest runs that have started.",
		}),
		runsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pinharvest_runs_completed_total",
			Help: "Total harvest runs that have completed.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pinharvest_run_duration_seconds",
			Help:    "Wall time per completed run.",
			Buckets: []float64{30, 60, 120, 300, 600, 1200, 1800, 3600},
		}),
		topicsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pinharvest_topics_started_total",
			Help: "Total topic attempts that have started.",
		}),
		topicsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pinharvest_topics_finished_total",
			Help: "Total topics finished partitioned by terminal status.",
		}, []string{"status"}),
		topicsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pinharvest_topics_in_flight",
			Help: "Current number of topics being harvested.",
		}),
		topicRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pinharvest_topic_runtime_seconds",
			Help:    "Wall time per finished topic partitioned by terminal status.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		}, []string{"status"}),
		tracker: newTopicTracker(),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runDuration,
		s.topicsStarted,
		s.topicsFinished,
		s.topicsInFlight,
		s.topicRuntime,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the Prometheus collectors using the provided batch. It is
// safe for concurrent use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.Inc()
	case progress.StageRunDone:
		s.runsCompleted.Inc()
		if evt.Dur > 0 {
			s.runDuration.Observe(evt.Dur.Seconds())
		}
	case progress.StageTopicStart:
		s.topicsStarted.Inc()
		if s.tracker.start(topicKey(evt)) {
			s.topicsInFlight.Inc()
		}
	case progress.StageTopicDone, progress.StageTopicFailed:
		status := statusLabel(evt)
		s.topicsFinished.WithLabelValues(status).Inc()
		if evt.Dur > 0 {
			s.topicRuntime.WithLabelValues(status).Observe(evt.Dur.Seconds())
		}
		if s.tracker.complete(topicKey(evt)) {
			s.topicsInFlight.Dec()
		}
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

func statusLabel(evt progress.Event) string {
	if evt.Status != "" {
		return evt.Status
	}
	if evt.Stage == progress.StageTopicDone {
		return "succeeded"
	}
	return "failed"
}

type topicID struct {
	run      [16]byte
	category string
	topic    string
}

func topicKey(evt progress.Event) topicID {
	return topicID{run: evt.RunID, category: evt.Category, topic: evt.Topic}
}

type topicTracker struct {
	mu      sync.Mutex
	running map[topicID]struct{}
}

func newTopicTracker() *topicTracker {
	return &topicTracker{running: make(map[topicID]struct{})}
}

func (t *topicTracker) start(id topicID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; ok {
		return false
	}
	t.running[id] = struct{}{}
	return true
}

func (t *topicTracker) complete(id topicID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; !ok {
		return false
	}
	delete(t.running, id)
	return true
}

package harvest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TopicsCompleted tracks topics reaching a terminal state, by status.
	TopicsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinharvest_topics_completed_total",
		Help: "The total number of topics that reached a terminal state.",
	}, []string{"status"})
	// RecordsAccepted tracks records that passed dedup and the text filter.
	RecordsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinharvest_records_accepted_total",
		Help: "The total number of records accepted into the run.",
	}, []string{"category"})
	// RecordsFiltered tracks records dropped by a safety stage.
	RecordsFiltered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinharvest_records_filtered_total",
		Help: "The total number of records dropped by safety filtering.",
	}, []string{"stage"})
	// RecordsDuplicate tracks records rejected by the dedup ledger.
	RecordsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pinharvest_records_duplicate_total",
		Help: "The total number of records rejected as already seen.",
	})
	// GridPulls tracks scroll-and-extract rounds against the source.
	GridPulls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pinharvest_grid_pulls_total",
		Help: "The total number of grid pulls performed.",
	})
	// Downloads tracks asset download outcomes.
	Downloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinharvest_downloads_total",
		Help: "The total number of asset downloads by outcome.",
	}, []string{"outcome"})
	// ActiveTopics gauges how many topic slots are currently held.
	ActiveTopics = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pinharvest_active_topics",
		Help: "The number of topics currently being harvested.",
	})
	// TopicDuration observes wall time per terminal topic.
	TopicDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pinharvest_topic_duration_seconds",
		Help:    "Wall time from first attempt to terminal state per topic.",
		Buckets: prometheus.ExponentialBuckets(5, 2, 10),
	})
)

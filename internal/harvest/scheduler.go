package harvest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SchedulerConfig bounds the run-wide fan-out.
type SchedulerConfig struct {
	// MaxConcurrentTopics caps how many topics collect at once.
	MaxConcurrentTopics int
	// TopicDelayMin/Max bound the jitter a finished topic holds its slot
	// for before releasing it.
	TopicDelayMin time.Duration
	TopicDelayMax time.Duration
}

// Scheduler fans topics out across a bounded set of slots and funnels the
// results into the sink, the download pool, and the progress ledger.
type Scheduler struct {
	runner    TopicRunner
	sink      ResultSink
	downloads BatchDownloader
	recorder  ProgressRecorder
	pauser    Pauser
	clock     Clock
	cfg       SchedulerConfig
	logger    *zap.Logger
}

// NewScheduler wires the run orchestrator. The downloader and recorder may
// be nil when those stages are disabled.
func NewScheduler(
	runner TopicRunner,
	sink ResultSink,
	downloads BatchDownloader,
	recorder ProgressRecorder,
	pauser Pauser,
	clock Clock,
	cfg SchedulerConfig,
	logger *zap.Logger,
) *Scheduler {
	if cfg.MaxConcurrentTopics <= 0 {
		cfg.MaxConcurrentTopics = 3
	}
	if pauser == nil {
		pauser = TimerPauser{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		runner:    runner,
		sink:      sink,
		downloads: downloads,
		recorder:  recorder,
		pauser:    pauser,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run drives every task to a terminal state and writes the run-wide records
// file. Topics that collected nothing are reported, not fatal; the only
// error Run returns is a failure to write the master file.
func (s *Scheduler) Run(ctx context.Context, tasks []TopicTask) (RunReport, error) {
	start := s.clock.Now()
	s.logger.Info("Starting run",
		zap.Int("topics", len(tasks)),
		zap.Int("max_concurrent", s.cfg.MaxConcurrentTopics),
	)

	results := make([]TopicResult, len(tasks))
	sem := make(chan struct{}, s.cfg.MaxConcurrentTopics)
	var wg sync.WaitGroup

dispatch:
	for i, task := range tasks {
		if ctx.Err() != nil {
			for j := i; j < len(tasks); j++ {
				results[j] = TopicResult{Task: tasks[j], Status: TopicAborted, Err: ctx.Err()}
			}
			break
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			for j := i; j < len(tasks); j++ {
				results[j] = TopicResult{Task: tasks[j], Status: TopicAborted, Err: ctx.Err()}
			}
			break dispatch
		}

		wg.Add(1)
		go func(i int, task TopicTask) {
			defer wg.Done()
			defer func() { <-sem }()

			ActiveTopics.Inc()
			results[i] = s.runTopic(ctx, task)
			ActiveTopics.Dec()

			// The slot stays held through the jitter so a fresh topic
			// never starts the instant another finishes.
			s.pauser.Pause(ctx, JitterBetween(s.cfg.TopicDelayMin, s.cfg.TopicDelayMax))
		}(i, task)
	}
	wg.Wait()

	report := s.buildReport(results, start)

	masterPath, err := s.sink.WriteMaster(s.acceptedPins(results))
	if err != nil {
		s.logger.Error("Failed to write master records file", zap.Error(err))
		return report, err
	}
	report.MasterPath = masterPath

	s.logger.Info("Run complete",
		zap.Int("completed_topics", report.CompletedTopics),
		zap.Int("failed_topics", report.FailedTopics),
		zap.Int("accepted_total", report.AcceptedTotal),
		zap.String("master_path", masterPath),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

// runTopic executes one task and applies its side effects: records to the
// sink, assets to disk, counts to the ledger.
func (s *Scheduler) runTopic(ctx context.Context, task TopicTask) TopicResult {
	started := s.clock.Now()
	res := s.runner.Run(ctx, task)
	TopicsCompleted.WithLabelValues(string(res.Status)).Inc()
	TopicDuration.Observe(s.clock.Now().Sub(started).Seconds())

	if res.Status == TopicSucceeded && len(res.Pins) > 0 {
		if _, err := s.sink.WriteTopic(task.Category, task.Query, res.Pins); err != nil {
			s.logger.Error("Failed to write topic records",
				zap.String("category", task.Category),
				zap.String("topic", task.Query),
				zap.Error(err),
			)
			res.Err = err
		}
		if s.downloads != nil {
			res.Downloads = s.downloads.DownloadBatch(ctx, task.Category, task.Query, res.Pins)
		}
		if s.recorder != nil {
			s.recorder.RecordTopicCompletion(task.Category, len(res.Pins))
		}
		return res
	}

	s.logger.Warn("No records collected for topic",
		zap.String("category", task.Category),
		zap.String("topic", task.Query),
		zap.String("status", string(res.Status)),
	)
	if s.recorder != nil {
		s.recorder.RecordTopicFailure(task.Category)
	}
	return res
}

func (s *Scheduler) buildReport(results []TopicResult, start time.Time) RunReport {
	report := RunReport{Results: results}
	for _, res := range results {
		switch res.Status {
		case TopicSucceeded:
			report.CompletedTopics++
			report.AcceptedTotal += len(res.Pins)
		default:
			report.FailedTopics++
		}
		report.Downloads.Merge(res.Downloads)
	}
	report.Elapsed = s.clock.Now().Sub(start)
	return report
}

// acceptedPins flattens successful topics' records in task order for the
// master file.
func (s *Scheduler) acceptedPins(results []TopicResult) []Pin {
	var all []Pin
	for _, res := range results {
		if res.Status == TopicSucceeded {
			all = append(all, res.Pins...)
		}
	}
	return all
}

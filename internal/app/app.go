// Package app initializes and holds the long-lived services for a harvest
// run, acting as a dependency injection container. It reads configuration
// values from Viper, instantiates the appropriate providers (memory or redis
// dedup, drive or gcs mirror, postgres run store, pubsub notifier), and
// fails fast if any critical service cannot be initialized.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gcppubsub "cloud.google.com/go/pubsub"
	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mirrorlake/pinharvest/internal/api"
	"github.com/mirrorlake/pinharvest/internal/catalog"
	clocksystem "github.com/mirrorlake/pinharvest/internal/clock/system"
	memorydedup "github.com/mirrorlake/pinharvest/internal/dedup/memory"
	redisdedup "github.com/mirrorlake/pinharvest/internal/dedup/redis"
	"github.com/mirrorlake/pinharvest/internal/fetch"
	"github.com/mirrorlake/pinharvest/internal/harvest"
	iduuid "github.com/mirrorlake/pinharvest/internal/id/uuid"
	"github.com/mirrorlake/pinharvest/internal/logging"
	"github.com/mirrorlake/pinharvest/internal/notify"
	memorynotify "github.com/mirrorlake/pinharvest/internal/notify/memory"
	pubsubnotify "github.com/mirrorlake/pinharvest/internal/notify/pubsub"
	"github.com/mirrorlake/pinharvest/internal/progress"
	"github.com/mirrorlake/pinharvest/internal/progress/sinks"
	"github.com/mirrorlake/pinharvest/internal/safety"
	"github.com/mirrorlake/pinharvest/internal/source/pinterest"
	pgstore "github.com/mirrorlake/pinharvest/internal/storage/postgres"
	"github.com/mirrorlake/pinharvest/internal/store"
	"github.com/mirrorlake/pinharvest/internal/upload"
)

const shutdownGrace = 10 * time.Second

// App holds all the shared, long-lived services for one harvest process.
// It is initialized once at startup and driven by the Cobra commands.
type App struct {
	cfg       harvest.Config
	logger    *zap.Logger
	runID     uuid.UUID
	topics    []catalog.Topic
	clock     harvest.Clock
	tracker   *progress.Tracker
	hub       *progress.Hub
	source    *pinterest.ChromeSource
	scheduler *harvest.Scheduler
	dedup     io.Closer
	runStore  *pgstore.RunStore
	uploader  upload.Uploader
	notifier  notify.Notifier
	api       *http.Server
}

// GetLogger returns the shared zap logger instance.
func (a *App) GetLogger() *zap.Logger { return a.logger }

// GetRunID returns this process's run identifier.
func (a *App) GetRunID() uuid.UUID { return a.runID }

// GetUploader exposes the configured mirror backend; nil when disabled.
func (a *App) GetUploader() upload.Uploader { return a.uploader }

// GetConfig returns the loaded harvest configuration.
func (a *App) GetConfig() harvest.Config { return a.cfg }

// New creates and initializes an App from the global Viper configuration.
func New(ctx context.Context) (*App, error) {
	l := logging.L
	l.Info("Initializing harvest services...")

	cfg, err := harvest.LoadConfig(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	topics, unknown := catalog.Select(cfg.Categories)
	for _, name := range unknown {
		l.Warn("Unknown category in filter; skipping", zap.String("category", name))
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("category filter %q selected no topics", cfg.Categories)
	}

	runID, err := iduuid.NewUUIDGenerator().NewRawID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}

	a := &App{
		cfg:      cfg,
		logger:   l,
		runID:    runID,
		topics:   topics,
		clock:    clocksystem.New(),
		tracker:  progress.NewTracker(len(topics)),
		notifier: notify.NoOp{},
	}

	dedup, err := a.setupDedup(ctx)
	if err != nil {
		return nil, err
	}
	runRepo, err := a.setupRunStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.setupHub(runRepo); err != nil {
		return nil, err
	}
	if err := a.setupPipeline(dedup); err != nil {
		return nil, err
	}
	if err := a.setupUploader(ctx); err != nil {
		return nil, err
	}
	if err := a.setupNotifier(ctx); err != nil {
		return nil, err
	}
	if cfg.APIEnabled {
		srv := api.NewServer(runID.String(), a.tracker, runRepo, l)
		a.api = &http.Server{
			Addr:              cfg.APIListenAddr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	l.Info("Harvest services initialized",
		zap.String("run_id", runID.String()),
		zap.Int("topics", len(topics)),
	)
	return a, nil
}

func (a *App) setupDedup(ctx context.Context) (harvest.Deduplicator, error) {
	switch a.cfg.DedupBackend {
	case "redis":
		a.logger.Info("Using redis dedup ledger", zap.String("addr", a.cfg.RedisAddr))
		ledger, err := redisdedup.New(ctx, a.cfg.RedisAddr, a.runID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize dedup ledger: %w", err)
		}
		a.dedup = ledger
		return ledger, nil
	default:
		// Validate only admits memory or redis.
		a.logger.Info("Using in-memory dedup ledger")
		return memorydedup.New(), nil
	}
}

func (a *App) setupRunStore(ctx context.Context) (store.RunRepository, error) {
	if a.cfg.StoreBackend != "postgres" {
		return nil, nil
	}
	a.logger.Info("Connecting to PostgreSQL run store...")
	runStore, err := pgstore.NewRunStore(ctx, pgstore.RunStoreConfig{DSN: a.cfg.StorePostgresDSN})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize run store: %w", err)
	}
	a.runStore = runStore
	return runStore, nil
}

func (a *App) setupHub(runRepo store.RunRepository) error {
	hubSinks := []progress.Sink{sinks.NewLogSink(a.logger)}
	promSink, err := sinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register progress metrics: %w", err)
	}
	hubSinks = append(hubSinks, promSink)
	if runRepo != nil {
		hubSinks = append(hubSinks, sinks.NewStoreSink(runRepo, a.logger))
	}
	a.hub = progress.NewHub(progress.Config{Logger: a.logger}, hubSinks...)
	return nil
}

func (a *App) setupPipeline(dedup harvest.Deduplicator) error {
	a.source = pinterest.NewChromeSource(pinterest.Config{
		Headless: a.cfg.SourceHeadless,
		Proxy:    a.cfg.SourceProxy,
		Timeout:  a.cfg.SourceTimeout,
	}, a.logger)

	sink, err := harvest.NewFileSystemSink(a.cfg.OutputRoot, a.logger)
	if err != nil {
		return fmt.Errorf("prepare output root: %w", err)
	}

	var scorer harvest.ImageScorer
	if a.cfg.SafetyEnabled {
		a.logger.Info("Image safety scoring enabled", zap.String("endpoint", a.cfg.SafetyEndpoint))
		scorer = safety.NewScorer(a.cfg.SafetyEndpoint, a.cfg.SafetyThreshold)
	}

	var downloads harvest.BatchDownloader
	if a.cfg.DownloadImages {
		fetcher := fetch.NewCollyFetcher(fetch.Config{
			Timeout: a.cfg.FetchTimeout,
			HostQPS: a.cfg.FetchHostQPS,
		}, a.logger)
		downloads = harvest.NewAssetDownloader(
			fetcher, scorer, a.cfg.OutputRoot, a.cfg.MaxConcurrentDownloads, a.logger)
	} else {
		a.logger.Info("Image downloads disabled; writing records only")
	}

	harvester := harvest.NewHarvester(a.source, dedup, nil, nil, harvest.HarvesterConfig{
		MaxPins:           a.cfg.MaxPinsPerTopic,
		StagnantPullLimit: a.cfg.StagnantPullLimit,
		MaxPulls:          a.cfg.MaxPulls,
		Policy:            a.cfg.RetryPolicy(),
	}, a.logger)
	runner := progress.InstrumentRunner(harvester, a.hub, progress.UUIDToBytes(a.runID))

	a.scheduler = harvest.NewScheduler(runner, sink, downloads, a.tracker, nil, a.clock,
		harvest.SchedulerConfig{
			MaxConcurrentTopics: a.cfg.MaxConcurrentTopics,
			TopicDelayMin:       a.cfg.TopicDelayMin,
			TopicDelayMax:       a.cfg.TopicDelayMax,
		}, a.logger)
	return nil
}

func (a *App) setupUploader(ctx context.Context) error {
	if !a.cfg.UploadEnabled {
		return nil
	}
	switch a.cfg.UploadBackend {
	case "drive":
		a.logger.Info("Drive mirror enabled", zap.String("folder", a.cfg.UploadDriveFolderURL))
		uploader, err := upload.NewDriveUploader(ctx, upload.DriveConfig{
			FolderURL:       a.cfg.UploadDriveFolderURL,
			CredentialsFile: a.cfg.UploadCredentialsFile,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize drive uploader: %w", err)
		}
		a.uploader = uploader
	case "gcs":
		a.logger.Info("GCS mirror enabled", zap.String("bucket", a.cfg.UploadGCSBucket))
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("gcs client init failed: %w", err)
		}
		uploader, err := upload.NewGCSUploader(client, upload.GCSConfig{
			Bucket: a.cfg.UploadGCSBucket,
			Prefix: a.cfg.UploadGCSPrefix,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize gcs uploader: %w", err)
		}
		a.uploader = uploader
	default:
		return fmt.Errorf("unknown upload backend: %s", a.cfg.UploadBackend)
	}
	return nil
}

func (a *App) setupNotifier(ctx context.Context) error {
	switch a.cfg.NotifyBackend {
	case "pubsub":
		a.logger.Info("Connecting to GCP Pub/Sub",
			zap.String("project", a.cfg.NotifyProjectID),
			zap.String("topic", a.cfg.NotifyTopicID),
		)
		client, err := gcppubsub.NewClient(ctx, a.cfg.NotifyProjectID)
		if err != nil {
			return fmt.Errorf("pubsub client init failed: %w", err)
		}
		notifier, err := pubsubnotify.New(ctx, client, a.cfg.NotifyTopicID, a.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize notifier: %w", err)
		}
		a.notifier = notifier
	case "memory":
		// Announcements stay in process; useful for local runs and tests.
		a.logger.Info("Using in-memory notifier")
		a.notifier = memorynotify.New()
	}
	return nil
}

// Run drives every selected topic to a terminal state, mirrors the output
// tree if a mirror is configured, and announces the finished run. The report
// is returned even when the run errors so callers can inspect partial state.
func (a *App) Run(ctx context.Context) (harvest.RunReport, error) {
	start := a.clock.Now()

	if a.api != nil {
		go func() {
			a.logger.Info("Status API listening", zap.String("addr", a.api.Addr))
			if err := a.api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("Status API failed", zap.Error(err))
			}
		}()
	}

	a.hub.Emit(progress.Event{
		RunID: progress.UUIDToBytes(a.runID),
		TS:    start,
		Stage: progress.StageRunStart,
	})

	tasks := make([]harvest.TopicTask, 0, len(a.topics))
	for _, t := range a.topics {
		tasks = append(tasks, harvest.TopicTask{Category: t.Category, Query: t.Query})
	}

	report, runErr := a.scheduler.Run(ctx, tasks)
	end := a.clock.Now()

	a.hub.Emit(progress.Event{
		RunID:     progress.UUIDToBytes(a.runID),
		TS:        end,
		Stage:     progress.StageRunDone,
		Completed: int64(report.CompletedTopics),
		Failed:    int64(report.FailedTopics),
		Accepted:  int64(report.AcceptedTotal),
		Dur:       end.Sub(start),
	})

	// Flush buffered progress before the mirror and announcement phases so
	// the run row is complete when consumers react to the announcement.
	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := a.hub.Close(flushCtx); err != nil {
		a.logger.Warn("Progress hub close failed", zap.Error(err))
	}

	if runErr != nil {
		return report, fmt.Errorf("harvest run: %w", runErr)
	}

	a.logBreakdown()

	if a.uploader != nil && ctx.Err() == nil {
		a.mirror(ctx)
	}
	a.announce(ctx, start, end, report)
	return report, nil
}

// Mirror uploads an already harvested output tree. It backs the standalone
// upload command; Run calls the unexported variant after a harvest.
func (a *App) Mirror(ctx context.Context) error {
	if a.uploader == nil {
		return errors.New("no upload backend configured")
	}
	results, err := a.uploader.UploadTree(ctx, a.cfg.OutputRoot)
	if err != nil {
		return fmt.Errorf("mirror output tree: %w", err)
	}
	if failed := results.Failed(); len(failed) > 0 {
		return fmt.Errorf("categories failed to mirror: %v", failed)
	}
	a.logger.Info("Mirror complete", zap.Int("categories", results.Succeeded()))
	return nil
}

func (a *App) mirror(ctx context.Context) {
	a.logger.Info("Mirroring output tree", zap.String("root", a.cfg.OutputRoot))
	if err := a.Mirror(ctx); err != nil {
		a.logger.Error("Mirror failed", zap.Error(err))
	}
}

func (a *App) announce(ctx context.Context, start, end time.Time, report harvest.RunReport) {
	summary := notify.RunSummary{
		RunID:           a.runID.String(),
		StartedAt:       start,
		FinishedAt:      end,
		CompletedTopics: report.CompletedTopics,
		FailedTopics:    report.FailedTopics,
		AcceptedTotal:   int64(report.AcceptedTotal),
		OutputRoot:      a.cfg.OutputRoot,
	}
	if _, err := a.notifier.Announce(ctx, summary); err != nil {
		a.logger.Warn("Run announcement failed", zap.Error(err))
	}
}

func (a *App) logBreakdown() {
	for _, cc := range a.tracker.Snapshot().Breakdown() {
		a.logger.Info("Category tally",
			zap.String("category", cc.Category),
			zap.Int64("accepted", cc.Accepted),
		)
	}
}

// Close gracefully shuts down all services in the App container. It is
// called by a Cobra hook after the command finishes execution.
func (a *App) Close() {
	a.logger.Info("Shutting down harvest services...")

	if a.api != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		if err := a.api.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("Error shutting down status API", zap.Error(err))
		}
		cancel()
	}

	// Run already closed the hub on the happy path; Close is idempotent and
	// this covers early exits.
	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := a.hub.Close(closeCtx); err != nil {
		a.logger.Warn("Error closing progress hub", zap.Error(err))
	}

	if err := a.source.Close(); err != nil {
		a.logger.Warn("Error closing browser source", zap.Error(err))
	}
	if a.dedup != nil {
		if err := a.dedup.Close(); err != nil {
			a.logger.Warn("Error closing dedup ledger", zap.Error(err))
		}
	}
	if err := a.notifier.Close(); err != nil {
		a.logger.Warn("Error closing notifier", zap.Error(err))
	}
	if a.runStore != nil {
		a.runStore.Close()
	}

	// Flushing the logger buffer is best effort; stderr sync failures on
	// shutdown are expected on some platforms.
	_ = a.logger.Sync()
}

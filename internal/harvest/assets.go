package harvest

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"
)

// AssetDownloader saves accepted records' images under a process-wide
// concurrency budget. One instance is shared by every topic so the budget
// holds globally, not per topic.
type AssetDownloader struct {
	fetcher AssetFetcher
	scorer  ImageScorer
	root    string
	sem     chan struct{}
	logger  *zap.Logger
}

var _ BatchDownloader = (*AssetDownloader)(nil)

// NewAssetDownloader wires the download pool. A nil scorer disables the
// image safety stage.
func NewAssetDownloader(
	fetcher AssetFetcher,
	scorer ImageScorer,
	root string,
	maxConcurrent int,
	logger *zap.Logger,
) *AssetDownloader {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetDownloader{
		fetcher: fetcher,
		scorer:  scorer,
		root:    root,
		sem:     make(chan struct{}, maxConcurrent),
		logger:  logger,
	}
}

// DownloadBatch fetches every record's asset for one topic. Individual
// failures are counted, never retried; the batch always runs to the end
// unless the context dies.
func (d *AssetDownloader) DownloadBatch(ctx context.Context, category, topic string, pins []Pin) DownloadStats {
	var stats DownloadStats
	if len(pins) == 0 {
		return stats
	}

	log := d.logger.With(zap.String("category", category), zap.String("topic", topic))

	dir := ImagesDir(d.root, category, topic)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.Error("Failed to create images dir", zap.String("dir", dir), zap.Error(err))
		stats.FailedFetch = len(pins)
		return stats
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

dispatch:
	for i, pin := range pins {
		if ctx.Err() != nil {
			mu.Lock()
			stats.FailedFetch += len(pins) - i
			mu.Unlock()
			break
		}
		select {
		case d.sem <- struct{}{}:
		case <-ctx.Done():
			mu.Lock()
			stats.FailedFetch += len(pins) - i
			mu.Unlock()
			break dispatch
		}

		wg.Add(1)
		go func(pin Pin) {
			defer wg.Done()
			defer func() { <-d.sem }()

			outcome := d.downloadOne(ctx, category, topic, pin)
			Downloads.WithLabelValues(string(outcome)).Inc()

			mu.Lock()
			stats.Add(outcome)
			mu.Unlock()
		}(pin)
	}
	wg.Wait()

	log.Info("Downloaded topic assets",
		zap.Int("saved", stats.Saved),
		zap.Int("skipped_existing", stats.SkippedExisting),
		zap.Int("failed", stats.FailedFetch),
		zap.Int("filtered_unsafe", stats.FilteredUnsafe),
	)
	return stats
}

func (d *AssetDownloader) downloadOne(ctx context.Context, category, topic string, pin Pin) DownloadOutcome {
	path := ImagePath(d.root, category, topic, pin.ID)
	if _, err := os.Stat(path); err == nil {
		return OutcomeSkippedExisting
	}

	data, err := d.fetcher.Fetch(ctx, OriginalsURL(pin.ImageURL))
	if err != nil {
		d.logger.Debug("Asset fetch failed", zap.String("pin_id", pin.ID), zap.Error(err))
		return OutcomeFailedFetch
	}

	if d.scorer != nil {
		verdict, err := d.scorer.Score(ctx, data)
		switch {
		case err != nil:
			// Fail open: a broken classifier reduces filtering, it does
			// not block saves.
			d.logger.Debug("Image score failed, saving anyway",
				zap.String("pin_id", pin.ID), zap.Error(err))
		case verdict.Unsafe:
			RecordsFiltered.WithLabelValues("image").Inc()
			d.logger.Debug("Filtered record on image",
				zap.String("pin_id", pin.ID), zap.Float64("score", verdict.Score))
			return OutcomeFilteredUnsafe
		}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		d.logger.Warn("Asset write failed", zap.String("path", path), zap.Error(err))
		return OutcomeFailedFetch
	}
	return OutcomeSaved
}

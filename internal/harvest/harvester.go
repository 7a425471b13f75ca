package harvest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// HarvesterConfig bounds one topic's collection loop.
type HarvesterConfig struct {
	// MaxPins caps accepted records per topic.
	MaxPins int
	// StagnantPullLimit ends collection after this many consecutive pulls
	// that yield nothing new.
	StagnantPullLimit int
	// MaxPulls is the hard ceiling on pulls per attempt.
	MaxPulls int
	// Policy governs retries of zero-yield attempts.
	Policy LinearRetryPolicy
}

// Harvester drives one topic from Starting to a terminal state. An attempt
// that accepts anything at all is final; retry exists only to rescue
// attempts that produced nothing. Safe for concurrent use across topics as
// long as the injected dedup ledger is.
type Harvester struct {
	source Source
	dedup  Deduplicator
	filter *KeywordFilter
	pauser Pauser
	cfg    HarvesterConfig
	logger *zap.Logger
}

var _ TopicRunner = (*Harvester)(nil)

// NewHarvester wires a topic runner. Zero config fields fall back to the
// stock limits.
func NewHarvester(
	source Source,
	dedup Deduplicator,
	filter *KeywordFilter,
	pauser Pauser,
	cfg HarvesterConfig,
	logger *zap.Logger,
) *Harvester {
	if cfg.MaxPins <= 0 {
		cfg.MaxPins = 100
	}
	if cfg.StagnantPullLimit <= 0 {
		cfg.StagnantPullLimit = 5
	}
	if cfg.MaxPulls <= 0 {
		cfg.MaxPulls = 50
	}
	if cfg.Policy.MaxAttempts <= 0 {
		cfg.Policy = NewLinearRetryPolicy()
	}
	if filter == nil {
		filter = NewDefaultKeywordFilter()
	}
	if pauser == nil {
		pauser = TimerPauser{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harvester{
		source: source,
		dedup:  dedup,
		filter: filter,
		pauser: pauser,
		cfg:    cfg,
		logger: logger,
	}
}

// Run executes the topic to a terminal state. It never returns a transient
// status.
func (h *Harvester) Run(ctx context.Context, task TopicTask) TopicResult {
	log := h.logger.With(
		zap.String("category", task.Category),
		zap.String("topic", task.Query),
	)
	log.Info("Starting topic harvest")

	result := TopicResult{Task: task, Status: TopicStarting}

	for attempt := 0; attempt < h.cfg.Policy.MaxAttempts; attempt++ {
		task.Attempt = attempt
		result.Attempts = attempt + 1
		result.Status = TopicCollecting

		pins, err := h.collectOnce(ctx, task, log)

		if ctx.Err() != nil {
			result.Status = TopicAborted
			result.Err = ctx.Err()
			result.Pins = pins
			log.Warn("Topic aborted", zap.Int("accepted", len(pins)))
			return result
		}

		// Anything collected counts, even when the attempt later hit an
		// error. Retrying a partial yield would re-crawl claimed
		// fingerprints for nothing.
		if len(pins) > 0 {
			if err != nil {
				log.Warn("Attempt ended early but yielded records",
					zap.Int("accepted", len(pins)), zap.Error(err))
			}
			result.Status = TopicSucceeded
			result.Pins = pins
			result.Err = nil
			log.Info("Topic harvest succeeded",
				zap.Int("accepted", len(pins)),
				zap.Int("attempts", result.Attempts),
			)
			return result
		}

		if err != nil {
			if IsFatal(err) {
				result.Status = TopicAborted
				result.Err = err
				log.Error("Topic aborted on fatal error", zap.Error(err))
				return result
			}
			result.Err = err
			log.Warn("Attempt failed",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", h.cfg.Policy.MaxAttempts),
				zap.Error(err),
			)
		} else {
			log.Warn("Attempt produced no records",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", h.cfg.Policy.MaxAttempts),
			)
		}

		// Back off after every failed attempt, the last one included, so
		// the source gets the full stand-down before the next topic hits
		// it from this slot.
		backoff := h.cfg.Policy.Backoff(attempt)
		log.Info("Backing off", zap.Duration("delay", backoff))
		h.pauser.Pause(ctx, backoff)

		if ctx.Err() != nil {
			result.Status = TopicAborted
			result.Err = ctx.Err()
			return result
		}
	}

	result.Status = TopicExhausted
	log.Error("Topic exhausted all attempts", zap.Int("attempts", result.Attempts))
	return result
}

// collectOnce runs a single session attempt: open, pull until capped,
// stagnant, or exhausted, and return whatever was accepted.
func (h *Harvester) collectOnce(ctx context.Context, task TopicTask, log *zap.Logger) ([]Pin, error) {
	session, err := h.source.Open(ctx, task.Query)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn("Session close failed", zap.Error(cerr))
		}
	}()

	var accepted []Pin
	stagnant := 0

	for pull := 0; pull < h.cfg.MaxPulls && len(accepted) < h.cfg.MaxPins; pull++ {
		if err := ctx.Err(); err != nil {
			return accepted, err
		}

		batch, err := session.NextBatch(ctx)
		GridPulls.Inc()
		if errors.Is(err, ErrEndOfStream) {
			log.Debug("Source exhausted", zap.Int("pulls", pull+1))
			break
		}
		if err != nil {
			return accepted, fmt.Errorf("pull %d: %w", pull+1, err)
		}

		newly := h.acceptBatch(ctx, task, batch, &accepted, log)
		if newly == 0 {
			stagnant++
			if stagnant >= h.cfg.StagnantPullLimit {
				log.Debug("No new records after repeated pulls, stopping",
					zap.Int("pulls", pull+1))
				break
			}
		} else {
			stagnant = 0
		}
	}

	return accepted, nil
}

// acceptBatch funnels candidates through the text filter and the dedup
// ledger, stamping attribution on the survivors. Returns how many were new.
func (h *Harvester) acceptBatch(ctx context.Context, task TopicTask, batch []Pin, accepted *[]Pin, log *zap.Logger) int {
	newly := 0
	for _, pin := range batch {
		if len(*accepted) >= h.cfg.MaxPins {
			break
		}
		if pin.ID == "" || pin.ImageURL == "" {
			continue
		}

		if !h.filter.IsTextSafe(pin.Title, pin.Description) {
			RecordsFiltered.WithLabelValues("text").Inc()
			log.Debug("Filtered record on text", zap.String("pin_id", pin.ID))
			continue
		}

		ok, err := h.dedup.TryAccept(ctx, FingerprintOf(pin.ID))
		if err != nil {
			// A candidate we cannot claim must not reach the sink, or a
			// concurrent topic could emit it twice.
			log.Warn("Dedup ledger error, dropping candidate",
				zap.String("pin_id", pin.ID), zap.Error(err))
			continue
		}
		if !ok {
			RecordsDuplicate.Inc()
			continue
		}

		pin.Category = task.Category
		pin.Topic = task.Query
		*accepted = append(*accepted, pin)
		RecordsAccepted.WithLabelValues(task.Category).Inc()
		newly++
	}
	return newly
}

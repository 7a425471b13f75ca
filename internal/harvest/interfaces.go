package harvest

import (
	"context"
	"errors"
	"time"
)

// ErrEndOfStream is returned by Session.NextBatch when the source has no
// further content for the topic.
var ErrEndOfStream = errors.New("record source: end of stream")

// Source opens per-topic sessions against the upstream content source. The
// rendering engine behind it is out of scope here.
type Source interface {
	Open(ctx context.Context, query string) (Session, error)
}

// Session is a lazy stream of candidate records for one topic. NextBatch
// drives scrolling/pagination internally and returns the candidates
// currently visible; repeats across batches are expected and resolved by the
// dedup ledger. Close releases the underlying browser resources.
type Session interface {
	NextBatch(ctx context.Context) ([]Pin, error)
	Close() error
}

// Deduplicator is the process-wide set of seen content fingerprints. It is
// the single shared-mutation point guaranteeing cross-topic uniqueness, so
// TryAccept must be safe for concurrent harvesters: it returns true and
// inserts atomically when the fingerprint is new, false otherwise.
type Deduplicator interface {
	TryAccept(ctx context.Context, fp Fingerprint) (bool, error)
}

// AssetFetcher retrieves one asset fully into memory.
type AssetFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ImageScorer scores image bytes for safety. Backends are interchangeable
// variants selected at construction; a nil scorer disables the image stage.
type ImageScorer interface {
	Score(ctx context.Context, data []byte) (Verdict, error)
}

// ResultSink persists accepted records.
type ResultSink interface {
	WriteTopic(category, topic string, pins []Pin) (string, error)
	WriteMaster(pins []Pin) (string, error)
}

// TopicRunner drives one topic to a terminal state.
type TopicRunner interface {
	Run(ctx context.Context, task TopicTask) TopicResult
}

// BatchDownloader downloads the assets for one topic's accepted records
// under the shared download budget.
type BatchDownloader interface {
	DownloadBatch(ctx context.Context, category, topic string, pins []Pin) DownloadStats
}

// ProgressRecorder aggregates per-category completion counts. Both methods
// must be atomic with respect to concurrent harvesters.
type ProgressRecorder interface {
	RecordTopicCompletion(category string, accepted int)
	RecordTopicFailure(category string)
}

// Pauser blocks for a delay, returning early when the context is canceled.
// Backoff waits and inter-topic jitter go through it so tests can observe
// delays instead of sleeping.
type Pauser interface {
	Pause(ctx context.Context, delay time.Duration)
}

// Clock returns the current time (injectable for tests).
type Clock interface {
	Now() time.Time
}

// The main package for the pinharvest executable.
//
// Architecture overview:
//   - Commands: cmd builds a Cobra tree (harvest, upload, topics). A persistent
//     pre-run hook initializes logging and the service container from Viper
//     config; a post-run hook tears the container down.
//   - Catalog & scheduling: internal/catalog embeds the category/topic table.
//     The harvest scheduler walks selected topics with a bounded worker pool,
//     inserting a randomized delay between topic launches to stay polite.
//   - Collection pipeline: each topic drives a Chromedp-backed Pinterest search
//     session that scrolls until the pin target, a pull ceiling, or a stagnation
//     limit is hit. Extracted pins pass through duplicate and text-safety
//     filters before download.
//   - Downloads & output: accepted images are fetched by a Colly collector with
//     per-host rate limits and written under OUTPUT_ROOT/CATEGORY/topic/images.
//     Per-topic JSON metadata and a master index round out the tree.
//   - Persistence & fanout: run and topic rows are optionally persisted to
//     Postgres via pgx, the finished tree can be mirrored to Google Drive or
//     GCS, and a run summary is optionally published to Pub/Sub. Progress
//     events are buffered and fanned out to log, Prometheus, and store sinks.
//   - Configuration & plumbing: Viper populates config from file/env; zap
//     provides structured logging; the optional status API exposes health,
//     metrics, and run history endpoints with chi.
//
// Operational notes:
//   - Concurrency model: at most three topics harvest at once and at most ten
//     images download at once, regardless of topic count. Shutdown is
//     coordinated via context cancellation from SIGINT/SIGTERM; completed
//     topic output survives an interrupt.
//   - Retries: scroll pulls retry with linear backoff. A topic that exhausts
//     retries is recorded as failed without sinking the run.
//   - Observability: zap logs carry run and topic identifiers at lifecycle
//     transitions; Prometheus counters track accepted, rejected, and
//     downloaded pins when the status API is enabled.
//
// Quick checklist:
//   - Configure env vars with the PINHARVEST_ prefix: PINHARVEST_HARVEST_CATEGORIES,
//     PINHARVEST_HARVEST_MAX_PINS_PER_TOPIC, PINHARVEST_HARVEST_OUTPUT_ROOT,
//     dedup backend (PINHARVEST_HARVEST_DEDUP_BACKEND), safety, upload, store,
//     and notify settings when those backends are required.
//   - Run locally: go run . harvest --config pinharvest.yaml (or rely solely
//     on env overrides).
//   - A Chrome or Chromium binary must be installed; the harvester drives it
//     headless by default.
package main

import (
	"github.com/mirrorlake/pinharvest/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}

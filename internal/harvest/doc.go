// Package harvest implements the topic harvesting pipeline: the scheduler
// that fans work out across topics, the per-topic collector with its retry
// state machine, the cross-topic dedup ledger contract, the two-stage safety
// filtering, and the asset download pipeline with its global budget.
package harvest

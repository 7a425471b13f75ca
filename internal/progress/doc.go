// Package progress provides the event primitives, non-blocking hub, and run
// ledger that the harvest pipeline uses to report progress. The hub batches
// events on a background goroutine and fans them out to pluggable sinks such
// as Prometheus metrics or persistent storage; the ledger keeps the live
// per-category tallies served by the status API and the end-of-run summary.
package progress

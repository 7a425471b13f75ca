// Package api hosts the HTTP server, middleware, and REST handlers for operator
// access. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/run for the live snapshot of the run in flight.
//   - GET /v1/runs/{run_id} and /v1/runs/{run_id}/topics for run history via
//     the RunRepository interface.
package api

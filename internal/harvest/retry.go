package harvest

import "time"

// LinearRetryPolicy governs how many times a topic may be attempted and how
// long to back off between zero-yield attempts. Backoff grows linearly:
// base, 2*base, 3*base. Partial successes are never retried; retry exists
// only to rescue attempts that produced nothing.
type LinearRetryPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration
}

// NewLinearRetryPolicy builds the default policy: three attempts, 5s base.
func NewLinearRetryPolicy() LinearRetryPolicy {
	return LinearRetryPolicy{MaxAttempts: 3, BackoffBase: 5 * time.Second}
}

// ShouldRetry reports whether another attempt remains after the given
// zero-based attempt number.
func (p LinearRetryPolicy) ShouldRetry(attempt int) bool {
	return attempt+1 < p.MaxAttempts
}

// Backoff returns the wait after the given zero-based attempt failed.
func (p LinearRetryPolicy) Backoff(attempt int) time.Duration {
	return p.BackoffBase * time.Duration(attempt+1)
}

// Package redis provides a dedup backend backed by a Redis set, letting
// concurrent runs on separate hosts share one dedup horizon.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mirrorlake/pinharvest/internal/harvest"
)

// keyTTL bounds how long an abandoned run's fingerprint set survives.
const keyTTL = 24 * time.Hour

// Deduplicator claims fingerprints via SADD on a run-scoped set. The SADD
// reply distinguishes first writers from repeats, which gives the same
// first-wins semantics as the in-process backend.
type Deduplicator struct {
	client *goredis.Client
	key    string
}

// New connects to Redis and scopes all writes to the given run id. The
// connection is verified up front so a bad address fails the run before any
// harvesting starts.
func New(ctx context.Context, addr, runID string) (*Deduplicator, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &Deduplicator{
		client: client,
		key:    "pinharvest:fingerprints:" + runID,
	}, nil
}

// TryAccept claims fp and reports whether the caller was the first writer.
func (d *Deduplicator) TryAccept(ctx context.Context, fp harvest.Fingerprint) (bool, error) {
	if fp == "" {
		return false, nil
	}
	added, err := d.client.SAdd(ctx, d.key, fp.String()).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim fingerprint: %w", err)
	}
	if added == 1 {
		// Refresh expiry while the run is alive so the key cannot leak.
		d.client.Expire(ctx, d.key, keyTTL)
	}
	return added == 1, nil
}

// Close releases the Redis connection.
func (d *Deduplicator) Close() error {
	return d.client.Close()
}

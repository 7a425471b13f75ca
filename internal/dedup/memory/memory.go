// Package memory provides the in-process dedup backend used by default.
package memory

import (
	"context"
	"sync"

	"github.com/mirrorlake/pinharvest/internal/harvest"
)

// Deduplicator tracks accepted fingerprints for a single run in process
// memory. TryAccept is safe for concurrent harvesters racing on the same
// fingerprint: the atomic LoadOrStore guarantees exactly one caller wins.
type Deduplicator struct {
	seen sync.Map
}

func New() *Deduplicator {
	return &Deduplicator{}
}

// TryAccept claims fp if unseen and reports whether the caller won the claim.
func (d *Deduplicator) TryAccept(_ context.Context, fp harvest.Fingerprint) (bool, error) {
	if fp == "" {
		return false, nil
	}
	_, loaded := d.seen.LoadOrStore(fp, struct{}{})
	return !loaded, nil
}

// Len reports how many distinct fingerprints have been accepted so far.
func (d *Deduplicator) Len() int {
	n := 0
	d.seen.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

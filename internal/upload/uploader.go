// Package upload mirrors a finished harvest output tree to remote storage.
// Backends share the same per-category contract: walk the category folders
// under the output root, push their contents, and report which categories
// uploaded cleanly.
package upload

import (
	"context"
	"sort"
)

// Uploader pushes one run's output tree to a remote destination.
type Uploader interface {
	// UploadTree mirrors every category directory under root and returns
	// per-category success. The master JSON at the root itself is not
	// mirrored; it exists for local tooling.
	UploadTree(ctx context.Context, root string) (Results, error)
}

// Results maps category names to upload success.
type Results map[string]bool

// Failed returns the categories that did not upload cleanly, sorted by name.
func (r Results) Failed() []string {
	var out []string
	for name, ok := range r {
		if !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Succeeded counts the categories that uploaded without a single failure.
func (r Results) Succeeded() int {
	n := 0
	for _, ok := range r {
		if ok {
			n++
		}
	}
	return n
}

// Package changedet decides whether a file needs reindexing by comparing
// its stored content hash against its current bytes.
package changedet

import (
	"context"
	"os"

	"github.com/symbolgraph/symbolgraph/internal/respath"
)

// HashLookup is the minimal subset of IndexStore this detector consumes: a
// lookup from repo-relative path to the last-indexed content hash.
type HashLookup interface {
	// FileHash returns the stored hash for relPath and whether a row exists.
	FileHash(ctx context.Context, relPath string) (hash string, found bool, err error)
}

// Detector decides reindex necessity. Hash is authoritative; mtime is
// recorded by callers but never consulted here — it doesn't survive touch,
// copies, or clock skew across filesystems.
type Detector struct {
	store HashLookup
}

// New creates a Detector backed by store.
func New(store HashLookup) *Detector {
	return &Detector{store: store}
}

// ShouldReindex reports whether absPath (whose repo-relative identity is
// relPath) needs reindexing. Any IO or lookup error defaults to true: the
// safe choice is to reindex rather than silently skip a file.
func (d *Detector) ShouldReindex(ctx context.Context, relPath, absPath string) (bool, error) {
	storedHash, found, err := d.store.FileHash(ctx, relPath)
	if err != nil {
		return true, err
	}
	if !found {
		return true, nil
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return true, err
	}

	currentHash := respath.HashBytes(data)
	return currentHash != storedHash, nil
}

// Package dedupe tracks upload fingerprints so an identical extract file
// submitted twice is acknowledged without merging again, protecting the
// historical-score trails from double-submits.
package dedupe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// defaultMaxSize bounds how many fingerprints are remembered.
const defaultMaxSize = 1024

// Fingerprint returns the canonical fingerprint of an uploaded file's text.
func Fingerprint(fileText string) string {
	sum := sha256.Sum256([]byte(fileText))
	return hex.EncodeToString(sum[:])
}

// Tracker records seen upload fingerprints.
type Tracker interface {
	// SeenAndRecord atomically checks if fp was seen and records it if not.
	// Returns true if fp was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, fp string) bool

	// Unrecord removes a fingerprint, allowing the upload to be retried after
	// a failed merge.
	Unrecord(ctx context.Context, fp string)

	// Size returns the number of fingerprints currently tracked.
	Size() int
}

// inMemoryTracker implements Tracker with a map plus a FIFO eviction ring.
type inMemoryTracker struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ring    []string
	head    int
	maxSize int
}

// NewInMemoryTracker creates a bounded in-memory fingerprint tracker.
func NewInMemoryTracker(opts ...Option) Tracker {
	t := &inMemoryTracker{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.seen = make(map[string]struct{}, t.maxSize)
	t.ring = make([]string, 0, t.maxSize)
	return t
}

// SeenAndRecord atomically checks and records a fingerprint.
func (t *inMemoryTracker) SeenAndRecord(ctx context.Context, fp string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[fp]; ok {
		return true
	}

	if len(t.ring) < t.maxSize {
		t.ring = append(t.ring, fp)
	} else {
		// Evict the oldest slot and reuse it.
		delete(t.seen, t.ring[t.head])
		t.ring[t.head] = fp
		t.head = (t.head + 1) % t.maxSize
	}
	t.seen[fp] = struct{}{}
	return false
}

// Unrecord removes a fingerprint so the upload can be retried.
func (t *inMemoryTracker) Unrecord(ctx context.Context, fp string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.seen, fp)
}

// Size returns the number of fingerprints currently tracked.
func (t *inMemoryTracker) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}

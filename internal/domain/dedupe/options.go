package dedupe

// Option applies a configuration option to the in-memory tracker.
type Option func(*inMemoryTracker)

// WithMaxSize bounds the number of fingerprints kept in memory.
func WithMaxSize(size int) Option {
	return func(t *inMemoryTracker) {
		if size > 0 {
			t.maxSize = size
		}
	}
}

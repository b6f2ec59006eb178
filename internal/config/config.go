// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults come from New(); Load layers an optional YAML file and env vars
//   on top of them.
// - External errors must be wrapped via this package's error kinds.
package config

import "github.com/cohortlab/vigil/internal/domain/scoring"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// BatchQueueSize bounds the in-memory roster command queue.
	BatchQueueSize int `koanf:"batch_queue_size"`

	// UploadDedupeSize bounds the duplicate-upload fingerprint cache.
	UploadDedupeSize int `koanf:"upload_dedupe_size"`

	// MaxRosterLimit caps GET /roster?limit.
	MaxRosterLimit int `koanf:"max_roster_limit"`

	// MaxUploadBytes caps the size of one ingested extract file.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// Weights is the active risk-score weight configuration at startup.
	Weights scoring.Weights `koanf:"weights"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		BatchQueueSize:   256,
		UploadDedupeSize: 1024,
		MaxRosterLimit:   500,
		MaxUploadBytes:   10 << 20,
		Weights:          scoring.DefaultWeights(),
	}
}

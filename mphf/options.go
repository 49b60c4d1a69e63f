package mphf

import "log/slog"

const (
	defaultGamma = 1.0

	// maxStallRetries bounds how many consecutive seeds may resolve no key at
	// all before construction gives up.
	maxStallRetries = 64
)

// Option is a functional option for configuring Build.
type Option func(*config)

type config struct {
	gamma   float64
	seed    uint64
	workers int
	logger  *slog.Logger
}

func defaultConfig() *config {
	return &config{
		gamma:  defaultGamma,
		seed:   0x9E3779B97F4A7C15, // Arbitrary default; overridden via WithSeed
		logger: slog.New(slog.DiscardHandler),
	}
}

// WithGamma sets the level table size as a multiple of the keys still
// unresolved. Larger values build faster and query with fewer levels at the
// cost of more bits per key. Values below 1 are raised to 1.
func WithGamma(gamma float64) Option {
	return func(c *config) {
		c.gamma = max(gamma, 1)
	}
}

// WithSeed sets the global hash seed.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

// WithWorkers sets the number of goroutines hashing keys at each level.
// Zero or one hashes on the calling goroutine. The resulting function does not
// depend on the worker count.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithLogger sets the logger used for per-level debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

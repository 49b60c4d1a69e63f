package succinct

import "log/slog"

// Option is a functional option for writing and opening model files.
// Options that do not apply to an operation are ignored by it.
type Option func(*config)

type config struct {
	compression Compression
	verify      bool
	logger      *slog.Logger
}

func defaultConfig() *config {
	return &config{
		compression: CompressionNone,
		verify:      true,
		logger:      slog.New(slog.DiscardHandler),
	}
}

func newConfig(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithCompression sets how the structure stream is stored. Ignored when
// opening. A stream that does not shrink is stored uncompressed regardless.
func WithCompression(c Compression) Option {
	return func(cfg *config) {
		cfg.compression = c
	}
}

// WithVerify enables or disables checksum verification when opening or
// decoding. Enabled by default.
func WithVerify(verify bool) Option {
	return func(cfg *config) {
		cfg.verify = verify
	}
}

// WithLogger sets the logger for write and load events.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

package decompress

import (
	"log/slog"

	"github.com/meigma/decompress/format"
)

// extractConfig holds configuration for Extract and List.
type extractConfig struct {
	strip          int
	filter         func(Entry) bool
	mapper         func(Entry) (Entry, error)
	plugins        []Decoder
	pluginsSet     bool
	formatOpts     []format.Option
	logger         *slog.Logger
	workers        int
	strictSymlinks bool
	progress       ProgressFunc
}

func newExtractConfig(opts []Option) *extractConfig {
	cfg := &extractConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// decoders returns the configured plugins, or the default set.
func (c *extractConfig) decoders() []Decoder {
	if c.pluginsSet {
		return c.plugins
	}
	return format.Defaults(c.formatOpts...)
}

// log returns the logger, falling back to a discard logger if nil.
func (c *extractConfig) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// reportProgress sends a progress event if a callback is configured.
func (c *extractConfig) reportProgress(ev ProgressEvent) {
	if c.progress == nil {
		return
	}
	c.progress(ev)
}

// Option configures Extract and List.
type Option func(*extractConfig)

// WithStrip removes n leading path segments from every entry.
// Entries with n or fewer segments are dropped. Zero disables stripping.
func WithStrip(n int) Option {
	return func(c *extractConfig) {
		c.strip = n
	}
}

// WithFilter keeps only entries for which fn returns true.
// The filter sees paths after stripping.
func WithFilter(fn func(Entry) bool) Option {
	return func(c *extractConfig) {
		c.filter = fn
	}
}

// WithMap rewrites each entry that passed the filter. The returned entry is
// what gets written. An error aborts the extraction before anything is
// written.
func WithMap(fn func(Entry) (Entry, error)) Option {
	return func(c *extractConfig) {
		c.mapper = fn
	}
}

// WithPlugins replaces the default decoders. Each decoder is offered the
// whole input in order and their results are concatenated.
//
// Passing no decoders disables decoding entirely.
func WithPlugins(decoders ...Decoder) Option {
	return func(c *extractConfig) {
		c.plugins = decoders
		c.pluginsSet = true
	}
}

// WithMaxEntrySize limits the decoded size of any single entry when the
// default decoders are used. Zero disables the limit.
func WithMaxEntrySize(limit uint64) Option {
	return func(c *extractConfig) {
		c.formatOpts = append(c.formatOpts, format.WithMaxEntrySize(limit))
	}
}

// WithLogger sets a logger for decoder and write progress.
// If nil, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *extractConfig) {
		c.logger = logger
	}
}

// WithWorkers sets the number of concurrent writers.
// Values < 0 force serial processing. Zero uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *extractConfig) {
		c.workers = n
	}
}

// WithStrictSymlinks makes symlink entries fail with ErrSymlinkUnsupported
// on platforms without symlink support. By default they are written as
// hard links to their target and a warning is logged.
func WithStrictSymlinks(strict bool) Option {
	return func(c *extractConfig) {
		c.strictSymlinks = strict
	}
}

// WithProgress sets a callback for progress updates. It is called once per
// decoder and once per written entry, possibly from several goroutines.
func WithProgress(fn ProgressFunc) Option {
	return func(c *extractConfig) {
		c.progress = fn
	}
}

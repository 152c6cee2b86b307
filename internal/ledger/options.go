package ledger

import (
	"io"
	"log/slog"
)

type options struct {
	strictChecksum bool
	logger         *slog.Logger
}

// Option configures Load, Validate, Save and Verify.
type Option func(*options)

// WithStrictChecksum also rejects uids whose embedded checksum is wrong.
func WithStrictChecksum(strict bool) Option {
	return func(o *options) { o.strictChecksum = strict }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

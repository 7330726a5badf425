// Package options configures a mapper Context.
package options

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"struct-mapper/primitive"
)

// Settings are the resolved options of a Context.
type Settings struct {
	Logger     *slog.Logger
	Registerer prometheus.Registerer
	// Conversions are the primitive conversion categories member values may use.
	Conversions primitive.CategoryEnum
	// Strict requires every writable target member to have a source.
	Strict bool
}

// Option changes Settings.
type Option func(*Settings)

// Apply returns the default settings changed by opts.
func Apply(opts ...Option) Settings {
	s := Settings{
		Logger:      slog.New(slog.DiscardHandler),
		Conversions: primitive.CategoryDefault,
	}

	for _, opt := range opts {
		opt(&s)
	}

	return s
}

// WithLogger logs compilations, build diagnostics and, at debug level, every
// root mapping call.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Settings) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// WithRegisterer registers the mapper cache metrics.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Settings) { s.Registerer = reg }
}

// WithConversions replaces the allowed primitive conversion categories.
func WithConversions(categories primitive.CategoryEnum) Option {
	return func(s *Settings) { s.Conversions = categories }
}

// WithStrict makes unmatched target members a compile error.
func WithStrict() Option {
	return func(s *Settings) { s.Strict = true }
}

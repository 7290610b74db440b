package engine

import (
	"log/slog"

	"github.com/roach88/notelog/internal/machine"
	"github.com/roach88/notelog/internal/metrics"
)

// Option configures a Manager or Notebook.
type Option func(*settings)

type settings struct {
	ids     IDGenerator
	clock   machine.Clock
	logger  *slog.Logger
	metrics *metrics.Collector
}

// WithIDGenerator sets the identity source for new annotations.
//
// Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *settings) {
		if g != nil {
			s.ids = g
		}
	}
}

// WithClock sets the clock used for transition timestamps and metadata.
//
// Default: machine.SystemClock.
func WithClock(c machine.Clock) Option {
	return func(s *settings) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the structured logger.
//
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records accepted, rejected and replayed transitions on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *settings) {
		s.metrics = c
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		ids:    UUIDv7Generator{},
		clock:  machine.SystemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s settings) machineOptions() []machine.Option {
	return []machine.Option{machine.WithClock(s.clock), machine.WithLogger(s.logger)}
}

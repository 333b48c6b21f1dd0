package hub

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/zoobzio/clockz"
)

// hubOptions holds configuration resolved from HubOption values at New.
type hubOptions struct {
	clock          clockz.Clock
	logger         logiface.Logger[*stumpy.Event]
	metricsEnabled bool
	tracingEnabled bool
	maxFDs         int
}

// HubOption configures a Hub instance at construction time.
type HubOption interface {
	applyHub(*hubOptions) error
}

type hubOptionFunc struct {
	fn func(*hubOptions) error
}

func (o *hubOptionFunc) applyHub(opts *hubOptions) error { return o.fn(opts) }

// WithClock overrides the Clock used for timers and Sleep/Pause deadlines.
// Defaults to clockz.RealClock; tests typically supply clockz.NewFakeClock().
func WithClock(clock clockz.Clock) HubOption {
	return &hubOptionFunc{func(opts *hubOptions) error {
		opts.clock = clock
		return nil
	}}
}

// WithLogger overrides the structured logger used for task panics, poll
// errors, and lifecycle transitions.
func WithLogger(logger logiface.Logger[*stumpy.Event]) HubOption {
	return &hubOptionFunc{func(opts *hubOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithMetrics enables the Hub-wide metricz.Registry (ready-deque depth,
// timer-heap depth, tick/spawn/panic counters). Disabled by default for
// allocation-sensitive hot loops.
func WithMetrics(enabled bool) HubOption {
	return &hubOptionFunc{func(opts *hubOptions) error {
		opts.metricsEnabled = enabled
		return nil
	}}
}

// WithTracing enables per-tick and per-operation tracez spans.
func WithTracing(enabled bool) HubOption {
	return &hubOptionFunc{func(opts *hubOptions) error {
		opts.tracingEnabled = enabled
		return nil
	}}
}

// WithMaxFDs bounds how many file descriptors the poll binding will track.
func WithMaxFDs(n int) HubOption {
	return &hubOptionFunc{func(opts *hubOptions) error {
		opts.maxFDs = n
		return nil
	}}
}

func resolveHubOptions(opts []HubOption) (*hubOptions, error) {
	cfg := &hubOptions{
		clock:  clockz.RealClock,
		logger: newDefaultLogger(),
		maxFDs: defaultMaxFDs,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyHub(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

const defaultMaxFDs = 65536

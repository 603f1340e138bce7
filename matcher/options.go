package matcher

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/hupe1980/keygraph/distance"
)

// Policy selects which rows a frame may match.
type Policy int

const (
	// BackwardOnly matches only rows of earlier frames.
	BackwardOnly Policy = iota
	// ForwardMatching matches rows of any other frame.
	ForwardMatching
)

func (p Policy) String() string {
	switch p {
	case BackwardOnly:
		return "backward"
	case ForwardMatching:
		return "forward"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// ParsePolicy parses the names produced by String.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "backward", "":
		return BackwardOnly, nil
	case "forward":
		return ForwardMatching, nil
	default:
		return 0, fmt.Errorf("unknown match policy %q", s)
	}
}

// DefaultMaxDistance is the Hamming threshold used for ORB descriptors.
const DefaultMaxDistance = 10

// ErrInvalidOptions is returned by New for out-of-range options.
var ErrInvalidOptions = errors.New("matcher: invalid options")

// Options contains configuration options for the matcher.
type Options struct {
	// MaxDistance is the largest accepted match distance, inclusive.
	MaxDistance float32

	// RatioTest enables Lowe's ratio test when > 0: a match is accepted only if
	// best <= RatioTest * secondBest. Must be in [0, 1].
	RatioTest float32

	// Metric overrides the metric native to the descriptor kind.
	Metric *distance.Metric

	// Policy selects the exclusion mask.
	Policy Policy

	// Workers bounds the parallel searches within one frame. 0 means GOMAXPROCS.
	Workers int

	// Logger receives per-frame debug records. Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions contains the default configuration options for the matcher.
var DefaultOptions = Options{
	MaxDistance: DefaultMaxDistance,
	Policy:      BackwardOnly,
}

// WithMaxDistance sets the match threshold.
func WithMaxDistance(d float32) func(o *Options) {
	return func(o *Options) { o.MaxDistance = d }
}

// WithRatioTest enables the ratio test.
func WithRatioTest(r float32) func(o *Options) {
	return func(o *Options) { o.RatioTest = r }
}

// WithMetric overrides the distance metric.
func WithMetric(m distance.Metric) func(o *Options) {
	return func(o *Options) { o.Metric = &m }
}

// WithPolicy sets the match policy.
func WithPolicy(p Policy) func(o *Options) {
	return func(o *Options) { o.Policy = p }
}

// WithWorkers bounds the per-frame parallelism.
func WithWorkers(n int) func(o *Options) {
	return func(o *Options) { o.Workers = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

func (o *Options) validate() error {
	if o.MaxDistance < 0 {
		return fmt.Errorf("%w: negative max distance %v", ErrInvalidOptions, o.MaxDistance)
	}
	if o.RatioTest < 0 || o.RatioTest > 1 {
		return fmt.Errorf("%w: ratio test %v outside [0,1]", ErrInvalidOptions, o.RatioTest)
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: negative worker count %d", ErrInvalidOptions, o.Workers)
	}
	if o.Policy != BackwardOnly && o.Policy != ForwardMatching {
		return fmt.Errorf("%w: policy %v", ErrInvalidOptions, o.Policy)
	}
	return nil
}

func (o *Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

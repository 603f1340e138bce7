package keygraph

import (
	"log/slog"
	"os"

	"github.com/hupe1980/keygraph/checkpoint"
	"github.com/hupe1980/keygraph/codec"
	"github.com/hupe1980/keygraph/extract"
	"github.com/hupe1980/keygraph/internal/resource"
	"github.com/hupe1980/keygraph/matcher"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	resources        *resource.Controller
	encoding         checkpoint.Encoding
	compression      checkpoint.Compression
	extractOptions   []func(*extract.Options)
	matchOptions     []func(*matcher.Options)
}

// Option configures a KeyGraph.
type Option func(*options)

// WithCodec configures the codec used by Summarize.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &keygraph.BasicMetricsCollector{}
//	kg := keygraph.New(store, keygraph.WithMetricsCollector(metrics))
//	// ... use kg ...
//	stats := metrics.GetStats()
//	fmt.Printf("Matches: %d, Avg latency: %dns\n", stats.MatchCount, stats.MatchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
//	logger := keygraph.NewJSONLogger(os.Stderr, slog.LevelInfo)
//	kg := keygraph.New(store, keygraph.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger on stderr with the specified level and sets it.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(os.Stderr, level)
	}
}

// WithResources shares a resource controller between extraction and checkpoint writes.
func WithResources(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithCheckpointEncoding selects the detection encoding of saved checkpoints.
func WithCheckpointEncoding(e checkpoint.Encoding) Option {
	return func(o *options) {
		o.encoding = e
	}
}

// WithCheckpointCompression selects the body compression of saved checkpoints.
func WithCheckpointCompression(c checkpoint.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithExtractOptions passes options through to the extractor.
func WithExtractOptions(optFns ...func(*extract.Options)) Option {
	return func(o *options) {
		o.extractOptions = append(o.extractOptions, optFns...)
	}
}

// WithMatchOptions passes options through to the matcher.
func WithMatchOptions(optFns ...func(*matcher.Options)) Option {
	return func(o *options) {
		o.matchOptions = append(o.matchOptions, optFns...)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		encoding:         checkpoint.EncodingPositional,
		compression:      checkpoint.CompressionNone,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

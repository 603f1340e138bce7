// Package config loads the YAML configuration of the keygraph CLI.
//
// A missing field keeps its default. Values may reference environment
// variables as ${NAME}, which keeps credentials out of the file:
//
//	store:
//	  backend: minio
//	  endpoint: localhost:9000
//	  bucket: keygraph
//	  access_key: ${MINIO_ACCESS_KEY}
//	  secret_key: ${MINIO_SECRET_KEY}
//	match:
//	  max_distance: 10
//	  policy: backward
//	checkpoint:
//	  compression: zstd
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/keygraph/checkpoint"
	"github.com/hupe1980/keygraph/codec"
	"github.com/hupe1980/keygraph/distance"
	"github.com/hupe1980/keygraph/matcher"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Store backends.
const (
	BackendLocal  = "local"
	BackendMemory = "memory"
	BackendS3     = "s3"
	BackendMinIO  = "minio"
)

// Config is the root configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Extract    ExtractConfig    `yaml:"extract"`
	Match      MatchConfig      `yaml:"match"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Resources  ResourceConfig   `yaml:"resources"`
	Log        LogConfig        `yaml:"log"`
	Output     OutputConfig     `yaml:"output"`
}

// StoreConfig selects the blob store holding checkpoints.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	// Path is the root directory of the local backend.
	Path     string `yaml:"path"`
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	// DynamoDBTable commits CURRENT through DynamoDB (s3 backend only).
	DynamoDBTable string `yaml:"dynamodb_table"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	Secure        bool   `yaml:"secure"`
}

// ORBConfig holds the ORB detector parameters.
type ORBConfig struct {
	Features      int     `yaml:"features"`
	ScaleFactor   float32 `yaml:"scale_factor"`
	Levels        int     `yaml:"levels"`
	EdgeThreshold int     `yaml:"edge_threshold"`
	FirstLevel    int     `yaml:"first_level"`
	WTAK          int     `yaml:"wta_k"`
	HarrisScore   bool    `yaml:"harris_score"`
	PatchSize     int     `yaml:"patch_size"`
	FastThreshold int     `yaml:"fast_threshold"`
}

// ExtractConfig configures extraction.
type ExtractConfig struct {
	MaxFrames int       `yaml:"max_frames"`
	ORB       ORBConfig `yaml:"orb"`
}

// MatchConfig configures the correspondence matcher.
type MatchConfig struct {
	MaxDistance float32 `yaml:"max_distance"`
	RatioTest   float32 `yaml:"ratio_test"`
	// Metric overrides the metric of the descriptor kind when set.
	Metric  string `yaml:"metric"`
	Policy  string `yaml:"policy"`
	Workers int    `yaml:"workers"`
}

// CheckpointConfig configures checkpoint encoding.
type CheckpointConfig struct {
	Encoding    string `yaml:"encoding"`
	Compression string `yaml:"compression"`
}

// ResourceConfig holds global limits. Zero means unlimited.
type ResourceConfig struct {
	MemoryLimitBytes   int64 `yaml:"memory_limit_bytes"`
	IOLimitBytesPerSec int64 `yaml:"io_limit_bytes_per_sec"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// OutputConfig configures report output.
type OutputConfig struct {
	Codec  string `yaml:"codec"`
	Indent bool   `yaml:"indent"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{Backend: BackendLocal, Path: "./keygraph-data"},
		Extract: ExtractConfig{
			ORB: ORBConfig{
				Features:      500,
				ScaleFactor:   1.2,
				Levels:        8,
				EdgeThreshold: 31,
				FirstLevel:    0,
				WTAK:          2,
				HarrisScore:   true,
				PatchSize:     31,
				FastThreshold: 20,
			},
		},
		Match: MatchConfig{
			MaxDistance: matcher.DefaultMaxDistance,
			Policy:      matcher.BackwardOnly.String(),
		},
		Checkpoint: CheckpointConfig{Encoding: "positional", Compression: "none"},
		Log:        LogConfig{Level: "info", Format: "text"},
		Output:     OutputConfig{Codec: "go-json", Indent: true},
	}
}

// Load reads path on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	expanded := os.Expand(string(data), os.Getenv)

	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func invalid(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalid, field, fmt.Sprintf(format, args...))
}

// Validate checks field ranges and names.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendLocal:
		if c.Store.Path == "" {
			return invalid("store.path", "required for the local backend")
		}
	case BackendMemory:
	case BackendS3, BackendMinIO:
		if c.Store.Bucket == "" {
			return invalid("store.bucket", "required for the %s backend", c.Store.Backend)
		}
		if c.Store.Backend == BackendMinIO && c.Store.Endpoint == "" {
			return invalid("store.endpoint", "required for the minio backend")
		}
	default:
		return invalid("store.backend", "unknown backend %q", c.Store.Backend)
	}
	if c.Store.DynamoDBTable != "" && c.Store.Backend != BackendS3 {
		return invalid("store.dynamodb_table", "only supported by the s3 backend")
	}

	if c.Extract.MaxFrames < 0 {
		return invalid("extract.max_frames", "must be >= 0")
	}
	if c.Extract.ORB.Features <= 0 || c.Extract.ORB.Levels <= 0 || c.Extract.ORB.ScaleFactor <= 1 {
		return invalid("extract.orb", "features and levels must be > 0 and scale_factor > 1")
	}

	if c.Match.MaxDistance < 0 {
		return invalid("match.max_distance", "must be >= 0")
	}
	if c.Match.RatioTest < 0 || c.Match.RatioTest > 1 {
		return invalid("match.ratio_test", "must be in [0, 1]")
	}
	if c.Match.Metric != "" {
		if _, err := distance.ParseMetric(c.Match.Metric); err != nil {
			return invalid("match.metric", "%v", err)
		}
	}
	if _, err := matcher.ParsePolicy(c.Match.Policy); err != nil {
		return invalid("match.policy", "%v", err)
	}
	if c.Match.Workers < 0 {
		return invalid("match.workers", "must be >= 0")
	}

	if _, err := checkpoint.ParseEncoding(c.Checkpoint.Encoding); err != nil {
		return invalid("checkpoint.encoding", "%v", err)
	}
	if _, err := checkpoint.ParseCompression(c.Checkpoint.Compression); err != nil {
		return invalid("checkpoint.compression", "%v", err)
	}

	if c.Resources.MemoryLimitBytes < 0 || c.Resources.IOLimitBytesPerSec < 0 {
		return invalid("resources", "limits must be >= 0")
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "%v", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format", "must be text or json, got %q", c.Log.Format)
	}

	if _, ok := codec.ByName(c.Output.Codec); !ok {
		return invalid("output.codec", "unknown codec %q", c.Output.Codec)
	}
	return nil
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return l, nil
}

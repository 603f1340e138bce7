// Package main provides the keygraph CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hupe1980/keygraph"
	"github.com/hupe1980/keygraph/config"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	configPath string
	logLevel   string
	logFormat  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors is set, so cobra errors are printed here.
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "keygraph",
	Short: "Build feature-correspondence graphs from video",
	Long: `keygraph turns video frames into a correspondence graph of landmarks.

  keygraph extract walk.mp4     detect ORB features and save a checkpoint
  keygraph match                build the graph of the current checkpoint
  keygraph inspect              print checkpoint counts

Checkpoints live in the store configured with --config (default: ./keygraph-data).
Cloud credentials may be provided through a .env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Load .env file if present (for AWS_* and MinIO credentials)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")
	rootCmd.Version = Version
}

// exitError carries a specific exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func configError(format string, args ...any) error {
	return &exitError{code: ExitConfigError, err: fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	var ee *exitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, config.ErrInvalid):
		return ExitConfigError
	case keygraph.IsDataError(err):
		return ExitDataError
	default:
		return ExitError
	}
}

// loadConfig reads --config and applies the logging flags on top.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, configError("loading config: %w", err)
		}
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, configError("%w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *keygraph.Logger {
	level, _ := config.ParseLevel(cfg.Log.Level)
	if cfg.Log.Format == "json" {
		return keygraph.NewJSONLogger(os.Stderr, level)
	}
	return keygraph.NewTextLogger(os.Stderr, level)
}

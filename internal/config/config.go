// Package config loads and validates strata configuration from file,
// environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/strata/pkg/analyze"
	"github.com/Sumatoshi-tech/strata/pkg/backoff"
	"github.com/Sumatoshi-tech/strata/pkg/observability"
)

// Config is the top-level configuration struct for strata.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Filters       FilterConfig        `mapstructure:"filters"`
	History       HistoryConfig       `mapstructure:"history"`
	Output        OutputConfig        `mapstructure:"output"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// FilterConfig selects the files an analysis tracks.
type FilterConfig struct {
	Extensions   []string `mapstructure:"extensions"`
	Ignore       []string `mapstructure:"ignore"`
	Languages    []string `mapstructure:"languages"`
	SkipVendored bool     `mapstructure:"skip_vendored"`
	MaxFileSize  string   `mapstructure:"max_file_size"`
}

// HistoryConfig holds history-walk resource knobs.
type HistoryConfig struct {
	Workers    int         `mapstructure:"workers"`
	LineStats  bool        `mapstructure:"line_stats"`
	GitTimeout string      `mapstructure:"git_timeout"`
	Retry      RetryConfig `mapstructure:"retry"`
}

// RetryConfig tunes the backoff applied to transient git failures.
type RetryConfig struct {
	MaxAttempts int     `mapstructure:"max_attempts"`
	BaseDelay   string  `mapstructure:"base_delay"`
	MaxDelay    string  `mapstructure:"max_delay"`
	Multiplier  float64 `mapstructure:"multiplier"`
	Jitter      bool    `mapstructure:"jitter"`
}

// OutputConfig holds presentation settings.
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// ObservabilityConfig holds logging, tracing, and metrics settings.
type ObservabilityConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	DebugTrace   bool    `mapstructure:"debug_trace"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	LogLevel     string  `mapstructure:"log_level"`
	LogJSON      bool    `mapstructure:"log_json"`
	MetricsAddr  string  `mapstructure:"metrics_addr"`
	Environment  string  `mapstructure:"environment"`
}

// Output formats accepted by the cmd surface.
const (
	FormatSummary = "summary"
	FormatJSON    = "json"
	FormatYAML    = "yaml"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("history.workers must be non-negative")
	// ErrInvalidMaxAttempts indicates the retry attempt count is negative.
	ErrInvalidMaxAttempts = errors.New("history.retry.max_attempts must be non-negative")
	// ErrInvalidMultiplier indicates the retry multiplier is below 1.
	ErrInvalidMultiplier = errors.New("history.retry.multiplier must be at least 1")
	// ErrInvalidSampleRatio indicates the trace sample ratio is out of range.
	ErrInvalidSampleRatio = errors.New("observability.sample_ratio must be between 0 and 1")
	// ErrInvalidFormat indicates an unknown output format.
	ErrInvalidFormat = errors.New("output.format must be one of summary, json, yaml")
	// ErrInvalidLogLevel indicates an unknown log level name.
	ErrInvalidLogLevel = errors.New("observability.log_level must be one of debug, info, warn, error")
	// ErrInvalidDuration indicates an unparseable duration string.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidSizeFormat indicates an unparseable size string.
	ErrInvalidSizeFormat = errors.New("invalid size format")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	filterErr := c.validateFilters()
	if filterErr != nil {
		return filterErr
	}

	historyErr := c.validateHistory()
	if historyErr != nil {
		return historyErr
	}

	outputErr := c.validateOutput()
	if outputErr != nil {
		return outputErr
	}

	return c.validateObservability()
}

func (c *Config) validateFilters() error {
	_, err := c.Filters.MaxFileBytes()

	return err
}

func (c *Config) validateHistory() error {
	if c.History.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.History.Retry.MaxAttempts < 0 {
		return ErrInvalidMaxAttempts
	}

	if c.History.Retry.Multiplier != 0 && c.History.Retry.Multiplier < 1 {
		return ErrInvalidMultiplier
	}

	_, timeoutErr := c.History.Timeout()
	if timeoutErr != nil {
		return timeoutErr
	}

	_, policyErr := c.History.Retry.Policy()

	return policyErr
}

func (c *Config) validateOutput() error {
	switch c.Output.Format {
	case "", FormatSummary, FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}
}

func (c *Config) validateObservability() error {
	if c.Observability.SampleRatio < 0 || c.Observability.SampleRatio > 1 {
		return ErrInvalidSampleRatio
	}

	_, err := parseLogLevel(c.Observability.LogLevel)

	return err
}

// Options converts the filter section into analyzer filter options.
func (c FilterConfig) Options() (analyze.FilterOptions, error) {
	maxBytes, err := c.MaxFileBytes()
	if err != nil {
		return analyze.FilterOptions{}, err
	}

	return analyze.FilterOptions{
		Extensions:   c.Extensions,
		Ignore:       c.Ignore,
		Languages:    c.Languages,
		SkipVendored: c.SkipVendored,
		MaxFileBytes: maxBytes,
	}, nil
}

// MaxFileBytes parses the human-readable size cap. Empty means no cap.
func (c FilterConfig) MaxFileBytes() (int64, error) {
	if c.MaxFileSize == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(c.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("%w: filters.max_file_size %q", ErrInvalidSizeFormat, c.MaxFileSize)
	}

	if size > math.MaxInt64 {
		return math.MaxInt64, nil
	}

	return int64(size), nil
}

// Timeout parses the per-invocation git timeout. Empty means the client
// default.
func (c HistoryConfig) Timeout() (time.Duration, error) {
	return parseDuration("history.git_timeout", c.GitTimeout)
}

// Policy converts the retry section into a backoff policy. A zero
// max_attempts selects the package default policy; unset delays and
// multiplier inherit the default values.
func (c RetryConfig) Policy() (backoff.Policy, error) {
	policy := backoff.DefaultPolicy()
	if c.MaxAttempts == 0 {
		return policy, nil
	}

	policy.MaxAttempts = c.MaxAttempts
	policy.Jitter = c.Jitter

	if c.Multiplier != 0 {
		policy.Multiplier = c.Multiplier
	}

	base, baseErr := parseDuration("history.retry.base_delay", c.BaseDelay)
	if baseErr != nil {
		return backoff.Policy{}, baseErr
	}

	if base != 0 {
		policy.BaseDelay = base
	}

	maxDelay, maxErr := parseDuration("history.retry.max_delay", c.MaxDelay)
	if maxErr != nil {
		return backoff.Policy{}, maxErr
	}

	if maxDelay != 0 {
		policy.MaxDelay = maxDelay
	}

	return policy, nil
}

// Runtime converts the observability section into the runtime config,
// attaching the binary version.
func (c ObservabilityConfig) Runtime(serviceVersion string) (observability.Config, error) {
	level, err := parseLogLevel(c.LogLevel)
	if err != nil {
		return observability.Config{}, err
	}

	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = serviceVersion
	cfg.Environment = c.Environment
	cfg.OTLPEndpoint = c.OTLPEndpoint
	cfg.OTLPInsecure = c.OTLPInsecure
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(c.OTLPHeaders)
	cfg.DebugTrace = c.DebugTrace
	cfg.SampleRatio = c.SampleRatio
	cfg.LogLevel = level
	cfg.LogJSON = c.LogJSON

	return cfg, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidDuration, key, value)
	}

	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
	}
}

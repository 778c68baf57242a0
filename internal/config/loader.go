package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".strata"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for strata settings.
const envPrefix = "STRATA"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("filters.extensions", []string{})
	viperCfg.SetDefault("filters.ignore", []string{})
	viperCfg.SetDefault("filters.languages", []string{})
	viperCfg.SetDefault("filters.skip_vendored", DefaultFilterSkipVendored)
	viperCfg.SetDefault("filters.max_file_size", DefaultFilterMaxFileSize)

	viperCfg.SetDefault("history.workers", DefaultHistoryWorkers)
	viperCfg.SetDefault("history.line_stats", DefaultHistoryLineStats)
	viperCfg.SetDefault("history.git_timeout", DefaultHistoryGitTimeout)
	viperCfg.SetDefault("history.retry.max_attempts", DefaultRetryMaxAttempts)
	viperCfg.SetDefault("history.retry.base_delay", DefaultRetryBaseDelay)
	viperCfg.SetDefault("history.retry.max_delay", DefaultRetryMaxDelay)
	viperCfg.SetDefault("history.retry.multiplier", DefaultRetryMultiplier)
	viperCfg.SetDefault("history.retry.jitter", DefaultRetryJitter)

	viperCfg.SetDefault("output.format", DefaultOutputFormat)

	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.otlp_headers", "")
	viperCfg.SetDefault("observability.debug_trace", false)
	viperCfg.SetDefault("observability.sample_ratio", DefaultSampleRatio)
	viperCfg.SetDefault("observability.log_level", DefaultLogLevel)
	viperCfg.SetDefault("observability.log_json", DefaultLogJSON)
	viperCfg.SetDefault("observability.metrics_addr", "")
	viperCfg.SetDefault("observability.environment", "")
}

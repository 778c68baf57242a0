// Package commands implements CLI command handlers for strata.
package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/strata/internal/config"
)

const shortCommitLen = 12

// loadConfig reads the configuration named by the root --config flag,
// falling back to the default search path when the flag is absent.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path = ""
	}

	return config.LoadConfig(path)
}

// resolveFormat picks the output format: explicit flag first, then the
// configured default, then summary.
func resolveFormat(flagValue string, cfg *config.Config) (string, error) {
	format := flagValue
	if format == "" {
		format = cfg.Output.Format
	}

	if format == "" {
		format = config.FormatSummary
	}

	switch format {
	case config.FormatSummary, config.FormatJSON, config.FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q", config.ErrInvalidFormat, format)
	}
}

func isQuiet(cmd *cobra.Command) bool {
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return false
	}

	return quiet
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

func writeYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write yaml: %w", err)
	}

	return nil
}

func shortCommit(commit string) string {
	if len(commit) <= shortCommitLen {
		return commit
	}

	return commit[:shortCommitLen]
}

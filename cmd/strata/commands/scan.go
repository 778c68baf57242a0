package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/strata/internal/config"
	"github.com/Sumatoshi-tech/strata/pkg/analyze"
	"github.com/Sumatoshi-tech/strata/pkg/observability"
	"github.com/Sumatoshi-tech/strata/pkg/version"
)

// ScanCommand holds the flags for the scan command.
type ScanCommand struct {
	format       string
	extensions   []string
	ignore       []string
	languages    []string
	skipVendored bool
	noColor      bool
}

// NewScanCommand creates and configures the scan command.
func NewScanCommand() *cobra.Command {
	sc := &ScanCommand{}

	cobraCmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Classify a working tree into line-type runs",
		Long: `Classify every matching file under a directory into contiguous runs of
typed lines and print the distribution.`,
		Args: cobra.MaximumNArgs(1),
		RunE: sc.run,
	}

	cobraCmd.Flags().StringVarP(&sc.format, "format", "f", "", "Output format: summary, json, or yaml (default from config)")
	cobraCmd.Flags().StringSliceVar(&sc.extensions, "ext", nil, "Extension globs to scan (default from config, else *.cs)")
	cobraCmd.Flags().StringSliceVar(&sc.ignore, "ignore", nil, "Regexps for paths to skip")
	cobraCmd.Flags().StringSliceVar(&sc.languages, "language", nil, "Restrict to detected languages ('all' disables the check)")
	cobraCmd.Flags().BoolVar(&sc.skipVendored, "skip-vendored", false, "Skip vendored paths")
	cobraCmd.Flags().BoolVar(&sc.noColor, "no-color", false, "Disable colored output")

	return cobraCmd
}

func (sc *ScanCommand) run(cmd *cobra.Command, args []string) error {
	if sc.noColor {
		color.NoColor = true
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	format, err := resolveFormat(sc.format, cfg)
	if err != nil {
		return err
	}

	obsCfg, err := cfg.Observability.Runtime(version.Version)
	if err != nil {
		return err
	}

	logger := observability.NewLogger(obsCfg)

	opts, err := sc.filterOptions(cmd, cfg)
	if err != nil {
		return err
	}

	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	filter := analyze.NewFilter(opts, logger)
	analyzer := analyze.NewAnalyzer(nil)

	analysis, err := analyzer.Directory(root, filter, logger)
	if err != nil {
		return err
	}

	analyze.SortByPath(analysis.Files)

	report := buildScanReport(analysis)
	writer := cmd.OutOrStdout()

	switch format {
	case config.FormatJSON:
		return writeJSON(writer, report)
	case config.FormatYAML:
		return writeYAML(writer, report)
	default:
		renderScanSummary(writer, report)

		return nil
	}
}

// filterOptions resolves filter settings: config first, explicitly set
// flags override.
func (sc *ScanCommand) filterOptions(cmd *cobra.Command, cfg *config.Config) (analyze.FilterOptions, error) {
	opts, err := cfg.Filters.Options()
	if err != nil {
		return analyze.FilterOptions{}, err
	}

	if cmd.Flags().Changed("ext") {
		opts.Extensions = sc.extensions
	}

	if cmd.Flags().Changed("ignore") {
		opts.Ignore = sc.ignore
	}

	if cmd.Flags().Changed("language") {
		opts.Languages = sc.languages
	}

	if cmd.Flags().Changed("skip-vendored") {
		opts.SkipVendored = sc.skipVendored
	}

	return opts, nil
}

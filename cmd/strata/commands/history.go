package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/strata/internal/config"
	"github.com/Sumatoshi-tech/strata/pkg/analyze"
	"github.com/Sumatoshi-tech/strata/pkg/gitcli"
	"github.com/Sumatoshi-tech/strata/pkg/history"
	"github.com/Sumatoshi-tech/strata/pkg/observability"
	"github.com/Sumatoshi-tech/strata/pkg/persist"
	"github.com/Sumatoshi-tech/strata/pkg/version"
)

// walkFunc runs the history walk. Tests substitute a fake.
type walkFunc func(ctx context.Context, walker *history.Walker, startRef string) (history.Log, error)

// HistoryCommand holds the flags for the history command.
type HistoryCommand struct {
	from        string
	subdir      string
	workers     int
	lineStats   bool
	format      string
	out         string
	metricsAddr string
	noColor     bool

	walk walkFunc
}

// NewHistoryCommand creates and configures the history command.
func NewHistoryCommand() *cobra.Command {
	return newHistoryCommandWithWalk(func(ctx context.Context, walker *history.Walker, startRef string) (history.Log, error) {
		return walker.Walk(ctx, startRef)
	})
}

func newHistoryCommandWithWalk(walk walkFunc) *cobra.Command {
	hc := &HistoryCommand{walk: walk}

	cobraCmd := &cobra.Command{
		Use:   "history [repository]",
		Short: "Walk first-parent history into a revision log",
		Long: `Walk a git repository's first-parent chain and build a revision log:
one full classification snapshot followed by per-commit block edits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: hc.run,
	}

	cobraCmd.Flags().StringVar(&hc.from, "from", gitcli.RootRef, "Start ref ('root' = first-parent root of HEAD)")
	cobraCmd.Flags().StringVar(&hc.subdir, "subdir", "", "Restrict the walk to this subdirectory")
	cobraCmd.Flags().IntVar(&hc.workers, "workers", 0, "Classification workers (0 = CPU count)")
	cobraCmd.Flags().BoolVar(&hc.lineStats, "line-stats", false, "Attach added/removed/changed line counts to modifies")
	cobraCmd.Flags().StringVarP(&hc.format, "format", "f", "", "Output format: summary, json, or yaml (default from config)")
	cobraCmd.Flags().StringVarP(&hc.out, "out", "o", "", "Write the full log to this file (.json, .gob, or .gob.lz4)")
	cobraCmd.Flags().StringVar(&hc.metricsAddr, "metrics-addr", "", "Serve /metrics and /healthz on this address during the walk")
	cobraCmd.Flags().BoolVar(&hc.noColor, "no-color", false, "Disable colored output")

	return cobraCmd
}

func (hc *HistoryCommand) run(cmd *cobra.Command, args []string) error {
	if hc.noColor {
		color.NoColor = true
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	format, err := resolveFormat(hc.format, cfg)
	if err != nil {
		return err
	}

	obsCfg, err := cfg.Observability.Runtime(version.Version)
	if err != nil {
		return err
	}

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown", "error", shutdownErr)
		}
	}()

	meter := providers.Meter

	metricsAddr := hc.metricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.Observability.MetricsAddr
	}

	if metricsAddr != "" {
		srv, srvErr := observability.NewMetricsServer(metricsAddr, providers.Logger)
		if srvErr != nil {
			return srvErr
		}

		defer func() {
			closeErr := srv.Close()
			if closeErr != nil {
				providers.Logger.Warn("metrics server close", "error", closeErr)
			}
		}()

		providers.Logger.Info("serving metrics", "addr", srv.Addr())

		meter = srv.Meter()
	}

	walkMetrics, err := observability.NewWalkMetrics(meter)
	if err != nil {
		return fmt.Errorf("create walk metrics: %w", err)
	}

	redMetrics, err := observability.NewREDMetrics(meter)
	if err != nil {
		return fmt.Errorf("create plumbing metrics: %w", err)
	}

	repoPath := "."
	if len(args) > 0 {
		repoPath = args[0]
	}

	walker, err := hc.buildWalker(cmd, repoPath, cfg, providers, walkMetrics, redMetrics)
	if err != nil {
		return err
	}

	log, err := hc.walk(cmd.Context(), walker, hc.from)
	if err != nil {
		return err
	}

	if hc.out != "" {
		saveErr := persist.Save(hc.out, log)
		if saveErr != nil {
			return saveErr
		}

		hc.logSaved(providers, hc.out)
	}

	report, err := buildWalkReport(repoPath, log)
	if err != nil {
		return err
	}

	writer := cmd.OutOrStdout()

	switch format {
	case config.FormatJSON:
		return writeJSON(writer, report)
	case config.FormatYAML:
		return writeYAML(writer, report)
	default:
		renderWalkSummary(writer, report)

		return nil
	}
}

func (hc *HistoryCommand) buildWalker(
	cmd *cobra.Command,
	repoPath string,
	cfg *config.Config,
	providers observability.Providers,
	walkMetrics *observability.WalkMetrics,
	redMetrics *observability.REDMetrics,
) (*history.Walker, error) {
	timeout, err := cfg.History.Timeout()
	if err != nil {
		return nil, err
	}

	client := gitcli.NewClient(repoPath)
	client.SubDir = hc.subdir
	client.Logger = providers.Logger
	client.Metrics = redMetrics

	if timeout > 0 {
		client.Timeout = timeout
	}

	opts, err := cfg.Filters.Options()
	if err != nil {
		return nil, err
	}

	policy, err := cfg.History.Retry.Policy()
	if err != nil {
		return nil, err
	}

	workers := cfg.History.Workers
	if cmd.Flags().Changed("workers") {
		workers = hc.workers
	}

	lineStats := cfg.History.LineStats
	if cmd.Flags().Changed("line-stats") {
		lineStats = hc.lineStats
	}

	return &history.Walker{
		Repo:     client,
		Filter:   analyze.NewFilter(opts, providers.Logger),
		Analyzer: analyze.NewAnalyzer(nil),
		Options: history.Options{
			Workers:   workers,
			LineStats: lineStats,
			Retry:     policy,
		},
		Logger:   providers.Logger,
		Tracer:   providers.Tracer,
		Metrics:  walkMetrics,
		Progress: hc.progressFunc(cmd),
	}, nil
}

// progressFunc reports walk progress to stderr unless --quiet is set.
func (hc *HistoryCommand) progressFunc(cmd *cobra.Command) history.ProgressFunc {
	if isQuiet(cmd) {
		return nil
	}

	writer := cmd.ErrOrStderr()

	var total, done int

	return func(ev history.Event) {
		switch ev.Kind {
		case history.CommitsTotal:
			total = ev.Count

			fmt.Fprintf(writer, "progress: walking %d commits\n", total)
		case history.CommitCompleted:
			done++

			fmt.Fprintf(writer, "progress: commit %d/%d %s\n", done, total, shortCommit(ev.Commit))
		default:
		}
	}
}

func (hc *HistoryCommand) logSaved(providers observability.Providers, path string) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		providers.Logger.Info("log saved", "path", path)

		return
	}

	providers.Logger.Info("log saved", "path", path, "size", humanize.Bytes(uint64(info.Size())))
}

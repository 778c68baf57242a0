package commands

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/strata/pkg/analyze"
	"github.com/Sumatoshi-tech/strata/pkg/blockdiff"
	"github.com/Sumatoshi-tech/strata/pkg/history"
	"github.com/Sumatoshi-tech/strata/pkg/linetype"
)

const percentScale = 100.0

// lineTypeOrder fixes the rendering order of per-type counts.
var lineTypeOrder = []linetype.LineType{
	linetype.Comment,
	linetype.ComplexityIncreasing,
	linetype.Code,
	linetype.CodeAndComment,
	linetype.Empty,
}

// TypeCount pairs a line type with the number of lines it covers.
type TypeCount struct {
	Type  string `json:"type"  yaml:"type"`
	Lines int    `json:"lines" yaml:"lines"`
}

// ScanReport summarizes a working-tree scan.
type ScanReport struct {
	Root  string      `json:"root"  yaml:"root"`
	Files int         `json:"files" yaml:"files"`
	Lines int         `json:"lines" yaml:"lines"`
	Types []TypeCount `json:"types" yaml:"types"`
}

// StatsTotal aggregates line statistics across a whole walk.
type StatsTotal struct {
	Added   int `json:"added"   yaml:"added"`
	Removed int `json:"removed" yaml:"removed"`
	Changed int `json:"changed" yaml:"changed"`
}

// WalkReport summarizes a history walk. Files, Lines, and Types describe
// the tracked state after the last walked commit.
type WalkReport struct {
	Repository string      `json:"repository" yaml:"repository"`
	Commits    int         `json:"commits"    yaml:"commits"`
	First      string      `json:"first,omitempty" yaml:"first,omitempty"`
	Last       string      `json:"last,omitempty"  yaml:"last,omitempty"`
	Files      int         `json:"files" yaml:"files"`
	Lines      int         `json:"lines" yaml:"lines"`
	Types      []TypeCount `json:"types,omitempty" yaml:"types,omitempty"`
	Added      int         `json:"added"    yaml:"added"`
	Modified   int         `json:"modified" yaml:"modified"`
	Deleted    int         `json:"deleted"  yaml:"deleted"`
	Renamed    int         `json:"renamed"  yaml:"renamed"`
	Stats      *StatsTotal `json:"line_stats,omitempty" yaml:"line_stats,omitempty"`
}

func buildScanReport(analysis analyze.DirectoryAnalysis) ScanReport {
	report := ScanReport{Root: analysis.Root, Files: len(analysis.Files)}
	counts := make(map[linetype.LineType]int)

	for _, fa := range analysis.Files {
		for _, g := range fa.Groups {
			counts[g.Type] += g.Length
			report.Lines += g.Length
		}
	}

	report.Types = typeCounts(counts)

	return report
}

func buildWalkReport(repoPath string, log history.Log) (WalkReport, error) {
	report := WalkReport{Repository: repoPath, Commits: len(log)}
	if len(log) == 0 {
		return report, nil
	}

	report.First = log[0].Commit
	report.Last = log[len(log)-1].Commit

	final, err := history.Replay(log, len(log))
	if err != nil {
		return WalkReport{}, fmt.Errorf("replay log: %w", err)
	}

	counts := make(map[linetype.LineType]int)

	for _, groups := range final {
		for _, g := range groups {
			counts[g.Type] += g.Length
			report.Lines += g.Length
		}
	}

	report.Files = len(final)
	report.Types = typeCounts(counts)

	countChanges(log, &report)

	return report, nil
}

// countChanges tallies change records by kind. The delete half of a
// rename pair is folded into the rename count instead of Deleted.
func countChanges(log history.Log, report *WalkReport) {
	var stats StatsTotal

	haveStats := false

	for _, rev := range log {
		renamedFrom := make(map[string]bool)

		for _, rec := range rev.Changes {
			if rec.Change.Kind == blockdiff.FileAdd && rec.OldPath != "" {
				renamedFrom[rec.OldPath] = true
			}
		}

		for _, rec := range rev.Changes {
			switch rec.Change.Kind {
			case blockdiff.FileAdd:
				if rec.OldPath != "" {
					report.Renamed++
				} else {
					report.Added++
				}
			case blockdiff.FileDelete:
				if !renamedFrom[rec.Path] {
					report.Deleted++
				}
			case blockdiff.Modify:
				report.Modified++
			}

			if rec.Stats != nil {
				haveStats = true
				stats.Added += rec.Stats.Added
				stats.Removed += rec.Stats.Removed
				stats.Changed += rec.Stats.Changed
			}
		}
	}

	if haveStats {
		report.Stats = &stats
	}
}

func typeCounts(counts map[linetype.LineType]int) []TypeCount {
	out := make([]TypeCount, 0, len(lineTypeOrder))
	for _, lt := range lineTypeOrder {
		out = append(out, TypeCount{Type: lt.String(), Lines: counts[lt]})
	}

	return out
}

func renderScanSummary(w io.Writer, report ScanReport) {
	heading := color.New(color.FgCyan, color.Bold)
	heading.Fprintf(w, "strata scan %s\n", report.Root)

	fmt.Fprintf(w, "%s files, %s lines\n\n",
		humanize.Comma(int64(report.Files)), humanize.Comma(int64(report.Lines)))

	fmt.Fprintln(w, typeTable(report.Types, report.Lines))
}

func renderWalkSummary(w io.Writer, report WalkReport) {
	heading := color.New(color.FgCyan, color.Bold)
	heading.Fprintf(w, "strata history %s\n", report.Repository)

	if report.Commits == 0 {
		fmt.Fprintln(w, "no commits walked")

		return
	}

	fmt.Fprintf(w, "%s commits (%s..%s), %s files tracked, %s lines\n\n",
		humanize.Comma(int64(report.Commits)),
		shortCommit(report.First), shortCommit(report.Last),
		humanize.Comma(int64(report.Files)), humanize.Comma(int64(report.Lines)))

	changes := table.NewWriter()
	changes.SetStyle(table.StyleLight)
	changes.AppendHeader(table.Row{"Change", "Count"})
	changes.AppendRow(table.Row{"added", humanize.Comma(int64(report.Added))})
	changes.AppendRow(table.Row{"modified", humanize.Comma(int64(report.Modified))})
	changes.AppendRow(table.Row{"deleted", humanize.Comma(int64(report.Deleted))})
	changes.AppendRow(table.Row{"renamed", humanize.Comma(int64(report.Renamed))})
	fmt.Fprintln(w, changes.Render())

	fmt.Fprintln(w)
	fmt.Fprintln(w, typeTable(report.Types, report.Lines))

	if report.Stats != nil {
		fmt.Fprintf(w, "\nline stats: +%d -%d ~%d\n",
			report.Stats.Added, report.Stats.Removed, report.Stats.Changed)
	}
}

func typeTable(types []TypeCount, totalLines int) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Line type", "Lines", "Share"})

	for _, tc := range types {
		share := 0.0
		if totalLines > 0 {
			share = float64(tc.Lines) / float64(totalLines) * percentScale
		}

		tbl.AppendRow(table.Row{tc.Type, humanize.Comma(int64(tc.Lines)), fmt.Sprintf("%.1f%%", share)})
	}

	tbl.AppendFooter(table.Row{"total", humanize.Comma(int64(totalLines)), ""})

	return tbl.Render()
}

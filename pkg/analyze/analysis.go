// Package analyze turns raw file content into ordered runs of classified
// lines. A file's analysis is a run-length encoding over the five line
// types: maximal contiguous groups, ordered by position, lengths summing
// to the file's line count. Analyses are snapshots — created fresh per
// pass and never mutated in place.
package analyze

import (
	"sort"
	"strings"

	"github.com/Sumatoshi-tech/strata/pkg/linetype"
)

// LineGroup is a maximal contiguous run of lines sharing one classification.
// Start is the 1-based line index of the group's first line. Length is >= 1.
type LineGroup struct {
	Start  int
	Length int
	Type   linetype.LineType
}

// FileAnalysis is the ordered group list for one file. Path is a
// forward-slash relative path. Groups are contiguous: each group starts
// where the previous one ended.
type FileAnalysis struct {
	Path   string
	Groups []LineGroup
}

// IsEmpty reports whether the analysis carries no lines.
func (fa FileAnalysis) IsEmpty() bool {
	return len(fa.Groups) == 0
}

// TotalLines returns the number of lines covered by the analysis.
func (fa FileAnalysis) TotalLines() int {
	total := 0
	for _, g := range fa.Groups {
		total += g.Length
	}

	return total
}

// DirectoryAnalysis collects per-file analyses under one root. Files keep
// enumeration order; callers sort when determinism matters.
type DirectoryAnalysis struct {
	Root  string
	Files []FileAnalysis
}

// PathLess orders paths case-insensitively, breaking ties bytewise so the
// order stays total on case-sensitive filesystems.
func PathLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}

	return a < b
}

// SortByPath sorts analyses in place by [PathLess].
func SortByPath(files []FileAnalysis) {
	sort.Slice(files, func(i, j int) bool {
		return PathLess(files[i].Path, files[j].Path)
	})
}

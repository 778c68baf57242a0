package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/strata/pkg/analyze"
	"github.com/Sumatoshi-tech/strata/pkg/blockdiff"
	"github.com/Sumatoshi-tech/strata/pkg/history"
	"github.com/Sumatoshi-tech/strata/pkg/linetype"
)

func TestBuildScanReport(t *testing.T) {
	t.Parallel()

	analysis := analyze.DirectoryAnalysis{
		Root: "src",
		Files: []analyze.FileAnalysis{
			{Path: "a.cs", Groups: []analyze.LineGroup{
				{Start: 1, Length: 3, Type: linetype.Code},
				{Start: 4, Length: 1, Type: linetype.Empty},
			}},
			{Path: "b.cs", Groups: []analyze.LineGroup{
				{Start: 1, Length: 2, Type: linetype.Comment},
			}},
		},
	}

	report := buildScanReport(analysis)

	assert.Equal(t, "src", report.Root)
	assert.Equal(t, 2, report.Files)
	assert.Equal(t, 6, report.Lines)

	want := []TypeCount{
		{Type: "comment", Lines: 2},
		{Type: "complexity", Lines: 0},
		{Type: "code", Lines: 3},
		{Type: "code-and-comment", Lines: 0},
		{Type: "empty", Lines: 1},
	}
	assert.Equal(t, want, report.Types)
}

func TestBuildWalkReport_EmptyLog(t *testing.T) {
	t.Parallel()

	report, err := buildWalkReport("repo", nil)
	require.NoError(t, err)

	assert.Equal(t, "repo", report.Repository)
	assert.Zero(t, report.Commits)
	assert.Empty(t, report.Types)
	assert.Nil(t, report.Stats)
}

func TestBuildWalkReport_ReplayError(t *testing.T) {
	t.Parallel()

	// Removing a group the snapshot never had cannot replay.
	log := history.Log{
		{
			Commit: commitHash("a"),
			Analysis: []analyze.FileAnalysis{
				{Path: "a.cs", Groups: []analyze.LineGroup{{Start: 1, Length: 2, Type: linetype.Code}}},
			},
		},
		{
			Commit: commitHash("b"),
			Changes: []history.ChangeRecord{
				{
					Path: "a.cs",
					Change: blockdiff.FileChange{
						Kind:  blockdiff.Modify,
						Edits: []blockdiff.Edit{blockdiff.Remove{Index: 5, Type: linetype.Code, OldLength: 2}},
					},
				},
			},
		},
	}

	_, err := buildWalkReport("repo", log)
	require.ErrorIs(t, err, blockdiff.ErrEditMismatch)
	assert.ErrorContains(t, err, "replay log")
}

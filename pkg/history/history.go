// Package history walks a range of git revisions and produces a compact
// log: a full classification snapshot at the first commit and block-level
// incremental changes for every later commit. Replaying the log
// reconstructs the classification state at any revision in the range.
package history

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/strata/pkg/analyze"
	"github.com/Sumatoshi-tech/strata/pkg/blockdiff"
)

var (
	// ErrDirtyWorktree indicates the repository has uncommitted changes.
	ErrDirtyWorktree = errors.New("worktree has uncommitted changes")

	// ErrEmptyRange indicates the requested commit range contains no
	// commits.
	ErrEmptyRange = errors.New("empty commit range")
)

// Revision is one step of the log.
type Revision struct {
	// Commit is the full commit hash.
	Commit string

	// Analysis is the full snapshot, sorted by path. Set only on the
	// first revision of a log.
	Analysis []analyze.FileAnalysis

	// Changes are the per-file incremental changes, sorted by path.
	// Empty on the first revision.
	Changes []ChangeRecord
}

// ChangeRecord pairs a path with its block-level change.
type ChangeRecord struct {
	// Path the change applies to.
	Path string

	// OldPath is the pre-rename path when this change is the add side of
	// a detected rename; empty otherwise.
	OldPath string

	// Change describes the transition of the file's group sequence.
	Change blockdiff.FileChange

	// Stats carries optional line statistics. Nil unless the walk ran
	// with Options.LineStats.
	Stats *LineStats
}

// Log is an ordered sequence of revisions, oldest first.
type Log []Revision

// Replay reconstructs the per-path group state after applying the first n
// revisions. n = len(log) replays the whole log. Files whose
// classification is empty at a revision are invisible in the log (an
// empty-to-empty transition is a no-op), so they never appear in the
// returned state.
func Replay(log Log, n int) (map[string][]analyze.LineGroup, error) {
	if n > len(log) {
		n = len(log)
	}

	state := make(map[string][]analyze.LineGroup)

	for _, rev := range log[:n] {
		for _, fa := range rev.Analysis {
			state[fa.Path] = fa.Groups
		}

		for _, rec := range rev.Changes {
			if rec.Change.Kind == blockdiff.FileDelete {
				delete(state, rec.Path)

				continue
			}

			next, err := blockdiff.ApplyChange(state[rec.Path], rec.Change)
			if err != nil {
				return nil, fmt.Errorf("replay %s at %s: %w", rec.Path, rev.Commit, err)
			}

			state[rec.Path] = next
		}
	}

	return state, nil
}

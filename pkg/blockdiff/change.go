package blockdiff

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/strata/pkg/analyze"
)

// ErrUnknownChangeKind is returned when replaying a FileChange whose kind
// is not one of the declared constants.
var ErrUnknownChangeKind = errors.New("unknown change kind")

// ChangeKind discriminates the [FileChange] variants.
type ChangeKind int

const (
	// Modify is an in-place change described by an edit list.
	Modify ChangeKind = iota
	// FileAdd introduces a file, carrying its complete group list.
	FileAdd
	// FileDelete removes a file, carrying nothing.
	FileDelete
)

// String returns the lowercase display name of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case Modify:
		return "modify"
	case FileAdd:
		return "add"
	case FileDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// FileChange describes how one file's analysis evolved between two
// snapshots: Modify carries Edits, FileAdd carries Groups, FileDelete
// carries neither.
type FileChange struct {
	Kind   ChangeKind
	Edits  []Edit
	Groups []analyze.LineGroup
}

// IsNoop reports whether the change is a Modify that produced no edits.
// Such changes are suppressed from revision logs.
func (c FileChange) IsNoop() bool {
	return c.Kind == Modify && len(c.Edits) == 0
}

// Classify builds the FileChange between two analyses of the same file.
// An empty old side short-circuits to FileAdd carrying every new group
// and an empty new side to FileDelete, so no degenerate diff against an
// empty sequence is ever computed. Otherwise the change is a Modify with
// edits from [Diff].
func Classify(old, updated analyze.FileAnalysis) FileChange {
	switch {
	case old.IsEmpty() && !updated.IsEmpty():
		return FileChange{Kind: FileAdd, Groups: updated.Groups}
	case !old.IsEmpty() && updated.IsEmpty():
		return FileChange{Kind: FileDelete}
	default:
		return FileChange{Kind: Modify, Edits: Diff(old.Groups, updated.Groups)}
	}
}

// ApplyChange replays a FileChange against the original groups: FileAdd
// reproduces its carried groups with offsets recomputed, FileDelete
// yields an empty list, and Modify delegates to [Apply].
func ApplyChange(old []analyze.LineGroup, change FileChange) ([]analyze.LineGroup, error) {
	switch change.Kind {
	case FileAdd:
		if len(change.Groups) == 0 {
			return nil, nil
		}

		out := make([]analyze.LineGroup, len(change.Groups))
		copy(out, change.Groups)
		renumber(out)

		return out, nil
	case FileDelete:
		return nil, nil
	case Modify:
		return Apply(old, change.Edits)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownChangeKind, int(change.Kind))
	}
}

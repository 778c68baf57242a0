package blockdiff

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/strata/pkg/analyze"
)

// ErrEditMismatch is returned when an edit cannot be applied at any point
// of the reconstruction. This signals a contract violation between differ
// and applier; the applier reports it instead of producing a silently
// wrong result.
var ErrEditMismatch = errors.New("edit does not apply to group sequence")

// Apply reconstructs the resulting group sequence from the original
// groups and an edit list produced by [Diff]. The merge walks edits in
// order, consuming removed old groups, appending inserted and resized
// groups when the output reaches their index, and copying untouched old
// groups through. Start offsets of the result are recomputed from the
// first group — the applier, not the edit list, is authoritative for
// offsets.
func Apply(old []analyze.LineGroup, edits []Edit) ([]analyze.LineGroup, error) {
	out := make([]analyze.LineGroup, 0, len(old)+len(edits))
	iOld, iOp := 0, 0

	for {
		if iOp < len(edits) && applyEdit(edits[iOp], old, &iOld, &out) {
			iOp++

			continue
		}

		if iOld < len(old) {
			out = append(out, old[iOld])
			iOld++

			continue
		}

		break
	}

	if iOp < len(edits) {
		return nil, fmt.Errorf("%d unapplied edits, next %v: %w",
			len(edits)-iOp, edits[iOp], ErrEditMismatch)
	}

	if len(out) == 0 {
		return nil, nil
	}

	renumber(out)

	return out, nil
}

// applyEdit attempts the current edit at the current merge position and
// reports whether it applied.
func applyEdit(edit Edit, old []analyze.LineGroup, iOld *int, out *[]analyze.LineGroup) bool {
	switch e := edit.(type) {
	case Remove:
		if e.Index == *iOld && *iOld < len(old) {
			*iOld++

			return true
		}
	case Insert:
		if e.Index == len(*out) {
			*out = append(*out, analyze.LineGroup{Length: e.NewLength, Type: e.Type})

			return true
		}
	case Resize:
		if e.Index == len(*out) && *iOld < len(old) {
			*out = append(*out, analyze.LineGroup{Length: e.NewLength, Type: old[*iOld].Type})
			*iOld++

			return true
		}
	}

	return false
}

// renumber recomputes each group's start as a running offset from line 1.
func renumber(groups []analyze.LineGroup) {
	start := 1
	for i := range groups {
		groups[i].Start = start
		start += groups[i].Length
	}
}

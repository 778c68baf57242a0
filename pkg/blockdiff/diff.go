package blockdiff

import "github.com/Sumatoshi-tech/strata/pkg/analyze"

// Diff returns the edit sequence transforming groups old into groups
// updated. Two pointers walk both sequences; on a type mismatch a
// one-step lookahead decides whether removing the old group or inserting
// the new one realigns the sequences, preferring Remove when the
// lookahead is ambiguous or exhausted. Edits never reorder groups, and
// identical inputs produce no edits.
func Diff(old, updated []analyze.LineGroup) []Edit {
	var edits []Edit

	i, j := 0, 0

	for i < len(old) && j < len(updated) {
		a, b := old[i], updated[j]

		if a.Type == b.Type {
			if a.Length != b.Length {
				edits = append(edits, Resize{
					Index:     j,
					Type:      a.Type,
					OldLength: a.Length,
					NewLength: b.Length,
				})
			}

			i++
			j++

			continue
		}

		skipOld := i+1 < len(old) && old[i+1].Type == b.Type
		skipNew := j+1 < len(updated) && updated[j+1].Type == a.Type

		if skipNew && !skipOld {
			edits = append(edits, Insert{Index: j, Type: b.Type, NewLength: b.Length})
			j++

			continue
		}

		// Remove wins whenever both realignments work or neither does.
		edits = append(edits, Remove{Index: i, Type: a.Type, OldLength: a.Length})
		i++
	}

	for ; i < len(old); i++ {
		edits = append(edits, Remove{Index: i, Type: old[i].Type, OldLength: old[i].Length})
	}

	for ; j < len(updated); j++ {
		edits = append(edits, Insert{Index: j, Type: updated[j].Type, NewLength: updated[j].Length})
	}

	return edits
}

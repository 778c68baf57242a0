package history

import (
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineStats summarizes a file transition in line counts.
type LineStats struct {
	Added   int
	Removed int
	Changed int
}

// modifyStats diffs two text blobs line-wise and folds the edit script
// into added/removed/changed counts. Adjacent delete+insert runs pair up
// as changed lines, the surplus counting as pure adds or removes.
func modifyStats(oldContent, newContent []byte) LineStats {
	dmp := diffmatchpatch.New()

	src, dst, _ := dmp.DiffLinesToRunes(string(oldContent), string(newContent))

	diffs := dmp.DiffMainRunes(src, dst, false)
	diffs = dmp.DiffCleanupMerge(dmp.DiffCleanupSemanticLossless(diffs))

	var added, removed, changed, removedPending int

	for _, edit := range diffs {
		switch edit.Type {
		case diffmatchpatch.DiffEqual:
			if removedPending > 0 {
				removed += removedPending
			}

			removedPending = 0
		case diffmatchpatch.DiffInsert:
			delta := utf8.RuneCountInString(edit.Text)
			if removedPending > delta {
				changed += delta
				removed += removedPending - delta
			} else {
				changed += removedPending
				added += delta - removedPending
			}

			removedPending = 0
		case diffmatchpatch.DiffDelete:
			removedPending = utf8.RuneCountInString(edit.Text)
		}
	}

	if removedPending > 0 {
		removed += removedPending
	}

	return LineStats{Added: added, Removed: removed, Changed: changed}
}

// Package blockdiff computes and replays structural edits between two
// run-length line-group sequences of the same file. The differ is greedy
// with one-step lookahead — deterministic, not provably minimal — and the
// applier is its exact inverse, so applying a produced edit list to the
// original sequence reconstructs the target exactly.
package blockdiff

import (
	"fmt"

	"github.com/Sumatoshi-tech/strata/pkg/linetype"
)

// Edit is one step transforming an original group sequence into a
// resulting one. The concrete kinds are [Insert], [Remove], and [Resize];
// a type change at one position is a Remove immediately followed by an
// Insert, never an in-place mutation.
//
// Index meaning depends on the kind: Remove addresses the original
// sequence, Insert and Resize address the resulting sequence.
type Edit interface {
	isEdit()
}

// Insert adds a group at position Index of the resulting sequence.
type Insert struct {
	Index     int
	Type      linetype.LineType
	NewLength int
}

// Remove drops the group at position Index of the original sequence.
type Remove struct {
	Index     int
	Type      linetype.LineType
	OldLength int
}

// Resize changes the length of the group at position Index of the
// resulting sequence, keeping its type.
type Resize struct {
	Index     int
	Type      linetype.LineType
	OldLength int
	NewLength int
}

func (Insert) isEdit() {}
func (Remove) isEdit() {}
func (Resize) isEdit() {}

func (e Insert) String() string {
	return fmt.Sprintf("insert[%d] %s:%d", e.Index, e.Type, e.NewLength)
}

func (e Remove) String() string {
	return fmt.Sprintf("remove[%d] %s:%d", e.Index, e.Type, e.OldLength)
}

func (e Resize) String() string {
	return fmt.Sprintf("resize[%d] %s:%d->%d", e.Index, e.Type, e.OldLength, e.NewLength)
}

package persist

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/strata/pkg/analyze"
	"github.com/Sumatoshi-tech/strata/pkg/blockdiff"
	"github.com/Sumatoshi-tech/strata/pkg/history"
	"github.com/Sumatoshi-tech/strata/pkg/linetype"
)

// wireVersion is the document layout version. Bumped on breaking changes.
const wireVersion = 1

// Edit operation names in the wire layout.
const (
	opInsert = "insert"
	opRemove = "remove"
	opResize = "resize"
)

// ErrMalformedLog is returned when a decoded document cannot be mapped
// back onto a revision log.
var ErrMalformedLog = errors.New("malformed revision log")

// wireLog is the serialized document layout. The in-memory log types
// carry no serialization tags; every codec round-trips through this
// mirror.
type wireLog struct {
	Version   int            `json:"version"`
	Revisions []wireRevision `json:"revisions"`
}

type wireRevision struct {
	Commit   string       `json:"commit"`
	Analysis []wireFile   `json:"analysis,omitempty"`
	Changes  []wireChange `json:"changes,omitempty"`
}

type wireFile struct {
	Path   string      `json:"path"`
	Groups []wireGroup `json:"groups"`
}

type wireGroup struct {
	Start  int    `json:"start"`
	Length int    `json:"length"`
	Type   string `json:"type"`
}

type wireChange struct {
	Path    string      `json:"path"`
	OldPath string      `json:"old_path,omitempty"`
	Kind    string      `json:"kind"`
	Edits   []wireEdit  `json:"edits,omitempty"`
	Groups  []wireGroup `json:"groups,omitempty"`
	Stats   *wireStats  `json:"stats,omitempty"`
}

type wireEdit struct {
	Op        string `json:"op"`
	Index     int    `json:"index"`
	Type      string `json:"type"`
	OldLength int    `json:"old_length,omitempty"`
	NewLength int    `json:"new_length,omitempty"`
}

type wireStats struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Changed int `json:"changed"`
}

func toWire(log history.Log) wireLog {
	doc := wireLog{Version: wireVersion, Revisions: make([]wireRevision, 0, len(log))}

	for _, rev := range log {
		doc.Revisions = append(doc.Revisions, wireRevision{
			Commit:   rev.Commit,
			Analysis: filesToWire(rev.Analysis),
			Changes:  changesToWire(rev.Changes),
		})
	}

	return doc
}

func filesToWire(files []analyze.FileAnalysis) []wireFile {
	if len(files) == 0 {
		return nil
	}

	out := make([]wireFile, 0, len(files))
	for _, fa := range files {
		out = append(out, wireFile{Path: fa.Path, Groups: groupsToWire(fa.Groups)})
	}

	return out
}

func groupsToWire(groups []analyze.LineGroup) []wireGroup {
	if len(groups) == 0 {
		return nil
	}

	out := make([]wireGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, wireGroup{Start: g.Start, Length: g.Length, Type: g.Type.String()})
	}

	return out
}

func changesToWire(records []history.ChangeRecord) []wireChange {
	if len(records) == 0 {
		return nil
	}

	out := make([]wireChange, 0, len(records))

	for _, rec := range records {
		wc := wireChange{
			Path:    rec.Path,
			OldPath: rec.OldPath,
			Kind:    rec.Change.Kind.String(),
			Edits:   editsToWire(rec.Change.Edits),
			Groups:  groupsToWire(rec.Change.Groups),
		}

		if rec.Stats != nil {
			wc.Stats = &wireStats{
				Added:   rec.Stats.Added,
				Removed: rec.Stats.Removed,
				Changed: rec.Stats.Changed,
			}
		}

		out = append(out, wc)
	}

	return out
}

func editsToWire(edits []blockdiff.Edit) []wireEdit {
	if len(edits) == 0 {
		return nil
	}

	out := make([]wireEdit, 0, len(edits))

	for _, edit := range edits {
		switch e := edit.(type) {
		case blockdiff.Insert:
			out = append(out, wireEdit{Op: opInsert, Index: e.Index, Type: e.Type.String(), NewLength: e.NewLength})
		case blockdiff.Remove:
			out = append(out, wireEdit{Op: opRemove, Index: e.Index, Type: e.Type.String(), OldLength: e.OldLength})
		case blockdiff.Resize:
			out = append(out, wireEdit{
				Op:        opResize,
				Index:     e.Index,
				Type:      e.Type.String(),
				OldLength: e.OldLength,
				NewLength: e.NewLength,
			})
		}
	}

	return out
}

func fromWire(doc wireLog) (history.Log, error) {
	if doc.Version != wireVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedLog, doc.Version)
	}

	log := make(history.Log, 0, len(doc.Revisions))

	for _, wr := range doc.Revisions {
		analysis, err := filesFromWire(wr.Analysis)
		if err != nil {
			return nil, err
		}

		changes, err := changesFromWire(wr.Changes)
		if err != nil {
			return nil, err
		}

		log = append(log, history.Revision{Commit: wr.Commit, Analysis: analysis, Changes: changes})
	}

	return log, nil
}

func filesFromWire(files []wireFile) ([]analyze.FileAnalysis, error) {
	if len(files) == 0 {
		return nil, nil
	}

	out := make([]analyze.FileAnalysis, 0, len(files))

	for _, wf := range files {
		groups, err := groupsFromWire(wf.Groups)
		if err != nil {
			return nil, err
		}

		out = append(out, analyze.FileAnalysis{Path: wf.Path, Groups: groups})
	}

	return out, nil
}

func groupsFromWire(groups []wireGroup) ([]analyze.LineGroup, error) {
	if len(groups) == 0 {
		return nil, nil
	}

	out := make([]analyze.LineGroup, 0, len(groups))

	for _, wg := range groups {
		lt, err := linetype.Parse(wg.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedLog, err)
		}

		out = append(out, analyze.LineGroup{Start: wg.Start, Length: wg.Length, Type: lt})
	}

	return out, nil
}

func changesFromWire(changes []wireChange) ([]history.ChangeRecord, error) {
	if len(changes) == 0 {
		return nil, nil
	}

	out := make([]history.ChangeRecord, 0, len(changes))

	for _, wc := range changes {
		kind, err := parseChangeKind(wc.Kind)
		if err != nil {
			return nil, err
		}

		edits, err := editsFromWire(wc.Edits)
		if err != nil {
			return nil, err
		}

		groups, err := groupsFromWire(wc.Groups)
		if err != nil {
			return nil, err
		}

		rec := history.ChangeRecord{
			Path:    wc.Path,
			OldPath: wc.OldPath,
			Change:  blockdiff.FileChange{Kind: kind, Edits: edits, Groups: groups},
		}

		if wc.Stats != nil {
			rec.Stats = &history.LineStats{
				Added:   wc.Stats.Added,
				Removed: wc.Stats.Removed,
				Changed: wc.Stats.Changed,
			}
		}

		out = append(out, rec)
	}

	return out, nil
}

func editsFromWire(edits []wireEdit) ([]blockdiff.Edit, error) {
	if len(edits) == 0 {
		return nil, nil
	}

	out := make([]blockdiff.Edit, 0, len(edits))

	for _, we := range edits {
		lt, err := linetype.Parse(we.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedLog, err)
		}

		switch we.Op {
		case opInsert:
			out = append(out, blockdiff.Insert{Index: we.Index, Type: lt, NewLength: we.NewLength})
		case opRemove:
			out = append(out, blockdiff.Remove{Index: we.Index, Type: lt, OldLength: we.OldLength})
		case opResize:
			out = append(out, blockdiff.Resize{
				Index:     we.Index,
				Type:      lt,
				OldLength: we.OldLength,
				NewLength: we.NewLength,
			})
		default:
			return nil, fmt.Errorf("%w: unknown edit op %q", ErrMalformedLog, we.Op)
		}
	}

	return out, nil
}

func parseChangeKind(s string) (blockdiff.ChangeKind, error) {
	switch s {
	case "modify":
		return blockdiff.Modify, nil
	case "add":
		return blockdiff.FileAdd, nil
	case "delete":
		return blockdiff.FileDelete, nil
	default:
		return 0, fmt.Errorf("%w: unknown change kind %q", ErrMalformedLog, s)
	}
}

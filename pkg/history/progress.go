package history

import "fmt"

// ProgressKind identifies a walk progress event.
type ProgressKind int

const (
	// CommitsTotal reports the number of commits the walk will visit.
	CommitsTotal ProgressKind = iota
	// CommitStarted marks the beginning of a commit's processing.
	CommitStarted
	// FilesTotal reports how many files the current commit will examine.
	FilesTotal
	// FileProcessed marks one examined file, successful or skipped.
	FileProcessed
	// CommitCompleted marks the end of a commit's processing.
	CommitCompleted
)

// String implements fmt.Stringer.
func (k ProgressKind) String() string {
	switch k {
	case CommitsTotal:
		return "commits-total"
	case CommitStarted:
		return "commit-started"
	case FilesTotal:
		return "files-total"
	case FileProcessed:
		return "file-processed"
	case CommitCompleted:
		return "commit-completed"
	default:
		return fmt.Sprintf("ProgressKind(%d)", int(k))
	}
}

// Event is a single progress notification. Count carries the total for
// CommitsTotal and FilesTotal; Commit identifies the commit for all
// commit-scoped kinds; Path is set on FileProcessed.
type Event struct {
	Kind   ProgressKind
	Commit string
	Path   string
	Count  int
}

// ProgressFunc receives progress events during a walk. Callbacks run on
// the walk goroutine and must return quickly.
type ProgressFunc func(Event)

package gitcli

import (
	"context"
	"fmt"
)

// ChangeKind identifies how a file changed between two commits.
type ChangeKind int

const (
	// Add indicates the file appeared.
	Add ChangeKind = iota
	// Modify indicates the file content changed in place.
	Modify
	// Delete indicates the file was removed.
	Delete
	// Rename indicates the file moved from OldPath to Path.
	Rename
)

// String implements fmt.Stringer.
func (k ChangeKind) String() string {
	switch k {
	case Add:
		return "add"
	case Modify:
		return "modify"
	case Delete:
		return "delete"
	case Rename:
		return "rename"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// Change is a single file-level change between two commits.
type Change struct {
	Kind ChangeKind

	// Path is the file path after the change.
	Path string

	// OldPath is the path before a rename; empty otherwise.
	OldPath string
}

// ChangesBetween returns the file-level changes from prev to commit,
// restricted to SubDir when set. Renames are detected at git's default
// similarity threshold.
func (c *Client) ChangesBetween(ctx context.Context, prev, commit string) ([]Change, error) {
	args := c.appendSubDir([]string{"diff-tree", "-r", "-z", "-M", "--name-status", prev, commit})

	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	return parseNameStatus(out)
}

// parseNameStatus parses `diff-tree -z --name-status` output: a status
// field followed by one path, or two paths for renames and copies, every
// field NUL-terminated.
func parseNameStatus(out []byte) ([]Change, error) {
	fields := splitZero(out)

	changes := make([]Change, 0, len(fields)/2)

	idx := 0
	for idx < len(fields) {
		status := fields[idx]
		if status == "" {
			return nil, fmt.Errorf("%w: empty status field", ErrMalformedOutput)
		}

		switch status[0] {
		case 'A', 'M', 'T', 'D':
			if idx+1 >= len(fields) {
				return nil, fmt.Errorf("%w: status %q without a path", ErrMalformedOutput, status)
			}

			changes = append(changes, Change{Kind: plainKind(status[0]), Path: fields[idx+1]})
			idx += 2
		case 'R':
			if idx+2 >= len(fields) {
				return nil, fmt.Errorf("%w: rename %q without two paths", ErrMalformedOutput, status)
			}

			changes = append(changes, Change{Kind: Rename, Path: fields[idx+2], OldPath: fields[idx+1]})
			idx += 3
		case 'C':
			// A copy leaves the source untouched; only the new path changes.
			if idx+2 >= len(fields) {
				return nil, fmt.Errorf("%w: copy %q without two paths", ErrMalformedOutput, status)
			}

			changes = append(changes, Change{Kind: Add, Path: fields[idx+2]})
			idx += 3
		default:
			return nil, fmt.Errorf("%w: unknown status %q", ErrMalformedOutput, status)
		}
	}

	return changes, nil
}

// plainKind maps single-path status letters. Type changes (T) alter blob
// content from this tool's perspective, so they count as modifications.
func plainKind(status byte) ChangeKind {
	switch status {
	case 'A':
		return Add
	case 'D':
		return Delete
	default:
		return Modify
	}
}

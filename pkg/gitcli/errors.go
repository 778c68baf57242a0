package gitcli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

var (
	// ErrNoCommits indicates the repository has no commits to walk.
	ErrNoCommits = errors.New("repository has no commits")

	// ErrNotAncestor indicates the start commit is not on the head's
	// first-parent chain.
	ErrNotAncestor = errors.New("not a first-parent ancestor")

	// ErrMalformedOutput indicates git produced output the parser does not
	// understand.
	ErrMalformedOutput = errors.New("malformed git output")
)

// CommandError describes a failed git invocation. Transience is decided at
// construction from structured facts (context deadline, missing binary,
// exit code), never from stderr text.
type CommandError struct {
	// Op is the git subcommand, e.g. "rev-parse".
	Op string

	// Args is the full argument list after the git binary.
	Args []string

	// ExitCode is the process exit code. -1 when the process was killed
	// by a signal or never started.
	ExitCode int

	// Stderr is the trimmed stderr output.
	Stderr string

	// Err is the underlying cause.
	Err error

	transient bool
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("git %s: %s (exit %d)", e.Op, e.Stderr, e.ExitCode)
	}

	return fmt.Sprintf("git %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CommandError) Unwrap() error { return e.Err }

// Transient reports whether retrying the same invocation may succeed.
func (e *CommandError) Transient() bool { return e.transient }

// IsTransient reports whether err wraps a transient CommandError.
func IsTransient(err error) bool {
	var cmdErr *CommandError

	return errors.As(err, &cmdErr) && cmdErr.Transient()
}

func newCommandError(args []string, exitCode int, stderr []byte, cause error) *CommandError {
	op := ""
	if len(args) > 0 {
		op = args[0]
	}

	return &CommandError{
		Op:        op,
		Args:      args,
		ExitCode:  exitCode,
		Stderr:    strings.TrimSpace(string(stderr)),
		Err:       cause,
		transient: classifyTransient(exitCode, cause),
	}
}

// classifyTransient decides retryability. Deadline expiry and signal kills
// may clear up on retry; a missing git binary, a cancelled caller, or any
// nonzero git exit (bad ref, not a repository) will not.
func classifyTransient(exitCode int, cause error) bool {
	switch {
	case errors.Is(cause, context.DeadlineExceeded):
		return true
	case errors.Is(cause, context.Canceled):
		return false
	case errors.Is(cause, exec.ErrNotFound), errors.Is(cause, fs.ErrNotExist):
		return false
	case exitCode > 0:
		return false
	default:
		return true
	}
}

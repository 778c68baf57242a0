package gitcli

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner executes a git subcommand in dir and returns its stdout.
// Implementations must honor ctx cancellation.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) ([]byte, error)
}

// ExecRunner runs git as a subprocess. The zero value uses "git" from PATH.
// Every invocation is read-only plumbing; the worktree is never mutated.
type ExecRunner struct {
	// GitPath overrides the git binary location. Empty means "git".
	GitPath string
}

// Run executes git with the given arguments, capturing stdout and stderr
// separately. Failures are returned as *CommandError.
func (r ExecRunner) Run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	gitPath := r.GitPath
	if gitPath == "" {
		gitPath = "git"
	}

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, gitPath, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// A context failure shows up as a killed process; report the
		// context error as the cause so classification sees it.
		cause := err
		if ctxErr := ctx.Err(); ctxErr != nil {
			cause = ctxErr
		}

		exitCode := -1
		if cmd.ProcessState != nil {
			exitCode = cmd.ProcessState.ExitCode()
		}

		return nil, newCommandError(args, exitCode, stderr.Bytes(), cause)
	}

	return stdout.Bytes(), nil
}

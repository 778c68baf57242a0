// Package gitcli is a read-only git plumbing client built on subprocess
// invocation. It shells out to the git binary for every operation, applies
// a per-invocation timeout, and classifies failures as transient or
// permanent for the retry layer above it.
package gitcli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/strata/pkg/observability"
)

const (
	// RootRef is the sentinel ref naming the first-parent root commit of
	// HEAD.
	RootRef = "root"

	// DefaultTimeout bounds a single git invocation.
	DefaultTimeout = 30 * time.Second
)

// Client runs git plumbing against one repository. The zero value is not
// usable; construct with NewClient or set Dir explicitly.
type Client struct {
	// Dir is the repository directory git commands run in.
	Dir string

	// SubDir restricts tree listings and diffs to a subdirectory
	// (slash-separated, relative to the repository root). Empty means the
	// whole tree.
	SubDir string

	// Timeout bounds each git invocation. Zero or negative means
	// DefaultTimeout.
	Timeout time.Duration

	// Runner executes git. Nil means ExecRunner{}.
	Runner Runner

	// Logger receives command failure logging. Nil means slog.Default().
	Logger *slog.Logger

	// Metrics records RED metrics per invocation when set.
	Metrics *observability.REDMetrics
}

// NewClient returns a Client for the repository at dir using the exec
// runner and the default timeout.
func NewClient(dir string) *Client {
	return &Client{
		Dir:     dir,
		Timeout: DefaultTimeout,
		Runner:  ExecRunner{},
	}
}

// StatusClean reports whether the worktree has no uncommitted changes.
func (c *Client) StatusClean(ctx context.Context) (bool, error) {
	out, err := c.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}

	return len(bytes.TrimSpace(out)) == 0, nil
}

// ResolveCommit resolves ref to a full commit hash. The sentinel RootRef
// resolves to the first-parent root commit of HEAD.
func (c *Client) ResolveCommit(ctx context.Context, ref string) (string, error) {
	if ref == RootRef {
		return c.rootCommit(ctx)
	}

	out, err := c.run(ctx, "rev-parse", "--verify", ref+"^{commit}")
	if err != nil {
		return "", err
	}

	return string(bytes.TrimSpace(out)), nil
}

// HeadCommit resolves HEAD to a full commit hash.
func (c *Client) HeadCommit(ctx context.Context) (string, error) {
	return c.ResolveCommit(ctx, "HEAD")
}

// rootCommit finds the first-parent root of HEAD. rev-list emits newest
// first, so the chain root is the last line.
func (c *Client) rootCommit(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "rev-list", "--max-parents=0", "--first-parent", "HEAD")
	if err != nil {
		return "", err
	}

	commits := strings.Fields(string(out))
	if len(commits) == 0 {
		return "", ErrNoCommits
	}

	return commits[len(commits)-1], nil
}

// CommitsInRange returns the first-parent chain from start to head,
// inclusive on both ends, oldest first. Returns ErrNotAncestor when start
// is not on head's first-parent chain.
func (c *Client) CommitsInRange(ctx context.Context, start, head string) ([]string, error) {
	out, err := c.run(ctx, "rev-list", "--reverse", "--first-parent", head)
	if err != nil {
		return nil, err
	}

	commits := strings.Fields(string(out))

	for idx, commit := range commits {
		if commit == start {
			return commits[idx:], nil
		}
	}

	return nil, fmt.Errorf("%w: %s is not in the first-parent chain of %s", ErrNotAncestor, start, head)
}

// ListFiles lists all blob paths in commit's tree, restricted to SubDir
// when set. Paths are repository-relative with forward slashes.
func (c *Client) ListFiles(ctx context.Context, commit string) ([]string, error) {
	args := c.appendSubDir([]string{"ls-tree", "-r", "-z", "--name-only", commit})

	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	return splitZero(out), nil
}

// ReadFileAt returns the blob content of path at commit.
func (c *Client) ReadFileAt(ctx context.Context, commit, path string) ([]byte, error) {
	return c.run(ctx, "cat-file", "blob", commit+":"+path)
}

func (c *Client) appendSubDir(args []string) []string {
	if c.SubDir == "" {
		return args
	}

	return append(args, "--", c.SubDir)
}

// run executes one git invocation under the client timeout, recording RED
// metrics around it.
func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runner := c.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	op := args[0]

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := c.Metrics.TrackInflight(ctx, op)
	start := time.Now()

	out, err := runner.Run(runCtx, c.Dir, args...)

	done()

	status := observability.StatusOK
	if err != nil {
		status = observability.StatusError
	}

	c.Metrics.RecordRequest(ctx, op, status, time.Since(start))

	if err != nil {
		c.logger().DebugContext(ctx, "git command failed",
			slog.String("op", op),
			slog.Any("error", err),
		)

		return nil, err
	}

	return out, nil
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return slog.Default()
}

// splitZero splits NUL-terminated output into fields, dropping the
// trailing empty field. Returns nil for empty output.
func splitZero(out []byte) []string {
	if len(out) == 0 {
		return nil
	}

	fields := strings.Split(string(out), "\x00")
	if fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}

	return fields
}

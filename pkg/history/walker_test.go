package history_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/strata/pkg/analyze"
	"github.com/Sumatoshi-tech/strata/pkg/backoff"
	"github.com/Sumatoshi-tech/strata/pkg/gitcli"
	"github.com/Sumatoshi-tech/strata/pkg/history"
	"github.com/Sumatoshi-tech/strata/pkg/linetype"
)

var errTransient = errors.New("transient fault")

// fakeRepo scripts a linear commit chain. Failures are queued per
// operation key and popped one call at a time.
type fakeRepo struct {
	mu       sync.Mutex
	dirty    bool
	noRange  bool
	commits  []string
	files    map[string]map[string]string
	changes  map[string][]gitcli.Change
	failures map[string][]error
	calls    map[string]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		files:    map[string]map[string]string{},
		changes:  map[string][]gitcli.Change{},
		failures: map[string][]error{},
		calls:    map[string]int{},
	}
}

// addCommit appends a commit holding the full file set plus the raw
// changes relative to its parent.
func (f *fakeRepo) addCommit(hash string, files map[string]string, changes ...gitcli.Change) {
	f.commits = append(f.commits, hash)
	f.files[hash] = files
	f.changes[hash] = changes
}

func (f *fakeRepo) failNext(key string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failures[key] = append(f.failures[key], errs...)
}

func (f *fakeRepo) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[key]
}

// pop counts the call and returns the next queued failure, if any.
func (f *fakeRepo) pop(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[key]++

	queue := f.failures[key]
	if len(queue) == 0 {
		return nil
	}

	f.failures[key] = queue[1:]

	return queue[0]
}

func (f *fakeRepo) StatusClean(_ context.Context) (bool, error) {
	if err := f.pop("status"); err != nil {
		return false, err
	}

	return !f.dirty, nil
}

func (f *fakeRepo) ResolveCommit(_ context.Context, ref string) (string, error) {
	if err := f.pop("resolve"); err != nil {
		return "", err
	}

	if len(f.commits) == 0 {
		return "", gitcli.ErrNoCommits
	}

	switch ref {
	case gitcli.RootRef:
		return f.commits[0], nil
	case "HEAD":
		return f.commits[len(f.commits)-1], nil
	}

	for _, commit := range f.commits {
		if commit == ref {
			return commit, nil
		}
	}

	return "", fmt.Errorf("unknown ref %q", ref)
}

func (f *fakeRepo) HeadCommit(ctx context.Context) (string, error) {
	if err := f.pop("head"); err != nil {
		return "", err
	}

	return f.ResolveCommit(ctx, "HEAD")
}

func (f *fakeRepo) CommitsInRange(_ context.Context, start, head string) ([]string, error) {
	if err := f.pop("range"); err != nil {
		return nil, err
	}

	if f.noRange {
		return nil, nil
	}

	startIdx, headIdx := -1, -1

	for idx, commit := range f.commits {
		if commit == start {
			startIdx = idx
		}

		if commit == head {
			headIdx = idx
		}
	}

	if startIdx < 0 || headIdx < startIdx {
		return nil, fmt.Errorf("%w: %s..%s", gitcli.ErrNotAncestor, start, head)
	}

	return append([]string(nil), f.commits[startIdx:headIdx+1]...), nil
}

func (f *fakeRepo) ListFiles(_ context.Context, commit string) ([]string, error) {
	if err := f.pop("list"); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(f.files[commit]))
	for path := range f.files[commit] {
		paths = append(paths, path)
	}

	sort.Strings(paths)

	return paths, nil
}

func (f *fakeRepo) ChangesBetween(_ context.Context, _, commit string) ([]gitcli.Change, error) {
	if err := f.pop("changes"); err != nil {
		return nil, err
	}

	return append([]gitcli.Change(nil), f.changes[commit]...), nil
}

func (f *fakeRepo) ReadFileAt(_ context.Context, commit, path string) ([]byte, error) {
	if err := f.pop("read"); err != nil {
		return nil, err
	}

	if err := f.pop("read:" + path); err != nil {
		return nil, err
	}

	content, ok := f.files[commit][path]
	if !ok {
		return nil, fmt.Errorf("no blob %s:%s", commit, path)
	}

	return []byte(content), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func xFilter() *analyze.Filter {
	return analyze.NewFilter(analyze.FilterOptions{Extensions: []string{"*.x"}}, discardLogger())
}

func newTestWalker(repo *fakeRepo) *history.Walker {
	return &history.Walker{
		Repo:   repo,
		Filter: xFilter(),
		Logger: discardLogger(),
		Options: history.Options{
			Workers: 2,
			Retry: backoff.Policy{
				MaxAttempts: 3,
				BaseDelay:   time.Millisecond,
				MaxDelay:    2 * time.Millisecond,
				Multiplier:  2,
			},
			Retryable: func(err error) bool { return errors.Is(err, errTransient) },
		},
	}
}

func group(start, length int, lt linetype.LineType) analyze.LineGroup {
	return analyze.LineGroup{Start: start, Length: length, Type: lt}
}

func TestWalk_DirtyWorktree(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.dirty = true
	repo.addCommit("c1", map[string]string{"a.x": "int a;\n"})

	_, err := newTestWalker(repo).Walk(context.Background(), gitcli.RootRef)
	require.ErrorIs(t, err, history.ErrDirtyWorktree)
}

func TestWalk_EmptyRange(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.noRange = true
	repo.addCommit("c1", map[string]string{"a.x": "int a;\n"})

	_, err := newTestWalker(repo).Walk(context.Background(), gitcli.RootRef)
	require.ErrorIs(t, err, history.ErrEmptyRange)
}

func TestWalk_UnresolvableRef(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.addCommit("c1", map[string]string{"a.x": "int a;\n"})

	_, err := newTestWalker(repo).Walk(context.Background(), "no-such-ref")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-ref")
}

func TestWalk_TransientFailureRetried(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.addCommit("c1", map[string]string{"a.x": "int a;\n"})
	repo.addCommit("c2", map[string]string{"a.x": "int a;\nint b;\n"},
		gitcli.Change{Kind: gitcli.Modify, Path: "a.x"})

	// Two transient faults fit inside three attempts.
	repo.failNext("changes", errTransient, errTransient)

	log, err := newTestWalker(repo).Walk(context.Background(), gitcli.RootRef)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, 3, repo.callCount("changes"))
}

func TestWalk_TransientFailuresExhaustRetries(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.addCommit("c1", map[string]string{"a.x": "int a;\n"})
	repo.addCommit("c2", map[string]string{"a.x": "int a;\nint b;\n"},
		gitcli.Change{Kind: gitcli.Modify, Path: "a.x"})

	repo.failNext("changes", errTransient, errTransient, errTransient)

	_, err := newTestWalker(repo).Walk(context.Background(), gitcli.RootRef)
	require.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, repo.callCount("changes"))
}

func TestWalk_PermanentFailureAborts(t *testing.T) {
	t.Parallel()

	errPermanent := errors.New("bad object")

	repo := newFakeRepo()
	repo.addCommit("c1", map[string]string{"a.x": "int a;\n"})
	repo.addCommit("c2", map[string]string{"a.x": "int a;\nint b;\n"},
		gitcli.Change{Kind: gitcli.Modify, Path: "a.x"})

	repo.failNext("changes", errPermanent)

	_, err := newTestWalker(repo).Walk(context.Background(), gitcli.RootRef)
	require.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, repo.callCount("changes"), "permanent failures must not retry")
}

func TestWalk_Cancellation(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.addCommit("c1", map[string]string{"a.x": "int a;\n"})
	repo.addCommit("c2", map[string]string{"a.x": "int a;\nint b;\n"},
		gitcli.Change{Kind: gitcli.Modify, Path: "a.x"})
	repo.addCommit("c3", map[string]string{"a.x": "int a;\nint b;\nint c;\n"},
		gitcli.Change{Kind: gitcli.Modify, Path: "a.x"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	walker := newTestWalker(repo)
	walker.Progress = func(ev history.Event) {
		if ev.Kind == history.CommitStarted && ev.Commit == "c2" {
			cancel()
		}
	}

	_, err := walker.Walk(ctx, gitcli.RootRef)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWalk_UnreadableFileSkipped(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.addCommit("c1", map[string]string{
		"ok.x":   "int a;\n",
		"skip.x": "int b;\n",
	})

	repo.failNext("read:skip.x", errors.New("io failure"))

	log, err := newTestWalker(repo).Walk(context.Background(), gitcli.RootRef)
	require.NoError(t, err)
	require.Len(t, log, 1)

	require.Len(t, log[0].Analysis, 1)
	assert.Equal(t, "ok.x", log[0].Analysis[0].Path)
}

func TestWalk_ProgressEvents(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.addCommit("c1", map[string]string{
		"a.x": "int a;\n",
		"b.x": "int b;\n",
	})

	var events []history.Event

	walker := newTestWalker(repo)
	walker.Progress = func(ev history.Event) { events = append(events, ev) }

	_, err := walker.Walk(context.Background(), gitcli.RootRef)
	require.NoError(t, err)

	require.Len(t, events, 6)

	assert.Equal(t, history.Event{Kind: history.CommitsTotal, Count: 1}, events[0])
	assert.Equal(t, history.Event{Kind: history.CommitStarted, Commit: "c1"}, events[1])
	assert.Equal(t, history.Event{Kind: history.FilesTotal, Commit: "c1", Count: 2}, events[2])

	// Pool completion order is not deterministic; compare as a set.
	processed := []string{events[3].Path, events[4].Path}
	sort.Strings(processed)
	assert.Equal(t, []string{"a.x", "b.x"}, processed)
	assert.Equal(t, history.FileProcessed, events[3].Kind)
	assert.Equal(t, history.FileProcessed, events[4].Kind)

	assert.Equal(t, history.Event{Kind: history.CommitCompleted, Commit: "c1"}, events[5])
}

func TestWalk_FilterInterplay(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	repo.addCommit("c1", map[string]string{
		"a.x":        "int a;\n",
		"notes.txt":  "plain text\n",
		"readme.doc": "ignored\n",
	})
	repo.addCommit("c2", map[string]string{
		"a.x":        "int a;\n",
		"notes.txt":  "plain text changed\n",
		"readme.doc": "ignored\n",
	}, gitcli.Change{Kind: gitcli.Modify, Path: "notes.txt"})

	log, err := newTestWalker(repo).Walk(context.Background(), gitcli.RootRef)
	require.NoError(t, err)
	require.Len(t, log, 2)

	require.Len(t, log[0].Analysis, 1)
	assert.Equal(t, "a.x", log[0].Analysis[0].Path)
	assert.Empty(t, log[1].Changes, "changes outside the filter must not be recorded")
}

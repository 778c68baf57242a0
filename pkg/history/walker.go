package history

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/strata/pkg/analyze"
	"github.com/Sumatoshi-tech/strata/pkg/backoff"
	"github.com/Sumatoshi-tech/strata/pkg/blockdiff"
	"github.com/Sumatoshi-tech/strata/pkg/gitcli"
	"github.com/Sumatoshi-tech/strata/pkg/observability"
)

// Repository is the read-only repository view a walk needs.
// *gitcli.Client implements it.
type Repository interface {
	StatusClean(ctx context.Context) (bool, error)
	ResolveCommit(ctx context.Context, ref string) (string, error)
	HeadCommit(ctx context.Context) (string, error)
	CommitsInRange(ctx context.Context, start, head string) ([]string, error)
	ListFiles(ctx context.Context, commit string) ([]string, error)
	ChangesBetween(ctx context.Context, prev, commit string) ([]gitcli.Change, error)
	ReadFileAt(ctx context.Context, commit, path string) ([]byte, error)
}

// Options tunes a walk.
type Options struct {
	// Workers bounds the file classification pool. Zero or negative
	// means runtime.NumCPU().
	Workers int

	// LineStats enables per-change line statistics.
	LineStats bool

	// Retry is the backoff policy for transient repository failures on
	// commit-level operations. The zero value means backoff.DefaultPolicy().
	Retry backoff.Policy

	// Retryable classifies repository errors as worth retrying. Nil
	// means gitcli.IsTransient.
	Retryable func(error) bool
}

// Walker produces revision logs from a repository. All fields except Repo
// are optional.
type Walker struct {
	// Repo is the repository to walk.
	Repo Repository

	// Filter selects the files to track. Nil means the default
	// extension filter.
	Filter *analyze.Filter

	// Analyzer classifies file content. Nil means the default classifier.
	Analyzer *analyze.Analyzer

	// Options tunes the walk.
	Options Options

	// Logger receives walk logging. Nil means slog.Default().
	Logger *slog.Logger

	// Tracer records a span per walk and per commit when set.
	Tracer trace.Tracer

	// Metrics records per-commit walk metrics when set.
	Metrics *observability.WalkMetrics

	// Progress receives progress events when set.
	Progress ProgressFunc
}

// run carries a single walk's resolved collaborators and mutable state.
type run struct {
	*Walker

	logger    *slog.Logger
	filter    *analyze.Filter
	analyzer  *analyze.Analyzer
	tracer    trace.Tracer
	workers   int
	policy    backoff.Policy
	retryable func(error) bool
	snapshot  map[string]analyze.FileAnalysis
}

func (w *Walker) newRun() *run {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	filter := w.Filter
	if filter == nil {
		filter = analyze.NewFilter(analyze.FilterOptions{Extensions: analyze.DefaultExtensions()}, logger)
	}

	analyzer := w.Analyzer
	if analyzer == nil {
		analyzer = analyze.NewAnalyzer(nil)
	}

	tracer := w.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("")
	}

	workers := w.Options.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	policy := w.Options.Retry
	if policy.MaxAttempts == 0 {
		policy = backoff.DefaultPolicy()
	}

	retryable := w.Options.Retryable
	if retryable == nil {
		retryable = gitcli.IsTransient
	}

	return &run{
		Walker:    w,
		logger:    logger,
		filter:    filter,
		analyzer:  analyzer,
		tracer:    tracer,
		workers:   workers,
		policy:    policy,
		retryable: retryable,
		snapshot:  make(map[string]analyze.FileAnalysis),
	}
}

// Walk produces the revision log from startRef to HEAD along the
// first-parent chain. The first revision is a full snapshot; every later
// one holds incremental changes.
func (w *Walker) Walk(ctx context.Context, startRef string) (Log, error) {
	r := w.newRun()

	ctx, span := r.tracer.Start(ctx, "history.walk",
		trace.WithAttributes(attribute.String("start_ref", startRef)))
	defer span.End()

	revLog, err := r.walk(ctx, startRef)
	if err != nil {
		span.RecordError(err)
	}

	return revLog, err
}

func (r *run) walk(ctx context.Context, startRef string) (Log, error) {
	clean, err := r.repoStatusClean(ctx)
	if err != nil {
		return nil, fmt.Errorf("check worktree: %w", err)
	}

	if !clean {
		return nil, ErrDirtyWorktree
	}

	start, head, commits, err := r.resolveRange(ctx, startRef)
	if err != nil {
		return nil, err
	}

	if len(commits) == 0 {
		return nil, ErrEmptyRange
	}

	r.emit(Event{Kind: CommitsTotal, Count: len(commits)})
	r.logger.InfoContext(ctx, "starting history walk",
		slog.String("start", short(start)),
		slog.String("head", short(head)),
		slog.Int("commits", len(commits)),
		slog.Int("workers", r.workers),
	)

	revLog := make(Log, 0, len(commits))

	for idx, commit := range commits {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("walk cancelled at %s: %w", short(commit), ctxErr)
		}

		rev, err := r.processCommit(ctx, commits, idx)
		if err != nil {
			return nil, err
		}

		revLog = append(revLog, rev)
	}

	return revLog, nil
}

func (r *run) repoStatusClean(ctx context.Context) (bool, error) {
	var clean bool

	err := r.retry(ctx, func(rctx context.Context) error {
		var statusErr error
		clean, statusErr = r.Repo.StatusClean(rctx)

		return statusErr
	})

	return clean, err
}

func (r *run) resolveRange(ctx context.Context, startRef string) (start, head string, commits []string, err error) {
	err = r.retry(ctx, func(rctx context.Context) error {
		var resolveErr error
		start, resolveErr = r.Repo.ResolveCommit(rctx, startRef)

		return resolveErr
	})
	if err != nil {
		return "", "", nil, fmt.Errorf("resolve %q: %w", startRef, err)
	}

	err = r.retry(ctx, func(rctx context.Context) error {
		var headErr error
		head, headErr = r.Repo.HeadCommit(rctx)

		return headErr
	})
	if err != nil {
		return "", "", nil, fmt.Errorf("resolve HEAD: %w", err)
	}

	err = r.retry(ctx, func(rctx context.Context) error {
		var rangeErr error
		commits, rangeErr = r.Repo.CommitsInRange(rctx, start, head)

		return rangeErr
	})
	if err != nil {
		return "", "", nil, fmt.Errorf("commits %s..%s: %w", short(start), short(head), err)
	}

	return start, head, commits, nil
}

func (r *run) processCommit(ctx context.Context, commits []string, idx int) (Revision, error) {
	commit := commits[idx]

	ctx, span := r.tracer.Start(ctx, "history.commit",
		trace.WithAttributes(attribute.String("commit", short(commit))))
	defer span.End()

	began := time.Now()
	r.emit(Event{Kind: CommitStarted, Commit: commit})

	var (
		rev   Revision
		files int
		err   error
	)

	if idx == 0 {
		rev, files, err = r.snapshotRevision(ctx, commit)
	} else {
		rev, files, err = r.deltaRevision(ctx, commits[idx-1], commit)
	}

	if err != nil {
		span.RecordError(err)

		return Revision{}, err
	}

	r.Metrics.RecordCommit(ctx, files, len(rev.Changes), time.Since(began))
	r.emit(Event{Kind: CommitCompleted, Commit: commit})

	return rev, nil
}

// snapshotRevision analyzes every admissible file at the first commit of
// the range and seeds the snapshot.
func (r *run) snapshotRevision(ctx context.Context, commit string) (Revision, int, error) {
	var files []string

	err := r.retry(ctx, func(rctx context.Context) error {
		var listErr error
		files, listErr = r.Repo.ListFiles(rctx, commit)

		return listErr
	})
	if err != nil {
		return Revision{}, 0, fmt.Errorf("list files at %s: %w", short(commit), err)
	}

	kept := make([]string, 0, len(files))

	for _, path := range files {
		if r.filter.Match(path) {
			kept = append(kept, path)
		}
	}

	r.emit(Event{Kind: FilesTotal, Commit: commit, Count: len(kept)})

	results, err := r.classifyFiles(ctx, commit, kept)
	if err != nil {
		return Revision{}, 0, err
	}

	analyses := make([]analyze.FileAnalysis, 0, len(results))

	for _, res := range results {
		if !res.ok {
			continue
		}

		r.snapshot[res.path] = res.analysis
		analyses = append(analyses, res.analysis)
	}

	analyze.SortByPath(analyses)

	return Revision{Commit: commit, Analysis: analyses}, len(kept), nil
}

// deltaRevision turns the file-level changes between prev and commit into
// block-level change records against the snapshot.
func (r *run) deltaRevision(ctx context.Context, prev, commit string) (Revision, int, error) {
	var rawChanges []gitcli.Change

	err := r.retry(ctx, func(rctx context.Context) error {
		var changesErr error
		rawChanges, changesErr = r.Repo.ChangesBetween(rctx, prev, commit)

		return changesErr
	})
	if err != nil {
		return Revision{}, 0, fmt.Errorf("changes %s..%s: %w", short(prev), short(commit), err)
	}

	order, byPath := expandChanges(rawChanges)

	var poolPaths []string

	examined := 0

	for _, path := range order {
		tc := byPath[path]
		if tc.kind == gitcli.Delete {
			if _, tracked := r.snapshot[path]; tracked {
				examined++
			}

			continue
		}

		if r.filter.Match(path) {
			poolPaths = append(poolPaths, path)
			examined++
		}
	}

	r.emit(Event{Kind: FilesTotal, Commit: commit, Count: examined})

	results, err := r.classifyFiles(ctx, commit, poolPaths)
	if err != nil {
		return Revision{}, 0, err
	}

	records := make([]ChangeRecord, 0, len(order))

	for _, path := range order {
		tc := byPath[path]

		var rec *ChangeRecord

		if tc.kind == gitcli.Delete {
			if _, tracked := r.snapshot[path]; !tracked {
				continue
			}

			rec = r.applyDelete(commit, path)
		} else {
			res, have := results[path]
			if !have {
				// Unreadable or never admissible; already logged.
				continue
			}

			rec = r.applyUpsert(ctx, prev, path, tc, res)
		}

		if rec != nil {
			records = append(records, *rec)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return analyze.PathLess(records[i].Path, records[j].Path)
	})

	return Revision{Commit: commit, Changes: records}, examined, nil
}

// applyDelete removes a tracked path from the snapshot and builds its
// delete record.
func (r *run) applyDelete(commit, path string) *ChangeRecord {
	old := r.snapshot[path]

	delete(r.snapshot, path)
	r.emit(Event{Kind: FileProcessed, Commit: commit, Path: path})

	change := blockdiff.Classify(old, analyze.FileAnalysis{Path: path})
	if change.IsNoop() {
		return nil
	}

	rec := &ChangeRecord{Path: path, Change: change}
	if r.Options.LineStats {
		rec.Stats = &LineStats{Removed: old.TotalLines()}
	}

	return rec
}

// applyUpsert folds one added or modified file into the snapshot and
// builds its change record.
func (r *run) applyUpsert(ctx context.Context, prev, path string, tc touch, res fileResult) *ChangeRecord {
	old, tracked := r.snapshot[path]

	if res.filtered {
		// Content stopped being admissible (became binary or switched
		// language): a tracked file leaves the snapshot as a delete.
		if !tracked {
			return nil
		}

		delete(r.snapshot, path)

		change := blockdiff.Classify(old, analyze.FileAnalysis{Path: path})
		if change.IsNoop() {
			return nil
		}

		rec := &ChangeRecord{Path: path, Change: change}
		if r.Options.LineStats {
			rec.Stats = &LineStats{Removed: old.TotalLines()}
		}

		return rec
	}

	if !tracked {
		old = analyze.FileAnalysis{Path: path}
	}

	change := blockdiff.Classify(old, res.analysis)
	r.snapshot[path] = res.analysis

	if change.IsNoop() {
		return nil
	}

	rec := &ChangeRecord{Path: path, OldPath: tc.oldPath, Change: change}
	if r.Options.LineStats {
		rec.Stats = r.upsertStats(ctx, prev, path, change, res)
	}

	return rec
}

// upsertStats computes line statistics for an add or modify record.
// Failure to read the previous blob degrades to nil stats, never an error.
func (r *run) upsertStats(ctx context.Context, prev, path string, change blockdiff.FileChange, res fileResult) *LineStats {
	if change.Kind == blockdiff.FileAdd {
		return &LineStats{Added: res.analysis.TotalLines()}
	}

	oldContent, err := r.Repo.ReadFileAt(ctx, prev, path)
	if err != nil {
		r.logger.WarnContext(ctx, "line stats unavailable",
			slog.String("path", path),
			slog.String("commit", short(prev)),
			slog.Any("error", err),
		)

		return nil
	}

	stats := modifyStats(oldContent, res.content)

	return &stats
}

// touch is the final per-path outcome of one commit's raw changes.
type touch struct {
	kind    gitcli.ChangeKind
	oldPath string
}

// expandChanges flattens raw changes into per-path outcomes. A rename
// becomes a delete of the old path plus an add of the new path carrying
// rename provenance. When several changes touch one path the last
// outcome wins; order preserves first appearance.
func expandChanges(changes []gitcli.Change) ([]string, map[string]touch) {
	order := make([]string, 0, len(changes))
	byPath := make(map[string]touch, len(changes))

	record := func(path string, tc touch) {
		if _, seen := byPath[path]; !seen {
			order = append(order, path)
		}

		byPath[path] = tc
	}

	for _, change := range changes {
		switch change.Kind {
		case gitcli.Rename:
			record(change.OldPath, touch{kind: gitcli.Delete})
			record(change.Path, touch{kind: gitcli.Add, oldPath: change.OldPath})
		default:
			record(change.Path, touch{kind: change.Kind})
		}
	}

	return order, byPath
}

// fileResult is one pool worker's outcome for a single path.
type fileResult struct {
	path     string
	analysis analyze.FileAnalysis
	content  []byte
	ok       bool
	filtered bool
}

// classifyFiles reads and classifies paths through a bounded worker pool.
// Unreadable files are logged and absent from the result; content-filtered
// files are present with filtered set.
func (r *run) classifyFiles(ctx context.Context, commit string, paths []string) (map[string]fileResult, error) {
	results := make(map[string]fileResult, len(paths))
	if len(paths) == 0 {
		return results, nil
	}

	workers := r.workers
	if workers > len(paths) {
		workers = len(paths)
	}

	jobs := make(chan string)
	out := make(chan fileResult)

	var wg sync.WaitGroup

	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()

			for path := range jobs {
				out <- r.classifyOne(ctx, commit, path)
			}
		}()
	}

	go func() {
		defer close(jobs)

		for _, path := range paths {
			select {
			case jobs <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	for res := range out {
		r.emit(Event{Kind: FileProcessed, Commit: commit, Path: res.path})

		if res.ok || res.filtered {
			results[res.path] = res
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("classify files at %s: %w", short(commit), err)
	}

	return results, nil
}

func (r *run) classifyOne(ctx context.Context, commit, path string) fileResult {
	content, err := r.Repo.ReadFileAt(ctx, commit, path)
	if err != nil {
		r.logger.WarnContext(ctx, "skipping unreadable file",
			slog.String("path", path),
			slog.String("commit", short(commit)),
			slog.Any("error", err),
		)

		return fileResult{path: path}
	}

	if !r.filter.MatchContent(path, content) {
		return fileResult{path: path, filtered: true}
	}

	res := fileResult{path: path, analysis: r.analyzer.File(path, content), ok: true}
	if r.Options.LineStats {
		res.content = content
	}

	return res
}

func (r *run) retry(ctx context.Context, fn func(context.Context) error) error {
	return backoff.Do(ctx, r.policy, r.retryable, fn)
}

func (r *run) emit(ev Event) {
	if r.Progress != nil {
		r.Progress(ev)
	}
}

// short abbreviates a commit hash for logs and spans.
func short(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}

	return commit
}

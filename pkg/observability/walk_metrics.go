package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
)

const (
	metricWalkCommitsTotal  = "strata.history.commits.total"
	metricWalkFilesTotal    = "strata.history.files.total"
	metricWalkChangesTotal  = "strata.history.changes.total"
	metricWalkCommitSeconds = "strata.history.commit.duration.seconds"
)

// WalkMetrics holds OTel instruments for history-walk metrics.
type WalkMetrics struct {
	commitsTotal   metric.Int64Counter
	filesTotal     metric.Int64Counter
	changesTotal   metric.Int64Counter
	commitDuration metric.Float64Histogram
}

// NewWalkMetrics creates history-walk metric instruments from the given meter.
func NewWalkMetrics(mt metric.Meter) (*WalkMetrics, error) {
	commits, err := mt.Int64Counter(metricWalkCommitsTotal,
		metric.WithDescription("Total commits walked"),
		metric.WithUnit("{commit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricWalkCommitsTotal, err)
	}

	files, err := mt.Int64Counter(metricWalkFilesTotal,
		metric.WithDescription("Total files processed"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricWalkFilesTotal, err)
	}

	changes, err := mt.Int64Counter(metricWalkChangesTotal,
		metric.WithDescription("Total block-level change records emitted"),
		metric.WithUnit("{change}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricWalkChangesTotal, err)
	}

	commitDur, err := mt.Float64Histogram(metricWalkCommitSeconds,
		metric.WithDescription("Per-commit processing duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricWalkCommitSeconds, err)
	}

	return &WalkMetrics{
		commitsTotal:   commits,
		filesTotal:     files,
		changesTotal:   changes,
		commitDuration: commitDur,
	}, nil
}

// RecordCommit records a completed commit with the number of files examined,
// the number of change records emitted, and the processing duration.
// Safe to call on a nil receiver (no-op).
func (wm *WalkMetrics) RecordCommit(ctx context.Context, files, changes int, duration time.Duration) {
	if wm == nil {
		return
	}

	wm.commitsTotal.Add(ctx, 1)
	wm.filesTotal.Add(ctx, int64(files))
	wm.changesTotal.Add(ctx, int64(changes))
	wm.commitDuration.Record(ctx, duration.Seconds())
}

// Package batch walks the library and updates items one at a time, stopping
// as soon as the provider quota is exhausted or the context is cancelled.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"ratingsync/internal/enrich"
	"ratingsync/internal/library"
	"ratingsync/internal/logging"
	"ratingsync/internal/metrics"
	"ratingsync/internal/services"
)

// ErrAlreadyRunning is returned when another process holds the batch lock.
var ErrAlreadyRunning = errors.New("another ratingsync batch is already running")

// Stop reasons reported in Summary.Stopped.
const (
	StopNone        = ""
	StopRateLimited = "rate_limited"
	StopCancelled   = "cancelled"
)

// ItemSource lists candidate items.
type ItemSource interface {
	List(ctx context.Context, opts library.ListOptions) ([]library.Item, error)
}

// ItemUpdater updates one item.
type ItemUpdater interface {
	Update(ctx context.Context, item library.Item) (enrich.Result, error)
}

// Options narrows a run.
type Options struct {
	Kind        library.Kind
	MissingOnly bool
	// Limit caps the number of items processed; zero means no cap.
	Limit int
	// Progress is called after every processed item.
	Progress func(Progress)
}

// Progress reports one processed item.
type Progress struct {
	Index  int
	Total  int
	Result enrich.Result
}

// Summary tallies a run.
type Summary struct {
	RunID       string    `json:"runId"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
	Total       int       `json:"total"`
	Processed   int       `json:"processed"`
	Updated     int       `json:"updated"`
	Skipped     int       `json:"skipped"`
	RateLimited int       `json:"rateLimited"`
	Failed      int       `json:"failed"`
	Stopped     string    `json:"stopped,omitempty"`
}

// Completed reports whether every listed item was processed.
func (s Summary) Completed() bool {
	return s.Stopped == StopNone && s.Processed == s.Total
}

func (s *Summary) record(outcome enrich.Outcome) {
	s.Processed++
	switch outcome {
	case enrich.OutcomeUpdated:
		s.Updated++
	case enrich.OutcomeSkipped:
		s.Skipped++
	case enrich.OutcomeRateLimited:
		s.RateLimited++
	case enrich.OutcomeFailed:
		s.Failed++
	}
}

// Runner executes batches under a cross-process file lock.
type Runner struct {
	source   ItemSource
	updater  ItemUpdater
	logger   *slog.Logger
	lockPath string
	now      func() time.Time
}

// NewRunner constructs a runner. An empty lockPath disables locking.
func NewRunner(source ItemSource, updater ItemUpdater, lockPath string, logger *slog.Logger) (*Runner, error) {
	if source == nil || updater == nil {
		return nil, errors.New("batch runner requires an item source and an updater")
	}
	return &Runner{
		source:   source,
		updater:  updater,
		logger:   logging.NewComponentLogger(logger, "batch"),
		lockPath: lockPath,
		now:      time.Now,
	}, nil
}

// Run processes matching items sequentially. Cancellation stops the run and
// is returned together with the partial summary.
func (r *Runner) Run(ctx context.Context, opts Options) (Summary, error) {
	if r.lockPath != "" {
		lock := flock.New(r.lockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return Summary{}, fmt.Errorf("acquire batch lock: %w", err)
		}
		if !ok {
			return Summary{}, ErrAlreadyRunning
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				r.logger.Warn("failed to release batch lock", logging.Error(err))
			}
		}()
	}

	summary := Summary{RunID: uuid.NewString(), StartedAt: r.now()}
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, r.logger)

	items, err := r.source.List(ctx, library.ListOptions{Kind: opts.Kind, MissingOnly: opts.MissingOnly})
	if err != nil {
		if services.IsCancellation(err) {
			return r.finish(logger, summary, StopCancelled), err
		}
		return summary, fmt.Errorf("list items: %w", err)
	}
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}
	summary.Total = len(items)
	logger.Info("batch started", logging.Int("items", summary.Total))

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return r.finish(logger, summary, StopCancelled), err
		}
		res, err := r.updater.Update(ctx, item)
		if err != nil {
			return r.finish(logger, summary, StopCancelled), err
		}
		summary.record(res.Outcome)
		if opts.Progress != nil {
			opts.Progress(Progress{Index: i + 1, Total: summary.Total, Result: res})
		}
		if res.Outcome.StopsBatch() {
			logger.Info("stopping batch on provider quota",
				logging.String("item", item.Label()),
				logging.Int("remaining_items", summary.Total-summary.Processed),
			)
			return r.finish(logger, summary, StopRateLimited), nil
		}
	}
	return r.finish(logger, summary, StopNone), nil
}

func (r *Runner) finish(logger *slog.Logger, summary Summary, stopped string) Summary {
	summary.Stopped = stopped
	summary.FinishedAt = r.now()

	result := "completed"
	if stopped != StopNone {
		result = stopped
	}
	metrics.BatchRuns.WithLabelValues(result).Inc()
	if stopped == StopNone {
		metrics.BatchLastSuccess.SetToCurrentTime()
	}

	logger.Info("batch finished",
		logging.String("result", result),
		logging.Int("total", summary.Total),
		logging.Int("processed", summary.Processed),
		logging.Int("updated", summary.Updated),
		logging.Int("skipped", summary.Skipped),
		logging.Int("rate_limited", summary.RateLimited),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	return summary
}

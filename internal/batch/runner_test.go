package batch

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"ratingsync/internal/enrich"
	"ratingsync/internal/library"
	"ratingsync/internal/logging"
	"ratingsync/internal/services"
)

type staticSource struct {
	items []library.Item
	opts  library.ListOptions
}

func (s *staticSource) List(_ context.Context, opts library.ListOptions) ([]library.Item, error) {
	s.opts = opts
	return s.items, nil
}

type scriptedUpdater struct {
	outcomes map[string]enrich.Outcome
	seen     []string
	cancel   context.CancelFunc
	cancelOn string
}

func (u *scriptedUpdater) Update(ctx context.Context, item library.Item) (enrich.Result, error) {
	if err := ctx.Err(); err != nil {
		return enrich.Result{}, err
	}
	u.seen = append(u.seen, item.ID)
	if u.cancel != nil && item.ID == u.cancelOn {
		u.cancel()
		return enrich.Result{}, context.Canceled
	}
	if _, ok := services.RunIDFromContext(ctx); !ok {
		return enrich.Result{}, errors.New("missing run id")
	}
	return enrich.Result{Outcome: u.outcomes[item.ID], Item: item}, nil
}

func items(ids ...string) []library.Item {
	out := make([]library.Item, len(ids))
	for i, id := range ids {
		out[i] = library.Item{ID: id, Name: id, Kind: library.KindMovie, TMDBID: id}
	}
	return out
}

func newRunner(t *testing.T, source ItemSource, updater ItemUpdater) *Runner {
	t.Helper()
	runner, err := NewRunner(source, updater, filepath.Join(t.TempDir(), "batch.lock"), logging.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return runner
}

func TestRunTalliesOutcomes(t *testing.T) {
	source := &staticSource{items: items("a", "b", "c")}
	updater := &scriptedUpdater{outcomes: map[string]enrich.Outcome{
		"a": enrich.OutcomeUpdated,
		"b": enrich.OutcomeSkipped,
		"c": enrich.OutcomeFailed,
	}}
	var progress []Progress
	summary, err := newRunner(t, source, updater).Run(context.Background(), Options{
		Kind:        library.KindMovie,
		MissingOnly: true,
		Progress:    func(p Progress) { progress = append(progress, p) },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !summary.Completed() || summary.Updated != 1 || summary.Skipped != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.RunID == "" {
		t.Fatal("expected run id")
	}
	if source.opts.Kind != library.KindMovie || !source.opts.MissingOnly {
		t.Fatalf("list options not forwarded: %+v", source.opts)
	}
	if len(progress) != 3 || progress[2].Index != 3 || progress[2].Total != 3 {
		t.Fatalf("unexpected progress %+v", progress)
	}
}

func TestRunStopsOnRateLimit(t *testing.T) {
	updater := &scriptedUpdater{outcomes: map[string]enrich.Outcome{
		"a": enrich.OutcomeUpdated,
		"b": enrich.OutcomeRateLimited,
		"c": enrich.OutcomeUpdated,
	}}
	summary, err := newRunner(t, &staticSource{items: items("a", "b", "c")}, updater).Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Stopped != StopRateLimited || summary.Processed != 2 || summary.Completed() {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(updater.seen) != 2 {
		t.Fatalf("item after the limit was processed: %v", updater.seen)
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updater := &scriptedUpdater{
		outcomes: map[string]enrich.Outcome{"a": enrich.OutcomeSkipped},
		cancel:   cancel,
		cancelOn: "b",
	}
	summary, err := newRunner(t, &staticSource{items: items("a", "b", "c")}, updater).Run(ctx, Options{})
	if !services.IsCancellation(err) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if summary.Stopped != StopCancelled || summary.Processed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestRunHonoursLimit(t *testing.T) {
	updater := &scriptedUpdater{outcomes: map[string]enrich.Outcome{}}
	summary, err := newRunner(t, &staticSource{items: items("a", "b", "c")}, updater).Run(context.Background(), Options{Limit: 2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total != 2 || summary.Processed != 2 || !summary.Completed() {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestRunRejectsConcurrentBatch(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "batch.lock")
	held := flock.New(lockPath)
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: %v %v", ok, err)
	}
	defer held.Unlock()

	runner, err := NewRunner(&staticSource{}, &scriptedUpdater{}, lockPath, logging.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if _, err := runner.Run(context.Background(), Options{}); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestNewRunnerRequiresDependencies(t *testing.T) {
	if _, err := NewRunner(nil, &scriptedUpdater{}, "", nil); err == nil {
		t.Fatal("expected error for missing source")
	}
}

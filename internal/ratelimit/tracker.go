// Package ratelimit tracks the provider quota and the cooldown window during
// which no provider calls are made.
//
// The tracker holds one record that is loaded from disk once per process and
// rewritten after every observation. A cooldown whose deadline has passed is
// reported as clear without being erased; the next non-limited observation
// persists the cleared value.
package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"ratingsync/internal/fileutil"
	"ratingsync/internal/logging"
	"ratingsync/internal/mdblist"
	"ratingsync/internal/metrics"
)

// DefaultCooldown applies when a limited response carries no reset time.
const DefaultCooldown = 24 * time.Hour

// State is the tracker record. Nil fields have never been observed.
type State struct {
	CooldownUntil *time.Time
	LastLimit     *int
	LastRemaining *int
	LastResetAt   *time.Time
	UpdatedAt     time.Time
}

// InCooldown reports whether the cooldown deadline lies after now.
func (s State) InCooldown(now time.Time) bool {
	return s.CooldownUntil != nil && s.CooldownUntil.After(now)
}

// Observation is what one provider response reveals about the quota.
// Succeeded marks a response that carried a usable payload; only those may
// clear an active cooldown.
type Observation struct {
	HardLimited bool
	Succeeded   bool
	Headers     mdblist.RateLimitHeaders
}

// FromFetch builds an observation from a provider result.
func FromFetch(result mdblist.FetchResult) Observation {
	return Observation{
		HardLimited: result.HardLimited,
		Succeeded:   result.OK(),
		Headers:     result.RateLimit,
	}
}

// Limited reports whether the observation exhausts the quota.
func (o Observation) Limited() bool {
	return o.HardLimited || o.Headers.Exhausted()
}

type fileState struct {
	NotBeforeUTC  *time.Time `json:"notBeforeUtc"`
	LastLimit     *int       `json:"lastLimit"`
	LastRemaining *int       `json:"lastRemaining"`
	LastResetUTC  *time.Time `json:"lastResetUtc"`
	UpdatedAtUTC  time.Time  `json:"updatedAtUtc"`
}

// Tracker is safe for concurrent use.
type Tracker struct {
	path   string
	now    func() time.Time
	logger *slog.Logger

	gate   chan struct{} // serializes disk access
	loaded atomic.Bool

	mu    sync.RWMutex
	state State
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTracker creates a tracker persisted at path. An empty path keeps state in
// memory only.
func NewTracker(path string, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		path:   path,
		now:    time.Now,
		logger: logging.NewComponentLogger(logger, "ratelimit"),
		gate:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// EnsureLoaded reads persisted state the first time it is called. Later calls
// return immediately. The error is non-nil only when ctx is done.
func (t *Tracker) EnsureLoaded(ctx context.Context) error {
	if t.loaded.Load() {
		return nil
	}
	if err := t.acquire(ctx); err != nil {
		return err
	}
	defer t.release()
	if t.loaded.Load() {
		return nil
	}

	state := t.read()
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()
	t.loaded.Store(true)
	publish(state, t.now())
	return nil
}

// State returns a copy of the current record.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// InCooldown reports whether provider calls are currently suppressed.
func (t *Tracker) InCooldown() bool {
	return t.State().InCooldown(t.now())
}

// Update folds an observation into the record and persists it. Quota fields
// absent from the observation keep their previous values, and a failed call
// leaves any cooldown in place. The error is non-nil
// only when ctx is done; write failures are logged.
func (t *Tracker) Update(ctx context.Context, obs Observation) (State, error) {
	if err := t.EnsureLoaded(ctx); err != nil {
		return State{}, err
	}
	if err := t.acquire(ctx); err != nil {
		return State{}, err
	}
	defer t.release()

	now := t.now()
	t.mu.Lock()
	next := t.state
	if obs.Headers.Limit != nil {
		v := *obs.Headers.Limit
		next.LastLimit = &v
	}
	if obs.Headers.Remaining != nil {
		v := *obs.Headers.Remaining
		next.LastRemaining = &v
	}
	if obs.Headers.ResetAt != nil {
		v := obs.Headers.ResetAt.UTC()
		next.LastResetAt = &v
	}
	if obs.Limited() {
		// The provider's reset time is applied as given, even when it has
		// already passed.
		until := now.Add(DefaultCooldown).UTC()
		if obs.Headers.ResetAt != nil {
			until = obs.Headers.ResetAt.UTC()
		}
		next.CooldownUntil = &until
	} else if obs.Succeeded {
		next.CooldownUntil = nil
	}
	next.UpdatedAt = now.UTC()
	t.state = next
	t.mu.Unlock()

	publish(next, now)
	if obs.Limited() {
		logging.WarnWithContext(t.logger, "provider quota exhausted", "ratelimit_cooldown",
			logging.Time("cooldown_until", *next.CooldownUntil),
			logging.Bool("hard_limited", obs.HardLimited),
			logging.String(logging.FieldErrorHint, "raise the provider plan limit or reduce library size per run"),
			logging.String(logging.FieldImpact, "provider calls are suspended until the cooldown ends; cached ratings are still used"),
		)
	}
	t.write(next)
	return next, nil
}

func (t *Tracker) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case t.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) release() {
	<-t.gate
}

// read loads the record from disk. Any failure yields a clear state.
func (t *Tracker) read() State {
	if t.path == "" {
		return State{}
	}
	data, err := os.ReadFile(t.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(t.logger, "rate limit state unreadable", "ratelimit_load_failed",
				logging.String("path", t.path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "starting without cooldown or quota history"),
			)
		}
		return State{}
	}
	var rec fileState
	if err := json.Unmarshal(data, &rec); err != nil {
		logging.WarnWithContext(t.logger, "rate limit state corrupt", "ratelimit_decode_failed",
			logging.String("path", t.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the file is rewritten after the next provider call"),
			logging.String(logging.FieldImpact, "starting without cooldown or quota history"),
		)
		return State{}
	}
	return State{
		CooldownUntil: rec.NotBeforeUTC,
		LastLimit:     rec.LastLimit,
		LastRemaining: rec.LastRemaining,
		LastResetAt:   rec.LastResetUTC,
		UpdatedAt:     rec.UpdatedAtUTC,
	}
}

func (t *Tracker) write(state State) {
	if t.path == "" {
		return
	}
	rec := fileState{
		NotBeforeUTC:  state.CooldownUntil,
		LastLimit:     state.LastLimit,
		LastRemaining: state.LastRemaining,
		LastResetUTC:  state.LastResetAt,
		UpdatedAtUTC:  state.UpdatedAt,
	}
	if err := fileutil.WriteJSONAtomic(t.path, rec); err != nil {
		logging.WarnWithContext(t.logger, "rate limit state write failed", "ratelimit_write_failed",
			logging.String("path", t.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on paths.state_path"),
			logging.String(logging.FieldImpact, "cooldown is enforced in memory but forgotten on restart"),
		)
	}
}

func publish(state State, now time.Time) {
	if state.InCooldown(now) {
		metrics.CooldownActive.Set(1)
	} else {
		metrics.CooldownActive.Set(0)
	}
	if state.LastRemaining != nil {
		metrics.QuotaRemaining.Set(float64(*state.LastRemaining))
	}
}

package enrich

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ratingsync/internal/library"
	"ratingsync/internal/logging"
	"ratingsync/internal/mdblist"
	"ratingsync/internal/metrics"
	"ratingsync/internal/ratelimit"
	"ratingsync/internal/ratingcache"
	"ratingsync/internal/services"
)

// Cache is the response cache used by the Updater.
type Cache interface {
	Get(ctx context.Context, key string) (ratingcache.Entry, bool, error)
	Put(ctx context.Context, key string, entry ratingcache.Entry) error
}

// Tracker is the quota tracker used by the Updater.
type Tracker interface {
	EnsureLoaded(ctx context.Context) error
	InCooldown() bool
	Update(ctx context.Context, obs ratelimit.Observation) (ratelimit.State, error)
}

// ItemStore persists changed items.
type ItemStore interface {
	Save(ctx context.Context, item library.Item) error
}

// Dependencies are the collaborators an Updater drives.
type Dependencies struct {
	Cache    Cache
	Tracker  Tracker
	Provider mdblist.Fetcher
	Store    ItemStore
}

// Result describes what Update did to one item.
type Result struct {
	Outcome       Outcome
	Item          library.Item
	PayloadSource string
	Changes       []string
	// StopAfter is set when the provider reported an exhausted quota on a
	// successful response. The item was still processed.
	StopAfter bool
}

// Updater runs the per-item update algorithm. It is safe for concurrent use
// when its dependencies are.
type Updater struct {
	opts   Options
	deps   Dependencies
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Updater.
type Option func(*Updater)

// WithClock overrides the time source used for cache freshness.
func WithClock(now func() time.Time) Option {
	return func(u *Updater) {
		if now != nil {
			u.now = now
		}
	}
}

// NewUpdater creates an Updater.
func NewUpdater(opts Options, deps Dependencies, logger *slog.Logger, options ...Option) *Updater {
	u := &Updater{
		opts:   opts,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "enrich"),
		now:    time.Now,
	}
	for _, opt := range options {
		opt(u)
	}
	return u
}

// UpdateItem runs Update and returns only the outcome.
func (u *Updater) UpdateItem(ctx context.Context, item library.Item) (Outcome, error) {
	res, err := u.Update(ctx, item)
	return res.Outcome, err
}

// Update refreshes the ratings of item. The error is non-nil only when ctx was
// cancelled; every other failure is reported through the outcome.
func (u *Updater) Update(ctx context.Context, item library.Item) (Result, error) {
	ctx = services.WithItemID(ctx, item.ID)
	logger := logging.WithContext(ctx, u.logger).With(
		logging.String("item", item.Label()),
		logging.String("kind", string(item.Kind)),
	)
	res := Result{Outcome: OutcomeSkipped, Item: item, PayloadSource: SourceNone}

	if reason, skip := u.guard(item); skip {
		logger.Debug("item skipped", logging.Args(logging.DecisionAttrs("item_guard", "skip", reason)...)...)
		return u.finish(res), nil
	}

	payload, source, outcome, stopAfter, err := u.obtainPayload(ctx, logger, item)
	if err != nil {
		return res, err
	}
	res.PayloadSource = source
	res.StopAfter = stopAfter
	if payload == nil {
		res.Outcome = outcome
		return u.finish(res), nil
	}
	metrics.PayloadSource.WithLabelValues(source).Inc()

	updated, changes := apply(item, payload, u.opts.MappingFor(item.Collections), u.opts.OnlyUpdateEmpty)
	res.Changes = changes
	if len(changes) == 0 {
		logger.Debug("ratings unchanged", logging.String("payload_source", source))
		res.Outcome = stopOr(OutcomeSkipped, stopAfter)
		return u.finish(res), nil
	}

	if err := u.deps.Store.Save(ctx, updated); err != nil {
		if services.IsCancellation(err) {
			return res, err
		}
		logging.WarnWithContext(logger, "saving item failed", "item_save_failed",
			logging.Error(err),
			logging.String("changes", strings.Join(changes, ",")),
			logging.String(logging.FieldErrorHint, "check the library database is writable"),
			logging.String(logging.FieldImpact, "item keeps its previous ratings until the next run"),
		)
		res.Outcome = stopOr(OutcomeFailed, stopAfter)
		return u.finish(res), nil
	}

	res.Item = updated
	res.Outcome = stopOr(OutcomeUpdated, stopAfter)
	logger.Info("ratings updated",
		logging.String("changes", strings.Join(changes, ",")),
		logging.String("payload_source", source),
	)
	return u.finish(res), nil
}

func (u *Updater) guard(item library.Item) (string, bool) {
	switch {
	case strings.TrimSpace(u.opts.APIKey) == "":
		return "no api key configured", true
	case !item.Kind.Supported():
		return "unsupported item kind", true
	case strings.TrimSpace(item.TMDBID) == "":
		return "item has no tmdb id", true
	case u.opts.OnlyUpdateEmpty && hasAllTargets(item):
		return "all target ratings already set", true
	default:
		return "", false
	}
}

func hasAllTargets(item library.Item) bool {
	if !item.HasCommunityRating() {
		return false
	}
	if item.Kind == library.KindMovie {
		return item.HasCriticRating()
	}
	return true
}

// obtainPayload returns the payload to resolve from and where it came from.
// A nil payload comes with the outcome to report.
func (u *Updater) obtainPayload(ctx context.Context, logger *slog.Logger, item library.Item) (*mdblist.Payload, string, Outcome, bool, error) {
	kind := string(item.Kind)
	key := ratingcache.Key(kind, item.TMDBID)

	cached, haveCached, err := u.deps.Cache.Get(ctx, key)
	if err != nil {
		return nil, "", 0, false, err
	}
	if haveCached && cached.Payload == nil {
		haveCached = false
	}
	if haveCached && cached.Fresh(u.now(), u.opts.TTL) {
		return cached.Payload, SourceFreshCache, 0, false, nil
	}

	stale := func(reason string, fallback Outcome) (*mdblist.Payload, string, Outcome, bool, error) {
		if haveCached {
			logger.Debug("using stale cache entry",
				logging.String("reason", reason),
				logging.Duration("age", cached.Age(u.now())),
			)
			return cached.Payload, SourceStaleCache, 0, false, nil
		}
		logger.Debug("no payload available", logging.String("reason", reason))
		return nil, SourceNone, fallback, false, nil
	}

	if err := u.deps.Tracker.EnsureLoaded(ctx); err != nil {
		return nil, "", 0, false, err
	}
	if u.deps.Tracker.InCooldown() {
		return stale("cooldown active", OutcomeRateLimited)
	}

	if err := ratelimit.SleepWithContext(ctx, u.opts.RequestDelay); err != nil {
		return nil, "", 0, false, err
	}
	fetched, err := u.deps.Provider.Fetch(ctx, kind, item.TMDBID, u.opts.APIKey)
	if err != nil {
		return nil, "", 0, false, err
	}
	if _, err := u.deps.Tracker.Update(ctx, ratelimit.FromFetch(fetched)); err != nil {
		return nil, "", 0, false, err
	}

	switch {
	case fetched.HardLimited:
		return stale("provider rate limited", OutcomeRateLimited)
	case !fetched.OK():
		return stale("provider returned no payload", OutcomeFailed)
	}

	entry := ratingcache.Entry{FetchedAt: u.now(), Payload: fetched.Payload, Raw: fetched.RawBody}
	if err := u.deps.Cache.Put(ctx, key, entry); err != nil && services.IsCancellation(err) {
		return nil, "", 0, false, err
	}
	stopAfter := fetched.RateLimit.Exhausted()
	if stopAfter {
		logger.Info("provider quota reached zero, stopping after this item")
	}
	return fetched.Payload, SourceProvider, 0, stopAfter, nil
}

func (u *Updater) finish(res Result) Result {
	metrics.ItemOutcomes.WithLabelValues(res.Outcome.String()).Inc()
	return res
}

func stopOr(outcome Outcome, stop bool) Outcome {
	if stop {
		return OutcomeRateLimited
	}
	return outcome
}

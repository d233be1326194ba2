package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ratingsync/internal/library"
	"ratingsync/internal/ratelimit"
	"ratingsync/internal/ratingcache"
	"ratingsync/internal/services"
)

// CacheReader abstracts the response cache reads needed for lookups.
type CacheReader interface {
	Get(ctx context.Context, key string) (ratingcache.Entry, bool, error)
}

// StateReader abstracts the quota tracker reads needed for status queries.
type StateReader interface {
	EnsureLoaded(ctx context.Context) error
	State() ratelimit.State
}

// LookupService exposes read-only cache and quota queries returning API DTOs.
type LookupService struct {
	cache   CacheReader
	tracker StateReader
	ttl     time.Duration
	now     func() time.Time
}

// NewLookupService constructs a LookupService. ttl only decides the Stale flag.
func NewLookupService(cache CacheReader, tracker StateReader, ttl time.Duration) *LookupService {
	return &LookupService{cache: cache, tracker: tracker, ttl: ttl, now: time.Now}
}

// Lookup returns the cached ratings for a title. Nothing is fetched.
func (s *LookupService) Lookup(ctx context.Context, contentType, tmdbID string) (RatingLookup, error) {
	kind, ok := library.ParseKind(contentType)
	if !ok {
		return RatingLookup{}, services.Wrap(services.ErrValidation, "api", "lookup",
			fmt.Sprintf("unsupported content type %q", contentType), nil)
	}
	tmdbID = strings.TrimSpace(tmdbID)
	if tmdbID == "" {
		return RatingLookup{}, services.Wrap(services.ErrValidation, "api", "lookup", "tmdb id is required", nil)
	}

	out := RatingLookup{ContentType: string(kind), TMDBID: tmdbID, Ratings: []Rating{}}
	if s == nil || s.cache == nil {
		return out, nil
	}
	entry, found, err := s.cache.Get(ctx, ratingcache.Key(string(kind), tmdbID))
	if err != nil {
		return RatingLookup{}, err
	}
	if !found || entry.Payload == nil {
		return out, nil
	}
	out.Found = true
	out.CachedAt = entry.FetchedAt.UTC().Format(dateTimeFormat)
	out.Stale = !entry.Fresh(s.now(), s.ttl)
	out.IMDBID = entry.Payload.IDs.IMDB
	out.Ratings = FromRatings(entry.Payload.Ratings)
	return out, nil
}

// RateLimit returns the current quota state.
func (s *LookupService) RateLimit(ctx context.Context) (RateLimitStatus, error) {
	if s == nil || s.tracker == nil {
		return RateLimitStatus{}, nil
	}
	if err := s.tracker.EnsureLoaded(ctx); err != nil {
		return RateLimitStatus{}, err
	}
	return FromState(s.tracker.State(), s.now()), nil
}

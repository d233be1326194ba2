// Package api defines wire-format types, converters and the read-only HTTP
// surface shared by the CLI and the lookup server.
//
// # Key Types
//
// RatingLookup: cached provider ratings for one (content type, TMDB id) pair,
// with the time they were fetched and whether they are past the cache TTL.
//
// RateLimitStatus: the tracker's cooldown deadline and last-seen quota.
//
// LibraryItem: transport representation of a library entry and its ratings.
//
// # Lookup
//
// LookupService answers from the response cache only. It never calls the
// provider, so a lookup may return stale data and is safe to serve while a
// batch is running.
//
// # HTTP
//
// NewRouter mounts the lookup routes and /metrics on a chi router with CORS
// and per-IP rate limiting. Server wraps net/http with context-driven
// shutdown.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript consumers. Timestamps use
// RFC3339 with milliseconds.
package api

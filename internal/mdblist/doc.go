// Package mdblist wraps the ratings provider's lookup-by-TMDB-id endpoint.
//
// Fetch performs a single GET per call and never returns an error for remote
// trouble: network failures, unexpected statuses, and malformed bodies all
// collapse into an empty FetchResult so callers can fall back to cached data.
// The only error surfaced is caller cancellation. Rate-limit headers are parsed
// independently of the body, and numeric body fields tolerate numbers, numeric
// strings, and the provider's "N/A" placeholder.
package mdblist

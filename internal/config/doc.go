// Package config loads, normalizes, and validates ratingsync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MDBLIST_API_KEY. The Config type centralizes the provider credentials, the
// on-disk locations of the response cache and rate-limit state, and the rating
// source mapping with its per-collection overrides.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical source names, and clear validation errors.
package config

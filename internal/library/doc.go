// Package library persists the media items whose rating fields the pipeline
// maintains.
//
// Items live in a SQLite database (modernc.org/sqlite, no cgo) whose schema is
// applied from embedded, ordered migrations. Each item carries its kind, the
// TMDB and IMDb identifiers, the two rating fields with the source each came
// from, and the collections it belongs to.
package library

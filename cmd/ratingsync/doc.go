// Command ratingsync enriches library items with provider ratings.
//
// The CLI manages the library (items), runs batches (run), updates single
// items, inspects the response cache and quota state, and serves the
// read-only lookup API (serve). Run summaries go to ntfy when a topic is
// configured; `logs` reads back the log file.
package main

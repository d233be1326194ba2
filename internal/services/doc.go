// Package services defines shared utilities consumed by the enrichment
// pipeline and its surrounding commands.
//
// Key responsibilities:
//   - Context helpers that stamp item IDs, run IDs, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (configuration vs validation vs transient) and map them to
//     exit codes or HTTP statuses.
//   - Cancellation detection shared by every layer that must stop promptly.
package services

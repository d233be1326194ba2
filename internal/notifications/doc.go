// Package notifications publishes run summaries to an ntfy topic.
//
// NewService returns a noop implementation when no topic is configured, so
// callers can publish unconditionally. Delivery failures are returned to the
// caller, which logs them; a failed notification never fails a run.
package notifications

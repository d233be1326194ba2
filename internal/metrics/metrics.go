// Package metrics exposes Prometheus instrumentation for the enrichment
// pipeline: provider calls, cache efficiency, quota state, and per-item
// outcomes. Collectors register with the default registry and are served by
// the lookup API at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Provider Metrics
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratingsync_provider_requests_total",
			Help: "Provider calls by result",
		},
		[]string{"result"}, // "ok", "rate_limited", "http_error", "decode_error", "network_error", "read_error"
	)

	ProviderRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ratingsync_provider_request_duration_seconds",
			Help:    "Duration of provider calls in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		},
	)

	// Cache Metrics
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratingsync_cache_lookups_total",
			Help: "Response cache lookups by tier",
		},
		[]string{"tier"}, // "memory", "disk", "miss"
	)

	CacheWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ratingsync_cache_write_failures_total",
			Help: "Durable cache writes that failed",
		},
	)

	// Quota Metrics
	CooldownActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ratingsync_cooldown_active",
			Help: "1 while provider calls are suspended by a cooldown",
		},
	)

	QuotaRemaining = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ratingsync_quota_remaining",
			Help: "Last remaining-quota value reported by the provider",
		},
	)

	// Pipeline Metrics
	ItemOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratingsync_item_outcomes_total",
			Help: "Per-item update outcomes",
		},
		[]string{"outcome"},
	)

	PayloadSource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratingsync_payload_source_total",
			Help: "Where the payload used for resolution came from",
		},
		[]string{"source"}, // "fresh_cache", "stale_cache", "provider"
	)

	BatchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratingsync_batch_runs_total",
			Help: "Completed batch runs by how they ended",
		},
		[]string{"result"}, // "completed", "rate_limited", "cancelled"
	)

	BatchLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ratingsync_batch_last_success_timestamp",
			Help: "Unix timestamp of the last batch that ran to completion",
		},
	)
)

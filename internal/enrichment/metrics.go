package enrichment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// CacheStateTotal counts classification outcomes per data kind.
	CacheStateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "suidash_enrichment_cache_state_total",
		Help: "Cache entry classifications by data kind and staleness state",
	}, []string{"kind", "state"})

	// BlockingFetchDuration tracks the latency of the blocking fetch path.
	BlockingFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "suidash_enrichment_blocking_fetch_duration_seconds",
		Help:    "Duration of blocking batch fetches for expired or missing entries",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	// RevalidationsTotal counts background revalidation batches spawned.
	RevalidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "suidash_enrichment_revalidations_total",
		Help: "Background revalidation batches spawned",
	}, []string{"kind"})

	// RevalidationFailuresTotal counts addresses whose background refresh failed.
	RevalidationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "suidash_enrichment_revalidation_failures_total",
		Help: "Addresses whose background revalidation failed (stale value kept)",
	}, []string{"kind"})

	// FallbacksTotal counts fallback values substituted after fetch failures.
	FallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "suidash_enrichment_fallbacks_total",
		Help: "Fallback values returned to callers after oracle failures",
	}, []string{"kind"})

	// InFlightRevalidations tracks addresses currently being revalidated.
	InFlightRevalidations = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "suidash_enrichment_inflight_revalidations",
		Help: "Addresses currently undergoing background revalidation",
	}, []string{"kind"})

	// FetchRetriesTotal counts executor retry attempts after retryable failures.
	FetchRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "suidash_enrichment_fetch_retries_total",
		Help: "Retry attempts made by the batch fetch executor",
	}, []string{"kind"})
)

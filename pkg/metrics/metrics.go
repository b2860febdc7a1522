// Package metrics defines the Prometheus instrumentation exported by the
// internal admin server (spec §6, GET /metrics).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CitationsExtractedTotal counts citations produced by the extractor,
	// labeled by reporter tag (e.g. "U.S.", "Wn.2d").
	CitationsExtractedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citation_engine_citations_extracted_total",
		Help: "Total number of citations extracted from submitted text.",
	}, []string{"reporter"})

	// ClustersFormedTotal counts clusters produced by the proximity clusterer.
	ClustersFormedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "citation_engine_clusters_formed_total",
		Help: "Total number of citation clusters formed.",
	})

	// ClusterSplitsTotal counts clusters the canonical-consistency splitter
	// divided because of conflicting verified canonical forms.
	ClusterSplitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "citation_engine_cluster_splits_total",
		Help: "Total number of clusters split due to canonical-form conflicts.",
	})

	// VerificationBatchesTotal counts authority batch lookups by outcome.
	VerificationBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citation_engine_verification_batches_total",
		Help: "Total number of authority verification batches issued, by outcome.",
	}, []string{"outcome"})

	// VerificationDuration observes wall-clock latency of a single
	// authority batch round trip.
	VerificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "citation_engine_verification_duration_seconds",
		Help:    "Duration of a single authority batch verification call.",
		Buckets: prometheus.DefBuckets,
	})

	// AuthorityAPICallsTotal counts outbound authority requests by outcome,
	// including rate-limited and circuit-broken rejections.
	AuthorityAPICallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citation_engine_authority_api_calls_total",
		Help: "Total number of outbound authority API calls, by outcome.",
	}, []string{"outcome"})

	// RateLimiterWaitSeconds observes time spent blocked on the authority
	// rate limiter's token bucket before a request was allowed through.
	RateLimiterWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "citation_engine_rate_limiter_wait_seconds",
		Help:    "Time spent waiting for a rate limiter token before an authority call.",
		Buckets: []float64{0, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	})

	// CircuitBreakerState reports the authority circuit breaker's current
	// state: 0=closed, 1=half-open, 2=open.
	CircuitBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "citation_engine_circuit_breaker_state",
		Help: "Current state of the authority circuit breaker (0=closed, 1=half-open, 2=open).",
	})

	// CacheHitsTotal and CacheMissesTotal count verification cache lookups.
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "citation_engine_cache_hits_total",
		Help: "Total number of verification cache hits.",
	})
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "citation_engine_cache_misses_total",
		Help: "Total number of verification cache misses.",
	})

	// JobsProcessedTotal counts completed async jobs by terminal status.
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citation_engine_jobs_processed_total",
		Help: "Total number of async jobs processed, by terminal status.",
	}, []string{"status"})

	// JobsInProgress reports the number of jobs currently being worked.
	JobsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "citation_engine_jobs_in_progress",
		Help: "Number of jobs currently being processed by the worker pool.",
	})

	// ExtractionDuration observes the wall-clock cost of the extraction
	// stage alone, separate from clustering and verification.
	ExtractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "citation_engine_extraction_duration_seconds",
		Help:    "Duration of the extraction stage of the pipeline.",
		Buckets: prometheus.DefBuckets,
	})

	// PipelineDuration observes total wall-clock time for a job from
	// acceptance to result assembly.
	PipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "citation_engine_pipeline_duration_seconds",
		Help:    "End-to-end pipeline duration, by execution mode (sync/async).",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})
)

// RecordExtraction records one extraction stage observation and increments
// the per-reporter citation counters.
func RecordExtraction(d time.Duration, reporterCounts map[string]int) {
	ExtractionDuration.Observe(d.Seconds())
	for reporter, n := range reporterCounts {
		CitationsExtractedTotal.WithLabelValues(reporter).Add(float64(n))
	}
}

// RecordVerificationBatch records one authority batch round trip.
func RecordVerificationBatch(outcome string, d time.Duration) {
	VerificationBatchesTotal.WithLabelValues(outcome).Inc()
	VerificationDuration.Observe(d.Seconds())
}

// RecordAuthorityCall records a single outbound authority API call outcome,
// independent of batching (used for retries and fallback search calls).
func RecordAuthorityCall(outcome string) {
	AuthorityAPICallsTotal.WithLabelValues(outcome).Inc()
}

// RecordRateLimiterWait records time spent blocked on the token bucket.
func RecordRateLimiterWait(d time.Duration) {
	RateLimiterWaitSeconds.Observe(d.Seconds())
}

// SetCircuitBreakerState updates the circuit breaker state gauge. state
// must be one of "closed", "half-open", "open".
func SetCircuitBreakerState(state string) {
	switch state {
	case "closed":
		CircuitBreakerState.Set(0)
	case "half-open":
		CircuitBreakerState.Set(1)
	case "open":
		CircuitBreakerState.Set(2)
	}
}

// RecordCacheLookup records a single verification cache lookup.
func RecordCacheLookup(hit bool) {
	if hit {
		CacheHitsTotal.Inc()
	} else {
		CacheMissesTotal.Inc()
	}
}

// RecordJobComplete records a terminal job status and decrements the
// in-progress gauge.
func RecordJobComplete(status string) {
	JobsProcessedTotal.WithLabelValues(status).Inc()
	JobsInProgress.Dec()
}

// RecordJobStart increments the in-progress gauge when a job begins
// processing.
func RecordJobStart() {
	JobsInProgress.Inc()
}

// RecordPipeline records total end-to-end pipeline duration for one job.
func RecordPipeline(mode string, d time.Duration) {
	PipelineDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// Timer measures elapsed wall-clock time for a single operation, mirroring
// the pattern used throughout the pipeline's stage instrumentation.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the time since the timer was created.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// RecordVerificationBatch records the time elapsed since NewTimer
// against the verification batch metrics for the given outcome.
func (t *Timer) RecordVerificationBatch(outcome string) {
	RecordVerificationBatch(outcome, t.Elapsed())
}

// RecordExtraction records the time elapsed since NewTimer against
// the extraction stage metric, plus per-reporter citation counts.
func (t *Timer) RecordExtraction(reporterCounts map[string]int) {
	RecordExtraction(t.Elapsed(), reporterCounts)
}

// RecordPipeline records the time elapsed since NewTimer as the total
// pipeline duration.
func (t *Timer) RecordPipeline(mode string) {
	RecordPipeline(mode, t.Elapsed())
}

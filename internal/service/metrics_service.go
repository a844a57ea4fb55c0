package service

import (
	"fmt"
	"math"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thethakurshivam/grs-sub003/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	ledgerTxSeconds *prometheus.HistogramVec
	decisions       *prometheus.CounterVec
	creditsPosted   *prometheus.CounterVec
	creditsConsumed *prometheus.CounterVec
	events          *prometheus.CounterVec
	ledgerRetries   *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	ledgerTxCount        uint64
	ledgerTxDuration     uint64
	requestFinalized     uint64
	claimFinalized       uint64
	postedMicro          uint64
	consumedMicro        uint64
	retryCount           uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	ledgerTxSeconds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_transaction_duration_seconds",
		Help:    "Duration of ledger transactions",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "approval_decisions_total",
		Help: "Reviewer decisions by workflow, role and outcome",
	}, []string{"workflow", "role", "outcome"})

	creditsPosted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_credits_posted_total",
		Help: "Credits added to student ledgers",
	}, []string{"umbrella"})

	creditsConsumed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_credits_consumed_total",
		Help: "Credits consumed by issued certificates",
	}, []string{"umbrella"})

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workflow_events_total",
		Help: "Workflow events by type and delivery result",
	}, []string{"type", "result"})

	ledgerRetries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_contention_retries_total",
		Help: "Responses that asked the caller to retry after ledger lock contention",
	}, []string{"path"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		ledgerTxSeconds, decisions, creditsPosted, creditsConsumed, events, ledgerRetries, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		ledgerTxSeconds: ledgerTxSeconds,
		decisions:       decisions,
		creditsPosted:   creditsPosted,
		creditsConsumed: creditsConsumed,
		events:          events,
		ledgerRetries:   ledgerRetries,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveLedgerTx records the duration of one ledger transaction.
func (m *MetricsService) ObserveLedgerTx(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ledgerTxSeconds.WithLabelValues(operation).Observe(duration.Seconds())
	atomic.AddUint64(&m.ledgerTxCount, 1)
	atomic.AddUint64(&m.ledgerTxDuration, uint64(duration.Nanoseconds()))
}

// RecordDecision counts a reviewer decision. outcome is one of recorded, finalized, noop, error.
func (m *MetricsService) RecordDecision(workflow, role, outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(workflow, role, outcome).Inc()
	if outcome != "finalized" {
		return
	}
	switch workflow {
	case "credit_request":
		atomic.AddUint64(&m.requestFinalized, 1)
	case "claim":
		atomic.AddUint64(&m.claimFinalized, 1)
	}
}

// AddCreditsPosted counts credits added by a finalized credit request.
func (m *MetricsService) AddCreditsPosted(umbrella string, credits float64) {
	if m == nil {
		return
	}
	m.creditsPosted.WithLabelValues(umbrella).Add(credits)
	atomic.AddUint64(&m.postedMicro, toMicro(credits))
}

// AddCreditsConsumed counts credits consumed by an issued certificate.
func (m *MetricsService) AddCreditsConsumed(umbrella string, credits float64) {
	if m == nil {
		return
	}
	m.creditsConsumed.WithLabelValues(umbrella).Add(credits)
	atomic.AddUint64(&m.consumedMicro, toMicro(credits))
}

// RecordEvent counts an event delivery attempt.
func (m *MetricsService) RecordEvent(eventType string, delivered bool) {
	if m == nil {
		return
	}
	result := "delivered"
	if !delivered {
		result = "failed"
	}
	m.events.WithLabelValues(eventType, result).Inc()
}

// RecordLedgerRetry counts a response that told the caller to retry the whole operation.
func (m *MetricsService) RecordLedgerRetry(path string) {
	if m == nil {
		return
	}
	m.ledgerRetries.WithLabelValues(path).Inc()
	atomic.AddUint64(&m.retryCount, 1)
}

// Snapshot returns aggregated metrics suitable for the admin summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	txCount := atomic.LoadUint64(&m.ledgerTxCount)
	txDuration := atomic.LoadUint64(&m.ledgerTxDuration)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}
	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	var avgTxMs float64
	if txCount > 0 {
		avgTxMs = float64(txDuration) / float64(txCount) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		LedgerTxCount:            txCount,
		AverageLedgerTxMs:        avgTxMs,
		Finalizations: map[string]uint64{
			"credit_request": atomic.LoadUint64(&m.requestFinalized),
			"claim":          atomic.LoadUint64(&m.claimFinalized),
		},
		CreditsPosted:   fromMicro(atomic.LoadUint64(&m.postedMicro)),
		CreditsConsumed: fromMicro(atomic.LoadUint64(&m.consumedMicro)),
		LedgerRetries:   atomic.LoadUint64(&m.retryCount),
		Goroutines:      runtime.NumGoroutine(),
		GeneratedAt:     time.Now().UTC(),
	}
}

// Snapshot totals are kept in micro-credits so they fit atomic counters.
func toMicro(credits float64) uint64 {
	if credits <= 0 {
		return 0
	}
	return uint64(math.Round(credits * 1e6))
}

func fromMicro(v uint64) float64 {
	return float64(v) / 1e6
}

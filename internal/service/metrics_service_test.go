package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/api/v1/umbrellas", http.StatusOK, 20*time.Millisecond)
	metrics.RecordCacheOperation(true, time.Millisecond)
	metrics.RecordCacheOperation(false, time.Millisecond)
	metrics.ObserveLedgerTx("decide_claim", 4*time.Millisecond)
	metrics.RecordDecision("credit_request", "admin", "finalized")
	metrics.RecordDecision("claim", "admin", "finalized")
	metrics.RecordDecision("claim", "poc", "recorded")
	metrics.AddCreditsPosted("Cyber_Security", 4)
	metrics.AddCreditsConsumed("Cyber_Security", 3)
	metrics.RecordLedgerRetry("/api/v1/claims/:id/decision")

	snapshot := metrics.Snapshot()
	require.Equal(t, uint64(1), snapshot.RequestsTotal)
	require.Equal(t, uint64(1), snapshot.CacheHits)
	require.Equal(t, uint64(1), snapshot.CacheMisses)
	require.InDelta(t, 0.5, snapshot.CacheHitRatio, 1e-9)
	require.Equal(t, uint64(1), snapshot.LedgerTxCount)
	require.Equal(t, uint64(1), snapshot.Finalizations["credit_request"])
	require.Equal(t, uint64(1), snapshot.Finalizations["claim"])
	require.InDelta(t, 4.0, snapshot.CreditsPosted, 1e-6)
	require.InDelta(t, 3.0, snapshot.CreditsConsumed, 1e-6)
	require.Equal(t, uint64(1), snapshot.LedgerRetries)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "approval_decisions_total")
	require.Contains(t, rec.Body.String(), "ledger_credits_posted_total")
	require.Contains(t, rec.Body.String(), "ledger_contention_retries_total")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	require.NotPanics(t, func() {
		metrics.ObserveLedgerTx("decide_claim", time.Millisecond)
		metrics.RecordDecision("claim", "admin", "finalized")
		metrics.AddCreditsConsumed("Cyber_Security", 1)
		metrics.RecordLedgerRetry("/api/v1/claims/:id/decision")
	})
}

package models

import "time"

// SystemMetrics is a lightweight snapshot of service instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64           `json:"cache_hit_ratio"`
	CacheHits                uint64            `json:"cache_hits"`
	CacheMisses              uint64            `json:"cache_misses"`
	RequestsTotal            uint64            `json:"requests_total"`
	AverageRequestDurationMs float64           `json:"average_request_duration_ms"`
	LedgerTxCount            uint64            `json:"ledger_tx_count"`
	AverageLedgerTxMs        float64           `json:"average_ledger_tx_ms"`
	Finalizations            map[string]uint64 `json:"finalizations"`
	CreditsPosted            float64           `json:"credits_posted"`
	CreditsConsumed          float64           `json:"credits_consumed"`
	LedgerRetries            uint64            `json:"ledger_retries"`
	Goroutines               int               `json:"goroutines"`
	GeneratedAt              time.Time         `json:"generated_at"`
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditConsistentLedger(t *testing.T) {
	snap := newSnapshot(
		[]balanceRow{{"s1", "cyber_security", 1}, {"s1", "ai", 2.5}},
		[]balanceRow{{"s1", "cyber_security", 1}, {"s1", "ai", 2.5}},
		[]totalRow{{"s1", 3.5}, {"s2", 0}},
	)
	assert.Empty(t, audit(snap, 1e-6))
}

func TestAuditReportsDrift(t *testing.T) {
	snap := newSnapshot(
		[]balanceRow{{"s1", "cyber_security", 4}, {"s2", "ai", -1}},
		[]balanceRow{{"s1", "cyber_security", 1}, {"s3", "ai", 2}},
		[]totalRow{{"s1", 4}, {"s2", 0}, {"s3", 0}},
	)
	findings := audit(snap, 1e-6)

	byKind := map[string][]finding{}
	for _, f := range findings {
		byKind[f.Kind] = append(byKind[f.Kind], f)
	}

	require.Len(t, byKind[findingNegative], 1)
	assert.Equal(t, "s2", byKind[findingNegative][0].StudentID)

	// s1 holds 4 on the ledger with 1 in history, s2 holds -1 with nothing, s3 has 2 in history but no balance row.
	require.Len(t, byKind[findingUmbrellaDrift], 3)

	// s2 total 0 vs -1 summed, s3 total 0 vs 0 summed.
	require.Len(t, byKind[findingTotalDrift], 1)
	assert.Equal(t, "s2", byKind[findingTotalDrift][0].StudentID)
	assert.InDelta(t, -1, byKind[findingTotalDrift][0].Expected, 1e-9)
}

func TestAuditTolerance(t *testing.T) {
	snap := newSnapshot(
		[]balanceRow{{"s1", "ai", 1.0000001}},
		[]balanceRow{{"s1", "ai", 1}},
		[]totalRow{{"s1", 1}},
	)
	assert.Empty(t, audit(snap, 1e-6))
	assert.Len(t, audit(snap, 1e-9), 2)
}

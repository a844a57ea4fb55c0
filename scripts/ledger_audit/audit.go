package main

import "math"

type ledgerKey struct {
	StudentID   string
	UmbrellaKey string
}

type snapshot struct {
	balances map[ledgerKey]float64
	history  map[ledgerKey]float64
	totals   map[string]float64
}

func newSnapshot(balances, history []balanceRow, totals []totalRow) snapshot {
	snap := snapshot{
		balances: make(map[ledgerKey]float64, len(balances)),
		history:  make(map[ledgerKey]float64, len(history)),
		totals:   make(map[string]float64, len(totals)),
	}
	for _, row := range balances {
		snap.balances[ledgerKey{row.StudentID, row.UmbrellaKey}] += row.Credits
	}
	for _, row := range history {
		snap.history[ledgerKey{row.StudentID, row.UmbrellaKey}] += row.Credits
	}
	for _, row := range totals {
		snap.totals[row.StudentID] = row.TotalCredits
	}
	return snap
}

const (
	findingUmbrellaDrift = "balance_vs_history"
	findingTotalDrift    = "total_vs_balances"
	findingNegative      = "negative_balance"
)

type finding struct {
	StudentID   string
	UmbrellaKey string
	Kind        string
	Recorded    float64
	Expected    float64
}

// audit compares each umbrella balance with its unconsumed course history and
// each student total with the sum of their umbrella balances.
func audit(snap snapshot, tolerance float64) []finding {
	var findings []finding

	keys := make(map[ledgerKey]struct{}, len(snap.balances)+len(snap.history))
	for k := range snap.balances {
		keys[k] = struct{}{}
	}
	for k := range snap.history {
		keys[k] = struct{}{}
	}

	sums := make(map[string]float64, len(snap.totals))
	for k := range keys {
		balance := snap.balances[k]
		sums[k.StudentID] += balance
		if balance < -tolerance {
			findings = append(findings, finding{StudentID: k.StudentID, UmbrellaKey: k.UmbrellaKey, Kind: findingNegative, Recorded: balance})
		}
		if expected := snap.history[k]; math.Abs(balance-expected) > tolerance {
			findings = append(findings, finding{StudentID: k.StudentID, UmbrellaKey: k.UmbrellaKey, Kind: findingUmbrellaDrift, Recorded: balance, Expected: expected})
		}
	}

	for studentID, total := range snap.totals {
		if expected := sums[studentID]; math.Abs(total-expected) > tolerance {
			findings = append(findings, finding{StudentID: studentID, Kind: findingTotalDrift, Recorded: total, Expected: expected})
		}
	}
	return findings
}

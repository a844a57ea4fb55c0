package models

import "time"

// Student is the ledger view of a learner. Balances are keyed by umbrella.
type Student struct {
	ID             string             `db:"id" json:"id"`
	FullName       string             `db:"full_name" json:"fullName"`
	Email          string             `db:"email" json:"email"`
	TotalCredits   float64            `db:"total_credits" json:"totalCredits"`
	CreditBalances map[string]float64 `db:"-" json:"creditBalances"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updatedAt"`
}

// Balance returns the available credits for umbrellaKey.
func (s *Student) Balance(umbrellaKey string) float64 {
	if s == nil || s.CreditBalances == nil {
		return 0
	}
	return s.CreditBalances[umbrellaKey]
}

// CreditBalanceRow is one row of the per-umbrella balance table.
type CreditBalanceRow struct {
	StudentID   string  `db:"student_id"`
	UmbrellaKey string  `db:"umbrella_key"`
	Credits     float64 `db:"credits"`
}

// BalanceSummary is the read model returned by balance queries.
type BalanceSummary struct {
	StudentID    string             `json:"studentId"`
	TotalCredits float64            `json:"totalCredits"`
	Balances     map[string]float64 `json:"balances"`
}

// UmbrellaBalance is the balance of a single umbrella.
type UmbrellaBalance struct {
	StudentID   string  `json:"studentId"`
	UmbrellaKey string  `json:"umbrellaKey"`
	Credits     float64 `json:"credits"`
}

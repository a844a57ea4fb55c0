package models

import "time"

// ReviewerRole identifies one of the two independent approvers.
type ReviewerRole string

const (
	ReviewerPOC   ReviewerRole = "poc"
	ReviewerAdmin ReviewerRole = "admin"
)

// ApprovalStatus is derived from the two decisions; it is never set directly.
type ApprovalStatus string

const (
	ApprovalPending       ApprovalStatus = "pending"
	ApprovalPOCDeclined   ApprovalStatus = "poc_declined"
	ApprovalAdminDeclined ApprovalStatus = "admin_declined"
	ApprovalApproved      ApprovalStatus = "approved"
)

// Terminal reports whether no further decisions are accepted.
func (s ApprovalStatus) Terminal() bool {
	return s != ApprovalPending
}

// Approval holds the two-of-two decision state shared by credit requests and claims.
type Approval struct {
	PocDecision    *bool          `db:"poc_decision" json:"pocDecision"`
	PocDecidedBy   *string        `db:"poc_decided_by" json:"pocDecidedBy,omitempty"`
	PocDecidedAt   *time.Time     `db:"poc_decided_at" json:"pocDecidedAt,omitempty"`
	AdminDecision  *bool          `db:"admin_decision" json:"adminDecision"`
	AdminDecidedBy *string        `db:"admin_decided_by" json:"adminDecidedBy,omitempty"`
	AdminDecidedAt *time.Time     `db:"admin_decided_at" json:"adminDecidedAt,omitempty"`
	DeclinedReason *string        `db:"declined_reason" json:"declinedReason,omitempty"`
	Status         ApprovalStatus `db:"status" json:"status"`
}

// PocApproved reports an affirmative POC decision.
func (a Approval) PocApproved() bool {
	return a.PocDecision != nil && *a.PocDecision
}

// AdminApproved reports an affirmative Admin decision.
func (a Approval) AdminApproved() bool {
	return a.AdminDecision != nil && *a.AdminDecision
}

// DecisionOf returns the recorded decision of role, nil when undecided.
func (a Approval) DecisionOf(role ReviewerRole) *bool {
	if role == ReviewerAdmin {
		return a.AdminDecision
	}
	return a.PocDecision
}

// Derive recomputes the status from the decisions.
func (a Approval) Derive() ApprovalStatus {
	switch {
	case a.PocDecision != nil && !*a.PocDecision:
		return ApprovalPOCDeclined
	case a.AdminDecision != nil && !*a.AdminDecision:
		return ApprovalAdminDeclined
	case a.PocApproved() && a.AdminApproved():
		return ApprovalApproved
	default:
		return ApprovalPending
	}
}

// Record stores a decision for role and refreshes Status.
func (a *Approval) Record(role ReviewerRole, approve bool, actorID string, at time.Time, reason string) {
	decision := approve
	by := actorID
	ts := at
	if role == ReviewerAdmin {
		a.AdminDecision, a.AdminDecidedBy, a.AdminDecidedAt = &decision, &by, &ts
	} else {
		a.PocDecision, a.PocDecidedBy, a.PocDecidedAt = &decision, &by, &ts
	}
	if !approve && reason != "" {
		r := reason
		a.DeclinedReason = &r
	}
	a.Status = a.Derive()
}

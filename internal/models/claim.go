package models

import (
	"strings"
	"time"
)

// Qualification is the award a claim asks for.
type Qualification string

const (
	QualificationCertificate Qualification = "certificate"
	QualificationDiploma     Qualification = "diploma"
	QualificationPGDiploma   Qualification = "pg diploma"
)

// ParseQualification accepts the usual spellings ("PG-Diploma", "pg_diploma").
func ParseQualification(raw string) (Qualification, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("_", " ", "-", " ", ".", "").Replace(normalized)
	normalized = strings.Join(strings.Fields(normalized), " ")
	switch Qualification(normalized) {
	case QualificationCertificate, QualificationDiploma, QualificationPGDiploma:
		return Qualification(normalized), true
	case "pgdiploma", "postgraduate diploma", "post graduate diploma":
		return QualificationPGDiploma, true
	}
	return "", false
}

// CertificationClaim asks for a qualification in one umbrella. Claims are
// transient: finalization and declines delete the row after recording a ClaimOutcome.
type CertificationClaim struct {
	ID              string        `db:"id" json:"id"`
	StudentID       string        `db:"student_id" json:"studentId"`
	UmbrellaKey     string        `db:"umbrella_key" json:"umbrellaKey"`
	Qualification   Qualification `db:"qualification" json:"qualification"`
	RequiredCredits float64       `db:"required_credits" json:"requiredCredits"`
	SubmittedBy     string        `db:"submitted_by" json:"submittedBy"`
	CreatedAt       time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updatedAt"`
	Approval
}

// ClaimOutcome is the permanent audit snapshot of a claim's terminal decision.
// Both reviewers' decisions are kept so repeats by either role can be resolved
// after the claim row is gone.
type ClaimOutcome struct {
	ClaimID         string         `db:"claim_id" json:"claimId"`
	StudentID       string         `db:"student_id" json:"studentId"`
	UmbrellaKey     string         `db:"umbrella_key" json:"umbrellaKey"`
	Qualification   Qualification  `db:"qualification" json:"qualification"`
	RequiredCredits float64        `db:"required_credits" json:"requiredCredits"`
	Status          ApprovalStatus `db:"status" json:"status"`
	PocDecision     *bool          `db:"poc_decision" json:"pocDecision"`
	AdminDecision   *bool          `db:"admin_decision" json:"adminDecision"`
	DecidedBy       string         `db:"decided_by" json:"decidedBy"`
	DecidedRole     ReviewerRole   `db:"decided_role" json:"decidedRole"`
	DeclinedReason  *string        `db:"declined_reason" json:"declinedReason,omitempty"`
	CertificateID   *string        `db:"certificate_id" json:"certificateId,omitempty"`
	DecidedAt       time.Time      `db:"decided_at" json:"decidedAt"`
}

// Approval rebuilds the decision pair of the concluded claim. Rows written without
// the decision columns fall back to what the status implies: an Admin decision is
// only accepted after POC approval.
func (o *ClaimOutcome) Approval() Approval {
	a := Approval{PocDecision: o.PocDecision, AdminDecision: o.AdminDecision, DeclinedReason: o.DeclinedReason}
	if a.PocDecision == nil && a.AdminDecision == nil {
		yes, no := true, false
		switch o.Status {
		case ApprovalApproved:
			a.PocDecision, a.AdminDecision = &yes, &yes
		case ApprovalPOCDeclined:
			a.PocDecision = &no
		case ApprovalAdminDeclined:
			a.PocDecision, a.AdminDecision = &yes, &no
		}
	}
	a.Status = a.Derive()
	return a
}

// ClaimView is returned by claim reads: the live claim, or its outcome once it is gone.
type ClaimView struct {
	Claim       *CertificationClaim `json:"claim,omitempty"`
	Outcome     *ClaimOutcome       `json:"outcome,omitempty"`
	Certificate *Certificate        `json:"certificate,omitempty"`
}

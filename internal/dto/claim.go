package dto

import "github.com/thethakurshivam/grs-sub003/internal/models"

// SubmitClaimRequest asks for a qualification in one umbrella.
type SubmitClaimRequest struct {
	StudentID     string `json:"studentId" validate:"required"`
	Umbrella      string `json:"umbrella" validate:"required"`
	Qualification string `json:"qualification" validate:"required"`
}

// ClaimDecisionResult describes what a claim decision did.
type ClaimDecisionResult struct {
	Claim       *models.CertificationClaim       `json:"claim,omitempty"`
	Outcome     *models.ClaimOutcome             `json:"outcome,omitempty"`
	Certificate *models.Certificate              `json:"certificate,omitempty"`
	Mapping     *models.CertificateCourseMapping `json:"mapping,omitempty"`
	Finalized   bool                             `json:"finalized"`
	NoOp        bool                             `json:"noOp"`
}

// UmbrellaView lists a catalog entry with its thresholds.
type UmbrellaView struct {
	Key        string             `json:"key"`
	Name       string             `json:"name"`
	Thresholds map[string]float64 `json:"thresholds"`
}

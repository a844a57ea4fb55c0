package dto

import "github.com/thethakurshivam/grs-sub003/internal/models"

// SubmitCreditRequest is the payload for a course credit submission.
// StudentID is taken from the token for student callers.
type SubmitCreditRequest struct {
	StudentID      string  `json:"studentId" validate:"required"`
	Umbrella       string  `json:"umbrella" validate:"required"`
	Organization   string  `json:"organization" validate:"required,max=255"`
	CourseName     string  `json:"courseName" validate:"required,max=255"`
	TheoryHours    float64 `json:"theoryHours" validate:"gte=0"`
	PracticalHours float64 `json:"practicalHours" validate:"gte=0"`
	NoOfDays       int     `json:"noOfDays" validate:"gte=0"`
	DocumentRef    string  `json:"documentRef" validate:"max=1024"`
}

// DecisionRequest records one reviewer's verdict.
type DecisionRequest struct {
	Approve *bool  `json:"approve" validate:"required"`
	Reason  string `json:"reason" validate:"max=1000"`
}

// CreditRequestDecisionResult describes what a decision did.
type CreditRequestDecisionResult struct {
	Request   *models.CreditRequest      `json:"request,omitempty"`
	Entry     *models.CourseHistoryEntry `json:"entry,omitempty"`
	Finalized bool                       `json:"finalized"`
	NoOp      bool                       `json:"noOp"`
}

// ApprovalQuery mirrors supported listing filters.
type ApprovalQuery struct {
	Queue     models.ReviewQueue
	StudentID string
	Umbrella  string
	Status    []models.ApprovalStatus
	Page      int
	PageSize  int
}

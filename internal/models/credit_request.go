package models

import "time"

// CreditRequest is a submitted course awaiting POC and Admin approval.
// Approved requests are deleted once materialised into course history.
type CreditRequest struct {
	ID                string    `db:"id" json:"id"`
	StudentID         string    `db:"student_id" json:"studentId"`
	UmbrellaKey       string    `db:"umbrella_key" json:"umbrellaKey"`
	Organization      string    `db:"organization" json:"organization"`
	CourseName        string    `db:"course_name" json:"courseName"`
	TheoryHours       float64   `db:"theory_hours" json:"theoryHours"`
	PracticalHours    float64   `db:"practical_hours" json:"practicalHours"`
	TotalHours        float64   `db:"total_hours" json:"totalHours"`
	NoOfDays          int       `db:"no_of_days" json:"noOfDays"`
	CalculatedCredits float64   `db:"calculated_credits" json:"calculatedCredits"`
	DocumentRef       string    `db:"document_ref" json:"documentRef"`
	SubmittedBy       string    `db:"submitted_by" json:"submittedBy"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
	Approval
}

// ReviewQueue selects the records awaiting a given reviewer.
type ReviewQueue string

const (
	QueuePOC   ReviewQueue = "poc"
	QueueAdmin ReviewQueue = "admin"
)

// ApprovalFilter constrains request and claim listings.
type ApprovalFilter struct {
	Queue       ReviewQueue
	StudentID   string
	UmbrellaKey string
	Umbrellas   []string
	Status      []ApprovalStatus
	Limit       int
	Offset      int
}

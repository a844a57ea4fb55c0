package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Certificate is the permanent artefact of an approved claim.
type Certificate struct {
	ID              string        `db:"id" json:"id"`
	StudentID       string        `db:"student_id" json:"studentId"`
	UmbrellaKey     string        `db:"umbrella_key" json:"umbrellaKey"`
	Qualification   Qualification `db:"qualification" json:"qualification"`
	ClaimID         string        `db:"claim_id" json:"claimId"`
	CertificateNo   string        `db:"certificate_no" json:"certificateNo"`
	SequenceNo      int           `db:"sequence_no" json:"sequenceNo"`
	CreditsConsumed float64       `db:"credits_consumed" json:"creditsConsumed"`
	IssuedAt        time.Time     `db:"issued_at" json:"issuedAt"`
}

// CertificateNumber formats the per-umbrella sequential certificate number.
func CertificateNumber(umbrellaKey string, seq int) string {
	return fmt.Sprintf("rru_%s_%d", umbrellaKey, seq)
}

// CertificateCourse is one course attributed to a certificate.
type CertificateCourse struct {
	CourseHistoryEntryID string    `json:"courseHistoryEntryId"`
	CourseName           string    `json:"courseName"`
	Organization         string    `json:"organization"`
	TheoryHours          float64   `json:"theoryHours"`
	PracticalHours       float64   `json:"practicalHours"`
	TotalCredits         float64   `json:"totalCredits"`
	CreditsUsed          float64   `json:"creditsUsed"`
	CompletionDate       time.Time `json:"completionDate"`
}

// CertificateCourses is stored as a JSONB array.
type CertificateCourses []CertificateCourse

// Value implements driver.Valuer.
func (c CertificateCourses) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *CertificateCourses) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*c = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported certificate courses type %T", src)
	}
	return json.Unmarshal(raw, c)
}

// CreditsUsed sums the credits attributed across courses.
func (c CertificateCourses) CreditsUsed() float64 {
	var total float64
	for _, course := range c {
		total += course.CreditsUsed
	}
	return total
}

// CertificateCourseMapping attributes consumed course history to a certificate.
type CertificateCourseMapping struct {
	ID                   string             `db:"id" json:"id"`
	CertificateID        string             `db:"certificate_id" json:"certificateId"`
	StudentID            string             `db:"student_id" json:"studentId"`
	UmbrellaKey          string             `db:"umbrella_key" json:"umbrellaKey"`
	Qualification        Qualification      `db:"qualification" json:"qualification"`
	TotalCreditsRequired float64            `db:"total_credits_required" json:"totalCreditsRequired"`
	Courses              CertificateCourses `db:"courses" json:"courses"`
	CreatedAt            time.Time          `db:"created_at" json:"createdAt"`
}

// CertificateDetail bundles a certificate with its course attribution.
type CertificateDetail struct {
	Certificate
	Mapping          *CertificateCourseMapping `json:"mapping,omitempty"`
	VerificationCode string                    `json:"verificationCode,omitempty"`
}

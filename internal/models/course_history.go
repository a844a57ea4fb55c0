package models

import "time"

// CourseHistoryEntry is one credit-earning event. Only the contribution fields
// change after insert, and only once.
type CourseHistoryEntry struct {
	ID                       string    `db:"id" json:"id"`
	Seq                      int64     `db:"seq" json:"-"`
	StudentID                string    `db:"student_id" json:"studentId"`
	UmbrellaKey              string    `db:"umbrella_key" json:"umbrellaKey"`
	Name                     string    `db:"name" json:"name"`
	Organization             string    `db:"organization" json:"organization"`
	TheoryHours              float64   `db:"theory_hours" json:"theoryHours"`
	PracticalHours           float64   `db:"practical_hours" json:"practicalHours"`
	TheoryCredits            float64   `db:"theory_credits" json:"theoryCredits"`
	PracticalCredits         float64   `db:"practical_credits" json:"practicalCredits"`
	CreditsEarned            float64   `db:"credits_earned" json:"creditsEarned"`
	RunningCount             float64   `db:"running_count" json:"runningCount"`
	SourceRequestID          *string   `db:"source_request_id" json:"sourceRequestId,omitempty"`
	CertificateContributed   bool      `db:"certificate_contributed" json:"certificateContributed"`
	ContributedCertificateID *string   `db:"contributed_certificate_id" json:"-"`
	CreditsContributed       *float64  `db:"credits_contributed" json:"-"`
	IsRemainingSplit         bool      `db:"is_remaining_split" json:"isRemainingSplit"`
	OriginalEntryID          *string   `db:"original_entry_id" json:"originalEntryId,omitempty"`
	EarnedAt                 time.Time `db:"earned_at" json:"earnedAt"`
	CreatedAt                time.Time `db:"created_at" json:"createdAt"`

	Contribution *Contribution `db:"-" json:"contribution,omitempty"`
}

// Contribution records how much of an entry a certificate consumed.
type Contribution struct {
	CertificateID      string  `json:"certificateId"`
	CreditsContributed float64 `json:"creditsContributed"`
	IsRemainingSplit   bool    `json:"isRemainingSplit"`
	OriginalEntryID    *string `json:"originalEntryId,omitempty"`
}

// Hydrate fills the Contribution view from the flat columns.
func (e *CourseHistoryEntry) Hydrate() {
	if !e.CertificateContributed || e.ContributedCertificateID == nil {
		e.Contribution = nil
		return
	}
	credits := e.CreditsEarned
	if e.CreditsContributed != nil {
		credits = *e.CreditsContributed
	}
	e.Contribution = &Contribution{
		CertificateID:      *e.ContributedCertificateID,
		CreditsContributed: credits,
		IsRemainingSplit:   e.IsRemainingSplit,
		OriginalEntryID:    e.OriginalEntryID,
	}
}

package models

import "time"

// EventType names a workflow transition emitted to external consumers.
type EventType string

const (
	EventCreditRequestSubmitted   EventType = "credit_request.submitted"
	EventCreditRequestPOCApproved EventType = "credit_request.poc_approved"
	EventCreditRequestDeclined    EventType = "credit_request.declined"
	EventCreditRequestApproved    EventType = "credit_request.approved"
	EventClaimSubmitted           EventType = "claim.submitted"
	EventClaimPOCApproved         EventType = "claim.poc_approved"
	EventClaimDeclined            EventType = "claim.declined"
	EventCertificateIssued        EventType = "certificate.issued"
)

// Event is published after the owning transaction commits. CorrelationID is the
// request ID of the HTTP call that caused the transition.
type Event struct {
	ID            string                 `json:"id"`
	Type          EventType              `json:"type"`
	StudentID     string                 `json:"studentId"`
	UmbrellaKey   string                 `json:"umbrellaKey"`
	ResourceID    string                 `json:"resourceId"`
	ActorID       string                 `json:"actorId,omitempty"`
	ActorRole     ReviewerRole           `json:"actorRole,omitempty"`
	CorrelationID string                 `json:"correlationId,omitempty"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
	OccurredAt    time.Time              `json:"occurredAt"`
}

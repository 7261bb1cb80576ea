package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestKind distinguishes the two admission workflows.
type RequestKind string

const (
	KindMembership      RequestKind = "MEMBERSHIP"
	KindTournamentEntry RequestKind = "TOURNAMENT_ENTRY"
)

// RequestStatus is the state of an admission request. PENDING is the
// only non-terminal state; a request transitions exactly once.
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusApproved RequestStatus = "APPROVED"
	StatusRejected RequestStatus = "REJECTED"
)

// Outcome is a reviewer's verdict on a pending request.
type Outcome string

const (
	OutcomeApproved Outcome = "APPROVED"
	OutcomeRejected Outcome = "REJECTED"
)

// Valid reports whether o is a recognized decision outcome.
func (o Outcome) Valid() bool {
	return o == OutcomeApproved || o == OutcomeRejected
}

// AdmissionRequest records one user's intent to join a resource (the
// club itself, or a tournament slot). Requests are permanent audit
// history: they are created via apply, decided exactly once, and never
// deleted.
type AdmissionRequest struct {
	ID              uuid.UUID     `json:"request_id"`
	ResourceID      uuid.UUID     `json:"resource_id"`
	ApplicantID     uuid.UUID     `json:"applicant_id"`
	Kind            RequestKind   `json:"kind"`
	Status          RequestStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	DecidedAt       *time.Time    `json:"decided_at,omitempty"`
	DecidedBy       *uuid.UUID    `json:"decided_by,omitempty"`
	DecisionComment string        `json:"decision_comment,omitempty"`
}

// Terminal reports whether the request has been decided.
func (r *AdmissionRequest) Terminal() bool {
	return r.Status == StatusApproved || r.Status == StatusRejected
}

// RequestWithApplicant is an admission request joined with the
// applicant's display fields, for review queues and rosters.
type RequestWithApplicant struct {
	AdmissionRequest
	Applicant UserPublic `json:"applicant"`
}

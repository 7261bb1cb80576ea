// Package admission implements the club's admission control engine:
// the request state machine that turns membership and tournament-entry
// applications into durable decisions under a participant quota.
package admission

import "errors"

// Engine errors. All are client-correctable and map onto a fixed set of
// HTTP statuses in the handler; only ErrStorageTimeout is retryable.
var (
	// Not found (404)
	ErrResourceNotFound = errors.New("resource not found")
	ErrRequestNotFound  = errors.New("request not found")

	// Conflict (409)
	ErrDuplicateRequest = errors.New("an application for this resource is already pending")
	ErrAlreadyAdmitted  = errors.New("applicant has already been admitted to this resource")
	ErrAlreadyMember    = errors.New("applicant already holds membership")
	ErrNotAccepting     = errors.New("resource is not accepting applications")
	ErrKindMismatch     = errors.New("request kind does not match resource")

	// Invalid state (422): decisions are one-shot.
	ErrAlreadyDecided = errors.New("request has already been decided")
	ErrInvalidOutcome = errors.New("invalid decision outcome")

	// Forbidden (403)
	ErrNotAuthorized = errors.New("not authorized to decide for this resource")

	// Transient (503). Safe to retry apply unconditionally; retry decide
	// only after confirming via GetRequest that the prior attempt did not
	// commit.
	ErrStorageTimeout = errors.New("storage operation timed out")
)

// IsConflict reports whether err is one of the conflict-class errors.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateRequest) ||
		errors.Is(err, ErrAlreadyAdmitted) ||
		errors.Is(err, ErrAlreadyMember) ||
		errors.Is(err, ErrNotAccepting) ||
		errors.Is(err, ErrKindMismatch)
}

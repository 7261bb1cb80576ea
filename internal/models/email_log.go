package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailLog records a decision email processed by the worker.
type EmailLog struct {
	ID             uuid.UUID `json:"id"`
	RequestID      uuid.UUID `json:"request_id"`
	RecipientEmail string    `json:"recipient_email"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	Status         string    `json:"status"` // sent | failed
	CreatedAt      time.Time `json:"created_at"`
}

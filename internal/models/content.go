package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType categorizes club documents.
type DocumentType string

const (
	DocBylaw   DocumentType = "BCN_BYLAW"
	DocGuide   DocumentType = "GUIDE"
	DocMinutes DocumentType = "MINUTES"
)

// Valid reports whether t is a recognized document type.
func (t DocumentType) Valid() bool {
	switch t {
	case DocBylaw, DocGuide, DocMinutes:
		return true
	}
	return false
}

// Document is a club document entry in the info center.
type Document struct {
	ID        uuid.UUID    `json:"id"`
	Title     string       `json:"title"`
	Type      DocumentType `json:"type"`
	AuthorID  uuid.UUID    `json:"author_id"`
	CreatedAt time.Time    `json:"created_at"`
}

// Notification is a club announcement in the info center.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  uuid.UUID `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

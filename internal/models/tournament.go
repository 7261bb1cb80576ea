package models

import (
	"time"

	"github.com/google/uuid"
)

// TournamentStatus is the lifecycle state of a tournament. Entry
// applications are accepted only while the status is open.
type TournamentStatus string

const (
	TournamentDraft    TournamentStatus = "draft"
	TournamentOpen     TournamentStatus = "open"
	TournamentStarted  TournamentStatus = "started"
	TournamentFinished TournamentStatus = "finished"
	TournamentCanceled TournamentStatus = "canceled"
)

// Valid reports whether s is a recognized tournament status.
func (s TournamentStatus) Valid() bool {
	switch s {
	case TournamentDraft, TournamentOpen, TournamentStarted, TournamentFinished, TournamentCanceled:
		return true
	}
	return false
}

// Tournament is a club event with a fixed participant quota. The
// tournament row doubles as the capacity-bearing resource of the
// admission engine: current_participants is mutated only by the
// engine's approval path.
type Tournament struct {
	ID                  uuid.UUID        `json:"id"`
	Title               string           `json:"title"`
	Description         string           `json:"description"`
	Location            string           `json:"location,omitempty"`
	StartsAt            time.Time        `json:"starts_at"`
	MaxParticipants     int              `json:"max_participants"`
	CurrentParticipants int              `json:"current_participants"`
	Status              TournamentStatus `json:"status"`
	CreatedBy           uuid.UUID        `json:"created_by"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// ResourceKind distinguishes the admission engine's resource variants.
type ResourceKind string

const (
	ResourceClubMembership ResourceKind = "club_membership"
	ResourceTournamentSlot ResourceKind = "tournament_slot"
)

// Resource is the admission engine's view of something that can be
// joined. Club membership is a singleton resource with unbounded
// capacity; tournament slots carry a quota and an owner.
type Resource struct {
	ID                  uuid.UUID    `json:"id"`
	Kind                ResourceKind `json:"kind"`
	MaxParticipants     int          `json:"max_participants,omitempty"` // 0 = unbounded
	CurrentParticipants int          `json:"current_participants"`
	AcceptanceOpen      bool         `json:"acceptance_open"`
	OwnerID             uuid.UUID    `json:"owner_id,omitempty"`
}

// CapacityBound reports whether the resource enforces a quota.
func (r *Resource) CapacityBound() bool {
	return r.Kind == ResourceTournamentSlot
}

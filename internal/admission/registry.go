package admission

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bcn-golf/backend/internal/models"
)

// ClubResourceID is the well-known ID of the singleton club membership
// resource. It has no backing row; the registry synthesizes it.
var ClubResourceID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so
// registry statements can run standalone or inside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Registry exposes capacity-bearing resources (tournament slots) and
// the club membership singleton to the admission controller.
type Registry struct {
	pool *pgxpool.Pool
}

// NewRegistry creates a resource registry.
func NewRegistry(pool *pgxpool.Pool) *Registry {
	return &Registry{pool: pool}
}

// GetResource returns the admission view of a resource.
func (r *Registry) GetResource(ctx context.Context, id uuid.UUID) (*models.Resource, error) {
	if id == ClubResourceID {
		return &models.Resource{
			ID:             ClubResourceID,
			Kind:           models.ResourceClubMembership,
			AcceptanceOpen: true,
		}, nil
	}

	const q = `SELECT id, max_participants, current_participants, status, created_by
		FROM tournaments WHERE id = $1`
	var (
		res    models.Resource
		status models.TournamentStatus
	)
	err := r.pool.QueryRow(ctx, q, id).Scan(&res.ID, &res.MaxParticipants, &res.CurrentParticipants, &status, &res.OwnerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, err
	}
	res.Kind = models.ResourceTournamentSlot
	res.AcceptanceOpen = status == models.TournamentOpen
	return &res, nil
}

// IsAcceptingApplications is the advisory pre-check used at apply time.
// It gives fast feedback only; the authoritative capacity gate is
// IncrementOccupancy at decision time.
func (r *Registry) IsAcceptingApplications(res *models.Resource) bool {
	if !res.CapacityBound() {
		return true
	}
	return res.AcceptanceOpen && res.CurrentParticipants < res.MaxParticipants
}

// IncrementOccupancy atomically claims one slot on the resource. It
// returns false without mutating anything if capacity is already full.
// This conditional update is the single authoritative admission gate.
func (r *Registry) IncrementOccupancy(ctx context.Context, resourceID uuid.UUID) (bool, error) {
	return incrementOccupancy(ctx, r.pool, resourceID)
}

// incrementOccupancy runs the check-and-increment as one statement so
// no two callers can act on a stale occupancy value. The store invokes
// it with the approval transaction so the slot claim and the status
// flip commit or roll back together.
func incrementOccupancy(ctx context.Context, db querier, resourceID uuid.UUID) (bool, error) {
	const q = `UPDATE tournaments
		SET current_participants = current_participants + 1, updated_at = NOW()
		WHERE id = $1 AND current_participants < max_participants`
	tag, err := db.Exec(ctx, q, resourceID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

package admission

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bcn-golf/backend/internal/models"
)

// Resolver derives a user's effective role from the administrator
// roster and the approved membership history. Roles are recomputed on
// every call; there is no stored role column to drift from the request
// history.
type Resolver struct {
	pool *pgxpool.Pool
}

// NewResolver creates a role resolver.
func NewResolver(pool *pgxpool.Pool) *Resolver {
	return &Resolver{pool: pool}
}

// ResolveRole returns the user's current role. ADMIN comes from the
// admins roster; MEMBER from any approved membership request; else GUEST.
func (r *Resolver) ResolveRole(ctx context.Context, userID uuid.UUID) (models.Role, error) {
	const q = `SELECT
		EXISTS(SELECT 1 FROM admins WHERE user_id = $1),
		EXISTS(SELECT 1 FROM admission_requests
			WHERE applicant_id = $1 AND kind = 'MEMBERSHIP' AND status = 'APPROVED')`
	var isAdmin, isMember bool
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&isAdmin, &isMember); err != nil {
		return "", err
	}
	switch {
	case isAdmin:
		return models.RoleAdmin, nil
	case isMember:
		return models.RoleMember, nil
	default:
		return models.RoleGuest, nil
	}
}

// GrantAdmin adds a user to the administrator roster. Used by the
// startup bootstrap for configured admin emails.
func (r *Resolver) GrantAdmin(ctx context.Context, userID uuid.UUID) error {
	const q = `INSERT INTO admins (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, userID)
	return err
}

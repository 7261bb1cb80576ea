package admission

import (
	"context"

	"github.com/google/uuid"

	"github.com/bcn-golf/backend/internal/models"
)

// Gate decides who may decide admission requests for a resource:
// club administrators for membership, the tournament owner or an
// administrator for tournament entries.
type Gate struct {
	roles RoleResolver
}

// NewGate creates an authorization gate over a role resolver.
func NewGate(roles RoleResolver) *Gate {
	return &Gate{roles: roles}
}

// CanDecide reports whether deciderID may decide requests targeting res.
func (g *Gate) CanDecide(ctx context.Context, deciderID uuid.UUID, res *models.Resource) (bool, error) {
	role, err := g.roles.ResolveRole(ctx, deciderID)
	if err != nil {
		return false, err
	}
	if role == models.RoleAdmin {
		return true, nil
	}
	if res.Kind == models.ResourceTournamentSlot && deciderID == res.OwnerID {
		return true, nil
	}
	return false, nil
}

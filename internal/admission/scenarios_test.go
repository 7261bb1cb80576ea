package admission

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcn-golf/backend/internal/models"
)

// historyRoles derives MEMBER from the approved membership requests in
// the backing store, the same rule the SQL resolver applies.
func historyRoles(store *memEntryStore) *fakeRoles {
	return &fakeRoles{resolve: func(_ context.Context, userID uuid.UUID) (models.Role, error) {
		store.mu.Lock()
		defer store.mu.Unlock()
		for _, r := range store.requests {
			if r.ApplicantID == userID && r.Kind == models.KindMembership && r.Status == models.StatusApproved {
				return models.RoleMember, nil
			}
		}
		return models.RoleGuest, nil
	}}
}

func TestMembershipApprovalChangesRole(t *testing.T) {
	admin := uuid.New()
	applicant := uuid.New()

	store := newMemEntryStore(0)
	roles := historyRoles(store)
	c := newTestController(store, clubRegistry(), roles, allowAll())

	role, err := c.ResolveRole(context.Background(), applicant)
	require.NoError(t, err)
	require.Equal(t, models.RoleGuest, role)

	req, err := c.ApplyMembership(context.Background(), applicant)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, req.Status)

	_, err = c.Decide(context.Background(), admin, req.ID, models.OutcomeApproved, "welcome aboard")
	require.NoError(t, err)

	role, err = c.ResolveRole(context.Background(), applicant)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, role)

	// An admitted member cannot file another membership application.
	_, err = c.ApplyMembership(context.Background(), applicant)
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestSequentialApprovalsFillTheQuota(t *testing.T) {
	tournamentID := uuid.New()
	owner := uuid.New()

	store := newMemEntryStore(2)
	c := newTestController(store, store.registry(tournamentID, owner), staticRoles(models.RoleMember), allowAll())

	first, err := c.Apply(context.Background(), uuid.New(), tournamentID, models.KindTournamentEntry)
	require.NoError(t, err)
	second, err := c.Apply(context.Background(), uuid.New(), tournamentID, models.KindTournamentEntry)
	require.NoError(t, err)

	for _, id := range []uuid.UUID{first.ID, second.ID} {
		out, err := c.Decide(context.Background(), owner, id, models.OutcomeApproved, "")
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, out.Status)
	}
	assert.Equal(t, 2, store.current)

	// The quota is full; a third hopeful is turned away at apply time.
	_, err = c.Apply(context.Background(), uuid.New(), tournamentID, models.KindTournamentEntry)
	assert.ErrorIs(t, err, ErrNotAccepting)
}

func TestDoubleApplyWithoutDecision(t *testing.T) {
	tournamentID := uuid.New()
	applicant := uuid.New()

	store := newMemEntryStore(8)
	c := newTestController(store, store.registry(tournamentID, uuid.New()), staticRoles(models.RoleMember), allowAll())

	_, err := c.Apply(context.Background(), applicant, tournamentID, models.KindTournamentEntry)
	require.NoError(t, err)

	_, err = c.Apply(context.Background(), applicant, tournamentID, models.KindTournamentEntry)
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestReapplyAfterRejection(t *testing.T) {
	tournamentID := uuid.New()
	applicant := uuid.New()
	owner := uuid.New()

	store := newMemEntryStore(8)
	c := newTestController(store, store.registry(tournamentID, owner), staticRoles(models.RoleMember), allowAll())

	first, err := c.Apply(context.Background(), applicant, tournamentID, models.KindTournamentEntry)
	require.NoError(t, err)

	_, err = c.Decide(context.Background(), owner, first.ID, models.OutcomeRejected, "roster full for your flight")
	require.NoError(t, err)

	// Rejection is not a ban: a fresh application goes through and the
	// rejected one stays in the history untouched.
	second, err := c.Apply(context.Background(), applicant, tournamentID, models.KindTournamentEntry)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, models.StatusPending, second.Status)

	old, err := c.GetRequest(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, old.Status)
}

func TestReapplyAfterApprovalIsBlocked(t *testing.T) {
	tournamentID := uuid.New()
	applicant := uuid.New()
	owner := uuid.New()

	store := newMemEntryStore(8)
	c := newTestController(store, store.registry(tournamentID, owner), staticRoles(models.RoleMember), allowAll())

	first, err := c.Apply(context.Background(), applicant, tournamentID, models.KindTournamentEntry)
	require.NoError(t, err)
	_, err = c.Decide(context.Background(), owner, first.ID, models.OutcomeApproved, "")
	require.NoError(t, err)

	_, err = c.Apply(context.Background(), applicant, tournamentID, models.KindTournamentEntry)
	assert.ErrorIs(t, err, ErrAlreadyAdmitted)
	assert.True(t, IsConflict(err))
}

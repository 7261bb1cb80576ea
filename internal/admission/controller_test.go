package admission

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcn-golf/backend/internal/models"
)

type fakeStore struct {
	findActive     func(ctx context.Context, resourceID, applicantID uuid.UUID) (*models.AdmissionRequest, error)
	create         func(ctx context.Context, resourceID, applicantID uuid.UUID, kind models.RequestKind) (*models.AdmissionRequest, error)
	get            func(ctx context.Context, requestID uuid.UUID) (*models.AdmissionRequest, error)
	decide         func(ctx context.Context, requestID uuid.UUID, outcome models.Outcome, deciderID uuid.UUID, comment string) (*models.AdmissionRequest, error)
	approveEntry   func(ctx context.Context, requestID, resourceID, deciderID uuid.UUID, comment string) (*models.AdmissionRequest, error)
	listByResource func(ctx context.Context, resourceID uuid.UUID, status *models.RequestStatus) ([]models.RequestWithApplicant, error)
}

func (f *fakeStore) FindActive(ctx context.Context, resourceID, applicantID uuid.UUID) (*models.AdmissionRequest, error) {
	return f.findActive(ctx, resourceID, applicantID)
}

func (f *fakeStore) Create(ctx context.Context, resourceID, applicantID uuid.UUID, kind models.RequestKind) (*models.AdmissionRequest, error) {
	return f.create(ctx, resourceID, applicantID, kind)
}

func (f *fakeStore) Get(ctx context.Context, requestID uuid.UUID) (*models.AdmissionRequest, error) {
	return f.get(ctx, requestID)
}

func (f *fakeStore) Decide(ctx context.Context, requestID uuid.UUID, outcome models.Outcome, deciderID uuid.UUID, comment string) (*models.AdmissionRequest, error) {
	return f.decide(ctx, requestID, outcome, deciderID, comment)
}

func (f *fakeStore) ApproveEntry(ctx context.Context, requestID, resourceID, deciderID uuid.UUID, comment string) (*models.AdmissionRequest, error) {
	return f.approveEntry(ctx, requestID, resourceID, deciderID, comment)
}

func (f *fakeStore) ListByResource(ctx context.Context, resourceID uuid.UUID, status *models.RequestStatus) ([]models.RequestWithApplicant, error) {
	return f.listByResource(ctx, resourceID, status)
}

type fakeRegistry struct {
	getResource func(ctx context.Context, id uuid.UUID) (*models.Resource, error)
	accepting   func(res *models.Resource) bool
}

func (f *fakeRegistry) GetResource(ctx context.Context, id uuid.UUID) (*models.Resource, error) {
	return f.getResource(ctx, id)
}

func (f *fakeRegistry) IsAcceptingApplications(res *models.Resource) bool {
	if f.accepting != nil {
		return f.accepting(res)
	}
	return (&Registry{}).IsAcceptingApplications(res)
}

type fakeRoles struct {
	resolve func(ctx context.Context, userID uuid.UUID) (models.Role, error)
}

func (f *fakeRoles) ResolveRole(ctx context.Context, userID uuid.UUID) (models.Role, error) {
	return f.resolve(ctx, userID)
}

type fakeGate struct {
	canDecide func(ctx context.Context, deciderID uuid.UUID, res *models.Resource) (bool, error)
}

func (f *fakeGate) CanDecide(ctx context.Context, deciderID uuid.UUID, res *models.Resource) (bool, error) {
	return f.canDecide(ctx, deciderID, res)
}

func staticRoles(role models.Role) *fakeRoles {
	return &fakeRoles{resolve: func(context.Context, uuid.UUID) (models.Role, error) { return role, nil }}
}

func allowAll() *fakeGate {
	return &fakeGate{canDecide: func(context.Context, uuid.UUID, *models.Resource) (bool, error) { return true, nil }}
}

func clubRegistry() *fakeRegistry {
	return &fakeRegistry{getResource: func(_ context.Context, id uuid.UUID) (*models.Resource, error) {
		if id != ClubResourceID {
			return nil, ErrResourceNotFound
		}
		return &models.Resource{ID: ClubResourceID, Kind: models.ResourceClubMembership, AcceptanceOpen: true}, nil
	}}
}

func tournamentRegistry(res *models.Resource) *fakeRegistry {
	return &fakeRegistry{getResource: func(_ context.Context, id uuid.UUID) (*models.Resource, error) {
		if id != res.ID {
			return nil, ErrResourceNotFound
		}
		return res, nil
	}}
}

func newTestController(store RequestStore, registry ResourceRegistry, roles RoleResolver, gate DecisionGate) *Controller {
	return NewController(store, registry, roles, gate, nil, time.Second)
}

func TestApplyMembership(t *testing.T) {
	applicant := uuid.New()

	t.Run("guest files a pending application", func(t *testing.T) {
		store := &fakeStore{
			findActive: func(context.Context, uuid.UUID, uuid.UUID) (*models.AdmissionRequest, error) { return nil, nil },
			create: func(_ context.Context, resourceID, applicantID uuid.UUID, kind models.RequestKind) (*models.AdmissionRequest, error) {
				return &models.AdmissionRequest{
					ID: uuid.New(), ResourceID: resourceID, ApplicantID: applicantID,
					Kind: kind, Status: models.StatusPending, CreatedAt: time.Now(),
				}, nil
			},
		}
		c := newTestController(store, clubRegistry(), staticRoles(models.RoleGuest), allowAll())

		req, err := c.ApplyMembership(context.Background(), applicant)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, req.Status)
		assert.Equal(t, models.KindMembership, req.Kind)
		assert.Equal(t, ClubResourceID, req.ResourceID)
		assert.Equal(t, applicant, req.ApplicantID)
		assert.Nil(t, req.DecidedAt)
	})

	t.Run("member cannot reapply", func(t *testing.T) {
		c := newTestController(&fakeStore{}, clubRegistry(), staticRoles(models.RoleMember), allowAll())
		_, err := c.ApplyMembership(context.Background(), applicant)
		assert.ErrorIs(t, err, ErrAlreadyMember)
	})

	t.Run("admin cannot reapply", func(t *testing.T) {
		c := newTestController(&fakeStore{}, clubRegistry(), staticRoles(models.RoleAdmin), allowAll())
		_, err := c.ApplyMembership(context.Background(), applicant)
		assert.ErrorIs(t, err, ErrAlreadyMember)
	})

	t.Run("second application while one is pending", func(t *testing.T) {
		store := &fakeStore{
			findActive: func(context.Context, uuid.UUID, uuid.UUID) (*models.AdmissionRequest, error) {
				return &models.AdmissionRequest{ID: uuid.New(), Status: models.StatusPending}, nil
			},
		}
		c := newTestController(store, clubRegistry(), staticRoles(models.RoleGuest), allowAll())
		_, err := c.ApplyMembership(context.Background(), applicant)
		assert.ErrorIs(t, err, ErrDuplicateRequest)
		assert.True(t, IsConflict(err))
	})
}

func TestApplyTournament(t *testing.T) {
	applicant := uuid.New()
	tournamentID := uuid.New()

	openResource := func(cur, max int) *models.Resource {
		return &models.Resource{
			ID: tournamentID, Kind: models.ResourceTournamentSlot,
			MaxParticipants: max, CurrentParticipants: cur,
			AcceptanceOpen: true, OwnerID: uuid.New(),
		}
	}

	t.Run("entry filed while slots remain", func(t *testing.T) {
		store := &fakeStore{
			findActive: func(context.Context, uuid.UUID, uuid.UUID) (*models.AdmissionRequest, error) { return nil, nil },
			create: func(_ context.Context, resourceID, applicantID uuid.UUID, kind models.RequestKind) (*models.AdmissionRequest, error) {
				return &models.AdmissionRequest{
					ID: uuid.New(), ResourceID: resourceID, ApplicantID: applicantID,
					Kind: kind, Status: models.StatusPending,
				}, nil
			},
		}
		c := newTestController(store, tournamentRegistry(openResource(2, 8)), staticRoles(models.RoleMember), allowAll())

		req, err := c.Apply(context.Background(), applicant, tournamentID, models.KindTournamentEntry)
		require.NoError(t, err)
		assert.Equal(t, models.KindTournamentEntry, req.Kind)
		assert.Equal(t, models.StatusPending, req.Status)
	})

	t.Run("full tournament turns applicants away", func(t *testing.T) {
		c := newTestController(&fakeStore{}, tournamentRegistry(openResource(8, 8)), staticRoles(models.RoleMember), allowAll())
		_, err := c.Apply(context.Background(), applicant, tournamentID, models.KindTournamentEntry)
		assert.ErrorIs(t, err, ErrNotAccepting)
	})

	t.Run("closed tournament turns applicants away", func(t *testing.T) {
		res := openResource(0, 8)
		res.AcceptanceOpen = false
		c := newTestController(&fakeStore{}, tournamentRegistry(res), staticRoles(models.RoleMember), allowAll())
		_, err := c.Apply(context.Background(), applicant, tournamentID, models.KindTournamentEntry)
		assert.ErrorIs(t, err, ErrNotAccepting)
	})

	t.Run("unknown tournament", func(t *testing.T) {
		c := newTestController(&fakeStore{}, tournamentRegistry(openResource(0, 8)), staticRoles(models.RoleMember), allowAll())
		_, err := c.Apply(context.Background(), applicant, uuid.New(), models.KindTournamentEntry)
		assert.ErrorIs(t, err, ErrResourceNotFound)
	})

	t.Run("membership kind against a tournament resource", func(t *testing.T) {
		c := newTestController(&fakeStore{}, tournamentRegistry(openResource(0, 8)), staticRoles(models.RoleGuest), allowAll())
		_, err := c.Apply(context.Background(), applicant, tournamentID, models.KindMembership)
		assert.ErrorIs(t, err, ErrKindMismatch)
	})
}

func TestDecide(t *testing.T) {
	decider := uuid.New()
	requestID := uuid.New()
	tournamentID := uuid.New()

	pendingMembership := func() *models.AdmissionRequest {
		return &models.AdmissionRequest{
			ID: requestID, ResourceID: ClubResourceID, ApplicantID: uuid.New(),
			Kind: models.KindMembership, Status: models.StatusPending,
		}
	}
	pendingEntry := func() *models.AdmissionRequest {
		return &models.AdmissionRequest{
			ID: requestID, ResourceID: tournamentID, ApplicantID: uuid.New(),
			Kind: models.KindTournamentEntry, Status: models.StatusPending,
		}
	}

	t.Run("invalid outcome", func(t *testing.T) {
		c := newTestController(&fakeStore{}, clubRegistry(), staticRoles(models.RoleAdmin), allowAll())
		_, err := c.Decide(context.Background(), decider, requestID, models.Outcome("MAYBE"), "")
		assert.ErrorIs(t, err, ErrInvalidOutcome)
	})

	t.Run("unknown request", func(t *testing.T) {
		store := &fakeStore{
			get: func(context.Context, uuid.UUID) (*models.AdmissionRequest, error) { return nil, ErrRequestNotFound },
		}
		c := newTestController(store, clubRegistry(), staticRoles(models.RoleAdmin), allowAll())
		_, err := c.Decide(context.Background(), decider, requestID, models.OutcomeApproved, "")
		assert.ErrorIs(t, err, ErrRequestNotFound)
	})

	t.Run("decided requests are immutable", func(t *testing.T) {
		for _, status := range []models.RequestStatus{models.StatusApproved, models.StatusRejected} {
			req := pendingMembership()
			req.Status = status
			store := &fakeStore{
				get: func(context.Context, uuid.UUID) (*models.AdmissionRequest, error) { return req, nil },
			}
			c := newTestController(store, clubRegistry(), staticRoles(models.RoleAdmin), allowAll())
			_, err := c.Decide(context.Background(), decider, requestID, models.OutcomeRejected, "again")
			assert.ErrorIs(t, err, ErrAlreadyDecided, "status %s", status)
		}
	})

	t.Run("gate refusal", func(t *testing.T) {
		store := &fakeStore{
			get: func(context.Context, uuid.UUID) (*models.AdmissionRequest, error) { return pendingMembership(), nil },
		}
		deny := &fakeGate{canDecide: func(context.Context, uuid.UUID, *models.Resource) (bool, error) { return false, nil }}
		c := newTestController(store, clubRegistry(), staticRoles(models.RoleMember), deny)
		_, err := c.Decide(context.Background(), decider, requestID, models.OutcomeApproved, "")
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("membership approval does not touch occupancy", func(t *testing.T) {
		decided := false
		store := &fakeStore{
			get: func(context.Context, uuid.UUID) (*models.AdmissionRequest, error) { return pendingMembership(), nil },
			decide: func(_ context.Context, id uuid.UUID, outcome models.Outcome, deciderID uuid.UUID, comment string) (*models.AdmissionRequest, error) {
				decided = true
				req := pendingMembership()
				req.Status = models.StatusApproved
				req.DecidedBy = &deciderID
				req.DecisionComment = comment
				now := time.Now()
				req.DecidedAt = &now
				return req, nil
			},
			approveEntry: func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, string) (*models.AdmissionRequest, error) {
				t.Fatal("membership approval must not go through the capacity path")
				return nil, nil
			},
		}
		c := newTestController(store, clubRegistry(), staticRoles(models.RoleAdmin), allowAll())

		out, err := c.Decide(context.Background(), decider, requestID, models.OutcomeApproved, "welcome")
		require.NoError(t, err)
		assert.True(t, decided)
		assert.Equal(t, models.StatusApproved, out.Status)
		assert.Equal(t, "welcome", out.DecisionComment)
		require.NotNil(t, out.DecidedBy)
	})

	t.Run("entry rejection does not touch occupancy", func(t *testing.T) {
		store := &fakeStore{
			get: func(context.Context, uuid.UUID) (*models.AdmissionRequest, error) { return pendingEntry(), nil },
			decide: func(_ context.Context, id uuid.UUID, outcome models.Outcome, deciderID uuid.UUID, comment string) (*models.AdmissionRequest, error) {
				req := pendingEntry()
				req.Status = models.StatusRejected
				req.DecisionComment = comment
				return req, nil
			},
			approveEntry: func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, string) (*models.AdmissionRequest, error) {
				t.Fatal("rejection must not claim a slot")
				return nil, nil
			},
		}
		res := &models.Resource{ID: tournamentID, Kind: models.ResourceTournamentSlot, MaxParticipants: 8, AcceptanceOpen: true}
		c := newTestController(store, tournamentRegistry(res), staticRoles(models.RoleAdmin), allowAll())

		out, err := c.Decide(context.Background(), decider, requestID, models.OutcomeRejected, "roster full next season")
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, out.Status)
	})

	t.Run("entry approval goes through the capacity path", func(t *testing.T) {
		claimed := false
		store := &fakeStore{
			get: func(context.Context, uuid.UUID) (*models.AdmissionRequest, error) { return pendingEntry(), nil },
			approveEntry: func(_ context.Context, id, resID, deciderID uuid.UUID, comment string) (*models.AdmissionRequest, error) {
				claimed = true
				assert.Equal(t, tournamentID, resID)
				req := pendingEntry()
				req.Status = models.StatusApproved
				return req, nil
			},
			decide: func(context.Context, uuid.UUID, models.Outcome, uuid.UUID, string) (*models.AdmissionRequest, error) {
				t.Fatal("entry approval must go through the capacity path")
				return nil, nil
			},
		}
		res := &models.Resource{ID: tournamentID, Kind: models.ResourceTournamentSlot, MaxParticipants: 8, AcceptanceOpen: true}
		c := newTestController(store, tournamentRegistry(res), staticRoles(models.RoleAdmin), allowAll())

		out, err := c.Decide(context.Background(), decider, requestID, models.OutcomeApproved, "")
		require.NoError(t, err)
		assert.True(t, claimed)
		assert.Equal(t, models.StatusApproved, out.Status)
	})
}

func TestStorageTimeoutIsRetryable(t *testing.T) {
	store := &fakeStore{
		get: func(ctx context.Context, _ uuid.UUID) (*models.AdmissionRequest, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	c := NewController(store, clubRegistry(), staticRoles(models.RoleAdmin), allowAll(), nil, 10*time.Millisecond)

	_, err := c.GetRequest(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrStorageTimeout)
}

// memEntryStore backs the concurrency tests: a map of requests plus a
// mutex-guarded occupancy counter with the same check-and-claim
// semantics as the SQL conditional update.
type memEntryStore struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*models.AdmissionRequest
	current  int
	max      int
}

func newMemEntryStore(max int) *memEntryStore {
	return &memEntryStore{requests: make(map[uuid.UUID]*models.AdmissionRequest), max: max}
}

func (s *memEntryStore) addPending(resourceID uuid.UUID) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	req := &models.AdmissionRequest{
		ID: uuid.New(), ResourceID: resourceID, ApplicantID: uuid.New(),
		Kind: models.KindTournamentEntry, Status: models.StatusPending, CreatedAt: time.Now(),
	}
	s.requests[req.ID] = req
	return req.ID
}

func (s *memEntryStore) FindActive(_ context.Context, resourceID, applicantID uuid.UUID) (*models.AdmissionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if r.ResourceID == resourceID && r.ApplicantID == applicantID && !r.Terminal() {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memEntryStore) Create(_ context.Context, resourceID, applicantID uuid.UUID, kind models.RequestKind) (*models.AdmissionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Mirror the guarded insert: PENDING blocks a duplicate, APPROVED
	// blocks a re-application.
	for _, r := range s.requests {
		if r.ResourceID != resourceID || r.ApplicantID != applicantID {
			continue
		}
		if r.Status == models.StatusPending {
			return nil, ErrDuplicateRequest
		}
		if r.Status == models.StatusApproved {
			return nil, ErrAlreadyAdmitted
		}
	}
	req := &models.AdmissionRequest{
		ID: uuid.New(), ResourceID: resourceID, ApplicantID: applicantID,
		Kind: kind, Status: models.StatusPending, CreatedAt: time.Now(),
	}
	s.requests[req.ID] = req
	cp := *req
	return &cp, nil
}

func (s *memEntryStore) Get(_ context.Context, requestID uuid.UUID) (*models.AdmissionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, ErrRequestNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memEntryStore) Decide(_ context.Context, requestID uuid.UUID, outcome models.Outcome, deciderID uuid.UUID, comment string) (*models.AdmissionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decideLocked(requestID, outcome, deciderID, comment)
}

func (s *memEntryStore) ApproveEntry(_ context.Context, requestID, resourceID, deciderID uuid.UUID, comment string) (*models.AdmissionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current < s.max {
		out, err := s.decideLocked(requestID, models.OutcomeApproved, deciderID, comment)
		if err != nil {
			return nil, err
		}
		s.current++
		return out, nil
	}
	return s.decideLocked(requestID, models.OutcomeRejected, deciderID, CapacityExhaustedComment)
}

func (s *memEntryStore) decideLocked(requestID uuid.UUID, outcome models.Outcome, deciderID uuid.UUID, comment string) (*models.AdmissionRequest, error) {
	r, ok := s.requests[requestID]
	if !ok {
		return nil, ErrRequestNotFound
	}
	if r.Terminal() {
		return nil, ErrAlreadyDecided
	}
	now := time.Now()
	r.Status = models.RequestStatus(outcome)
	r.DecidedAt = &now
	r.DecidedBy = &deciderID
	r.DecisionComment = comment
	cp := *r
	return &cp, nil
}

func (s *memEntryStore) ListByResource(_ context.Context, resourceID uuid.UUID, status *models.RequestStatus) ([]models.RequestWithApplicant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.RequestWithApplicant
	for _, r := range s.requests {
		if r.ResourceID != resourceID {
			continue
		}
		if status != nil && r.Status != *status {
			continue
		}
		list = append(list, models.RequestWithApplicant{AdmissionRequest: *r})
	}
	return list, nil
}

func (s *memEntryStore) registry(resourceID, ownerID uuid.UUID) *fakeRegistry {
	return &fakeRegistry{getResource: func(context.Context, uuid.UUID) (*models.Resource, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return &models.Resource{
			ID: resourceID, Kind: models.ResourceTournamentSlot,
			MaxParticipants: s.max, CurrentParticipants: s.current,
			AcceptanceOpen: true, OwnerID: ownerID,
		}, nil
	}}
}

func TestConcurrentApprovalsForLastSlot(t *testing.T) {
	tournamentID := uuid.New()
	decider := uuid.New()

	store := newMemEntryStore(1)
	reqA := store.addPending(tournamentID)
	reqB := store.addPending(tournamentID)

	c := newTestController(store, store.registry(tournamentID, decider), staticRoles(models.RoleAdmin), allowAll())

	var wg sync.WaitGroup
	results := make([]*models.AdmissionRequest, 2)
	errs := make([]error, 2)
	for i, id := range []uuid.UUID{reqA, reqB} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			results[i], errs[i] = c.Decide(context.Background(), decider, id, models.OutcomeApproved, "")
		}(i, id)
	}
	wg.Wait()

	statuses := map[models.RequestStatus]int{}
	for i, out := range results {
		require.NoError(t, errs[i])
		require.NotNil(t, out)
		statuses[out.Status]++
	}
	assert.Equal(t, 1, statuses[models.StatusApproved], "exactly one approval for the last slot")
	assert.Equal(t, 1, statuses[models.StatusRejected], "the race loser is auto-rejected")
	assert.Equal(t, 1, store.current, "occupancy never exceeds capacity")

	for _, out := range results {
		if out.Status == models.StatusRejected {
			assert.Equal(t, CapacityExhaustedComment, out.DecisionComment)
		}
	}
}

func TestDecisionsAreOneShot(t *testing.T) {
	tournamentID := uuid.New()
	decider := uuid.New()

	store := newMemEntryStore(4)
	reqID := store.addPending(tournamentID)
	c := newTestController(store, store.registry(tournamentID, decider), staticRoles(models.RoleAdmin), allowAll())

	out, err := c.Decide(context.Background(), decider, reqID, models.OutcomeApproved, "")
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, out.Status)
	require.Equal(t, 1, store.current)

	_, err = c.Decide(context.Background(), decider, reqID, models.OutcomeApproved, "")
	assert.ErrorIs(t, err, ErrAlreadyDecided)
	assert.Equal(t, 1, store.current, "re-deciding must not claim another slot")

	_, err = c.Decide(context.Background(), decider, reqID, models.OutcomeRejected, "")
	assert.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestListPendingChecksResource(t *testing.T) {
	store := &fakeStore{
		listByResource: func(_ context.Context, _ uuid.UUID, status *models.RequestStatus) ([]models.RequestWithApplicant, error) {
			require.NotNil(t, status)
			assert.Equal(t, models.StatusPending, *status)
			return nil, nil
		},
	}
	c := newTestController(store, clubRegistry(), staticRoles(models.RoleAdmin), allowAll())

	_, err := c.ListPending(context.Background(), ClubResourceID)
	assert.NoError(t, err)

	_, err = c.ListPending(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

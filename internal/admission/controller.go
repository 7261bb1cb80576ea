package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bcn-golf/backend/internal/models"
)

// RequestStore is the durable request record the controller drives.
type RequestStore interface {
	FindActive(ctx context.Context, resourceID, applicantID uuid.UUID) (*models.AdmissionRequest, error)
	Create(ctx context.Context, resourceID, applicantID uuid.UUID, kind models.RequestKind) (*models.AdmissionRequest, error)
	Get(ctx context.Context, requestID uuid.UUID) (*models.AdmissionRequest, error)
	Decide(ctx context.Context, requestID uuid.UUID, outcome models.Outcome, deciderID uuid.UUID, comment string) (*models.AdmissionRequest, error)
	ApproveEntry(ctx context.Context, requestID, resourceID, deciderID uuid.UUID, comment string) (*models.AdmissionRequest, error)
	ListByResource(ctx context.Context, resourceID uuid.UUID, status *models.RequestStatus) ([]models.RequestWithApplicant, error)
}

// ResourceRegistry exposes resource state to the controller.
type ResourceRegistry interface {
	GetResource(ctx context.Context, id uuid.UUID) (*models.Resource, error)
	IsAcceptingApplications(res *models.Resource) bool
}

// RoleResolver derives a user's effective role.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID uuid.UUID) (models.Role, error)
}

// DecisionGate authorizes decision-makers per resource.
type DecisionGate interface {
	CanDecide(ctx context.Context, deciderID uuid.UUID, res *models.Resource) (bool, error)
}

// DefaultOpTimeout bounds each storage operation when no timeout is
// configured.
const DefaultOpTimeout = 5 * time.Second

// Controller is the admission state machine. It validates, creates and
// decides requests, enforcing the one-active-request invariant and
// atomic capacity accounting. Apply and Decide are safe under arbitrary
// interleaving of concurrent calls.
type Controller struct {
	store     RequestStore
	registry  ResourceRegistry
	roles     RoleResolver
	gate      DecisionGate
	logger    *zap.Logger
	opTimeout time.Duration
}

// NewController creates an admission controller.
func NewController(store RequestStore, registry ResourceRegistry, roles RoleResolver, gate DecisionGate, logger *zap.Logger, opTimeout time.Duration) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	return &Controller{store: store, registry: registry, roles: roles, gate: gate, logger: logger, opTimeout: opTimeout}
}

// Apply files a new admission request for applicantID on resourceID.
// The acceptance checks here are advisory; the authoritative guards are
// the store's creation invariant and the decision-time capacity gate.
func (c *Controller) Apply(ctx context.Context, applicantID, resourceID uuid.UUID, kind models.RequestKind) (*models.AdmissionRequest, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	res, err := c.registry.GetResource(ctx, resourceID)
	if err != nil {
		return nil, c.wrap(err)
	}
	if err := matchKind(res, kind); err != nil {
		return nil, err
	}

	switch kind {
	case models.KindMembership:
		role, err := c.roles.ResolveRole(ctx, applicantID)
		if err != nil {
			return nil, c.wrap(err)
		}
		if role == models.RoleMember || role == models.RoleAdmin {
			return nil, ErrAlreadyMember
		}
	case models.KindTournamentEntry:
		if !c.registry.IsAcceptingApplications(res) {
			return nil, ErrNotAccepting
		}
	}

	if active, err := c.store.FindActive(ctx, resourceID, applicantID); err != nil {
		return nil, c.wrap(err)
	} else if active != nil {
		return nil, ErrDuplicateRequest
	}

	req, err := c.store.Create(ctx, resourceID, applicantID, kind)
	if err != nil {
		return nil, c.wrap(err)
	}

	c.logger.Info("admission request created",
		zap.String("request_id", req.ID.String()),
		zap.String("resource_id", resourceID.String()),
		zap.String("applicant_id", applicantID.String()),
		zap.String("kind", string(kind)))
	return req, nil
}

// ApplyMembership files a club membership application for applicantID.
func (c *Controller) ApplyMembership(ctx context.Context, applicantID uuid.UUID) (*models.AdmissionRequest, error) {
	return c.Apply(ctx, applicantID, ClubResourceID, models.KindMembership)
}

// Decide resolves a pending request. Rejection never touches occupancy.
// Tournament-entry approval claims a slot through the atomic occupancy
// gate; losing the race for the last slot yields a clean auto-rejection
// instead of overbooking or a stuck pending request.
func (c *Controller) Decide(ctx context.Context, deciderID, requestID uuid.UUID, outcome models.Outcome, comment string) (*models.AdmissionRequest, error) {
	if !outcome.Valid() {
		return nil, ErrInvalidOutcome
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	req, err := c.store.Get(ctx, requestID)
	if err != nil {
		return nil, c.wrap(err)
	}
	if req.Terminal() {
		return nil, ErrAlreadyDecided
	}

	res, err := c.registry.GetResource(ctx, req.ResourceID)
	if err != nil {
		return nil, c.wrap(err)
	}
	allowed, err := c.gate.CanDecide(ctx, deciderID, res)
	if err != nil {
		return nil, c.wrap(err)
	}
	if !allowed {
		return nil, ErrNotAuthorized
	}

	var decided *models.AdmissionRequest
	if outcome == models.OutcomeApproved && req.Kind == models.KindTournamentEntry {
		decided, err = c.store.ApproveEntry(ctx, req.ID, req.ResourceID, deciderID, comment)
	} else {
		decided, err = c.store.Decide(ctx, req.ID, outcome, deciderID, comment)
	}
	if err != nil {
		return nil, c.wrap(err)
	}

	c.logger.Info("admission request decided",
		zap.String("request_id", decided.ID.String()),
		zap.String("status", string(decided.Status)),
		zap.String("decided_by", deciderID.String()))
	return decided, nil
}

// GetRequest returns a request by ID, for status checks and for callers
// confirming whether a timed-out decide committed before retrying.
func (c *Controller) GetRequest(ctx context.Context, requestID uuid.UUID) (*models.AdmissionRequest, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	req, err := c.store.Get(ctx, requestID)
	if err != nil {
		return nil, c.wrap(err)
	}
	return req, nil
}

// ListPending returns the review queue for a resource, oldest first.
func (c *Controller) ListPending(ctx context.Context, resourceID uuid.UUID) ([]models.RequestWithApplicant, error) {
	return c.list(ctx, resourceID, models.StatusPending)
}

// ListApproved returns the roster for a resource.
func (c *Controller) ListApproved(ctx context.Context, resourceID uuid.UUID) ([]models.RequestWithApplicant, error) {
	return c.list(ctx, resourceID, models.StatusApproved)
}

// ResolveRole exposes the role resolver to collaborators.
func (c *Controller) ResolveRole(ctx context.Context, userID uuid.UUID) (models.Role, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	role, err := c.roles.ResolveRole(ctx, userID)
	if err != nil {
		return "", c.wrap(err)
	}
	return role, nil
}

// CanReview reports whether userID may review the queue for resourceID.
func (c *Controller) CanReview(ctx context.Context, userID, resourceID uuid.UUID) (bool, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	res, err := c.registry.GetResource(ctx, resourceID)
	if err != nil {
		return false, c.wrap(err)
	}
	ok, err := c.gate.CanDecide(ctx, userID, res)
	if err != nil {
		return false, c.wrap(err)
	}
	return ok, nil
}

func (c *Controller) list(ctx context.Context, resourceID uuid.UUID, status models.RequestStatus) ([]models.RequestWithApplicant, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()
	if _, err := c.registry.GetResource(ctx, resourceID); err != nil {
		return nil, c.wrap(err)
	}
	list, err := c.store.ListByResource(ctx, resourceID, &status)
	if err != nil {
		return nil, c.wrap(err)
	}
	return list, nil
}

func (c *Controller) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.opTimeout)
}

// wrap converts storage deadline errors into the retryable timeout
// sentinel; everything else passes through.
func (c *Controller) wrap(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrStorageTimeout, err)
	}
	return err
}

func matchKind(res *models.Resource, kind models.RequestKind) error {
	switch kind {
	case models.KindMembership:
		if res.Kind != models.ResourceClubMembership {
			return ErrKindMismatch
		}
	case models.KindTournamentEntry:
		if res.Kind != models.ResourceTournamentSlot {
			return ErrKindMismatch
		}
	default:
		return ErrKindMismatch
	}
	return nil
}

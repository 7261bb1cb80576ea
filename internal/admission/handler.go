package admission

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bcn-golf/backend/internal/middleware"
	"github.com/bcn-golf/backend/internal/models"
	"github.com/bcn-golf/backend/pkg/response"
)

// DecisionNotifier enqueues an asynchronous decision email for a
// decided request. Delivery is best-effort and never blocks a decision.
type DecisionNotifier interface {
	EnqueueDecision(ctx context.Context, requestID uuid.UUID, outcome models.Outcome, comment string) error
}

// DecideRequest is the body for POST /requests/:id/decide.
type DecideRequest struct {
	Outcome models.Outcome `json:"outcome" binding:"required"`
	Comment string         `json:"comment"`
}

// Handler exposes the admission engine over HTTP.
type Handler struct {
	controller *Controller
	notifier   DecisionNotifier
	logger     *zap.Logger
}

// NewHandler creates an admission handler.
func NewHandler(controller *Controller, notifier DecisionNotifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{controller: controller, notifier: notifier, logger: logger}
}

// ApplyMembership handles POST /membership/apply.
func (h *Handler) ApplyMembership(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	req, err := h.controller.Apply(c.Request.Context(), userID, ClubResourceID, models.KindMembership)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Created(c, req)
}

// ApplyTournament handles POST /tournaments/:id/apply.
func (h *Handler) ApplyTournament(c *gin.Context) {
	tournamentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid tournament id")
		return
	}
	userID := middleware.CurrentUserID(c)
	req, err := h.controller.Apply(c.Request.Context(), userID, tournamentID, models.KindTournamentEntry)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Created(c, req)
}

// Decide handles POST /requests/:id/decide. Authorization is enforced
// by the engine's gate, not by route middleware, because tournament
// owners may decide without holding the admin role.
func (h *Handler) Decide(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}
	var body DecideRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	deciderID := middleware.CurrentUserID(c)
	decided, err := h.controller.Decide(c.Request.Context(), deciderID, requestID, body.Outcome, body.Comment)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if h.notifier != nil {
		outcome := models.Outcome(decided.Status)
		if err := h.notifier.EnqueueDecision(c.Request.Context(), decided.ID, outcome, decided.DecisionComment); err != nil {
			h.logger.Warn("enqueue decision email failed", zap.Error(err), zap.String("request_id", decided.ID.String()))
		}
	}
	response.OK(c, decided)
}

// GetRequest handles GET /requests/:id. Visible to the applicant and to
// anyone authorized to decide for the request's resource; deciders use
// it to confirm whether a timed-out decide committed before retrying.
func (h *Handler) GetRequest(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}
	userID := middleware.CurrentUserID(c)
	req, err := h.controller.GetRequest(c.Request.Context(), requestID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if req.ApplicantID != userID {
		ok, err := h.controller.CanReview(c.Request.Context(), userID, req.ResourceID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		if !ok {
			response.Forbidden(c, "not authorized to view this request")
			return
		}
	}
	response.OK(c, req)
}

// ListMembershipRequests handles GET /membership/requests: the pending
// review queue for club membership, oldest application first.
func (h *Handler) ListMembershipRequests(c *gin.Context) {
	h.listQueue(c, ClubResourceID)
}

// ListTournamentRequests handles GET /tournaments/:id/requests.
func (h *Handler) ListTournamentRequests(c *gin.Context) {
	tournamentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid tournament id")
		return
	}
	h.listQueue(c, tournamentID)
}

// Roster handles GET /tournaments/:id/roster: approved entries.
func (h *Handler) Roster(c *gin.Context) {
	tournamentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid tournament id")
		return
	}
	list, err := h.controller.ListApproved(c.Request.Context(), tournamentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, list)
}

// MyRole handles GET /me/role: the caller's live resolved role.
func (h *Handler) MyRole(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	role, err := h.controller.ResolveRole(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, gin.H{"user_id": userID, "role": role})
}

func (h *Handler) listQueue(c *gin.Context, resourceID uuid.UUID) {
	userID := middleware.CurrentUserID(c)
	ok, err := h.controller.CanReview(c.Request.Context(), userID, resourceID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !ok {
		response.Forbidden(c, "not authorized to review this queue")
		return
	}
	list, err := h.controller.ListPending(c.Request.Context(), resourceID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, list)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrResourceNotFound), errors.Is(err, ErrRequestNotFound):
		response.NotFound(c, err.Error())
	case IsConflict(err):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrAlreadyDecided), errors.Is(err, ErrInvalidOutcome):
		response.UnprocessableEntity(c, err.Error())
	case errors.Is(err, ErrNotAuthorized):
		response.Forbidden(c, err.Error())
	case errors.Is(err, ErrStorageTimeout):
		response.ServiceUnavailable(c, err.Error())
	default:
		h.logger.Error("admission operation failed", zap.Error(err))
		response.Internal(c, "internal error")
	}
}

package tournaments

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bcn-golf/backend/internal/middleware"
	"github.com/bcn-golf/backend/internal/models"
	"github.com/bcn-golf/backend/pkg/response"
)

// CreateRequest is the body for POST /tournaments.
type CreateRequest struct {
	Title           string    `json:"title" binding:"required"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	StartsAt        time.Time `json:"starts_at" binding:"required"`
	MaxParticipants int       `json:"max_participants" binding:"required,gt=0"`
	Open            bool      `json:"open"` // open for entry immediately
}

// UpdateRequest is the body for PATCH /tournaments/:id.
type UpdateRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    *time.Time `json:"starts_at"`
}

// StatusRequest is the body for PATCH /tournaments/:id/status.
type StatusRequest struct {
	Status models.TournamentStatus `json:"status" binding:"required"`
}

// Handler handles tournament HTTP endpoints.
type Handler struct {
	repo   *Repository
	roles  middleware.RoleResolver
	logger *zap.Logger
}

// NewHandler creates a tournaments handler.
func NewHandler(repo *Repository, roles middleware.RoleResolver, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, roles: roles, logger: logger}
}

// Create handles POST /tournaments (admin only, enforced at the route).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	status := models.TournamentDraft
	if req.Open {
		status = models.TournamentOpen
	}
	t := &models.Tournament{
		Title:           req.Title,
		Description:     req.Description,
		Location:        req.Location,
		StartsAt:        req.StartsAt,
		MaxParticipants: req.MaxParticipants,
		Status:          status,
		CreatedBy:       middleware.CurrentUserID(c),
	}
	if err := h.repo.Create(c.Request.Context(), t); err != nil {
		h.logger.Error("create tournament failed", zap.Error(err))
		response.Internal(c, "failed to create tournament")
		return
	}
	response.Created(c, t)
}

// List handles GET /tournaments with an optional ?status= filter.
func (h *Handler) List(c *gin.Context) {
	var status *models.TournamentStatus
	if s := c.Query("status"); s != "" {
		st := models.TournamentStatus(s)
		if !st.Valid() {
			response.BadRequest(c, "invalid status filter")
			return
		}
		status = &st
	}
	list, err := h.repo.List(c.Request.Context(), status)
	if err != nil {
		h.logger.Error("list tournaments failed", zap.Error(err))
		response.Internal(c, "failed to list tournaments")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /tournaments/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid tournament id")
		return
	}
	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to load tournament")
		return
	}
	response.OK(c, t)
}

// Update handles PATCH /tournaments/:id (owner or admin).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid tournament id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	t, ok := h.requireOwnerOrAdmin(c, id)
	if !ok {
		return
	}
	if err := h.repo.Update(c.Request.Context(), t.ID, req.Title, req.Description, req.Location, req.StartsAt); err != nil {
		h.respondError(c, err, "failed to update tournament")
		return
	}
	updated, err := h.repo.GetByID(c.Request.Context(), t.ID)
	if err != nil {
		h.respondError(c, err, "failed to load tournament")
		return
	}
	response.OK(c, updated)
}

// SetStatus handles PATCH /tournaments/:id/status (owner or admin).
// Moving off "open" closes the acceptance window; entry applications
// are only accepted while the tournament is open.
func (h *Handler) SetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid tournament id")
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !req.Status.Valid() {
		response.BadRequest(c, "invalid status")
		return
	}
	t, ok := h.requireOwnerOrAdmin(c, id)
	if !ok {
		return
	}
	if !validTransition(t.Status, req.Status) {
		response.UnprocessableEntity(c, "invalid status transition")
		return
	}
	if err := h.repo.SetStatus(c.Request.Context(), t.ID, req.Status); err != nil {
		h.respondError(c, err, "failed to update status")
		return
	}
	t.Status = req.Status
	response.OK(c, t)
}

// requireOwnerOrAdmin loads the tournament and verifies the caller owns
// it or holds the live-resolved ADMIN role.
func (h *Handler) requireOwnerOrAdmin(c *gin.Context, id uuid.UUID) (*models.Tournament, bool) {
	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to load tournament")
		return nil, false
	}
	userID := middleware.CurrentUserID(c)
	if t.CreatedBy == userID {
		return t, true
	}
	role, err := h.roles.ResolveRole(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to resolve role")
		return nil, false
	}
	if role != models.RoleAdmin {
		response.Forbidden(c, "not the tournament owner")
		return nil, false
	}
	return t, true
}

func (h *Handler) respondError(c *gin.Context, err error, msg string) {
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	h.logger.Error(msg, zap.Error(err))
	response.Internal(c, msg)
}

// validTransition encodes the tournament lifecycle: draft → open →
// started → finished, with cancellation allowed until the event ends.
func validTransition(from, to models.TournamentStatus) bool {
	switch from {
	case models.TournamentDraft:
		return to == models.TournamentOpen || to == models.TournamentCanceled
	case models.TournamentOpen:
		return to == models.TournamentStarted || to == models.TournamentCanceled
	case models.TournamentStarted:
		return to == models.TournamentFinished || to == models.TournamentCanceled
	default:
		return false
	}
}

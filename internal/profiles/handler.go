package profiles

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bcn-golf/backend/internal/middleware"
	"github.com/bcn-golf/backend/pkg/response"
)

// UpdateProfileRequest is the body for PATCH /profile.
type UpdateProfileRequest struct {
	FirstName          string `json:"first_name" binding:"required"`
	LastName           string `json:"last_name" binding:"required"`
	Phone              string `json:"phone"`
	VGANumber          string `json:"vga_number"`
	ShirtSize          string `json:"shirt_size"`
	Bio                string `json:"bio"`
	ProfilePicURL      string `json:"profile_pic_url"`
	BackgroundColorHex string `json:"background_color_hex"`
}

// Handler handles profile and directory HTTP endpoints.
type Handler struct {
	repo   *Repository
	roles  middleware.RoleResolver
	logger *zap.Logger
}

// NewHandler creates a profiles handler.
func NewHandler(repo *Repository, roles middleware.RoleResolver, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, roles: roles, logger: logger}
}

// Get handles GET /profile. With ?userId= it returns another user's
// profile; otherwise the caller's own.
func (h *Handler) Get(c *gin.Context) {
	targetID := middleware.CurrentUserID(c)
	if raw := c.Query("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid user id")
			return
		}
		targetID = id
	}

	profile, err := h.repo.GetProfile(c.Request.Context(), targetID)
	if err != nil {
		h.respondError(c, err, "failed to load profile")
		return
	}
	role, err := h.roles.ResolveRole(c.Request.Context(), targetID)
	if err != nil {
		response.Internal(c, "failed to resolve role")
		return
	}
	profile.Role = role
	response.OK(c, profile)
}

// Update handles PATCH /profile for the caller's own profile.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := middleware.CurrentUserID(c)
	profile, err := h.repo.UpdateProfile(c.Request.Context(), userID, UpdateParams{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Phone:              req.Phone,
		VGANumber:          req.VGANumber,
		ShirtSize:          req.ShirtSize,
		Bio:                req.Bio,
		ProfilePicURL:      req.ProfilePicURL,
		BackgroundColorHex: req.BackgroundColorHex,
	})
	if err != nil {
		h.respondError(c, err, "failed to update profile")
		return
	}
	response.OK(c, profile)
}

// Directory handles GET /directory.
func (h *Handler) Directory(c *gin.Context) {
	list, err := h.repo.Directory(c.Request.Context())
	if err != nil {
		h.logger.Error("list directory failed", zap.Error(err))
		response.Internal(c, "failed to load directory")
		return
	}
	response.OK(c, list)
}

func (h *Handler) respondError(c *gin.Context, err error, msg string) {
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	h.logger.Error(msg, zap.Error(err))
	response.Internal(c, msg)
}

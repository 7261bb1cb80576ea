package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/bcn-golf/backend/internal/models"
	"github.com/bcn-golf/backend/pkg/response"
	"github.com/bcn-golf/backend/pkg/utils"
)

// AdmissionService is the slice of the admission engine auth needs:
// filing the automatic membership application at registration and
// resolving the live role at login.
type AdmissionService interface {
	ApplyMembership(ctx context.Context, applicantID uuid.UUID) (*models.AdmissionRequest, error)
	ResolveRole(ctx context.Context, userID uuid.UUID) (models.Role, error)
}

// UserStore is the user persistence the handler drives. Implemented by
// *Repository.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, email, passwordHash, firstName, lastName string, profile *CreateUserParams) (*models.User, error)
	List(ctx context.Context) ([]models.UserPublic, error)
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Phone     string `json:"phone"`
	VGANumber string `json:"vga_number"`
	ShirtSize string `json:"shirt_size"`
	Bio       string `json:"bio"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT and the live resolved role.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo      UserStore
	jwt       *JWTService
	admission AdmissionService
	logger    *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo UserStore, jwt *JWTService, admission AdmissionService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, admission: admission, logger: logger}
}

// Register handles POST /auth/register. Creating an account also files
// a club membership application, so every new user starts as a GUEST
// with membership pending approval.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	_, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	switch {
	case err == nil:
		response.Conflict(c, "email already registered")
		return
	case !errors.Is(err, pgx.ErrNoRows):
		h.logger.Error("email lookup failed", zap.Error(err), zap.String("email", req.Email))
		response.Internal(c, "failed to check email")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	profile := &CreateUserParams{
		Phone:     req.Phone,
		VGANumber: req.VGANumber,
		ShirtSize: req.ShirtSize,
		Bio:       req.Bio,
	}
	user, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.FirstName, req.LastName, profile)
	if err != nil {
		h.logger.Error("create user failed", zap.Error(err), zap.String("email", req.Email))
		response.Internal(c, "failed to create user")
		return
	}

	// Best effort: the account is durable at this point, so a failed
	// filing must not fail registration. The user can refile via
	// POST /membership/apply.
	if _, err := h.admission.ApplyMembership(c.Request.Context(), user.ID); err != nil {
		h.logger.Warn("membership application not filed at registration",
			zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	pub := user.ToPublic()
	pub.Role = models.RoleGuest
	response.Created(c, TokenResponse{Token: token, User: pub})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	role, err := h.admission.ResolveRole(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("resolve role failed", zap.Error(err), zap.String("user_id", user.ID.String()))
		response.Internal(c, "failed to resolve role")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	pub := user.ToPublic()
	pub.Role = role
	c.JSON(http.StatusOK, response.Body{Success: true, Data: TokenResponse{Token: token, User: pub}})
}

// List handles GET /users (admin only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}

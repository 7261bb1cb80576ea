package content

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

// CreateDocumentRequest is the body for POST /documents.
type CreateDocumentRequest struct {
	Title string              `json:"title" binding:"required"`
	Type  models.DocumentType `json:"type"`
}

// CreateNotificationRequest is the body for POST /notifications.
type CreateNotificationRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// UpdateDocumentRequest is the body for PATCH /documents/:id. Empty
// fields are left unchanged.
type UpdateDocumentRequest struct {
	Title string              `json:"title"`
	Type  models.DocumentType `json:"type"`
}

// UpdateNotificationRequest is the body for PATCH /notifications/:id.
type UpdateNotificationRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Store is the content persistence the handler drives. Implemented by
// *Repository.
type Store interface {
	CreateDocument(ctx context.Context, d *models.Document) error
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error)
	GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	UpdateDocument(ctx context.Context, id uuid.UUID, title string, docType models.DocumentType) (*models.Document, error)
	UpdateNotification(ctx context.Context, id uuid.UUID, title, content string) (*models.Notification, error)
	ListDocuments(ctx context.Context) ([]models.Document, error)
	ListNotifications(ctx context.Context) ([]models.Notification, error)
}

// Handler handles info center HTTP endpoints.
type Handler struct {
	repo   Store
	logger *zap.Logger
}

// NewHandler creates a content handler.
func NewHandler(repo Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// CreateDocument handles POST /documents (admin only, enforced at the route).
func (h *Handler) CreateDocument(c *gin.Context) {
	var req CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	docType := req.Type
	if docType == "" {
		docType = models.DocBylaw
	}
	if !docType.Valid() {
		response.BadRequest(c, "invalid document type")
		return
	}
	d := &models.Document{Title: req.Title, Type: docType, AuthorID: middleware.CurrentUserID(c)}
	if err := h.repo.CreateDocument(c.Request.Context(), d); err != nil {
		h.logger.Error("create document failed", zap.Error(err))
		response.Internal(c, "failed to create document")
		return
	}
	response.Created(c, d)
}

// CreateNotification handles POST /notifications (admin only).
func (h *Handler) CreateNotification(c *gin.Context) {
	var req CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	n := &models.Notification{Title: req.Title, Content: req.Content, AuthorID: middleware.CurrentUserID(c)}
	if err := h.repo.CreateNotification(c.Request.Context(), n); err != nil {
		h.logger.Error("create notification failed", zap.Error(err))
		response.Internal(c, "failed to create notification")
		return
	}
	response.Created(c, n)
}

// GetDocument handles GET /documents/:id.
func (h *Handler) GetDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid document id")
		return
	}
	d, err := h.repo.GetDocument(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to load document")
		return
	}
	response.OK(c, d)
}

// UpdateDocument handles PATCH /documents/:id (admin only).
func (h *Handler) UpdateDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid document id")
		return
	}
	var req UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.Type != "" && !req.Type.Valid() {
		response.BadRequest(c, "invalid document type")
		return
	}
	d, err := h.repo.UpdateDocument(c.Request.Context(), id, req.Title, req.Type)
	if err != nil {
		h.respondError(c, err, "failed to update document")
		return
	}
	response.OK(c, d)
}

// UpdateNotification handles PATCH /notifications/:id (admin only).
func (h *Handler) UpdateNotification(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid notification id")
		return
	}
	var req UpdateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	n, err := h.repo.UpdateNotification(c.Request.Context(), id, req.Title, req.Content)
	if err != nil {
		h.respondError(c, err, "failed to update notification")
		return
	}
	response.OK(c, n)
}

// ListDocuments handles GET /documents.
func (h *Handler) ListDocuments(c *gin.Context) {
	list, err := h.repo.ListDocuments(c.Request.Context())
	if err != nil {
		h.logger.Error("list documents failed", zap.Error(err))
		response.Internal(c, "failed to list documents")
		return
	}
	response.OK(c, list)
}

// ListNotifications handles GET /notifications.
func (h *Handler) ListNotifications(c *gin.Context) {
	list, err := h.repo.ListNotifications(c.Request.Context())
	if err != nil {
		h.logger.Error("list notifications failed", zap.Error(err))
		response.Internal(c, "failed to list notifications")
		return
	}
	response.OK(c, list)
}

// GetNotification handles GET /notifications/:id.
func (h *Handler) GetNotification(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid notification id")
		return
	}
	n, err := h.repo.GetNotification(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to load notification")
		return
	}
	response.OK(c, n)
}

func (h *Handler) respondError(c *gin.Context, err error, msg string) {
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	h.logger.Error(msg, zap.Error(err))
	response.Internal(c, msg)
}

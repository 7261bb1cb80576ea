package content

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bcn-golf/backend/internal/models"
)

// ErrNotFound is returned when a content entry does not exist.
var ErrNotFound = errors.New("content not found")

// Repository handles document and notification persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a content repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateDocument inserts a club document.
func (r *Repository) CreateDocument(ctx context.Context, d *models.Document) error {
	const q = `INSERT INTO documents (id, title, type, author_id)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, d.Title, string(d.Type), d.AuthorID).Scan(&d.ID, &d.CreatedAt)
}

// CreateNotification inserts a club announcement.
func (r *Repository) CreateNotification(ctx context.Context, n *models.Notification) error {
	const q = `INSERT INTO notifications (id, title, content, author_id)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, n.Title, n.Content, n.AuthorID).Scan(&n.ID, &n.CreatedAt)
}

// GetDocument returns one document by ID.
func (r *Repository) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	const q = `SELECT id, title, type, author_id, created_at FROM documents WHERE id = $1`
	var d models.Document
	err := r.pool.QueryRow(ctx, q, id).Scan(&d.ID, &d.Title, &d.Type, &d.AuthorID, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateDocument updates the given fields, keeping the rest. Empty
// arguments leave the current value in place.
func (r *Repository) UpdateDocument(ctx context.Context, id uuid.UUID, title string, docType models.DocumentType) (*models.Document, error) {
	const q = `UPDATE documents
		SET title = COALESCE(NULLIF($2, ''), title),
			type = COALESCE(NULLIF($3, ''), type)
		WHERE id = $1
		RETURNING id, title, type, author_id, created_at`
	var d models.Document
	err := r.pool.QueryRow(ctx, q, id, title, string(docType)).Scan(&d.ID, &d.Title, &d.Type, &d.AuthorID, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateNotification updates the given fields, keeping the rest.
func (r *Repository) UpdateNotification(ctx context.Context, id uuid.UUID, title, content string) (*models.Notification, error) {
	const q = `UPDATE notifications
		SET title = COALESCE(NULLIF($2, ''), title),
			content = COALESCE(NULLIF($3, ''), content)
		WHERE id = $1
		RETURNING id, title, content, author_id, created_at`
	var n models.Notification
	err := r.pool.QueryRow(ctx, q, id, title, content).Scan(&n.ID, &n.Title, &n.Content, &n.AuthorID, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListDocuments returns all documents, newest first.
func (r *Repository) ListDocuments(ctx context.Context) ([]models.Document, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, title, type, author_id, created_at
		FROM documents ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Type, &d.AuthorID, &d.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// ListNotifications returns all notifications, newest first.
func (r *Repository) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, title, content, author_id, created_at
		FROM notifications ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.AuthorID, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// GetNotification returns one notification by ID.
func (r *Repository) GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	const q = `SELECT id, title, content, author_id, created_at FROM notifications WHERE id = $1`
	var n models.Notification
	err := r.pool.QueryRow(ctx, q, id).Scan(&n.ID, &n.Title, &n.Content, &n.AuthorID, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

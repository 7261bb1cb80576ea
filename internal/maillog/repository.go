package maillog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bcn-golf/backend/internal/models"
)

// ErrRequestNotFound is returned when a decision job references a
// request that does not exist.
var ErrRequestNotFound = errors.New("request not found")

// Recipient is the applicant behind a decided admission request.
type Recipient struct {
	Email     string
	FirstName string
	Kind      models.RequestKind
}

// Repository handles decision email log persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a maillog repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert records a processed decision email.
func (r *Repository) Insert(ctx context.Context, log *models.EmailLog) error {
	const q = `INSERT INTO email_logs (id, request_id, recipient_email, subject, body, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, log.RequestID, log.RecipientEmail, log.Subject, log.Body, log.Status).
		Scan(&log.ID, &log.CreatedAt)
}

// RecipientFor resolves the applicant behind a request at send time, so
// the queue never carries a potentially stale email address.
func (r *Repository) RecipientFor(ctx context.Context, requestID uuid.UUID) (*Recipient, error) {
	const q = `SELECT u.email, u.first_name, req.kind
		FROM admission_requests req
		JOIN users u ON u.id = req.applicant_id
		WHERE req.id = $1`
	var rec Recipient
	err := r.pool.QueryRow(ctx, q, requestID).Scan(&rec.Email, &rec.FirstName, &rec.Kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListByRequest returns the email history for a request.
func (r *Repository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.EmailLog, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, request_id, recipient_email, subject, body, status, created_at
		FROM email_logs WHERE request_id = $1 ORDER BY created_at DESC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.EmailLog
	for rows.Next() {
		var l models.EmailLog
		if err := rows.Scan(&l.ID, &l.RequestID, &l.RecipientEmail, &l.Subject, &l.Body, &l.Status, &l.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

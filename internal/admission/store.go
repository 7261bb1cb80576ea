package admission

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bcn-golf/backend/internal/models"
)

// CapacityExhaustedComment is recorded on requests auto-rejected when a
// concurrent approval claimed the last slot.
const CapacityExhaustedComment = "capacity exhausted"

const requestColumns = `id, resource_id, applicant_id, kind, status, created_at, decided_at, decided_by, COALESCE(decision_comment, '')`

// Store is the durable record of every admission request ever created.
// Requests are never deleted; the one-active-request invariant is
// enforced by a partial unique index over pending (resource, applicant)
// pairs, not merely checked in application code.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a request store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// FindActive returns the unique pending request for the pair, or nil.
func (s *Store) FindActive(ctx context.Context, resourceID, applicantID uuid.UUID) (*models.AdmissionRequest, error) {
	const q = `SELECT ` + requestColumns + ` FROM admission_requests
		WHERE resource_id = $1 AND applicant_id = $2 AND status = 'PENDING'`
	req, err := scanRequest(s.pool.QueryRow(ctx, q, resourceID, applicantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return req, err
}

// Get returns a request by ID.
func (s *Store) Get(ctx context.Context, requestID uuid.UUID) (*models.AdmissionRequest, error) {
	const q = `SELECT ` + requestColumns + ` FROM admission_requests WHERE id = $1`
	req, err := scanRequest(s.pool.QueryRow(ctx, q, requestID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	return req, err
}

// Create inserts a new pending request. The guarded insert and the
// partial unique index together reject a second in-flight application
// or a re-application after approval, even under concurrent callers.
func (s *Store) Create(ctx context.Context, resourceID, applicantID uuid.UUID, kind models.RequestKind) (*models.AdmissionRequest, error) {
	const q = `INSERT INTO admission_requests (id, resource_id, applicant_id, kind, status)
		SELECT gen_random_uuid(), $1, $2, $3, 'PENDING'
		WHERE NOT EXISTS (
			SELECT 1 FROM admission_requests
			WHERE resource_id = $1 AND applicant_id = $2 AND status IN ('PENDING', 'APPROVED')
		)
		RETURNING ` + requestColumns
	req, err := scanRequest(s.pool.QueryRow(ctx, q, resourceID, applicantID, kind))
	if err == nil {
		return req, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, s.conflictFor(ctx, resourceID, applicantID)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		// Lost a race with a concurrent apply for the same pair.
		return nil, ErrDuplicateRequest
	}
	return nil, err
}

// conflictFor distinguishes a duplicate in-flight application from a
// re-application after acceptance.
func (s *Store) conflictFor(ctx context.Context, resourceID, applicantID uuid.UUID) error {
	const q = `SELECT EXISTS(SELECT 1 FROM admission_requests
		WHERE resource_id = $1 AND applicant_id = $2 AND status = 'APPROVED')`
	var approved bool
	if err := s.pool.QueryRow(ctx, q, resourceID, applicantID).Scan(&approved); err != nil {
		return err
	}
	if approved {
		return ErrAlreadyAdmitted
	}
	return ErrDuplicateRequest
}

// Decide flips a pending request to a terminal status. Deciding a
// request that is no longer pending fails; decisions are one-shot.
func (s *Store) Decide(ctx context.Context, requestID uuid.UUID, outcome models.Outcome, deciderID uuid.UUID, comment string) (*models.AdmissionRequest, error) {
	return s.decideIn(ctx, s.pool, requestID, outcome, deciderID, comment)
}

// ApproveEntry runs the tournament-entry approval as one atomic unit:
// the occupancy claim and the status flip commit or roll back together,
// so a partial failure can never leave an approved slot without an
// approved request. When capacity is exhausted the same transaction
// turns the race loser into a clean rejection.
func (s *Store) ApproveEntry(ctx context.Context, requestID, resourceID, deciderID uuid.UUID, comment string) (*models.AdmissionRequest, error) {
	var out *models.AdmissionRequest
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		won, err := incrementOccupancy(ctx, tx, resourceID)
		if err != nil {
			return err
		}
		if !won {
			out, err = s.decideIn(ctx, tx, requestID, models.OutcomeRejected, deciderID, CapacityExhaustedComment)
			return err
		}
		out, err = s.decideIn(ctx, tx, requestID, models.OutcomeApproved, deciderID, comment)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) decideIn(ctx context.Context, db querier, requestID uuid.UUID, outcome models.Outcome, deciderID uuid.UUID, comment string) (*models.AdmissionRequest, error) {
	const q = `UPDATE admission_requests
		SET status = $2, decided_at = NOW(), decided_by = $3, decision_comment = NULLIF($4, '')
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + requestColumns
	req, err := scanRequest(db.QueryRow(ctx, q, requestID, string(outcome), deciderID, comment))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := s.Get(ctx, requestID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrAlreadyDecided
	}
	return req, err
}

// ListByResource returns requests for a resource joined with applicant
// display fields, ordered oldest application first.
func (s *Store) ListByResource(ctx context.Context, resourceID uuid.UUID, status *models.RequestStatus) ([]models.RequestWithApplicant, error) {
	q := `SELECT r.id, r.resource_id, r.applicant_id, r.kind, r.status, r.created_at, r.decided_at, r.decided_by, COALESCE(r.decision_comment, ''),
			u.email, u.first_name, u.last_name, COALESCE(u.vga_number, ''), COALESCE(u.bio, ''), u.profile_pic_url, u.background_color_hex, u.created_at
		FROM admission_requests r
		JOIN users u ON u.id = r.applicant_id
		WHERE r.resource_id = $1`
	args := []any{resourceID}
	if status != nil {
		q += ` AND r.status = $2`
		args = append(args, string(*status))
	}
	q += ` ORDER BY r.created_at ASC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.RequestWithApplicant
	for rows.Next() {
		var item models.RequestWithApplicant
		if err := rows.Scan(
			&item.ID, &item.ResourceID, &item.ApplicantID, &item.Kind, &item.Status,
			&item.CreatedAt, &item.DecidedAt, &item.DecidedBy, &item.DecisionComment,
			&item.Applicant.Email, &item.Applicant.FirstName, &item.Applicant.LastName,
			&item.Applicant.VGANumber, &item.Applicant.Bio, &item.Applicant.ProfilePicURL,
			&item.Applicant.BackgroundColorHex, &item.Applicant.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.Applicant.ID = item.ApplicantID
		list = append(list, item)
	}
	return list, rows.Err()
}

func scanRequest(row pgx.Row) (*models.AdmissionRequest, error) {
	var req models.AdmissionRequest
	err := row.Scan(&req.ID, &req.ResourceID, &req.ApplicantID, &req.Kind, &req.Status,
		&req.CreatedAt, &req.DecidedAt, &req.DecidedBy, &req.DecisionComment)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

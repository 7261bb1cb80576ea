package tournaments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bcn-golf/backend/internal/models"
)

// ErrNotFound is returned when a tournament does not exist.
var ErrNotFound = errors.New("tournament not found")

const tournamentColumns = `id, title, description, location, starts_at,
	max_participants, current_participants, status, created_by, created_at, updated_at`

// Repository handles tournament persistence. The occupancy counter is
// read-only here: only the admission engine's approval path mutates it.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a tournaments repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new tournament. The participant quota is fixed at
// creation.
func (r *Repository) Create(ctx context.Context, t *models.Tournament) error {
	const q = `INSERT INTO tournaments (id, title, description, location, starts_at, max_participants, status, created_by)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
		RETURNING id, current_participants, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, t.Title, t.Description, t.Location, t.StartsAt, t.MaxParticipants, string(t.Status), t.CreatedBy).
		Scan(&t.ID, &t.CurrentParticipants, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID returns a tournament by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	const q = `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	var t models.Tournament
	err := r.pool.QueryRow(ctx, q, id).Scan(&t.ID, &t.Title, &t.Description, &t.Location, &t.StartsAt,
		&t.MaxParticipants, &t.CurrentParticipants, &t.Status, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns tournaments, optionally filtered by status, upcoming first.
func (r *Repository) List(ctx context.Context, status *models.TournamentStatus) ([]models.Tournament, error) {
	q := `SELECT ` + tournamentColumns + ` FROM tournaments`
	var args []any
	if status != nil {
		q += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	q += ` ORDER BY starts_at DESC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Tournament
	for rows.Next() {
		var t models.Tournament
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Location, &t.StartsAt,
			&t.MaxParticipants, &t.CurrentParticipants, &t.Status, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Update updates tournament metadata. The quota and occupancy are not
// updatable through this path.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, title, description, location string, startsAt *time.Time) error {
	const q = `UPDATE tournaments SET title = $1, description = $2, location = $3,
		starts_at = COALESCE($4, starts_at), updated_at = NOW() WHERE id = $5`
	tag, err := r.pool.Exec(ctx, q, title, description, location, startsAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus moves a tournament to a new lifecycle status.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status models.TournamentStatus) error {
	const q = `UPDATE tournaments SET status = $1, updated_at = NOW() WHERE id = $2`
	tag, err := r.pool.Exec(ctx, q, string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

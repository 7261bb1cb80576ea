package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bcn-golf/backend/internal/models"
)

const userColumns = `id, email, password_hash, first_name, last_name, phone,
	COALESCE(vga_number, ''), COALESCE(shirt_size, ''), COALESCE(bio, ''),
	profile_pic_url, background_color_hex, created_at, updated_at`

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, q, email))
}

// CreateUserParams holds optional profile fields for registration.
type CreateUserParams struct {
	Phone     string
	VGANumber string
	ShirtSize string
	Bio       string
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, email, passwordHash, firstName, lastName string, profile *CreateUserParams) (*models.User, error) {
	const q = `INSERT INTO users (email, password_hash, first_name, last_name, phone, vga_number, shirt_size, bio)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))
		RETURNING ` + userColumns
	phone, vga, shirt, bio := "", "", "", ""
	if profile != nil {
		phone, vga, shirt, bio = profile.Phone, profile.VGANumber, profile.ShirtSize, profile.Bio
	}
	return scanUser(r.pool.QueryRow(ctx, q, email, passwordHash, firstName, lastName, phone, vga, shirt, bio))
}

// List returns all users for admin overview, ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, email, first_name, last_name,
		COALESCE(vga_number, ''), COALESCE(bio, ''), profile_pic_url, background_color_hex, created_at
		FROM users ORDER BY last_name, first_name, email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName,
			&u.VGANumber, &u.Bio, &u.ProfilePicURL, &u.BackgroundColorHex, &u.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.Phone,
		&u.VGANumber, &u.ShirtSize, &u.Bio, &u.ProfilePicURL, &u.BackgroundColorHex,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

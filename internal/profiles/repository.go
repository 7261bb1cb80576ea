package profiles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bcn-golf/backend/internal/models"
)

// ErrNotFound is returned when the requested profile does not exist.
var ErrNotFound = errors.New("user not found")

// Profile is a user profile with participation stats.
type Profile struct {
	models.UserPublic
	Phone           string `json:"phone,omitempty"`
	ShirtSize       string `json:"shirt_size,omitempty"`
	EntriesTotal    int    `json:"entries_total"`
	EntriesApproved int    `json:"entries_approved"`
}

// UpdateParams holds the editable profile fields.
type UpdateParams struct {
	FirstName          string
	LastName           string
	Phone              string
	VGANumber          string
	ShirtSize          string
	Bio                string
	ProfilePicURL      string
	BackgroundColorHex string
}

// Repository handles profile and directory reads.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a profiles repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProfile returns a user's profile with tournament entry stats.
func (r *Repository) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	const q = `SELECT u.id, u.email, u.first_name, u.last_name, u.phone,
			COALESCE(u.vga_number, ''), COALESCE(u.shirt_size, ''), COALESCE(u.bio, ''),
			u.profile_pic_url, u.background_color_hex, u.created_at,
			COUNT(r.id) FILTER (WHERE r.kind = 'TOURNAMENT_ENTRY'),
			COUNT(r.id) FILTER (WHERE r.kind = 'TOURNAMENT_ENTRY' AND r.status = 'APPROVED')
		FROM users u
		LEFT JOIN admission_requests r ON r.applicant_id = u.id
		WHERE u.id = $1
		GROUP BY u.id`
	var p Profile
	err := r.pool.QueryRow(ctx, q, userID).Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.Phone,
		&p.VGANumber, &p.ShirtSize, &p.Bio, &p.ProfilePicURL, &p.BackgroundColorHex, &p.CreatedAt,
		&p.EntriesTotal, &p.EntriesApproved)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile updates the editable profile fields and returns the
// updated profile.
func (r *Repository) UpdateProfile(ctx context.Context, userID uuid.UUID, params UpdateParams) (*Profile, error) {
	const q = `UPDATE users SET first_name = $1, last_name = $2, phone = $3,
			vga_number = NULLIF($4, ''), shirt_size = NULLIF($5, ''), bio = NULLIF($6, ''),
			profile_pic_url = COALESCE(NULLIF($7, ''), 'default_avatar.png'),
			background_color_hex = COALESCE(NULLIF($8, ''), '#64748b'),
			updated_at = NOW()
		WHERE id = $9`
	tag, err := r.pool.Exec(ctx, q, params.FirstName, params.LastName, params.Phone,
		params.VGANumber, params.ShirtSize, params.Bio, params.ProfilePicURL, params.BackgroundColorHex, userID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetProfile(ctx, userID)
}

// Directory returns all users with their live-derived role, members
// and admins first. The role here repeats the resolver's derivation in
// SQL for display only; authorization always goes through the resolver.
func (r *Repository) Directory(ctx context.Context) ([]models.UserPublic, error) {
	const q = `SELECT u.id, u.email, u.first_name, u.last_name,
			COALESCE(u.vga_number, ''), COALESCE(u.bio, ''), u.profile_pic_url, u.background_color_hex, u.created_at,
			CASE
				WHEN EXISTS(SELECT 1 FROM admins a WHERE a.user_id = u.id) THEN 'ADMIN'
				WHEN EXISTS(SELECT 1 FROM admission_requests r
					WHERE r.applicant_id = u.id AND r.kind = 'MEMBERSHIP' AND r.status = 'APPROVED') THEN 'MEMBER'
				ELSE 'GUEST'
			END AS role
		FROM users u
		ORDER BY role, u.last_name, u.first_name`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		var role string
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName,
			&u.VGANumber, &u.Bio, &u.ProfilePicURL, &u.BackgroundColorHex, &u.CreatedAt, &role); err != nil {
			return nil, err
		}
		u.Role = models.Role(role)
		list = append(list, u)
	}
	return list, rows.Err()
}

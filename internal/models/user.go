package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the effective role of a user, derived from the admission
// history and the administrator roster. It is never stored on the user
// row; resolve it through admission.Resolver.
type Role string

const (
	RoleGuest  Role = "GUEST"
	RoleMember Role = "MEMBER"
	RoleAdmin  Role = "ADMIN"
)

// User represents a club user account.
type User struct {
	ID                 uuid.UUID `json:"id"`
	Email              string    `json:"email"`
	Password           string    `json:"-"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	Phone              string    `json:"phone"`
	VGANumber          string    `json:"vga_number,omitempty"`
	ShirtSize          string    `json:"shirt_size,omitempty"`
	Bio                string    `json:"bio,omitempty"`
	ProfilePicURL      string    `json:"profile_pic_url"`
	BackgroundColorHex string    `json:"background_color_hex"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID                 uuid.UUID `json:"id"`
	Email              string    `json:"email"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	VGANumber          string    `json:"vga_number,omitempty"`
	Bio                string    `json:"bio,omitempty"`
	ProfilePicURL      string    `json:"profile_pic_url"`
	BackgroundColorHex string    `json:"background_color_hex"`
	Role               Role      `json:"role,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic. Role is left empty; callers that
// need it attach the resolved role explicitly.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:                 u.ID,
		Email:              u.Email,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		VGANumber:          u.VGANumber,
		Bio:                u.Bio,
		ProfilePicURL:      u.ProfilePicURL,
		BackgroundColorHex: u.BackgroundColorHex,
		CreatedAt:          u.CreatedAt,
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the platform.
type Role string

const (
	RoleMusician  Role = "musician"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMusician, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// User represents a platform account.
type User struct {
	ID             uuid.UUID
	Username       string
	Email          string
	Password       string
	Role           Role
	ProfilePicture string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ToPublic converts User to UserPublic. fileURL maps the stored picture reference to a client URL.
func (u *User) ToPublic(fileURL func(string) string) UserPublic {
	pic := u.ProfilePicture
	if pic != "" && fileURL != nil {
		pic = fileURL(pic)
	}
	return UserPublic{
		ID:             u.ID.String(),
		Username:       u.Username,
		Email:          u.Email,
		Role:           u.Role,
		ProfilePicture: pic,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// UserUpdate is a partial user change; nil fields stay untouched.
type UserUpdate struct {
	Username       *string
	Email          *string
	Password       *string // already hashed when it reaches the repository
	Role           *Role
	ProfilePicture *string
}

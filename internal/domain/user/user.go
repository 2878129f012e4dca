package user

import (
	"errors"
	"time"
)

// Role is a closed set; anything else is rejected at binding time.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

var ErrNotFound = errors.New("user not found")

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanModify is the self-or-admin rule shared by every resource: the actor
// may mutate a resource it owns, and admins may mutate anything. A nil
// owner means the resource has no owner on record, so only admins qualify.
func (u User) CanModify(ownerID *string) bool {
	if u.IsAdmin() {
		return true
	}

	return ownerID != nil && *ownerID == u.ID
}

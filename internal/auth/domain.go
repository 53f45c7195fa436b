package auth

import (
	"time"

	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

// User represents an authenticated employee account.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         shared.Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor converts the account to the authorization subject services expect.
func (u *User) Actor() *shared.Actor {
	if u == nil {
		return nil
	}
	return &shared.Actor{ID: u.ID, Name: u.Name, Role: u.Role}
}

// Package auth describes who is calling the ledger and order services.
package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrUserNotFound is returned when a referenced user does not exist.
var ErrUserNotFound = errors.New("user not found")

// Role is the coarse permission level of a user.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID int64
	Role   Role
}

// IsAdmin reports whether the actor holds the Admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanAccess reports whether the actor may read data owned by userID.
func (a Actor) CanAccess(userID int64) bool {
	return a.IsAdmin() || a.UserID == userID
}

// User is a registered account.
type User struct {
	ID    int64
	Email string
	Role  Role
}

// Users reads user accounts.
type Users interface {
	GetUser(ctx context.Context, id int64) (*User, error)
}

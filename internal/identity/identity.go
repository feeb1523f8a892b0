// Package identity provides the user directory backing session
// authentication and service access control.
package identity

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Role is a user's role within the gateway.
type Role string

// Roles.
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Sentinel errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Identity is a gateway user. AllowedServices lists the service names a
// regular user may reach; admins bypass the list entirely.
type Identity struct {
	UserID          string   `bson:"_id" json:"userId"`
	Username        string   `bson:"username" json:"username"`
	Role            Role     `bson:"role" json:"role"`
	AllowedServices []string `bson:"allowedServices" json:"allowedServices"`
	PasswordHash    string   `bson:"passwordHash" json:"-"`
}

// IsAdmin reports whether the identity holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// CheckPassword compares a plaintext password against the stored hash.
func (i Identity) CheckPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(i.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword produces a bcrypt hash suitable for Identity.PasswordHash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Directory looks up gateway users.
type Directory interface {
	// GetUserByID returns the identity for a user ID, or ErrUserNotFound.
	GetUserByID(ctx context.Context, userID string) (Identity, error)

	// GetUserByUsername returns the identity for a login name, or
	// ErrUserNotFound.
	GetUserByUsername(ctx context.Context, username string) (Identity, error)
}

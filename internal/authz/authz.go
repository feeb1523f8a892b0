// Package authz decides which services a user may reach through the
// gateway. Admins bypass the per-user allow-list; everyone else must
// have the service named in their AllowedServices.
package authz

import (
	"errors"
	"fmt"

	"github.com/lunatria/starlight/internal/identity"
)

// Sentinel errors.
var (
	ErrOnlyForAdmin    = errors.New("operation is restricted to admins")
	ErrNoServiceAccess = errors.New("user has no access to service")
)

// AccessDeniedError carries the denied user and service for audit and
// response purposes.
type AccessDeniedError struct {
	UserID  string
	Service string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("user %s has no access to service %s", e.UserID, e.Service)
}

func (e *AccessDeniedError) Unwrap() error {
	return ErrNoServiceAccess
}

// RequireAdmin returns ErrOnlyForAdmin unless the identity holds the
// admin role.
func RequireAdmin(user identity.Identity) error {
	if !user.IsAdmin() {
		return ErrOnlyForAdmin
	}
	return nil
}

// RequireServiceAccess returns an error unless the identity may reach
// the named service. Admins are always allowed. Service names match
// exactly and case-sensitively; a nil or empty list denies everything.
func RequireServiceAccess(user identity.Identity, service string) error {
	if user.IsAdmin() {
		return nil
	}

	for _, allowed := range user.AllowedServices {
		if allowed == service {
			return nil
		}
	}

	return &AccessDeniedError{UserID: user.UserID, Service: service}
}

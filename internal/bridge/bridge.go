// Package bridge turns stored backend credentials into live
// backend-native credentials: API tokens for token-kind services and
// session cookies for cookie-kind services.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lunatria/starlight/internal/credentials"
)

// Credential kinds.
const (
	KindToken  = "token"
	KindCookie = "cookie"
)

// CookieTTL is how long derived session cookies stay cached. Backends
// issue cookies with their own lifetime, so the cache must not outlive
// them.
const CookieTTL = 24 * time.Hour

// Sentinel errors.
var (
	ErrNoStoredCredential = errors.New("no stored credential for user and service")
	ErrLoginFailed        = errors.New("backend login failed")
	ErrUnknownKind        = errors.New("unknown bridge kind")
	ErrUnknownService     = errors.New("unknown service")
)

// Credential is a derived backend-native credential. Kind selects which
// fields are populated: token credentials carry AccessToken, ServerID
// and BackendUserID; cookie credentials carry Cookie as a single
// "name=value" pair.
type Credential struct {
	Kind          string `json:"kind"`
	AccessToken   string `json:"accessToken,omitempty"`
	ServerID      string `json:"serverId,omitempty"`
	BackendUserID string `json:"backendUserId,omitempty"`
	Cookie        string `json:"cookie,omitempty"`
}

// Bridge performs a live login against one backend service.
type Bridge interface {
	// Kind reports the credential kind this bridge produces.
	Kind() string

	// Login authenticates against the backend with the stored
	// credential and returns the derived credential. ErrLoginFailed is
	// returned for any backend rejection.
	Login(ctx context.Context, cred credentials.BasicCredential) (Credential, error)
}

// CacheKey is the derived-credential cache key for a user and service.
// Token and cookie entries are namespaced separately so a service
// changing kind never serves a stale credential of the old shape.
func CacheKey(service, kind, userID string) string {
	return fmt.Sprintf("%s:%s:%s", service, kind, userID)
}

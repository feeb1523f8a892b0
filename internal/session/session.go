// Package session issues and verifies the gateway's own session
// cookies. Sessions are signed HS256 JWTs carrying the user ID as the
// subject; backend-native credentials are never placed in them.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Issuer is the iss claim placed in session tokens.
const Issuer = "starlight-gateway"

// MinSigningKeySize is the minimum accepted HMAC key length in bytes.
const MinSigningKeySize = 32

// Sentinel errors.
var (
	ErrInvalidSigningKey = errors.New("session signing key must be at least 32 bytes")
	ErrInvalidToken      = errors.New("invalid session token")
	ErrTokenExpired      = errors.New("session token expired")
)

// Manager issues and verifies session tokens.
type Manager struct {
	signingKey []byte
	ttl        time.Duration
}

// NewManager creates a session manager. It fails fast when the signing
// key is too short.
func NewManager(signingKey string, ttl time.Duration) (*Manager, error) {
	if len(signingKey) < MinSigningKeySize {
		return nil, ErrInvalidSigningKey
	}
	return &Manager{signingKey: []byte(signingKey), ttl: ttl}, nil
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a signed session token for a user ID.
func (m *Manager) Issue(userID string) (string, error) {
	now := time.Now()

	token, err := jwt.NewBuilder().
		Issuer(Issuer).
		Subject(userID).
		IssuedAt(now).
		Expiration(now.Add(m.ttl)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build session token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, m.signingKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return string(signed), nil
}

// Verify validates a session token and returns the user ID it carries.
func (m *Manager) Verify(raw string) (string, error) {
	token, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, m.signingKey),
		jwt.WithIssuer(Issuer),
		jwt.WithValidate(true),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}

	userID := token.Subject()
	if userID == "" {
		return "", ErrInvalidToken
	}

	return userID, nil
}

// Package secrets provides a unified interface for resolving startup
// secrets (encryption key, session signing key) from multiple backends.
package secrets

import (
	"context"
	"errors"
)

// ProviderType represents the type of secrets provider.
type ProviderType string

const (
	// ProviderTypeEnv uses environment variables as the backend.
	ProviderTypeEnv ProviderType = "env"
	// ProviderTypeVault uses HashiCorp Vault as the backend.
	ProviderTypeVault ProviderType = "vault"
)

// Common errors for secrets providers.
var (
	// ErrSecretNotFound is returned when a secret is not found.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrProviderNotConfigured is returned when the provider is not properly configured.
	ErrProviderNotConfigured = errors.New("provider not configured")

	// ErrInvalidProviderType is returned when an unknown provider type is specified.
	ErrInvalidProviderType = errors.New("invalid provider type")
)

// Provider is the interface for secrets providers.
type Provider interface {
	// Type returns the provider type.
	Type() ProviderType

	// GetSecret retrieves a secret value by name. Returns ErrSecretNotFound
	// when the secret does not exist.
	GetSecret(ctx context.Context, name string) (string, error)

	// Close cleans up provider resources.
	Close() error
}

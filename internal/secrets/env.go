package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lunatria/starlight/internal/observability"
)

// DefaultEnvPrefix is the default prefix for environment variable secrets.
const DefaultEnvPrefix = "STARLIGHT_SECRET_"

// EnvProvider implements Provider using environment variables. A secret
// name "encryption-key" maps to the env var "{PREFIX}ENCRYPTION_KEY".
type EnvProvider struct {
	prefix string
	logger observability.Logger
}

// NewEnvProvider creates a new environment variable secrets provider.
func NewEnvProvider(prefix string, logger observability.Logger) *EnvProvider {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	return &EnvProvider{
		prefix: prefix,
		logger: logger,
	}
}

// Type returns the provider type.
func (p *EnvProvider) Type() ProviderType {
	return ProviderTypeEnv
}

// normalizeEnvName converts a secret name to an environment variable name.
func (p *EnvProvider) normalizeEnvName(name string) string {
	envName := strings.ToUpper(name)
	envName = strings.ReplaceAll(envName, "-", "_")
	envName = strings.ReplaceAll(envName, ".", "_")
	envName = strings.ReplaceAll(envName, "/", "_")
	return p.prefix + envName
}

// GetSecret retrieves a secret from an environment variable.
func (p *EnvProvider) GetSecret(_ context.Context, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty secret name", ErrSecretNotFound)
	}

	envName := p.normalizeEnvName(name)

	value, exists := os.LookupEnv(envName)
	if !exists {
		p.logger.Debug("environment variable not found",
			observability.String("envVar", envName))
		return "", fmt.Errorf("%w: environment variable %s not set", ErrSecretNotFound, envName)
	}

	return value, nil
}

// Close is a no-op for the environment provider.
func (p *EnvProvider) Close() error {
	return nil
}

package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunatria/starlight/internal/config"
)

func TestEnvProviderGetSecret(t *testing.T) {
	t.Setenv("STARLIGHT_SECRET_ENCRYPTION_KEY", "abc")

	p := NewEnvProvider("", nil)
	assert.Equal(t, ProviderTypeEnv, p.Type())

	value, err := p.GetSecret(context.Background(), "encryption-key")
	require.NoError(t, err)
	assert.Equal(t, "abc", value)
}

func TestEnvProviderNotFound(t *testing.T) {
	p := NewEnvProvider("TEST_UNSET_", nil)

	_, err := p.GetSecret(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestEnvProviderCustomPrefix(t *testing.T) {
	t.Setenv("CUSTOM_SESSION_SIGNING_KEY", "xyz")

	p := NewEnvProvider("CUSTOM_", nil)

	value, err := p.GetSecret(context.Background(), "session.signing/key")
	require.NoError(t, err)
	assert.Equal(t, "xyz", value)
}

func TestNewProviderFromConfig(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *config.SecretsConfig
		wantType  ProviderType
		expectErr bool
	}{
		{
			name:     "env provider",
			cfg:      &config.SecretsConfig{Provider: "env"},
			wantType: ProviderTypeEnv,
		},
		{
			name:     "empty defaults to env",
			cfg:      &config.SecretsConfig{},
			wantType: ProviderTypeEnv,
		},
		{
			name:      "vault without config",
			cfg:       &config.SecretsConfig{Provider: "vault"},
			expectErr: true,
		},
		{
			name:      "unknown provider",
			cfg:       &config.SecretsConfig{Provider: "consul"},
			expectErr: true,
		},
		{
			name:      "nil config",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg, nil)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, p.Type())
		})
	}
}

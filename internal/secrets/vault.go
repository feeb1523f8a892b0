package secrets

import (
	"context"
	"errors"
	"fmt"

	vaultapi "github.com/hashicorp/vault/api"

	"github.com/lunatria/starlight/internal/observability"
)

// valueKey is the KV data key a secret's value is stored under.
const valueKey = "value"

// VaultProviderConfig holds configuration for the Vault secrets provider.
type VaultProviderConfig struct {
	// Address is the Vault server address.
	Address string
	// Token is the Vault token.
	Token string
	// Mount is the KV secrets engine mount point. Default: "secret".
	Mount string
	// KVVersion selects KV v1 or v2. Default: 2.
	KVVersion int
	// Logger is the logger instance.
	Logger observability.Logger
}

// VaultProvider implements Provider using HashiCorp Vault's KV engine.
type VaultProvider struct {
	client    *vaultapi.Client
	mount     string
	kvVersion int
	logger    observability.Logger
}

// NewVaultProvider creates a new Vault secrets provider.
func NewVaultProvider(cfg *VaultProviderConfig) (*VaultProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", ErrProviderNotConfigured)
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("%w: vault address is required", ErrProviderNotConfigured)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	clientConfig := vaultapi.DefaultConfig()
	clientConfig.Address = cfg.Address

	client, err := vaultapi.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}

	mount := cfg.Mount
	if mount == "" {
		mount = "secret"
	}
	kvVersion := cfg.KVVersion
	if kvVersion == 0 {
		kvVersion = 2
	}

	logger.Info("vault secrets provider initialized",
		observability.String("address", cfg.Address),
		observability.String("mount", mount),
		observability.Int("kvVersion", kvVersion))

	return &VaultProvider{
		client:    client,
		mount:     mount,
		kvVersion: kvVersion,
		logger:    logger,
	}, nil
}

// Type returns the provider type.
func (p *VaultProvider) Type() ProviderType {
	return ProviderTypeVault
}

// GetSecret reads a secret from the KV engine. The secret must hold its
// value under the "value" data key.
func (p *VaultProvider) GetSecret(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty secret name", ErrSecretNotFound)
	}

	data, err := p.readKV(ctx, name)
	if err != nil {
		if errors.Is(err, vaultapi.ErrSecretNotFound) {
			return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
		}
		return "", fmt.Errorf("vault read failed for %s: %w", name, err)
	}

	value, ok := data[valueKey].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: secret %s has no %q key", ErrSecretNotFound, name, valueKey)
	}

	return value, nil
}

// readKV reads the secret data, dispatching on KV engine version.
func (p *VaultProvider) readKV(ctx context.Context, name string) (map[string]interface{}, error) {
	if p.kvVersion == 1 {
		secret, err := p.client.KVv1(p.mount).Get(ctx, name)
		if err != nil {
			return nil, err
		}
		return secret.Data, nil
	}

	secret, err := p.client.KVv2(p.mount).Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return secret.Data, nil
}

// Close is a no-op for the Vault provider.
func (p *VaultProvider) Close() error {
	return nil
}

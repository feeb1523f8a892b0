package secrets

import (
	"fmt"

	"github.com/lunatria/starlight/internal/config"
	"github.com/lunatria/starlight/internal/observability"
)

// NewProvider creates a secrets provider from gateway configuration.
func NewProvider(cfg *config.SecretsConfig, logger observability.Logger) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", ErrProviderNotConfigured)
	}

	switch ProviderType(cfg.Provider) {
	case ProviderTypeEnv, "":
		prefix := ""
		if cfg.Env != nil {
			prefix = cfg.Env.Prefix
		}
		return NewEnvProvider(prefix, logger), nil

	case ProviderTypeVault:
		if cfg.Vault == nil {
			return nil, fmt.Errorf("%w: vault config is required for vault provider", ErrProviderNotConfigured)
		}
		return NewVaultProvider(&VaultProviderConfig{
			Address:   cfg.Vault.Address,
			Token:     cfg.Vault.Token,
			Mount:     cfg.Vault.Mount,
			KVVersion: cfg.Vault.KVVersion,
			Logger:    logger,
		})

	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProviderType, cfg.Provider)
	}
}

package credentials

import (
	"context"

	"github.com/lunatria/starlight/internal/observability"
)

// BasicCredential is the stored secret shape for backends that log in
// with a username and password.
type BasicCredential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Vault encrypts secrets before persisting them and decrypts them on
// read. Decrypted secrets are never persisted.
type Vault struct {
	cipher *Cipher
	store  Store
	logger observability.Logger
}

// NewVault creates a Vault. The key must be exactly 32 bytes; a wrong
// length fails here, at construction.
func NewVault(key []byte, store Store, logger observability.Logger) (*Vault, error) {
	cipher, err := NewCipher(key)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	return &Vault{
		cipher: cipher,
		store:  store,
		logger: logger,
	}, nil
}

// Set encrypts the secret and upserts the record for (userID, service).
func (v *Vault) Set(ctx context.Context, userID, service string, secret interface{}) error {
	payload, err := v.cipher.Encrypt(secret)
	if err != nil {
		return err
	}

	if err := v.store.Upsert(ctx, userID, service, payload); err != nil {
		return err
	}

	v.logger.Info("credential stored",
		observability.String("userId", userID),
		observability.String("service", service))

	return nil
}

// Get decrypts the stored secret for (userID, service) into out. The
// second return value is false when no record exists; decryption
// failures are returned as errors, never conflated with absence.
func (v *Vault) Get(ctx context.Context, userID, service string, out interface{}) (bool, error) {
	payload, found, err := v.store.Find(ctx, userID, service)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	if err := v.cipher.Decrypt(payload, out); err != nil {
		return false, err
	}

	return true, nil
}

// Delete removes the record for (userID, service). Deleting a missing
// record is a silent no-op.
func (v *Vault) Delete(ctx context.Context, userID, service string) error {
	if err := v.store.Delete(ctx, userID, service); err != nil {
		return err
	}

	v.logger.Info("credential deleted",
		observability.String("userId", userID),
		observability.String("service", service))

	return nil
}

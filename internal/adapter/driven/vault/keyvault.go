package vault

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
	"github.com/ericfisherdev/tokenvault/internal/domain/port/driven"
)

// ResetHook is called after an existing master key was replaced. Every secret
// sealed under the previous key is unreadable from that point on.
type ResetHook func(ctx context.Context, reason string)

// KeyVault owns the single master key, stored base64-encoded in the backend
// under (service, entry).
type KeyVault struct {
	backend driven.SecretBackend
	service string
	entry   string
	logger  zerolog.Logger
	onReset ResetHook
	rand    io.Reader

	// mu serializes create/replace so concurrent first use cannot write two keys.
	mu sync.Mutex
}

// KeyVaultOption configures a KeyVault.
type KeyVaultOption func(*KeyVault)

// WithKeyLogger sets the logger used for key lifecycle events.
func WithKeyLogger(l zerolog.Logger) KeyVaultOption {
	return func(v *KeyVault) { v.logger = l }
}

// WithResetHook registers fn to be told when a key is regenerated.
func WithResetHook(fn ResetHook) KeyVaultOption {
	return func(v *KeyVault) { v.onReset = fn }
}

// WithKeyEntry overrides the backend entry name of the master key.
func WithKeyEntry(name string) KeyVaultOption {
	return func(v *KeyVault) { v.entry = name }
}

// NewKeyVault creates a KeyVault storing its key under service.
func NewKeyVault(backend driven.SecretBackend, service string, opts ...KeyVaultOption) *KeyVault {
	v := &KeyVault{
		backend: backend,
		service: service,
		entry:   model.MasterKeyName,
		logger:  zerolog.Nop(),
		rand:    rand.Reader,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Service returns the backend service name shared by the key and all secrets.
func (v *KeyVault) Service() string { return v.service }

// EntryName returns the backend entry name holding the key.
func (v *KeyVault) EntryName() string { return v.entry }

// GetOrCreateKey returns the master key, creating it on first use. A stored
// key that is ambiguous, undecodable, or not KeySize bytes is replaced and the
// reset hook fires.
func (v *KeyVault) GetOrCreateKey(ctx context.Context) ([]byte, error) {
	const op = "vault.GetOrCreateKey"

	v.mu.Lock()
	defer v.mu.Unlock()

	encoded, err := v.backend.Get(ctx, v.service, v.entry)
	switch {
	case errors.Is(err, driven.ErrSecretNotFound):
		v.logger.Info().Str("entry", v.entry).Msg("creating master key")
		return v.writeNewKey(ctx, op)
	case errors.Is(err, driven.ErrSecretAmbiguous):
		return v.replace(ctx, op, "ambiguous key entry")
	case err != nil:
		return nil, model.NewError(model.KindKeyManagement, op, err)
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return v.replace(ctx, op, "key entry is not valid base64")
	}
	if len(key) != KeySize {
		return v.replace(ctx, op, fmt.Sprintf("key entry is %d bytes", len(key)))
	}
	return key, nil
}

// ResetKey unconditionally replaces the master key.
func (v *KeyVault) ResetKey(ctx context.Context) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.replace(ctx, "vault.ResetKey", "explicit reset")
}

func (v *KeyVault) replace(ctx context.Context, op, reason string) ([]byte, error) {
	key, err := v.writeNewKey(ctx, op)
	if err != nil {
		return nil, err
	}
	v.logger.Warn().Str("entry", v.entry).Str("reason", reason).
		Msg("master key regenerated; previously stored secrets are unreadable")
	if v.onReset != nil {
		v.onReset(ctx, reason)
	}
	return key, nil
}

func (v *KeyVault) writeNewKey(ctx context.Context, op string) ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(v.rand, key); err != nil {
		return nil, model.NewError(model.KindKeyManagement, op, fmt.Errorf("generate key: %w", err))
	}
	if err := v.backend.Set(ctx, v.service, v.entry, base64.StdEncoding.EncodeToString(key)); err != nil {
		return nil, model.NewError(model.KindKeyManagement, op, err)
	}
	return key, nil
}

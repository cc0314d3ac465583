package vault

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
	"github.com/ericfisherdev/tokenvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*Store)(nil)

// Store encrypts named secrets with the KeyVault's master key and persists the
// envelopes in the backend under the same service as the key.
type Store struct {
	backend driven.SecretBackend
	keys    *KeyVault
	cipher  Cipher
	logger  zerolog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCipher replaces the default AES-256-GCM cipher.
func WithCipher(c Cipher) StoreOption {
	return func(s *Store) { s.cipher = c }
}

// WithStoreLogger sets the logger.
func WithStoreLogger(l zerolog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a Store.
func NewStore(backend driven.SecretBackend, keys *KeyVault, opts ...StoreOption) *Store {
	s := &Store{
		backend: backend,
		keys:    keys,
		cipher:  NewAESGCM(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store encrypts plaintext and writes it under name, replacing any previous value.
func (s *Store) Store(ctx context.Context, name, plaintext string) error {
	const op = "vault.Store"
	if err := s.checkName(op, name); err != nil {
		return err
	}

	key, err := s.keys.GetOrCreateKey(ctx)
	if err != nil {
		return storageErr(op, err)
	}
	rec, err := s.cipher.Encrypt(key, []byte(plaintext))
	if err != nil {
		return storageErr(op, err)
	}
	text, err := EncodeEnvelope(rec)
	if err != nil {
		return storageErr(op, err)
	}

	if err := s.backend.Set(ctx, s.keys.Service(), name, text); err != nil {
		return storageErr(op, err)
	}
	return nil
}

// Retrieve returns the decrypted value of name. Absent and ambiguous entries
// report ok=false; an entry that fails to decrypt is a Storage error wrapping
// the Decryption error.
func (s *Store) Retrieve(ctx context.Context, name string) (string, bool, error) {
	const op = "vault.Retrieve"
	if err := s.checkName(op, name); err != nil {
		return "", false, err
	}

	text, err := s.backend.Get(ctx, s.keys.Service(), name)
	switch {
	case errors.Is(err, driven.ErrSecretNotFound):
		return "", false, nil
	case errors.Is(err, driven.ErrSecretAmbiguous):
		s.logger.Warn().Str("secret", name).Msg("ambiguous secret entry treated as unset")
		return "", false, nil
	case err != nil:
		return "", false, storageErr(op, err)
	}

	rec, err := DecodeEnvelope(text)
	if err != nil {
		return "", false, storageErr(op, err)
	}
	key, err := s.keys.GetOrCreateKey(ctx)
	if err != nil {
		return "", false, storageErr(op, err)
	}
	plaintext, err := s.cipher.Decrypt(key, rec)
	if err != nil {
		return "", false, storageErr(op, err)
	}
	return string(plaintext), true, nil
}

// Delete removes name. Absent and ambiguous entries are a no-op.
func (s *Store) Delete(ctx context.Context, name string) error {
	const op = "vault.Delete"
	if err := s.checkName(op, name); err != nil {
		return err
	}

	err := s.backend.Delete(ctx, s.keys.Service(), name)
	switch {
	case err == nil, errors.Is(err, driven.ErrSecretNotFound):
		return nil
	case errors.Is(err, driven.ErrSecretAmbiguous):
		s.logger.Warn().Str("secret", name).Msg("ambiguous secret entry left in place")
		return nil
	default:
		return storageErr(op, err)
	}
}

func (s *Store) checkName(op, name string) error {
	if name == "" {
		return model.Errorf(model.KindStorage, op, "secret name is empty")
	}
	if name == s.keys.EntryName() {
		return model.Errorf(model.KindStorage, op, "%q is reserved for the master key", name)
	}
	return nil
}

func storageErr(op string, err error) error {
	return model.NewError(model.KindStorage, op, err)
}

// Package keyring provides SecretBackend implementations over the platform
// keyring and over process memory.
package keyring

import (
	"context"
	"errors"
	"fmt"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/ericfisherdev/tokenvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SecretBackend = (*OSKeyring)(nil)

// OSKeyring stores secrets in the operating system keyring (Keychain, Secret
// Service, or Windows Credential Manager).
type OSKeyring struct{}

// NewOSKeyring creates an OSKeyring.
func NewOSKeyring() *OSKeyring {
	return &OSKeyring{}
}

// Get reads an entry. The platform calls are synchronous, so ctx is only
// checked before the call.
func (k *OSKeyring) Get(ctx context.Context, service, account string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	value, err := gokeyring.Get(service, account)
	if err != nil {
		return "", mapKeyringErr("get", account, err)
	}
	return value, nil
}

// Set writes an entry, replacing any existing value.
func (k *OSKeyring) Set(ctx context.Context, service, account, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := gokeyring.Set(service, account, value); err != nil {
		return mapKeyringErr("set", account, err)
	}
	return nil
}

// Delete removes an entry.
func (k *OSKeyring) Delete(ctx context.Context, service, account string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := gokeyring.Delete(service, account); err != nil {
		return mapKeyringErr("delete", account, err)
	}
	return nil
}

func mapKeyringErr(op, account string, err error) error {
	if errors.Is(err, gokeyring.ErrNotFound) {
		return driven.ErrSecretNotFound
	}
	return fmt.Errorf("keyring %s %q: %w", op, account, err)
}

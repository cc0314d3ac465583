package driven

import (
	"context"
	"errors"
)

var (
	// ErrSecretNotFound is returned by SecretBackend.Get when no entry exists.
	ErrSecretNotFound = errors.New("secret not found")
	// ErrSecretAmbiguous is returned when the platform store holds more than one
	// entry matching a name and cannot say which is current.
	ErrSecretAmbiguous = errors.New("secret entry is ambiguous")
)

// SecretBackend is the external text store holding encrypted envelopes and the
// master key. Entries are addressed by (service, account).
type SecretBackend interface {
	// Get returns ErrSecretNotFound when the entry does not exist.
	Get(ctx context.Context, service, account string) (string, error)
	// Set overwrites any existing value.
	Set(ctx context.Context, service, account, value string) error
	// Delete returns ErrSecretNotFound when the entry does not exist.
	Delete(ctx context.Context, service, account string) error
}

// SecretLister is implemented by backends that can enumerate their entries.
// Platform keyrings generally cannot.
type SecretLister interface {
	Accounts(ctx context.Context, service string) ([]string, error)
}

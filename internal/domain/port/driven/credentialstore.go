package driven

import "context"

// CredentialStore defines the driven port for encrypted secret persistence.
// Implementations encrypt on Store and decrypt on Retrieve; this interface
// operates on plaintext values at the domain boundary.
type CredentialStore interface {
	// Store writes plaintext under name, replacing any previous value.
	Store(ctx context.Context, name, plaintext string) error

	// Retrieve returns (plaintext, true, nil) for a readable entry and
	// ("", false, nil) when no usable entry exists. An entry that exists but
	// cannot be decrypted is an error, never reported as absent.
	Retrieve(ctx context.Context, name string) (string, bool, error)

	// Delete removes name. Deleting an absent name succeeds.
	Delete(ctx context.Context, name string) error
}

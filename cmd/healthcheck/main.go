package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ericfisherdev/tokenvault/internal/adapter/driven/vault"
	"github.com/ericfisherdev/tokenvault/internal/app"
	"github.com/ericfisherdev/tokenvault/internal/config"
	"github.com/ericfisherdev/tokenvault/internal/domain/port/driven"
)

const probeName = "healthcheck_probe"

func main() {
	os.Exit(check())
}

func check() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "healthcheck:", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	backend, closeBackend, err := app.NewBackend(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "healthcheck:", err)
		return 1
	}
	defer func() { _ = closeBackend() }()

	keys := vault.NewKeyVault(backend, cfg.KeyringService)
	if err := roundTrip(ctx, vault.NewStore(backend, keys)); err != nil {
		fmt.Fprintln(os.Stderr, "healthcheck:", err)
		return 1
	}
	return 0
}

// roundTrip stores, reads back, and deletes a probe secret.
func roundTrip(ctx context.Context, store driven.CredentialStore) error {
	want := time.Now().UTC().Format(time.RFC3339Nano)
	if err := store.Store(ctx, probeName, want); err != nil {
		return err
	}
	defer func() { _ = store.Delete(ctx, probeName) }()

	got, ok, err := store.Retrieve(ctx, probeName)
	if err != nil {
		return err
	}
	if !ok || got != want {
		return fmt.Errorf("probe secret read back %q, want %q", got, want)
	}
	return nil
}

package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/tokenvault/internal/adapter/driven/keyring"
	"github.com/ericfisherdev/tokenvault/internal/adapter/driven/vault"
	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

func TestRoundTrip(t *testing.T) {
	backend := keyring.NewMemory()
	store := vault.NewStore(backend, vault.NewKeyVault(backend, model.DefaultKeyringService))

	require.NoError(t, roundTrip(context.Background(), store))

	_, ok, err := store.Retrieve(context.Background(), probeName)
	require.NoError(t, err)
	assert.False(t, ok, "probe secret is removed")
	assert.Equal(t, 1, backend.Len(), "only the master key remains")
}

func TestCheck_MemoryBackend(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TOKENVAULT_BACKEND", "memory")

	assert.Equal(t, 0, check())
}

func TestCheck_InvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TOKENVAULT_BACKEND", "etcd")

	assert.Equal(t, 1, check())
}

package keyring

import (
	"context"
	"sort"
	"sync"

	"github.com/ericfisherdev/tokenvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.SecretBackend = (*Memory)(nil)
	_ driven.SecretLister  = (*Memory)(nil)
)

type entryKey struct {
	service string
	account string
}

// Memory is an in-process SecretBackend. Nothing survives a restart; it backs
// the "memory" backend setting and tests.
type Memory struct {
	mu        sync.RWMutex
	entries   map[entryKey]string
	ambiguous map[entryKey]bool
}

// NewMemory creates an empty Memory backend.
func NewMemory() *Memory {
	return &Memory{
		entries:   make(map[entryKey]string),
		ambiguous: make(map[entryKey]bool),
	}
}

func (m *Memory) Get(_ context.Context, service, account string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	k := entryKey{service, account}
	if m.ambiguous[k] {
		return "", driven.ErrSecretAmbiguous
	}
	v, ok := m.entries[k]
	if !ok {
		return "", driven.ErrSecretNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, service, account, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := entryKey{service, account}
	delete(m.ambiguous, k)
	m.entries[k] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, service, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := entryKey{service, account}
	if m.ambiguous[k] {
		return driven.ErrSecretAmbiguous
	}
	if _, ok := m.entries[k]; !ok {
		return driven.ErrSecretNotFound
	}
	delete(m.entries, k)
	return nil
}

// MarkAmbiguous makes the entry report ErrSecretAmbiguous until it is Set
// again, reproducing platform keyrings that hold duplicate items.
func (m *Memory) MarkAmbiguous(service, account string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ambiguous[entryKey{service, account}] = true
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Accounts lists the entry names stored under service, sorted.
func (m *Memory) Accounts(_ context.Context, service string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var accounts []string
	for k := range m.entries {
		if k.service == service {
			accounts = append(accounts, k.account)
		}
	}
	sort.Strings(accounts)
	return accounts, nil
}

package vault

import (
	"context"
	"time"

	"github.com/ericfisherdev/tokenvault/internal/domain/port/driven"
	"github.com/ericfisherdev/tokenvault/internal/metrics"
)

const metricsDomain = "vault"

// storeWithMetrics decorates a CredentialStore with operation metrics.
type storeWithMetrics struct {
	next    driven.CredentialStore
	metrics metrics.BusinessMetrics
}

// NewStoreWithMetrics wraps next so every call records a count and duration.
func NewStoreWithMetrics(next driven.CredentialStore, m metrics.BusinessMetrics) driven.CredentialStore {
	return &storeWithMetrics{next: next, metrics: m}
}

func (s *storeWithMetrics) Store(ctx context.Context, name, plaintext string) error {
	start := time.Now()
	err := s.next.Store(ctx, name, plaintext)
	metrics.Observe(ctx, s.metrics, metricsDomain, "store", start, err)
	return err
}

func (s *storeWithMetrics) Retrieve(ctx context.Context, name string) (string, bool, error) {
	start := time.Now()
	v, ok, err := s.next.Retrieve(ctx, name)
	metrics.Observe(ctx, s.metrics, metricsDomain, "retrieve", start, err)
	return v, ok, err
}

func (s *storeWithMetrics) Delete(ctx context.Context, name string) error {
	start := time.Now()
	err := s.next.Delete(ctx, name)
	metrics.Observe(ctx, s.metrics, metricsDomain, "delete", start, err)
	return err
}

package application

import (
	"context"
	"sort"
	"sync"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

// ClientRegistry holds the streaming client for each configured service.
// Clients may be replaced at runtime, for example after credentials change.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[model.ServiceName]*StreamingClient
}

// NewClientRegistry creates a registry holding clients.
func NewClientRegistry(clients ...*StreamingClient) *ClientRegistry {
	r := &ClientRegistry{clients: make(map[model.ServiceName]*StreamingClient, len(clients))}
	for _, c := range clients {
		r.clients[c.Service()] = c
	}
	return r
}

// Register adds c, replacing any client for the same service.
func (r *ClientRegistry) Register(c *StreamingClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.Service()] = c
}

// Get returns the client for svc.
func (r *ClientRegistry) Get(svc model.ServiceName) (*StreamingClient, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[svc]
	return c, ok
}

// Services lists registered services in name order.
func (r *ClientRegistry) Services() []model.ServiceName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.ServiceName, 0, len(r.clients))
	for svc := range r.clients {
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RecoverToken attempts to recover from an expired token by refreshing it.
// Without credentials there is nothing to refresh with and the user must
// re-authenticate.
func (r *ClientRegistry) RecoverToken(ctx context.Context, service string, creds *model.Credentials) (model.Token, error) {
	const op = "registry.RecoverToken"

	svc, err := model.ParseServiceName(service)
	if err != nil {
		return model.Token{}, model.NewError(model.KindInternal, op, err)
	}
	client, ok := r.Get(svc)
	if !ok {
		return model.Token{}, model.Errorf(model.KindInternal, op, "service %q is not configured", svc)
	}
	if creds == nil {
		return model.Token{}, model.Errorf(model.KindAuth, op, "credentials required to recover token").WithService(svc)
	}
	return client.RefreshToken(ctx, *creds)
}

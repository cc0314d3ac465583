package application

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ericfisherdev/tokenvault/internal/adapter/driven/keyring"
	"github.com/ericfisherdev/tokenvault/internal/adapter/driven/vault"
	"github.com/ericfisherdev/tokenvault/internal/domain/model"
	"github.com/ericfisherdev/tokenvault/internal/domain/port/driven"
)

var testCreds = model.Credentials{
	ClientID:     "client-id",
	ClientSecret: "client-secret",
	RedirectURI:  "http://127.0.0.1:8888/callback",
}

// newVaultStore returns a real encrypted store over an in-memory backend.
func newVaultStore(t *testing.T) (*vault.Store, *keyring.Memory) {
	t.Helper()
	backend := keyring.NewMemory()
	return vault.NewStore(backend, vault.NewKeyVault(backend, model.DefaultKeyringService)), backend
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// fakeAPI is a scriptable driven.StreamingAPI.
type fakeAPI struct {
	service    model.ServiceName
	exchange   func(ctx context.Context, creds model.Credentials, code string) (model.Token, error)
	refresh    func(ctx context.Context, creds model.Credentials, refreshToken string) (model.Token, error)
	nowPlaying func(ctx context.Context, accessToken string) (*model.TrackMetadata, error)

	refreshCalls    atomic.Int32
	nowPlayingCalls atomic.Int32
}

var _ driven.StreamingAPI = (*fakeAPI)(nil)

func (f *fakeAPI) Service() model.ServiceName {
	if f.service == "" {
		return model.ServiceSpotify
	}
	return f.service
}

func (f *fakeAPI) AuthorizeURL(creds model.Credentials, state string, _ []string) string {
	return "https://auth.example/authorize?client_id=" + creds.ClientID + "&state=" + state
}

func (f *fakeAPI) ExchangeCode(ctx context.Context, creds model.Credentials, code string) (model.Token, error) {
	return f.exchange(ctx, creds, code)
}

func (f *fakeAPI) RefreshGrant(ctx context.Context, creds model.Credentials, refreshToken string) (model.Token, error) {
	f.refreshCalls.Add(1)
	return f.refresh(ctx, creds, refreshToken)
}

func (f *fakeAPI) NowPlaying(ctx context.Context, accessToken string) (*model.TrackMetadata, error) {
	f.nowPlayingCalls.Add(1)
	if f.nowPlaying == nil {
		return nil, nil
	}
	return f.nowPlaying(ctx, accessToken)
}

// recordingTimer fires immediately and records every requested delay.
type recordingTimer struct {
	mu     sync.Mutex
	delays []time.Duration
	c      chan time.Time
}

func (r *recordingTimer) Start(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	r.c = make(chan time.Time, 1)
	r.c <- time.Now()
}

func (r *recordingTimer) Stop() {}

func (r *recordingTimer) C() <-chan time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.c
}

func (r *recordingTimer) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

// stuckTimer never fires.
type stuckTimer struct{}

func (stuckTimer) Start(time.Duration) {}
func (stuckTimer) Stop()               {}
func (stuckTimer) C() <-chan time.Time { return nil }

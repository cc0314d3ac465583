// Package app assembles the vault, token ledgers, vendor clients, and
// supporting infrastructure from a Config.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ericfisherdev/tokenvault/internal/adapter/driven/keyring"
	"github.com/ericfisherdev/tokenvault/internal/adapter/driven/oauth"
	"github.com/ericfisherdev/tokenvault/internal/adapter/driven/spotify"
	"github.com/ericfisherdev/tokenvault/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/tokenvault/internal/adapter/driven/vault"
	"github.com/ericfisherdev/tokenvault/internal/adapter/driven/youtube"
	"github.com/ericfisherdev/tokenvault/internal/application"
	"github.com/ericfisherdev/tokenvault/internal/config"
	"github.com/ericfisherdev/tokenvault/internal/domain/model"
	"github.com/ericfisherdev/tokenvault/internal/domain/port/driven"
	"github.com/ericfisherdev/tokenvault/internal/metrics"
)

// Container holds every wired component. Build it with New and release it
// with Close.
type Container struct {
	cfg    *config.Config
	logger zerolog.Logger

	backend      driven.SecretBackend
	closeBackend func() error
	keys         *vault.KeyVault
	store        driven.CredentialStore
	provider     *metrics.Provider
	business     metrics.BusinessMetrics

	httpClient *http.Client
	retrier    *application.Retrier
	registry   *application.ClientRegistry
	video      *application.VideoService
}

// Option overrides a component, mainly for tests.
type Option func(*Container)

// WithBackend replaces the backend selected by cfg.Backend.
func WithBackend(b driven.SecretBackend) Option {
	return func(c *Container) { c.backend = b }
}

// WithHTTPClient replaces the vendor HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Container) { c.httpClient = hc }
}

// New wires the application.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...Option) (*Container, error) {
	c := &Container{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.initBackend(ctx); err != nil {
		return nil, err
	}
	if err := c.initMetrics(); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	if err := c.initStore(); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	c.initClients()
	return c, nil
}

// NewBackend opens the secret backend cfg selects. The returned close func
// is never nil.
func NewBackend(ctx context.Context, cfg *config.Config) (driven.SecretBackend, func() error, error) {
	switch cfg.Backend {
	case config.BackendKeyring:
		return keyring.NewOSKeyring(), func() error { return nil }, nil
	case config.BackendMemory:
		return keyring.NewMemory(), func() error { return nil }, nil
	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open secret database: %w", err)
		}
		return sqlite.NewSecretRepo(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func (c *Container) initBackend(ctx context.Context) error {
	if c.backend != nil {
		return nil
	}
	backend, closeBackend, err := NewBackend(ctx, c.cfg)
	if err != nil {
		return err
	}
	c.backend, c.closeBackend = backend, closeBackend
	c.logger.Debug().Str("backend", c.cfg.Backend).Msg("secret backend ready")
	return nil
}

func (c *Container) initMetrics() error {
	if !c.cfg.MetricsEnabled {
		c.business = metrics.NewNoOpBusinessMetrics()
		return nil
	}

	provider, err := metrics.NewProvider(c.cfg.MetricsNamespace)
	if err != nil {
		return err
	}
	business, err := metrics.NewBusinessMetrics(provider.MeterProvider(), provider.Namespace())
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return err
	}
	c.provider, c.business = provider, business
	return nil
}

func (c *Container) initStore() error {
	cipher, err := vault.NewCipher(c.cfg.Cipher)
	if err != nil {
		return err
	}

	c.keys = vault.NewKeyVault(c.backend, c.cfg.KeyringService,
		vault.WithKeyLogger(c.logger),
		vault.WithResetHook(func(_ context.Context, reason string) {
			c.logger.Warn().Str("reason", reason).
				Msg("master key regenerated; secrets sealed with the previous key are unreadable and must be stored again")
		}),
	)
	store := vault.NewStore(c.backend, c.keys, vault.WithCipher(cipher), vault.WithStoreLogger(c.logger))
	c.store = vault.NewStoreWithMetrics(store, c.business)
	return nil
}

func (c *Container) initClients() {
	if c.httpClient == nil {
		c.httpClient = oauth.NewHTTPClient(oauth.TransportOptions{
			Timeout:       c.cfg.HTTPTimeout,
			RatePerSecond: c.cfg.HTTPRatePerSecond,
			Burst:         1,
		})
	}

	c.retrier = application.NewRetrier(
		application.WithMaxAttempts(c.cfg.RetryMaxAttempts),
		application.WithBaseDelay(c.cfg.RetryBaseDelay),
		application.WithRateLimitWait(c.cfg.RateLimitWait),
		application.WithRetryLogger(c.logger),
	)

	yt := youtube.NewClient(c.httpClient, youtube.DefaultEndpoints())
	c.registry = application.NewClientRegistry(
		c.newStreamingClient(spotify.NewClient(c.httpClient, spotify.DefaultEndpoints())),
		c.newStreamingClient(yt),
	)
	c.video = application.NewVideoService(yt, c.store, c.retrier, c.logger)
}

func (c *Container) newStreamingClient(api driven.StreamingAPI) *application.StreamingClient {
	ledger := application.NewTokenLedger(c.store, api.Service(), application.WithLedgerLogger(c.logger))
	return application.NewStreamingClient(api, ledger,
		application.WithRetrier(c.retrier),
		application.WithClientMetrics(c.business),
		application.WithClientLogger(c.logger),
	)
}

// Config returns the configuration the container was built from.
func (c *Container) Config() *config.Config { return c.cfg }

// Logger returns the root logger.
func (c *Container) Logger() zerolog.Logger { return c.logger }

// Backend returns the raw secret backend.
func (c *Container) Backend() driven.SecretBackend { return c.backend }

// Keys returns the master key vault.
func (c *Container) Keys() *vault.KeyVault { return c.keys }

// Store returns the encrypted credential store.
func (c *Container) Store() driven.CredentialStore { return c.store }

// Registry returns the streaming client registry.
func (c *Container) Registry() *application.ClientRegistry { return c.registry }

// Video returns the YouTube API key service.
func (c *Container) Video() *application.VideoService { return c.video }

// Retrier returns the shared retry orchestrator.
func (c *Container) Retrier() *application.Retrier { return c.retrier }

// Metrics returns the metrics provider, or nil when metrics are disabled.
func (c *Container) Metrics() *metrics.Provider { return c.provider }

// Client returns the streaming client for svc.
func (c *Container) Client(svc model.ServiceName) (*application.StreamingClient, error) {
	client, ok := c.registry.Get(svc)
	if !ok {
		return nil, fmt.Errorf("service %q is not configured", svc)
	}
	return client, nil
}

// Poller builds a now-playing poller for svc using the configured app
// registration, if any.
func (c *Container) Poller(svc model.ServiceName, onUpdate func(model.PlaybackUpdate)) (*application.NowPlayingPoller, error) {
	client, err := c.Client(svc)
	if err != nil {
		return nil, err
	}
	return application.NewNowPlayingPoller(client, c.cfg.CredentialsFor(svc), c.retrier, onUpdate, c.logger), nil
}

// Close releases the backend and flushes metrics.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.provider != nil {
		errs = append(errs, c.provider.Shutdown(ctx))
	}
	if c.closeBackend != nil {
		errs = append(errs, c.closeBackend())
	}
	return errors.Join(errs...)
}

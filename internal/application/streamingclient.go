package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
	"github.com/ericfisherdev/tokenvault/internal/domain/port/driven"
	"github.com/ericfisherdev/tokenvault/internal/metrics"
)

// StreamingClient drives one vendor's token lifecycle: the authorization
// code exchange, refreshes, and now-playing lookups, persisting every token
// through a TokenLedger.
type StreamingClient struct {
	api     driven.StreamingAPI
	ledger  *TokenLedger
	retrier *Retrier
	metrics metrics.BusinessMetrics
	logger  zerolog.Logger

	// refreshes keeps at most one refresh grant in flight; concurrent callers
	// share its result.
	refreshes singleflight.Group
}

// ClientOption configures a StreamingClient.
type ClientOption func(*StreamingClient)

// WithRetrier retries refresh grants on recoverable failures.
func WithRetrier(r *Retrier) ClientOption {
	return func(c *StreamingClient) { c.retrier = r }
}

// WithClientMetrics records operation metrics.
func WithClientMetrics(m metrics.BusinessMetrics) ClientOption {
	return func(c *StreamingClient) { c.metrics = m }
}

// WithClientLogger sets the logger.
func WithClientLogger(logger zerolog.Logger) ClientOption {
	return func(c *StreamingClient) { c.logger = logger }
}

// NewStreamingClient creates a client for api's service. ledger must track
// the same service.
func NewStreamingClient(api driven.StreamingAPI, ledger *TokenLedger, opts ...ClientOption) *StreamingClient {
	c := &StreamingClient{
		api:     api,
		ledger:  ledger,
		metrics: metrics.NewNoOpBusinessMetrics(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Service returns the vendor this client talks to.
func (c *StreamingClient) Service() model.ServiceName { return c.api.Service() }

// Ledger exposes the token ledger backing this client.
func (c *StreamingClient) Ledger() *TokenLedger { return c.ledger }

// AuthorizeURL returns the consent URL and the random state value the
// callback must echo back.
func (c *StreamingClient) AuthorizeURL(creds model.Credentials, scopes []string) (string, string) {
	state := uuid.NewString()
	return c.api.AuthorizeURL(creds, state, scopes), state
}

// Authenticate exchanges an authorization code and stores the token.
func (c *StreamingClient) Authenticate(ctx context.Context, creds model.Credentials, code string) (tok model.Token, err error) {
	defer c.observe(ctx, "authenticate", time.Now(), &err)

	tok, err = c.api.ExchangeCode(ctx, creds, code)
	if err != nil {
		return model.Token{}, err
	}
	if err = c.ledger.Save(ctx, tok); err != nil {
		return model.Token{}, err
	}

	c.logger.Info().Str("service", string(c.Service())).Msg("authenticated")
	return tok, nil
}

// RefreshToken exchanges the stored refresh token for a new access token.
// When the vendor does not reissue a refresh token, the stored one is kept.
func (c *StreamingClient) RefreshToken(ctx context.Context, creds model.Credentials) (tok model.Token, err error) {
	const op = "client.RefreshToken"
	defer c.observe(ctx, "refresh", time.Now(), &err)

	refreshToken, ok, err := c.ledger.RefreshToken(ctx)
	if err != nil {
		return model.Token{}, err
	}
	if !ok || refreshToken == "" {
		return model.Token{}, model.Errorf(model.KindAuth, op, "no refresh token stored").WithService(c.Service())
	}

	tok, err = Retry(ctx, c.retrier, func(ctx context.Context) (model.Token, error) {
		return c.api.RefreshGrant(ctx, creds, refreshToken)
	})
	if err != nil {
		return model.Token{}, err
	}
	if tok, err = c.ledger.SaveRefreshed(ctx, tok); err != nil {
		return model.Token{}, err
	}

	c.logger.Info().Str("service", string(c.Service())).Msg("token refreshed")
	return tok, nil
}

// EnsureValidToken returns a fresh access token, refreshing a stale one when
// creds are supplied.
func (c *StreamingClient) EnsureValidToken(ctx context.Context, creds *model.Credentials) (string, error) {
	return c.ledger.ValidToken(ctx, creds, c.sharedRefresh)
}

func (c *StreamingClient) sharedRefresh(ctx context.Context, creds model.Credentials) (model.Token, error) {
	// Joined callers share the result, so the refresh runs detached from any
	// one caller's cancellation. A cancelled caller stops waiting on its own.
	ch := c.refreshes.DoChan(string(c.Service()), func() (any, error) {
		return c.RefreshToken(context.WithoutCancel(ctx), creds)
	})

	select {
	case <-ctx.Done():
		return model.Token{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.logger.Debug().Str("service", string(c.Service())).Msg("joined in-flight refresh")
		}
		if res.Err != nil {
			return model.Token{}, res.Err
		}
		return res.Val.(model.Token), nil
	}
}

// NowPlaying fetches the current track with the stored access token. It does
// not refresh; a rejected token surfaces as model.ErrTokenExpired.
func (c *StreamingClient) NowPlaying(ctx context.Context) (track *model.TrackMetadata, err error) {
	const op = "client.NowPlaying"
	defer c.observe(ctx, "now_playing", time.Now(), &err)

	access, ok, err := c.ledger.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.Errorf(model.KindTokenExpired, op, "no access token stored").WithService(c.Service())
	}
	return c.api.NowPlaying(ctx, access)
}

// NowPlayingWithRefresh ensures a valid token, fetches the current track,
// and on a rejected token refreshes once and fetches again.
func (c *StreamingClient) NowPlayingWithRefresh(ctx context.Context, creds *model.Credentials) (*model.TrackMetadata, error) {
	if _, err := c.EnsureValidToken(ctx, creds); err != nil {
		return nil, err
	}

	track, err := c.NowPlaying(ctx)
	if err == nil || creds == nil || !errors.Is(err, model.ErrTokenExpired) {
		return track, err
	}

	c.logger.Info().Str("service", string(c.Service())).Msg("access token rejected, refreshing")
	if _, err := c.sharedRefresh(ctx, *creds); err != nil {
		return nil, err
	}
	return c.NowPlaying(ctx)
}

// State reports the token lifecycle state.
func (c *StreamingClient) State(ctx context.Context) (model.TokenState, error) {
	return c.ledger.State(ctx)
}

// Logout removes every stored token for the service.
func (c *StreamingClient) Logout(ctx context.Context) error {
	if err := c.ledger.Clear(ctx); err != nil {
		return err
	}
	c.logger.Info().Str("service", string(c.Service())).Msg("logged out")
	return nil
}

func (c *StreamingClient) observe(ctx context.Context, operation string, start time.Time, err *error) {
	metrics.Observe(ctx, c.metrics, string(c.Service()), operation, start, *err)
}

package application

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
	"github.com/ericfisherdev/tokenvault/internal/domain/port/driven"
)

// RefreshFunc obtains and persists a new token using creds.
type RefreshFunc func(ctx context.Context, creds model.Credentials) (model.Token, error)

// TokenLedger tracks one service's access token, refresh token, and absolute
// expiry as three secrets in a CredentialStore. Every call reads the store, so
// a ledger holds no state of its own.
type TokenLedger struct {
	store   driven.CredentialStore
	service model.ServiceName
	now     func() time.Time
	logger  zerolog.Logger
}

// LedgerOption configures a TokenLedger.
type LedgerOption func(*TokenLedger)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *TokenLedger) { l.now = now }
}

// WithLedgerLogger sets the logger.
func WithLedgerLogger(logger zerolog.Logger) LedgerOption {
	return func(l *TokenLedger) { l.logger = logger }
}

// NewTokenLedger creates a ledger for service.
func NewTokenLedger(store driven.CredentialStore, service model.ServiceName, opts ...LedgerOption) *TokenLedger {
	l := &TokenLedger{
		store:   store,
		service: service,
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Service returns the service this ledger tracks.
func (l *TokenLedger) Service() model.ServiceName { return l.service }

// Save persists tok. The access token and expiry are always overwritten; the
// refresh token only when tok carries one.
func (l *TokenLedger) Save(ctx context.Context, tok model.Token) error {
	const op = "ledger.Save"
	if err := tok.Validate(); err != nil {
		return model.NewError(model.KindParse, op, err).WithService(l.service)
	}

	if err := l.store.Store(ctx, l.service.AccessTokenKey(), tok.AccessToken); err != nil {
		return err
	}
	if tok.RefreshToken != "" {
		if err := l.store.Store(ctx, l.service.RefreshTokenKey(), tok.RefreshToken); err != nil {
			return err
		}
	}

	expiresAt := l.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	if err := l.store.Store(ctx, l.service.ExpiryKey(), strconv.FormatInt(expiresAt.Unix(), 10)); err != nil {
		return err
	}

	l.logger.Debug().Str("service", string(l.service)).Time("expires_at", expiresAt).
		Bool("refresh_token_updated", tok.RefreshToken != "").Msg("token saved")
	return nil
}

// SaveRefreshed persists a token obtained from a refresh grant. Vendors that
// do not rotate refresh tokens omit it, so the stored one is carried over.
func (l *TokenLedger) SaveRefreshed(ctx context.Context, tok model.Token) (model.Token, error) {
	if tok.RefreshToken == "" {
		stored, ok, err := l.RefreshToken(ctx)
		if err != nil {
			return model.Token{}, err
		}
		if ok {
			tok.RefreshToken = stored
		}
	}
	if err := l.Save(ctx, tok); err != nil {
		return model.Token{}, err
	}
	return tok, nil
}

// AccessToken returns the stored access token.
func (l *TokenLedger) AccessToken(ctx context.Context) (string, bool, error) {
	return l.store.Retrieve(ctx, l.service.AccessTokenKey())
}

// RefreshToken returns the stored refresh token.
func (l *TokenLedger) RefreshToken(ctx context.Context) (string, bool, error) {
	return l.store.Retrieve(ctx, l.service.RefreshTokenKey())
}

// ExpiresAt returns the stored absolute expiry. A record that is not a
// decimal epoch value is reported as absent.
func (l *TokenLedger) ExpiresAt(ctx context.Context) (time.Time, bool, error) {
	raw, ok, err := l.store.Retrieve(ctx, l.service.ExpiryKey())
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		l.logger.Warn().Str("service", string(l.service)).Str("value", raw).Msg("malformed token expiry treated as expired")
		return time.Time{}, false, nil
	}
	return time.Unix(secs, 0), true, nil
}

// Entry reads all three secrets.
func (l *TokenLedger) Entry(ctx context.Context) (model.LedgerEntry, error) {
	var entry model.LedgerEntry
	var err error

	if entry.AccessToken, _, err = l.AccessToken(ctx); err != nil {
		return model.LedgerEntry{}, err
	}
	if entry.RefreshToken, _, err = l.RefreshToken(ctx); err != nil {
		return model.LedgerEntry{}, err
	}
	if entry.ExpiresAt, entry.HasExpiry, err = l.ExpiresAt(ctx); err != nil {
		return model.LedgerEntry{}, err
	}
	return entry, nil
}

// IsExpired reports whether now >= expiry - model.ExpirySkew. Without an
// expiry record the token is expired.
func (l *TokenLedger) IsExpired(ctx context.Context) (bool, error) {
	exp, ok, err := l.ExpiresAt(ctx)
	if err != nil {
		return true, err
	}
	return model.LedgerEntry{ExpiresAt: exp, HasExpiry: ok}.ExpiredAt(l.now()), nil
}

// State places the stored token on the lifecycle.
func (l *TokenLedger) State(ctx context.Context) (model.TokenState, error) {
	entry, err := l.Entry(ctx)
	if err != nil {
		return model.TokenStateUnset, err
	}
	return entry.StateAt(l.now()), nil
}

// ValidToken returns a fresh access token. A fresh token is returned even
// when creds is nil. A stale token is refreshed through refresh when creds
// are supplied; otherwise the caller must re-authenticate.
func (l *TokenLedger) ValidToken(ctx context.Context, creds *model.Credentials, refresh RefreshFunc) (string, error) {
	const op = "ledger.ValidToken"

	entry, err := l.Entry(ctx)
	if err != nil {
		return "", err
	}
	if entry.AccessToken != "" && !entry.ExpiredAt(l.now()) {
		return entry.AccessToken, nil
	}

	if creds == nil || refresh == nil {
		return "", model.Errorf(model.KindTokenExpired, op, "re-authentication required").WithService(l.service)
	}

	tok, err := refresh(ctx, *creds)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Clear deletes all three secrets.
func (l *TokenLedger) Clear(ctx context.Context) error {
	return errors.Join(
		l.store.Delete(ctx, l.service.AccessTokenKey()),
		l.store.Delete(ctx, l.service.RefreshTokenKey()),
		l.store.Delete(ctx, l.service.ExpiryKey()),
	)
}

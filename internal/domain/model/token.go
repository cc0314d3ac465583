package model

import (
	"time"

	validation "github.com/jellydator/validation"
)

// ExpirySkew is subtracted from a token's expiry before freshness checks so a
// token is refreshed before the vendor starts rejecting it.
const ExpirySkew = 60 * time.Second

// MaxExpiresIn bounds expires_in (ten years, in seconds) so the absolute
// expiry cannot overflow time.Duration.
const MaxExpiresIn int64 = 10 * 365 * 24 * 60 * 60

// Token is an OAuth token response as returned by a vendor token endpoint.
// ExpiresIn is relative to the moment of issuance.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Validate checks the fields a usable token response must carry.
func (t Token) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.AccessToken, validation.Required.Error("access_token is required")),
		validation.Field(&t.ExpiresIn, validation.Min(int64(0)), validation.Max(MaxExpiresIn)),
	)
}

// LedgerEntry is the persisted view of a service token. ExpiresAt is absolute
// so freshness survives process restarts.
type LedgerEntry struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	HasExpiry    bool
}

// ExpiredAt reports whether the entry is expired at now. An entry without an
// expiry record is always expired.
func (e LedgerEntry) ExpiredAt(now time.Time) bool {
	if !e.HasExpiry {
		return true
	}
	return !now.Before(e.ExpiresAt.Add(-ExpirySkew))
}

// StateAt classifies the entry on the token state machine.
func (e LedgerEntry) StateAt(now time.Time) TokenState {
	switch {
	case e.AccessToken == "" && e.RefreshToken == "" && !e.HasExpiry:
		return TokenStateUnset
	case e.AccessToken != "" && !e.ExpiredAt(now):
		return TokenStateValid
	case e.RefreshToken != "":
		return TokenStateStale
	default:
		return TokenStateAuthRequired
	}
}

// TokenState is a position on the per-service token lifecycle.
type TokenState int

const (
	TokenStateUnset TokenState = iota
	TokenStateValid
	TokenStateStale
	TokenStateAuthRequired
)

func (s TokenState) String() string {
	switch s {
	case TokenStateUnset:
		return "unset"
	case TokenStateValid:
		return "valid"
	case TokenStateStale:
		return "stale"
	case TokenStateAuthRequired:
		return "auth_required"
	default:
		return "unknown"
	}
}

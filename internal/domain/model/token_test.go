package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

func TestLedgerEntry_ExpiredAt(t *testing.T) {
	exp := time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC)
	entry := model.LedgerEntry{AccessToken: "at", ExpiresAt: exp, HasExpiry: true}

	assert.False(t, entry.ExpiredAt(exp.Add(-61*time.Second)))
	assert.True(t, entry.ExpiredAt(exp.Add(-60*time.Second)))
	assert.True(t, entry.ExpiredAt(exp.Add(-59*time.Second)))
	assert.True(t, entry.ExpiredAt(exp.Add(time.Hour)))

	assert.True(t, model.LedgerEntry{AccessToken: "at"}.ExpiredAt(exp), "missing expiry is expired")
}

func TestLedgerEntry_StateAt(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	fresh := now.Add(time.Hour)
	stale := now.Add(-time.Hour)

	tests := []struct {
		name  string
		entry model.LedgerEntry
		want  model.TokenState
	}{
		{"empty", model.LedgerEntry{}, model.TokenStateUnset},
		{"fresh", model.LedgerEntry{AccessToken: "at", ExpiresAt: fresh, HasExpiry: true}, model.TokenStateValid},
		{"stale with refresh", model.LedgerEntry{AccessToken: "at", RefreshToken: "rt", ExpiresAt: stale, HasExpiry: true}, model.TokenStateStale},
		{"refresh only", model.LedgerEntry{RefreshToken: "rt"}, model.TokenStateStale},
		{"stale without refresh", model.LedgerEntry{AccessToken: "at", ExpiresAt: stale, HasExpiry: true}, model.TokenStateAuthRequired},
		{"access without expiry", model.LedgerEntry{AccessToken: "at"}, model.TokenStateAuthRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.entry.StateAt(now)
			assert.Equal(t, tt.want, got)
			assert.NotEqual(t, "unknown", got.String())
		})
	}
}

func TestToken_Validate(t *testing.T) {
	require.NoError(t, model.Token{AccessToken: "at", ExpiresIn: 3600}.Validate())
	require.NoError(t, model.Token{AccessToken: "at"}.Validate())
	assert.Error(t, model.Token{ExpiresIn: 3600}.Validate())
	assert.Error(t, model.Token{AccessToken: "at", ExpiresIn: -1}.Validate())
	require.NoError(t, model.Token{AccessToken: "at", ExpiresIn: model.MaxExpiresIn}.Validate())
	assert.Error(t, model.Token{AccessToken: "at", ExpiresIn: model.MaxExpiresIn + 1}.Validate())
	assert.Error(t, model.Token{AccessToken: "at", ExpiresIn: 9_300_000_000}.Validate())
}

func TestCredentials_Validate(t *testing.T) {
	valid := model.Credentials{ClientID: "id", ClientSecret: "secret", RedirectURI: "http://127.0.0.1:8888/callback"}
	require.NoError(t, valid.Validate())

	missingSecret := valid
	missingSecret.ClientSecret = ""
	assert.ErrorContains(t, missingSecret.Validate(), "client secret is required")

	badURI := valid
	badURI.RedirectURI = "not a url"
	assert.Error(t, badURI.Validate())
}

func TestServiceName(t *testing.T) {
	svc, err := model.ParseServiceName("youtube")
	require.NoError(t, err)
	assert.Equal(t, model.ServiceYouTube, svc)

	_, err = model.ParseServiceName("tidal")
	assert.Error(t, err)

	assert.Equal(t, "spotify_access_token", model.ServiceSpotify.AccessTokenKey())
	assert.Equal(t, "spotify_refresh_token", model.ServiceSpotify.RefreshTokenKey())
	assert.Equal(t, "youtube_token_expiry", model.ServiceYouTube.ExpiryKey())
}

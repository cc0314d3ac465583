package spotify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/tokenvault/internal/adapter/driven/spotify"
	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

func newTestClient(t *testing.T, handler http.Handler) *spotify.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return spotify.NewClient(server.Client(), spotify.Endpoints{
		Token:     server.URL + "/api/token",
		Authorize: server.URL + "/authorize",
		API:       server.URL + "/v1/",
	})
}

const playingJSON = `{
  "is_playing": true,
  "progress_ms": 42000,
  "item": {
    "name": "Windowlicker",
    "duration_ms": 367000,
    "artists": [{"name": "Aphex Twin"}, {"name": "Someone Else"}],
    "album": {"name": "Windowlicker EP"}
  }
}`

func TestNowPlaying_Playing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/me/player/currently-playing", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(playingJSON))
	})
	client := newTestClient(t, mux)

	track, err := client.NowPlaying(context.Background(), "access-123")
	require.NoError(t, err)
	require.NotNil(t, track)

	progress := int64(42000)
	assert.Equal(t, &model.TrackMetadata{
		Title:      "Windowlicker",
		Artist:     "Aphex Twin",
		Album:      "Windowlicker EP",
		DurationMS: 367000,
		IsPlaying:  true,
		ProgressMS: &progress,
	}, track)
}

func TestNowPlaying_DefaultsWhenOptionalFieldsMissing(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"item":{"name":"t","duration_ms":1,"artists":[{"name":"a"}],"album":{"name":"b"}}}`))
	}))

	track, err := client.NowPlaying(context.Background(), "tok")
	require.NoError(t, err)
	require.NotNil(t, track)
	assert.False(t, track.IsPlaying)
	assert.Nil(t, track.ProgressMS)
}

func TestNowPlaying_StatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantNil   bool
		wantErrIs *model.Error
	}{
		{name: "no content", status: http.StatusNoContent, wantNil: true},
		{name: "null item", status: http.StatusOK, body: `{"is_playing":false,"item":null}`, wantNil: true},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":{"status":401}}`, wantErrIs: model.ErrTokenExpired},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErrIs: model.ErrRateLimited},
		{name: "server error", status: http.StatusInternalServerError, body: "oops", wantErrIs: model.ErrNetwork},
		{name: "forbidden", status: http.StatusForbidden, body: "premium required", wantErrIs: model.ErrNetwork},
		{name: "bad json", status: http.StatusOK, body: `{"item":`, wantErrIs: model.ErrParse},
		{name: "missing artists", status: http.StatusOK, body: `{"item":{"name":"t","duration_ms":1,"artists":[],"album":{"name":"b"}}}`, wantErrIs: model.ErrParse},
		{name: "missing album", status: http.StatusOK, body: `{"item":{"name":"t","duration_ms":1,"artists":[{"name":"a"}]}}`, wantErrIs: model.ErrParse},
		{name: "missing duration", status: http.StatusOK, body: `{"item":{"name":"t","artists":[{"name":"a"}],"album":{"name":"b"}}}`, wantErrIs: model.ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				if tt.body != "" {
					_, _ = w.Write([]byte(tt.body))
				}
			}))

			track, err := client.NowPlaying(context.Background(), "tok")
			if tt.wantErrIs != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErrIs)
				assert.Nil(t, track)
				return
			}
			require.NoError(t, err)
			assert.Nil(t, track)
		})
	}
}

func TestExchangeAndRefresh_UseTokenURL(t *testing.T) {
	var grants []string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		grants = append(grants, r.PostForm.Get("grant_type"))
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600}`))
	})
	client := newTestClient(t, mux)
	creds := model.Credentials{ClientID: "id", ClientSecret: "secret", RedirectURI: "http://localhost:8888/callback"}

	_, err := client.ExchangeCode(context.Background(), creds, "code")
	require.NoError(t, err)
	_, err = client.RefreshGrant(context.Background(), creds, "rt")
	require.NoError(t, err)

	assert.Equal(t, []string{"authorization_code", "refresh_token"}, grants)
}

func TestAuthorizeURL_DefaultScopes(t *testing.T) {
	client := spotify.NewClient(http.DefaultClient, spotify.DefaultEndpoints())
	raw := client.AuthorizeURL(model.Credentials{ClientID: "id", RedirectURI: "http://localhost/cb"}, "xyz", nil)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "accounts.spotify.com", u.Host)
	assert.Equal(t, "user-read-currently-playing user-read-playback-state", u.Query().Get("scope"))
	assert.Equal(t, "xyz", u.Query().Get("state"))
	assert.Equal(t, model.ServiceSpotify, client.Service())
}

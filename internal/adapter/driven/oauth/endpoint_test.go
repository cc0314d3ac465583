package oauth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/tokenvault/internal/adapter/driven/oauth"
	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

var testCreds = model.Credentials{
	ClientID:     "client-id",
	ClientSecret: "client-secret",
	RedirectURI:  "http://127.0.0.1:8888/callback",
}

func newTestEndpoint(t *testing.T, handler http.HandlerFunc) *oauth.TokenEndpoint {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return oauth.NewTokenEndpoint(server.Client(), model.ServiceSpotify, server.URL+"/api/token")
}

func TestTokenEndpoint_ExchangeCode(t *testing.T) {
	ep := newTestEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/token", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, testCreds.RedirectURI, r.PostForm.Get("redirect_uri"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","expires_in":3600,"refresh_token":"rt","scope":"user-read-currently-playing"}`))
	})

	tok, err := ep.ExchangeCode(context.Background(), testCreds, "the-code")
	require.NoError(t, err)
	assert.Equal(t, model.Token{
		AccessToken:  "at",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
		RefreshToken: "rt",
		Scope:        "user-read-currently-playing",
	}, tok)
}

func TestTokenEndpoint_Refresh(t *testing.T) {
	ep := newTestEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-rt", r.PostForm.Get("refresh_token"))
		assert.Empty(t, r.PostForm.Get("code"))
		_, _ = w.Write([]byte(`{"access_token":"new-at","token_type":"Bearer","expires_in":3600}`))
	})

	tok, err := ep.Refresh(context.Background(), testCreds, "old-rt")
	require.NoError(t, err)
	assert.Equal(t, "new-at", tok.AccessToken)
	assert.Empty(t, tok.RefreshToken)
}

func TestTokenEndpoint_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr *model.Error
	}{
		{name: "rejected grant", status: http.StatusBadRequest, body: `{"error":"invalid_grant"}`, wantErr: model.ErrAuth},
		{name: "bad client", status: http.StatusUnauthorized, body: `{"error":"invalid_client"}`, wantErr: model.ErrAuth},
		{name: "rate limited", status: http.StatusTooManyRequests, body: "slow down", wantErr: model.ErrRateLimited},
		{name: "server error", status: http.StatusBadGateway, body: "upstream", wantErr: model.ErrAuth},
		{name: "malformed json", status: http.StatusOK, body: `{"access_token":`, wantErr: model.ErrParse},
		{name: "missing access token", status: http.StatusOK, body: `{"token_type":"Bearer","expires_in":3600}`, wantErr: model.ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := newTestEndpoint(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := ep.Refresh(context.Background(), testCreds, "rt")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTokenEndpoint_ErrorBodyInMessage(t *testing.T) {
	ep := newTestEndpoint(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	})

	_, err := ep.ExchangeCode(context.Background(), testCreds, "code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_grant")
	assert.Contains(t, err.Error(), "spotify")
}

func TestTokenEndpoint_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	client := server.Client()
	client.Timeout = 50 * time.Millisecond
	ep := oauth.NewTokenEndpoint(client, model.ServiceSpotify, server.URL)

	_, err := ep.Refresh(context.Background(), testCreds, "rt")
	assert.ErrorIs(t, err, model.ErrNetworkTimeout)
	assert.True(t, model.IsRecoverable(err))
}

func TestTokenEndpoint_RejectsBeforeNetwork(t *testing.T) {
	called := false
	ep := newTestEndpoint(t, func(http.ResponseWriter, *http.Request) { called = true })
	ctx := context.Background()

	_, err := ep.Refresh(ctx, testCreds, "")
	assert.ErrorIs(t, err, model.ErrAuth)

	_, err = ep.ExchangeCode(ctx, testCreds, "")
	assert.ErrorIs(t, err, model.ErrAuth)

	_, err = ep.Refresh(ctx, model.Credentials{ClientID: "only-id"}, "rt")
	assert.ErrorIs(t, err, model.ErrAuth)

	assert.False(t, called)
}

func TestAuthorizeURL(t *testing.T) {
	got := oauth.AuthorizeURL("https://accounts.example.com/authorize", testCreds, "st4te",
		[]string{"user-read-currently-playing", "user-read-playback-state"}, nil)

	assert.Equal(t,
		"https://accounts.example.com/authorize?client_id=client-id"+
			"&redirect_uri=http%3A%2F%2F127.0.0.1%3A8888%2Fcallback"+
			"&response_type=code"+
			"&scope=user-read-currently-playing+user-read-playback-state"+
			"&state=st4te",
		got)
}

// Package spotify implements the StreamingAPI port against the Spotify Web API.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ericfisherdev/tokenvault/internal/adapter/driven/oauth"
	"github.com/ericfisherdev/tokenvault/internal/domain/model"
	"github.com/ericfisherdev/tokenvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.StreamingAPI = (*Client)(nil)

// DefaultScopes are requested when the caller passes none.
var DefaultScopes = []string{"user-read-currently-playing", "user-read-playback-state"}

// Endpoints groups the URLs the client talks to.
type Endpoints struct {
	Token     string
	Authorize string
	API       string
}

// DefaultEndpoints returns the production Spotify URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Token:     "https://accounts.spotify.com/api/token",
		Authorize: "https://accounts.spotify.com/authorize",
		API:       "https://api.spotify.com/v1",
	}
}

// Client talks to Spotify's accounts service and Web API.
type Client struct {
	http      driven.HTTPClient
	tokens    *oauth.TokenEndpoint
	endpoints Endpoints
}

// NewClient creates a Client. Tests pass an httptest server's client and URLs.
func NewClient(httpClient driven.HTTPClient, endpoints Endpoints) *Client {
	endpoints.API = strings.TrimRight(endpoints.API, "/")
	return &Client{
		http:      httpClient,
		tokens:    oauth.NewTokenEndpoint(httpClient, model.ServiceSpotify, endpoints.Token),
		endpoints: endpoints,
	}
}

func (c *Client) Service() model.ServiceName { return model.ServiceSpotify }

func (c *Client) AuthorizeURL(creds model.Credentials, state string, scopes []string) string {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	return oauth.AuthorizeURL(c.endpoints.Authorize, creds, state, scopes, nil)
}

func (c *Client) ExchangeCode(ctx context.Context, creds model.Credentials, code string) (model.Token, error) {
	return c.tokens.ExchangeCode(ctx, creds, code)
}

func (c *Client) RefreshGrant(ctx context.Context, creds model.Credentials, refreshToken string) (model.Token, error) {
	return c.tokens.Refresh(ctx, creds, refreshToken)
}

// currentlyPlaying mirrors the fields read from
// GET /me/player/currently-playing.
type currentlyPlaying struct {
	IsPlaying  bool   `json:"is_playing"`
	ProgressMS *int64 `json:"progress_ms"`
	Item       *struct {
		Name       string `json:"name"`
		DurationMS *int64 `json:"duration_ms"`
		Artists    []struct {
			Name string `json:"name"`
		} `json:"artists"`
		Album *struct {
			Name string `json:"name"`
		} `json:"album"`
	} `json:"item"`
}

// NowPlaying returns the current track, or nil when nothing is playing.
func (c *Client) NowPlaying(ctx context.Context, accessToken string) (*model.TrackMetadata, error) {
	const op = "spotify.NowPlaying"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoints.API+"/me/player/currently-playing", nil)
	if err != nil {
		return nil, model.NewError(model.KindNetwork, op, fmt.Errorf("build request: %w", err)).WithService(model.ServiceSpotify)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, oauth.TransportError(op, model.ServiceSpotify, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if !oauth.IsSuccess(resp.StatusCode) {
		return nil, oauth.StatusError(op, model.ServiceSpotify, resp)
	}

	var body currentlyPlaying
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, parseErr(op, "decode response: %v", err)
	}
	return body.track(op)
}

func (p currentlyPlaying) track(op string) (*model.TrackMetadata, error) {
	// Spotify reports a null item during private sessions and between tracks.
	if p.Item == nil {
		return nil, nil
	}
	item := p.Item
	switch {
	case item.Name == "":
		return nil, parseErr(op, "missing track name")
	case len(item.Artists) == 0 || item.Artists[0].Name == "":
		return nil, parseErr(op, "missing artist name")
	case item.Album == nil || item.Album.Name == "":
		return nil, parseErr(op, "missing album name")
	case item.DurationMS == nil:
		return nil, parseErr(op, "missing duration")
	}

	return &model.TrackMetadata{
		Title:      item.Name,
		Artist:     item.Artists[0].Name,
		Album:      item.Album.Name,
		DurationMS: *item.DurationMS,
		IsPlaying:  p.IsPlaying,
		ProgressMS: p.ProgressMS,
	}, nil
}

func parseErr(op, format string, args ...any) error {
	return model.Errorf(model.KindParse, op, format, args...).WithService(model.ServiceSpotify)
}

// Package youtube implements the StreamingAPI and VideoCatalog ports against
// Google OAuth and the YouTube Data API v3.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ericfisherdev/tokenvault/internal/adapter/driven/oauth"
	"github.com/ericfisherdev/tokenvault/internal/domain/model"
	"github.com/ericfisherdev/tokenvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.StreamingAPI = (*Client)(nil)
	_ driven.VideoCatalog = (*Client)(nil)
)

// DefaultScopes are requested when the caller passes none.
var DefaultScopes = []string{"https://www.googleapis.com/auth/youtube.readonly"}

// Endpoints groups the URLs the client talks to.
type Endpoints struct {
	Token     string
	Authorize string
	API       string
}

// DefaultEndpoints returns the production Google URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Token:     "https://oauth2.googleapis.com/token",
		Authorize: "https://accounts.google.com/o/oauth2/v2/auth",
		API:       "https://www.googleapis.com/youtube/v3",
	}
}

// Client talks to Google's token endpoint and the YouTube Data API.
type Client struct {
	http      driven.HTTPClient
	tokens    *oauth.TokenEndpoint
	endpoints Endpoints
}

// NewClient creates a Client.
func NewClient(httpClient driven.HTTPClient, endpoints Endpoints) *Client {
	endpoints.API = strings.TrimRight(endpoints.API, "/")
	return &Client{
		http:      httpClient,
		tokens:    oauth.NewTokenEndpoint(httpClient, model.ServiceYouTube, endpoints.Token),
		endpoints: endpoints,
	}
}

func (c *Client) Service() model.ServiceName { return model.ServiceYouTube }

// AuthorizeURL requests offline access so Google issues a refresh token.
func (c *Client) AuthorizeURL(creds model.Credentials, state string, scopes []string) string {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	extra := url.Values{
		"access_type": {"offline"},
		"prompt":      {"consent"},
	}
	return oauth.AuthorizeURL(c.endpoints.Authorize, creds, state, scopes, extra)
}

func (c *Client) ExchangeCode(ctx context.Context, creds model.Credentials, code string) (model.Token, error) {
	return c.tokens.ExchangeCode(ctx, creds, code)
}

func (c *Client) RefreshGrant(ctx context.Context, creds model.Credentials, refreshToken string) (model.Token, error) {
	return c.tokens.Refresh(ctx, creds, refreshToken)
}

// NowPlaying always returns nil: YouTube exposes no playback state.
func (c *Client) NowPlaying(context.Context, string) (*model.TrackMetadata, error) {
	return nil, nil
}

// ValidateAPIKey issues a minimal request and reports whether it succeeded.
func (c *Client) ValidateAPIKey(ctx context.Context, apiKey string) (bool, error) {
	const op = "youtube.ValidateAPIKey"

	q := url.Values{
		"part":       {"snippet"},
		"chart":      {"mostPopular"},
		"maxResults": {"1"},
		"key":        {apiKey},
	}
	resp, err := c.get(ctx, op, q)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return oauth.IsSuccess(resp.StatusCode), nil
}

type videoList struct {
	Items *[]struct {
		Snippet *struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
		ContentDetails *struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// VideoMetadata looks up a video by id. The channel name fills both Artist
// and Album; IsPlaying is always false.
func (c *Client) VideoMetadata(ctx context.Context, apiKey, videoID string) (*model.TrackMetadata, error) {
	const op = "youtube.VideoMetadata"

	q := url.Values{
		"part": {"snippet,contentDetails"},
		"id":   {videoID},
		"key":  {apiKey},
	}
	resp, err := c.get(ctx, op, q)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, model.Errorf(model.KindAuth, op, "API key rejected with status %d", resp.StatusCode).WithService(model.ServiceYouTube)
	case !oauth.IsSuccess(resp.StatusCode):
		return nil, oauth.StatusError(op, model.ServiceYouTube, resp)
	}

	var list videoList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, parseErr(op, "decode response: %v", err)
	}
	if list.Items == nil {
		return nil, parseErr(op, "missing items")
	}
	if len(*list.Items) == 0 {
		return nil, model.Errorf(model.KindNoActivePlayback, op, "no video with id %q", videoID).WithService(model.ServiceYouTube)
	}

	item := (*list.Items)[0]
	switch {
	case item.Snippet == nil:
		return nil, parseErr(op, "missing snippet")
	case item.Snippet.Title == "":
		return nil, parseErr(op, "missing video title")
	case item.Snippet.ChannelTitle == "":
		return nil, parseErr(op, "missing channel title")
	case item.ContentDetails == nil || item.ContentDetails.Duration == "":
		return nil, parseErr(op, "missing duration")
	}

	durationMS, err := ParseDuration(item.ContentDetails.Duration)
	if err != nil {
		return nil, err
	}

	return &model.TrackMetadata{
		Title:      item.Snippet.Title,
		Artist:     item.Snippet.ChannelTitle,
		Album:      item.Snippet.ChannelTitle,
		DurationMS: durationMS,
	}, nil
}

func (c *Client) get(ctx context.Context, op string, q url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoints.API+"/videos?"+q.Encode(), nil)
	if err != nil {
		return nil, model.NewError(model.KindNetwork, op, fmt.Errorf("build request: %w", err)).WithService(model.ServiceYouTube)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, oauth.TransportError(op, model.ServiceYouTube, err)
	}
	return resp, nil
}

func parseErr(op, format string, args ...any) error {
	return model.Errorf(model.KindParse, op, format, args...).WithService(model.ServiceYouTube)
}

package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
	"github.com/ericfisherdev/tokenvault/internal/domain/port/driven"
)

// TokenEndpoint performs OAuth 2.0 grants against a vendor token URL using
// form-encoded POSTs with the client secret in the body.
type TokenEndpoint struct {
	client   driven.HTTPClient
	tokenURL string
	service  model.ServiceName
}

// NewTokenEndpoint creates a TokenEndpoint.
func NewTokenEndpoint(client driven.HTTPClient, service model.ServiceName, tokenURL string) *TokenEndpoint {
	return &TokenEndpoint{client: client, tokenURL: tokenURL, service: service}
}

// ExchangeCode performs the authorization_code grant.
func (e *TokenEndpoint) ExchangeCode(ctx context.Context, creds model.Credentials, code string) (model.Token, error) {
	const op = "oauth.ExchangeCode"
	if code == "" {
		return model.Token{}, model.Errorf(model.KindAuth, op, "authorization code is empty").WithService(e.service)
	}
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {creds.RedirectURI},
	}
	return e.post(ctx, op, creds, form)
}

// Refresh performs the refresh_token grant.
func (e *TokenEndpoint) Refresh(ctx context.Context, creds model.Credentials, refreshToken string) (model.Token, error) {
	const op = "oauth.Refresh"
	if refreshToken == "" {
		return model.Token{}, model.Errorf(model.KindAuth, op, "no refresh token").WithService(e.service)
	}
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	return e.post(ctx, op, creds, form)
}

func (e *TokenEndpoint) post(ctx context.Context, op string, creds model.Credentials, form url.Values) (model.Token, error) {
	if err := creds.Validate(); err != nil {
		return model.Token{}, model.NewError(model.KindAuth, op, err).WithService(e.service)
	}
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return model.Token{}, model.NewError(model.KindNetwork, op, fmt.Errorf("build request: %w", err)).WithService(e.service)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return model.Token{}, TransportError(op, e.service, err)
	}
	defer resp.Body.Close()

	if !IsSuccess(resp.StatusCode) {
		body := readErrorBody(resp)
		if resp.StatusCode == http.StatusTooManyRequests {
			return model.Token{}, rateLimited(op, e.service, resp, body)
		}
		return model.Token{}, model.Errorf(model.KindAuth, op, "status %d: %s", resp.StatusCode, body).WithService(e.service)
	}

	var tok model.Token
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return model.Token{}, model.NewError(model.KindParse, op, fmt.Errorf("decode token response: %w", err)).WithService(e.service)
	}
	if err := tok.Validate(); err != nil {
		return model.Token{}, model.NewError(model.KindParse, op, err).WithService(e.service)
	}
	return tok, nil
}

// AuthorizeURL builds a consent URL for the authorization_code flow.
func AuthorizeURL(base string, creds model.Credentials, state string, scopes []string, extra url.Values) string {
	q := url.Values{
		"response_type": {"code"},
		"client_id":     {creds.ClientID},
		"redirect_uri":  {creds.RedirectURI},
	}
	if state != "" {
		q.Set("state", state)
	}
	if len(scopes) > 0 {
		q.Set("scope", strings.Join(scopes, " "))
	}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

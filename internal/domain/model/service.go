package model

import "fmt"

// ServiceName identifies an external streaming integration whose tokens the
// vault manages.
type ServiceName string

const (
	ServiceSpotify ServiceName = "spotify"
	ServiceYouTube ServiceName = "youtube"
)

// Keyring defaults. Both the master key and every secret live under the same
// keyring service, keyed by entry name.
const (
	DefaultKeyringService = "milk-player"
	MasterKeyName         = "milk-encryption-key"
	YouTubeAPIKeyName     = "youtube_api_key"
)

// Services lists every supported integration in display order.
func Services() []ServiceName {
	return []ServiceName{ServiceSpotify, ServiceYouTube}
}

// ParseServiceName converts user input into a known ServiceName.
func ParseServiceName(s string) (ServiceName, error) {
	for _, svc := range Services() {
		if string(svc) == s {
			return svc, nil
		}
	}
	return "", fmt.Errorf("unknown service %q", s)
}

func (s ServiceName) String() string { return string(s) }

// AccessTokenKey is the secret name holding the service's access token.
func (s ServiceName) AccessTokenKey() string { return string(s) + "_access_token" }

// RefreshTokenKey is the secret name holding the service's refresh token.
func (s ServiceName) RefreshTokenKey() string { return string(s) + "_refresh_token" }

// ExpiryKey is the secret name holding the absolute expiry in epoch seconds.
func (s ServiceName) ExpiryKey() string { return string(s) + "_token_expiry" }

package driven

import (
	"context"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

// StreamingAPI defines the driven port for a vendor's OAuth and playback
// surface. Adapters perform no persistence; the application layer owns the
// token ledger.
type StreamingAPI interface {
	Service() model.ServiceName

	// AuthorizeURL builds the consent URL the user opens to obtain a code.
	AuthorizeURL(creds model.Credentials, state string, scopes []string) string

	// ExchangeCode performs the authorization_code grant.
	ExchangeCode(ctx context.Context, creds model.Credentials, code string) (model.Token, error)

	// RefreshGrant performs the refresh_token grant. The returned token may
	// omit RefreshToken when the vendor does not reissue it.
	RefreshGrant(ctx context.Context, creds model.Credentials, refreshToken string) (model.Token, error)

	// NowPlaying returns (nil, nil) when nothing is playing and a
	// model.ErrTokenExpired error when the vendor rejects the access token.
	NowPlaying(ctx context.Context, accessToken string) (*model.TrackMetadata, error)
}

// VideoCatalog defines the driven port for API-key authenticated video lookups.
type VideoCatalog interface {
	// ValidateAPIKey reports whether the vendor accepts apiKey.
	ValidateAPIKey(ctx context.Context, apiKey string) (bool, error)

	// VideoMetadata returns a model.ErrNoActivePlayback error when the id
	// matches no video.
	VideoMetadata(ctx context.Context, apiKey, videoID string) (*model.TrackMetadata, error)
}

package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
	"github.com/ericfisherdev/tokenvault/internal/domain/port/driven"
)

// VideoService manages the stored YouTube Data API key and performs
// key-authenticated video lookups.
type VideoService struct {
	catalog driven.VideoCatalog
	store   driven.CredentialStore
	retrier *Retrier
	logger  zerolog.Logger
}

// NewVideoService creates a VideoService. retrier may be nil.
func NewVideoService(catalog driven.VideoCatalog, store driven.CredentialStore, retrier *Retrier, logger zerolog.Logger) *VideoService {
	return &VideoService{catalog: catalog, store: store, retrier: retrier, logger: logger}
}

// StoreAPIKey encrypts and saves the API key.
func (s *VideoService) StoreAPIKey(ctx context.Context, key string) error {
	if key == "" {
		return model.Errorf(model.KindAuth, "video.StoreAPIKey", "API key is empty").WithService(model.ServiceYouTube)
	}
	return s.store.Store(ctx, model.YouTubeAPIKeyName, key)
}

// APIKey returns the stored API key.
func (s *VideoService) APIKey(ctx context.Context) (string, bool, error) {
	return s.store.Retrieve(ctx, model.YouTubeAPIKeyName)
}

// DeleteAPIKey removes the stored API key.
func (s *VideoService) DeleteAPIKey(ctx context.Context) error {
	return s.store.Delete(ctx, model.YouTubeAPIKeyName)
}

// ValidateAPIKey checks the stored key against the API.
func (s *VideoService) ValidateAPIKey(ctx context.Context) (bool, error) {
	key, err := s.requireKey(ctx, "video.ValidateAPIKey")
	if err != nil {
		return false, err
	}
	return Retry(ctx, s.retrier, func(ctx context.Context) (bool, error) {
		return s.catalog.ValidateAPIKey(ctx, key)
	})
}

// VideoMetadata looks up videoID with the stored key.
func (s *VideoService) VideoMetadata(ctx context.Context, videoID string) (*model.TrackMetadata, error) {
	const op = "video.VideoMetadata"
	if videoID == "" {
		return nil, model.Errorf(model.KindParse, op, "video id is empty").WithService(model.ServiceYouTube)
	}
	key, err := s.requireKey(ctx, op)
	if err != nil {
		return nil, err
	}

	track, err := Retry(ctx, s.retrier, func(ctx context.Context) (*model.TrackMetadata, error) {
		return s.catalog.VideoMetadata(ctx, key, videoID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("video_id", videoID).Int64("duration_ms", track.DurationMS).Msg("video metadata fetched")
	return track, nil
}

func (s *VideoService) requireKey(ctx context.Context, op string) (string, error) {
	key, ok, err := s.APIKey(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", model.Errorf(model.KindAuth, op, "no API key stored").WithService(model.ServiceYouTube)
	}
	return key, nil
}

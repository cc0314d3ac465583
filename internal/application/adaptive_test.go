package application

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

func TestClassifyPlayback(t *testing.T) {
	tests := []struct {
		name     string
		update   model.PlaybackUpdate
		wantTier PlaybackTier
	}{
		{"playing track", model.PlaybackUpdate{Track: &model.TrackMetadata{IsPlaying: true}}, TierPlaying},
		{"paused track", model.PlaybackUpdate{Track: &model.TrackMetadata{}}, TierPaused},
		{"nothing playing", model.PlaybackUpdate{}, TierIdle},
		{"error wins over track", model.PlaybackUpdate{
			Track: &model.TrackMetadata{IsPlaying: true},
			Err:   errors.New("boom"),
		}, TierError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantTier, classifyPlayback(tt.update))
		})
	}
}

func TestTierInterval(t *testing.T) {
	tests := []struct {
		tier    PlaybackTier
		wantDur time.Duration
	}{
		{TierPlaying, 2 * time.Second},
		{TierPaused, 5 * time.Second},
		{TierIdle, 15 * time.Second},
		{TierError, 30 * time.Second},
		{PlaybackTier(99), 15 * time.Second}, // unknown defaults to idle
	}

	for _, tt := range tests {
		t.Run(tt.tier.String(), func(t *testing.T) {
			assert.Equal(t, tt.wantDur, tierInterval(tt.tier))
		})
	}
}

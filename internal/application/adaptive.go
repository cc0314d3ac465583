package application

import (
	"time"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

// PlaybackTier classifies the last poll result to pick the next interval.
type PlaybackTier int

const (
	// TierPlaying polls every 2 seconds so progress stays current.
	TierPlaying PlaybackTier = iota
	// TierPaused polls every 5 seconds.
	TierPaused
	// TierIdle polls every 15 seconds.
	TierIdle
	// TierError polls every 30 seconds.
	TierError
)

// Polling intervals per playback tier.
const (
	intervalPlaying = 2 * time.Second
	intervalPaused  = 5 * time.Second
	intervalIdle    = 15 * time.Second
	intervalError   = 30 * time.Second
)

func (t PlaybackTier) String() string {
	switch t {
	case TierPlaying:
		return "playing"
	case TierPaused:
		return "paused"
	case TierIdle:
		return "idle"
	case TierError:
		return "error"
	default:
		return "unknown"
	}
}

func tierInterval(tier PlaybackTier) time.Duration {
	switch tier {
	case TierPlaying:
		return intervalPlaying
	case TierPaused:
		return intervalPaused
	case TierIdle:
		return intervalIdle
	case TierError:
		return intervalError
	default:
		return intervalIdle
	}
}

// classifyPlayback maps a poll result to its tier.
func classifyPlayback(update model.PlaybackUpdate) PlaybackTier {
	switch {
	case update.Err != nil:
		return TierError
	case update.Track == nil:
		return TierIdle
	case update.Track.IsPlaying:
		return TierPlaying
	default:
		return TierPaused
	}
}

package model

import "time"

// TrackMetadata describes the item a vendor reports as currently playing, or
// the result of a video lookup.
type TrackMetadata struct {
	Title      string
	Artist     string
	Album      string
	DurationMS int64
	IsPlaying  bool
	ProgressMS *int64
}

// PlaybackUpdate is emitted by the now-playing poller after every cycle.
// Track is nil when nothing is playing.
type PlaybackUpdate struct {
	Service   ServiceName
	Track     *TrackMetadata
	Err       error
	CheckedAt time.Time
}

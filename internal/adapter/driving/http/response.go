package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /healthz. Services maps each service to
// its token state name.
type HealthResponse struct {
	Status   string            `json:"status"`
	Time     string            `json:"time"`
	Services map[string]string `json:"services"`
}

// TrackResponse is the JSON representation of a track.
type TrackResponse struct {
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	ProgressMS *int64 `json:"progress_ms,omitempty"`
	IsPlaying  bool   `json:"is_playing"`
}

// NowPlayingResponse is the body of GET /nowplaying. Track is null when
// nothing is playing; Error carries a user-facing message.
type NowPlayingResponse struct {
	Service   string         `json:"service"`
	Track     *TrackResponse `json:"track"`
	Error     string         `json:"error,omitempty"`
	Category  string         `json:"category,omitempty"`
	CheckedAt string         `json:"checked_at"`
}

func toNowPlayingResponse(u model.PlaybackUpdate) NowPlayingResponse {
	resp := NowPlayingResponse{
		Service:   string(u.Service),
		CheckedAt: u.CheckedAt.UTC().Format(time.RFC3339),
	}
	if u.Track != nil {
		resp.Track = &TrackResponse{
			Title:      u.Track.Title,
			Artist:     u.Track.Artist,
			Album:      u.Track.Album,
			DurationMS: u.Track.DurationMS,
			ProgressMS: u.Track.ProgressMS,
			IsPlaying:  u.Track.IsPlaying,
		}
	}
	if u.Err != nil {
		resp.Error = model.UserMessage(u.Err)
		resp.Category = model.Category(u.Err)
	}
	return resp
}

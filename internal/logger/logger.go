// Package logger builds the zerolog logger handed to every component.
package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a logger writing to w at the given level. Development
// environments ("", "dev", "development") get human-readable console output;
// anything else gets JSON lines.
func New(level, env string, w io.Writer) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	out := w
	if IsDevelopment(env) {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05"}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// IsDevelopment reports whether env selects console output.
func IsDevelopment(env string) bool {
	switch strings.ToLower(env) {
	case "", "dev", "development":
		return true
	default:
		return false
	}
}

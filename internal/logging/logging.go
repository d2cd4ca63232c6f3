// Package logging configures the shared zerolog logger.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds a logger for the named component. Console format renders
// human-readable output for CLI use; anything else emits JSON lines.
func New(component, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	var out = zerolog.New(os.Stdout)
	if strings.EqualFold(format, "console") {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return out.Level(lvl).With().Timestamp().Str("component", component).Logger()
}

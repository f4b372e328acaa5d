package internal

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewLogger returns a logger writing to w at the given level ("debug",
// "info", "warn" or "error"). An unknown level falls back to info.
func NewLogger(w io.Writer, level string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// CalendarLogger tags every entry with the calendar it's about.
func CalendarLogger(log zerolog.Logger, calendarID int64) zerolog.Logger {
	return log.With().Int64("calendar_id", calendarID).Logger()
}

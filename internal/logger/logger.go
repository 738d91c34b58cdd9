package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New creates the process logger writing human readable lines to stdout.
func New(level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level)
}

func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(level))

	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05"}).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Nop is used by tests and by components constructed without a logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	FormatJSON  = "json"
	FormatPlain = "plain"

	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelError = "error"
)

// NewLogger returns a zerolog logger writing to stderr in the given format at the given level.
func NewLogger(format, level string) (zerolog.Logger, error) {
	return NewLoggerTo(os.Stderr, format, level)
}

// NewLoggerTo is NewLogger with an explicit destination.
func NewLoggerTo(w io.Writer, format, level string) (zerolog.Logger, error) {
	switch format {
	case FormatJSON:
	case FormatPlain:
		w = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), fmt.Errorf("unsupported log format: %s", format)
	}

	var lvl zerolog.Level
	switch level {
	case LevelDebug:
		lvl = zerolog.DebugLevel
	case LevelInfo:
		lvl = zerolog.InfoLevel
	case LevelError:
		lvl = zerolog.ErrorLevel
	default:
		return zerolog.Nop(), fmt.Errorf("unsupported log level: %s", level)
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// RequestLogger logs one line per HTTP request.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("took", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("http request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

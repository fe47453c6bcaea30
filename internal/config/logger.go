package config

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is stamped on every log line as the "service" field.
const ServiceName = "kart-checkout"

// NewLogger builds the process logger writing to w. Unknown levels fall back
// to info; any format other than "console" emits JSON lines.
func NewLogger(cfg LoggerConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := w
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}

	return zerolog.New(out).With().
		Timestamp().
		Str("service", ServiceName).
		Logger()
}

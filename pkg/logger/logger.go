// Package logger builds the zerolog root logger that every simulator
// component derives its own tagged logger from.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config selects the verbosity and output format of the root logger.
type Config struct {
	Level  string // debug, info, warn or error; anything else means info
	Pretty bool   // human-readable console output instead of JSON lines
}

// New builds the root logger and applies its level globally, so components
// logging through zerolog's package-level helpers honor the same threshold.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var root zerolog.Logger
	if cfg.Pretty {
		root = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	} else {
		root = zerolog.New(os.Stdout)
	}
	return root.With().Timestamp().Caller().Logger()
}

// SetGlobalLogger routes zerolog's package-level log calls through l.
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}

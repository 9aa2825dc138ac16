package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger builds the process logger and installs it as the global
// zerolog logger used by the rest of the code base.
func NewLogger(cfg Config) zerolog.Logger {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg Config, out io.Writer) zerolog.Logger {
	if cfg.LogFormat == LogFormatConsole {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)
	l := zerolog.New(out).With().Timestamp().Logger()
	if cfg.LogLevel <= zerolog.DebugLevel {
		l = l.With().Caller().Logger()
	}
	log.Logger = l
	return l
}

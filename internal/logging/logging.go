package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"residencehub/internal/config"
)

// New builds the process logger. Pretty output is meant for local development.
func New(cfg config.LoggerConfig, service string) zerolog.Logger {
	return NewWithWriter(cfg, service, os.Stdout)
}

func NewWithWriter(cfg config.LoggerConfig, service string, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}

// Writer adapts the logger for libraries that want an io.Writer, such as
// the HTTP access log.
func Writer(log zerolog.Logger) io.Writer {
	return accessWriter{log: log}
}

type accessWriter struct {
	log zerolog.Logger
}

func (a accessWriter) Write(p []byte) (int, error) {
	n := len(p)
	if n > 0 && p[n-1] == '\n' {
		p = p[:n-1]
	}
	a.log.Info().Str("component", "http").Msg(string(p))
	return n, nil
}

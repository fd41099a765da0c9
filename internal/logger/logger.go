package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/auto-dns/docker-mount-notify/internal/config"
	"github.com/rs/zerolog"
)

const serviceName = "docker_mount_notify"

// SetupLogger returns the process logger, writing human-readable lines to stdout.
func SetupLogger(cfg *config.LoggingConfig) zerolog.Logger {
	return New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	}, cfg)
}

func New(out io.Writer, cfg *config.LoggingConfig) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}

	return zerolog.New(out).
		With().
		Timestamp().
		Caller().
		Str("service", serviceName).
		Str("host", hostname).
		Logger()
}

// ParseLevel maps a case-insensitive level name to a zerolog level. Unknown or empty names mean info.
func ParseLevel(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

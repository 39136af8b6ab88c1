// Package internallog sets up the agent's own structured logger. It
// deliberately does not touch OpenTelemetry's TracerProvider: logging
// the pipeline's own activity through the same exporter it feeds
// would turn every delivery retry into more telemetry to deliver.
package internallog

import (
	"log/slog"
	"os"
)

// Config controls the internal logger's level and encoding.
type Config struct {
	Level     string // debug, info, warn, error
	Format    string // json, text
	Component string
	Version   string
}

// New builds a logger scoped to Component/Version, matching the
// service/version/env fields the rest of the ecosystem's loggers
// carry.
func New(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: parseLevel(cfg.Level) == slog.LevelDebug,
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler).With(
		"component", cfg.Component,
		"version", cfg.Version,
	)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Package logging builds the structured logger the rest of the server
// writes through: JSON to stderr by default, or a colorized console
// writer when configured for local/interactive use.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/stormvale/voxelcore/pkg/config"
)

// New builds a zerolog.Logger from the server's logging configuration.
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("logging: %w", err)
	}

	var w io.Writer = os.Stderr
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return logger, nil
}

// WithComponent tags every entry a subsystem logs with its name, so log
// lines can be filtered by component without grepping message text.
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

package cliconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

// Logger returns the process console logger.
func Logger() zerolog.Logger {
	return logger
}

// SetLogLevel sets the global zerolog level from its name.
func SetLogLevel(name string) error {
	if name == "" {
		name = DefaultLogLevel
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("parse log-level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

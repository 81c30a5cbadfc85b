// Package utils
package utils

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	logger zerolog.Logger
	once   sync.Once
)

// GetLogger returns the process logger. It writes human-readable output to
// stderr until Configure is called.
func GetLogger() *zerolog.Logger {
	once.Do(func() {
		logger = newLogger(os.Stderr, "info", "console")
	})
	return &logger
}

// Configure replaces the process logger. Unknown levels fall back to info.
func Configure(w io.Writer, level, format string) {
	once.Do(func() {})
	logger = newLogger(w, level, format)
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return GetLogger().With().Str("component", name).Logger()
}

func newLogger(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

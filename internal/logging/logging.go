// Package logging builds the structured loggers used across the server and
// the batch runner.
//
// Logs always go to stderr in the binaries: stdout carries the MCP protocol.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// EnvLevel names the environment variable that overrides the configured
// log level.
const EnvLevel = "IMAGE_SEGMENT_LOG_LEVEL"

// New returns a timestamped logger writing to w at level. With console set,
// records are rendered for humans instead of as JSON lines.
func New(w io.Writer, level zerolog.Level, console bool) zerolog.Logger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// ParseLevel converts a level name such as "debug" or "warn" to a zerolog
// level. An empty name means info.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	if name == "warning" {
		name = "warn"
	}
	return zerolog.ParseLevel(name)
}

// ResolveLevel returns the level named by EnvLevel when it is set and valid,
// and configured otherwise.
func ResolveLevel(configured string) (zerolog.Level, error) {
	if env := os.Getenv(EnvLevel); env != "" {
		if lvl, err := ParseLevel(env); err == nil {
			return lvl, nil
		}
	}
	return ParseLevel(configured)
}

// Component returns a child logger tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

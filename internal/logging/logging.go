// Package logging configures zerolog output for spindle.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu   sync.RWMutex
	base = zerolog.New(consoleWriter(os.Stderr)).With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

// Setup reconfigures the process-wide logger. Format is "console" or "json";
// unknown levels fall back to info.
func Setup(level, format string) {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if strings.ToLower(strings.TrimSpace(format)) != "json" {
		out = consoleWriter(os.Stderr)
	}

	mu.Lock()
	base = zerolog.New(out).With().Timestamp().Logger().Level(parsed)
	mu.Unlock()
}

// Component returns a logger tagged with a component name.
func Component(name string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.With().Str("component", name).Logger()
}

func consoleWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
}

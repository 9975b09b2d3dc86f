// Package logging provides the zerolog-backed application logger.
//
// HTTP request logging stays in the Fiber middleware; this package covers
// everything that happens off the request path (hub events, delayed
// broadcasts, job dispatch).
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
	log zerolog.Logger
	mu  sync.RWMutex
)

func init() {
	Init(os.Getenv("LOG_LEVEL"), os.Stderr)
}

// Init configures the global logger. Level is one of debug, info, warn,
// error; anything else falls back to info. Safe to call more than once.
func Init(level string, output io.Writer) {
	lvl := zerolog.InfoLevel
	switch strings.ToLower(level) {
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}

	if output == nil {
		output = os.Stderr
	}

	mu.Lock()
	defer mu.Unlock()
	log = zerolog.New(output).Level(lvl).With().Timestamp().Logger()
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// Debug starts a debug-level log event.
func Debug() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Debug()
}

// Info starts an info-level log event.
func Info() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Info()
}

// Warn starts a warn-level log event.
func Warn() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Warn()
}

// Error starts an error-level log event.
func Error() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Error()
}

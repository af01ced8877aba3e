// internal/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log = newLogger(os.Stderr)
)

func newLogger(w io.Writer) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	return zerolog.New(console).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

// Init initializes the logger
func Init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

// SetOutput sets the output for all levels
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	lvl := log.GetLevel()
	log = newLogger(w).Level(lvl)
}

// SetJSONOutput switches to structured JSON lines on w
func SetJSONOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	lvl := log.GetLevel()
	log = zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

// SetLevel sets the log level
func SetLevel(levelStr string) {
	mu.Lock()
	defer mu.Unlock()

	switch strings.ToLower(levelStr) {
	case "debug":
		log = log.Level(zerolog.DebugLevel)
	case "info":
		log = log.Level(zerolog.InfoLevel)
	case "warn", "warning":
		log = log.Level(zerolog.WarnLevel)
	case "error":
		log = log.Level(zerolog.ErrorLevel)
	default:
		log = log.Level(zerolog.InfoLevel)
	}
}

// Level returns the current level name
func Level() string {
	mu.RLock()
	defer mu.RUnlock()
	return log.GetLevel().String()
}

// Get returns the underlying zerolog logger for structured fields
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	l := Get()
	l.Debug().Msgf(format, v...)
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	l := Get()
	l.Info().Msgf(format, v...)
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	l := Get()
	l.Warn().Msgf(format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	l := Get()
	l.Error().Msgf(format, v...)
}

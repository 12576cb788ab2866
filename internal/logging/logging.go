// Package logging provides the process-wide zerolog logger.
//
// Progress meant for the operator goes to stdout through the cli print helpers;
// everything diagnostic (per-item failures, subprocess exit codes, API warnings)
// goes through this package to stderr.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string
	// Format is console or json.
	Format string
	// NoColor disables ANSI colors in console format.
	NoColor bool
	// Output is the destination writer. Defaults to os.Stderr.
	Output io.Writer
}

var (
	log   zerolog.Logger
	cfg   Config
	debug bool
	mu    sync.RWMutex
)

func init() {
	Init(Config{Level: "info", Format: FormatConsole})
}

// Init (re)configures the global logger.
func Init(c Config) {
	mu.Lock()
	defer mu.Unlock()
	cfg = c
	rebuild()
}

// rebuild must be called with mu held.
func rebuild() {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	if cfg.Format != FormatJSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
			NoColor:    cfg.NoColor,
		}
	}

	level := parseLevel(cfg.Level)
	if debug {
		level = zerolog.DebugLevel
	}

	log = zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// SetDebug forces debug level regardless of the configured level.
func SetDebug(enable bool) {
	mu.Lock()
	defer mu.Unlock()
	debug = enable
	rebuild()
}

// IsEnabled returns whether debug mode is enabled
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return debug
}

// SetNoColor enables or disables colored console output
func SetNoColor(disable bool) {
	mu.Lock()
	defer mu.Unlock()
	cfg.NoColor = disable
	rebuild()
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Component returns a sub-logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return ComponentFrom(nil, name)
}

// ComponentFrom tags a child of parent with the component name, keeping the
// parent's fields (such as a run id). A nil parent means the global logger.
func ComponentFrom(parent *zerolog.Logger, name string) zerolog.Logger {
	l := Logger()
	if parent != nil {
		l = *parent
	}
	return l.With().Str("component", name).Logger()
}

// Debug starts a debug level event.
func Debug() *zerolog.Event {
	l := Logger()
	return l.Debug()
}

// Info starts an info level event.
func Info() *zerolog.Event {
	l := Logger()
	return l.Info()
}

// Warn starts a warn level event.
func Warn() *zerolog.Event {
	l := Logger()
	return l.Warn()
}

// Error starts an error level event.
func Error() *zerolog.Event {
	l := Logger()
	return l.Error()
}

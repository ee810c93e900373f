// Package logging configures the leveled logger shared by the CLI and the
// HTTP server. Diagnostics go to stderr so command output on stdout stays
// machine readable.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Options controls logger construction.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text, json, logfmt
	Prefix string
}

var defaultLogger atomic.Pointer[log.Logger]

func init() {
	defaultLogger.Store(log.NewWithOptions(os.Stderr, log.Options{Prefix: "selah"}))
}

// New creates a logger writing to w.
func New(w io.Writer, opts Options) (*log.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	formatter, err := parseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		Prefix:          opts.Prefix,
		ReportTimestamp: formatter != log.TextFormatter,
	}), nil
}

// ParseLevel maps a level name to a log.Level. An empty name is info.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return log.InfoLevel, nil
	case "debug":
		return log.DebugLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

func parseFormat(s string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("unknown log format %q", s)
	}
}

// Setup builds a stderr logger from opts and installs it as the default.
func Setup(opts Options) (*log.Logger, error) {
	if opts.Prefix == "" {
		opts.Prefix = "selah"
	}
	logger, err := New(os.Stderr, opts)
	if err != nil {
		return nil, err
	}
	defaultLogger.Store(logger)
	return logger, nil
}

// Default returns the installed logger.
func Default() *log.Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the installed logger. Tests use it to capture output.
func SetDefault(logger *log.Logger) {
	defaultLogger.Store(logger)
}

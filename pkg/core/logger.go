package core

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// Logger provides structured logging capabilities
// This abstraction allows swapping logging implementations
type Logger interface {
	// Error logs an error message
	Error(args ...interface{})

	// Errorf logs a formatted error message
	Errorf(format string, args ...interface{})

	// Warn logs a warning message
	Warn(args ...interface{})

	// Warnf logs a formatted warning message
	Warnf(format string, args ...interface{})

	// Info logs an informational message
	Info(args ...interface{})

	// Infof logs a formatted informational message
	Infof(format string, args ...interface{})

	// Debug logs a debug message
	Debug(args ...interface{})

	// Debugf logs a formatted debug message
	Debugf(format string, args ...interface{})

	// WithFields returns a logger that attaches the given fields to every entry
	WithFields(fields map[string]interface{}) Logger
}

// LoggerOptions configures a Logger built on charmbracelet/log.
type LoggerOptions struct {
	// Level is one of debug, info, warn, error
	Level string

	// Format is one of text, json, logfmt
	Format string

	Prefix          string
	Output          io.Writer
	ReportTimestamp bool
	ReportCaller    bool
}

// DefaultLoggerOptions returns human-readable info level logging on stderr.
func DefaultLoggerOptions() LoggerOptions {
	return LoggerOptions{
		Level:           "info",
		Format:          "text",
		Output:          os.Stderr,
		ReportTimestamp: true,
	}
}

// charmLogger implements Logger on top of charmbracelet/log
type charmLogger struct {
	l *log.Logger
}

// NewDefaultLogger creates a logger with DefaultLoggerOptions
func NewDefaultLogger() Logger {
	logger, err := NewLogger(DefaultLoggerOptions())
	if err != nil {
		// defaults always parse
		panic(err)
	}
	return logger
}

// NewLogger creates a logger from options (fail-fast on unknown level or format)
func NewLogger(opts LoggerOptions) (Logger, error) {
	level, err := ParseLogLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	formatter, err := ParseLogFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	l := log.NewWithOptions(out, log.Options{
		Level:           level,
		Formatter:       formatter,
		Prefix:          opts.Prefix,
		ReportTimestamp: opts.ReportTimestamp,
		ReportCaller:    opts.ReportCaller,
		// skip the charmLogger wrapper frame
		CallerOffset: 1,
	})
	return &charmLogger{l: l}, nil
}

// ParseLogLevel maps a configuration string to a charmbracelet/log level.
// An empty string means info.
func ParseLogLevel(level string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return log.InfoLevel, nil
	case "debug":
		return log.DebugLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, &Error{Code: "INVALID_LOG_LEVEL", Message: fmt.Sprintf("unknown log level %q", level)}
	}
}

// ParseLogFormat maps a configuration string to a charmbracelet/log formatter.
// An empty string means text.
func ParseLogFormat(format string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, &Error{Code: "INVALID_LOG_FORMAT", Message: fmt.Sprintf("unknown log format %q", format)}
	}
}

func (c *charmLogger) Error(args ...interface{}) {
	c.l.Error(fmt.Sprint(args...))
}

func (c *charmLogger) Errorf(format string, args ...interface{}) {
	c.l.Error(fmt.Sprintf(format, args...))
}

func (c *charmLogger) Warn(args ...interface{}) {
	c.l.Warn(fmt.Sprint(args...))
}

func (c *charmLogger) Warnf(format string, args ...interface{}) {
	c.l.Warn(fmt.Sprintf(format, args...))
}

func (c *charmLogger) Info(args ...interface{}) {
	c.l.Info(fmt.Sprint(args...))
}

func (c *charmLogger) Infof(format string, args ...interface{}) {
	c.l.Info(fmt.Sprintf(format, args...))
}

func (c *charmLogger) Debug(args ...interface{}) {
	c.l.Debug(fmt.Sprint(args...))
}

func (c *charmLogger) Debugf(format string, args ...interface{}) {
	c.l.Debug(fmt.Sprintf(format, args...))
}

// WithFields returns a child logger. Keys are sorted so output is stable.
func (c *charmLogger) WithFields(fields map[string]interface{}) Logger {
	if len(fields) == 0 {
		return c
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]interface{}, 0, len(fields)*2)
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return &charmLogger{l: c.l.With(kv...)}
}

// nopLogger discards everything
type nopLogger struct{}

// NewNopLogger returns a Logger that discards all entries
func NewNopLogger() Logger {
	return nopLogger{}
}

func (nopLogger) Error(args ...interface{})                        {}
func (nopLogger) Errorf(format string, args ...interface{})        {}
func (nopLogger) Warn(args ...interface{})                         {}
func (nopLogger) Warnf(format string, args ...interface{})         {}
func (nopLogger) Info(args ...interface{})                         {}
func (nopLogger) Infof(format string, args ...interface{})         {}
func (nopLogger) Debug(args ...interface{})                        {}
func (nopLogger) Debugf(format string, args ...interface{})        {}
func (n nopLogger) WithFields(fields map[string]interface{}) Logger { return n }

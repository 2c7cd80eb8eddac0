// Package logging provides the structured logging interface used across
// wheelwright, with a no-op default and a charmbracelet/log backed
// implementation for the command line.
package logging

import (
	"io"

	"github.com/charmbracelet/log"
)

// Logger provides structured logging for install and cache operations.
// This interface allows callers to plug in their own logging implementation.
type Logger interface {
	// Debug logs debug-level messages with optional key-value pairs.
	Debug(msg string, keysAndValues ...interface{})

	// Info logs info-level messages with optional key-value pairs.
	Info(msg string, keysAndValues ...interface{})

	// Warn logs warning-level messages with optional key-value pairs.
	Warn(msg string, keysAndValues ...interface{})

	// Error logs error-level messages with optional key-value pairs.
	Error(msg string, keysAndValues ...interface{})
}

// noopLogger is a Logger implementation that does nothing.
type noopLogger struct{}

func (n *noopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (n *noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (n *noopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (n *noopLogger) Error(msg string, keysAndValues ...interface{}) {}

// Noop returns a Logger that discards everything.
func Noop() Logger {
	return &noopLogger{}
}

// OrNoop returns l, or the no-op logger when l is nil.
func OrNoop(l Logger) Logger {
	if l == nil {
		return Noop()
	}
	return l
}

// charmLogger adapts *log.Logger to Logger.
type charmLogger struct {
	l *log.Logger
}

// NewCharm returns a Logger writing to w at the given level
// ("debug", "info", "warn", "error"). Unknown levels fall back to info.
func NewCharm(w io.Writer, level string) Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return &charmLogger{
		l: log.NewWithOptions(w, log.Options{
			Level:  lvl,
			Prefix: "wheelwright",
		}),
	}
}

func (c *charmLogger) Debug(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c *charmLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Info(msg, keysAndValues...)
}

func (c *charmLogger) Warn(msg string, keysAndValues ...interface{}) {
	c.l.Warn(msg, keysAndValues...)
}

func (c *charmLogger) Error(msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, keysAndValues...)
}

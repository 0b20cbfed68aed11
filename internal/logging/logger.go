// Package logging configures the structured logger shared by crier components.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Fields represents structured logging fields
type Fields = logrus.Fields

// Format names a log output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// New creates a logger writing to stderr with the given level and format.
// Unknown levels fall back to info.
func New(level string, format Format) *logrus.Logger {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, level string, format Format) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	switch format {
	case FormatText:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// NewWithService creates a logger entry carrying a service field.
func NewWithService(service, level string, format Format) *logrus.Entry {
	return New(level, format).WithField("service", service)
}

// Discard returns a logger that drops every entry.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// OrDiscard returns logger, or a discarding logger when logger is nil.
func OrDiscard(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger == nil {
		return Discard()
	}
	return logger
}

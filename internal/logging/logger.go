// Package logging builds the structured logger shared by the service,
// the ingest worker and the HTTP server.
//
// Usage:
//
//	log := logging.New("server")
//	log.WithField("source_id", id).Info("ingest complete")
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a logrus logger for a named component writing JSON to stderr.
// The level comes from LOG_LEVEL (default: info).
func New(component string) *logrus.Entry {
	return NewWithOutput(component, os.Stderr, os.Getenv("LOG_LEVEL"))
}

// NewWithOutput is New with an explicit writer and level name.
func NewWithOutput(component string, w io.Writer, levelStr string) *logrus.Entry {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	log.SetOutput(w)

	level, err := logrus.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log.WithField("component", component)
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *logrus.Entry {
	return NewWithOutput("test", io.Discard, "panic")
}

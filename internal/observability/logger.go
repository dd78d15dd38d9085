// Package observability provides structured logging for the querygate gateway.
//
// Every request emits one entry: request id, route, status, the catalog key or table,
// row count, duration, outcome and error (if any). Internal error causes are logged
// here and nowhere else.
package observability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/canonica-labs/querygate/internal/config"
)

// NewLogger builds a logger from cfg writing to w.
func NewLogger(cfg config.LoggingConfig, w io.Writer) (*logrus.Logger, error) {
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("observability: invalid log level %q: %w", cfg.Level, err)
	}

	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)

	switch strings.ToLower(cfg.Format) {
	case "", "json":
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	default:
		return nil, fmt.Errorf("observability: unknown log format %q (use json or text)", cfg.Format)
	}
	return log, nil
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// Request outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// OutcomeFor classifies an HTTP status.
func OutcomeFor(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return OutcomeError
	case status >= http.StatusBadRequest:
		return OutcomeRejected
	default:
		return OutcomeSuccess
	}
}

// RequestLogEntry contains the fields logged for every request.
type RequestLogEntry struct {
	// RequestID is required.
	RequestID string

	Method string
	Path   string
	Status int

	// QueryKey is the catalog key, Table the exported table. At most one is set.
	QueryKey string
	Table    string

	// Format is "json" or "csv" for data endpoints.
	Format string

	// Window is the normalized pagination, e.g. "limit=100 offset=0".
	Window string

	Rows     int
	Duration time.Duration

	// Error is the internal error text. It is never sent to clients.
	Error string
}

// Validate checks that the required fields are present.
func (e *RequestLogEntry) Validate() error {
	if e.RequestID == "" {
		return fmt.Errorf("observability: request_id is required")
	}
	if e.Duration < 0 {
		return fmt.Errorf("observability: duration cannot be negative")
	}
	return nil
}

// Fields renders the entry as logrus fields. Empty optional fields are omitted.
func (e *RequestLogEntry) Fields() logrus.Fields {
	f := logrus.Fields{
		"request_id":  e.RequestID,
		"method":      e.Method,
		"path":        e.Path,
		"status":      e.Status,
		"duration_ms": e.Duration.Milliseconds(),
		"outcome":     OutcomeFor(e.Status),
	}
	if e.QueryKey != "" {
		f["query"] = e.QueryKey
	}
	if e.Table != "" {
		f["table"] = e.Table
	}
	if e.Format != "" {
		f["format"] = e.Format
		f["rows"] = e.Rows
	}
	if e.Window != "" {
		f["window"] = e.Window
	}
	if e.Error != "" {
		f["error"] = e.Error
	}
	return f
}

// RequestLogger records request log entries.
type RequestLogger interface {
	LogRequest(ctx context.Context, entry RequestLogEntry) error
}

// LogrusRequestLogger writes entries through a logrus logger. The level follows the
// status: 5xx error, 4xx warn, everything else info.
type LogrusRequestLogger struct {
	log *logrus.Logger
}

// NewRequestLogger creates a RequestLogger over log.
func NewRequestLogger(log *logrus.Logger) *LogrusRequestLogger {
	return &LogrusRequestLogger{log: log}
}

// LogRequest logs one request.
func (l *LogrusRequestLogger) LogRequest(ctx context.Context, entry RequestLogEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	e := l.log.WithContext(ctx).WithFields(entry.Fields())
	switch OutcomeFor(entry.Status) {
	case OutcomeError:
		e.Error("request failed")
	case OutcomeRejected:
		e.Warn("request rejected")
	default:
		e.Info("request served")
	}
	return nil
}

// NoopRequestLogger discards entries.
type NoopRequestLogger struct{}

// LogRequest does nothing and always succeeds.
func (NoopRequestLogger) LogRequest(context.Context, RequestLogEntry) error {
	return nil
}

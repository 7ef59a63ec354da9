// Package logging provides the structured logging used throughout corectl.
//
// It wraps log/slog with a small subsystem-tagged API (Debug/Info/Warn/Error),
// an audit trail for security-sensitive operations, and a scrubber that masks
// secret-shaped fields before any event reaches a console or log sink.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"
)

// LogLevel defines the severity of the log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes LogLevel satisfy the fmt.Stringer interface.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var defaultLogger *slog.Logger

// Init initializes the package logger. Must be called once at startup;
// calls before Init (or in tests that skip it) fall back to a quiet
// info-level logger writing to stderr.
func Init(level LogLevel, output io.Writer) {
	opts := &slog.HandlerOptions{Level: level.SlogLevel()}
	handler := slog.NewTextHandler(output, opts)
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func logger() *slog.Logger {
	if defaultLogger == nil {
		Init(LevelInfo, os.Stderr)
	}
	return defaultLogger
}

func logInternal(level LogLevel, subsystem string, err error, messageFmt string, args ...interface{}) {
	l := logger()
	if !l.Enabled(context.Background(), level.SlogLevel()) {
		return
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	var attrs []slog.Attr
	attrs = append(attrs, slog.String("subsystem", subsystem))
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	l.LogAttrs(context.Background(), level.SlogLevel(), msg, attrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(LevelError, subsystem, err, messageFmt, args...)
}

// AuditEvent represents a structured audit log entry for a security-sensitive
// operation (factory security checks, manifest signature/digest outcomes).
type AuditEvent struct {
	Action  string // e.g. "factory_check", "manifest_verify"
	Outcome string // "success" or "failure"
	Domain  string
	Key     string
	Details string
	Error   string
}

// Audit logs a structured audit event. Audit events are always INFO level
// and carry an [AUDIT] prefix so log aggregators can filter on it easily.
func Audit(event AuditEvent) {
	parts := make([]string, 0, 6)
	parts = append(parts, "action="+event.Action)
	parts = append(parts, "outcome="+event.Outcome)
	if event.Domain != "" {
		parts = append(parts, "domain="+event.Domain)
	}
	if event.Key != "" {
		parts = append(parts, "key="+event.Key)
	}
	if event.Details != "" {
		parts = append(parts, "details="+ScrubString(event.Details))
	}
	if event.Error != "" {
		parts = append(parts, "error="+event.Error)
	}
	logInternal(LevelInfo, "AUDIT", nil, "[AUDIT] %s", strings.Join(parts, " "))
}

// secretFieldPattern matches field names that must be masked before any
// event reaches a human-visible sink: secret, token, password, key (and
// their plurals/compounds), case-insensitively.
var secretFieldPattern = regexp.MustCompile(`(?i)(secret|token|password|key)`)

const redactedValue = "***REDACTED***"

// ScrubFields returns a copy of fields with any value whose key name
// matches the secret-field pattern replaced by a fixed redaction marker.
// This is the default-on redaction required before console/log echo of any
// emitted event payload.
func ScrubFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if secretFieldPattern.MatchString(k) {
			out[k] = redactedValue
			continue
		}
		out[k] = v
	}
	return out
}

// ScrubString is a best-effort scrub for free-form text that might
// contain "key=value"-shaped secret material; it does not attempt to
// parse arbitrary prose, only obvious key=value and key: value pairs.
var kvSecretPattern = regexp.MustCompile(`(?i)\b(\w*(?:secret|token|password|key)\w*)\s*[:=]\s*\S+`)

func ScrubString(s string) string {
	return kvSecretPattern.ReplaceAllString(s, "$1="+redactedValue)
}

// TruncateID returns a truncated identifier for secure logging: the first
// 8 characters followed by an ellipsis, or the identifier unchanged if it
// is already short.
func TruncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}

// Now is the single indirection point for "current time" used by logging
// and callers that want their timestamps to line up with log entries.
func Now() time.Time {
	return time.Now()
}

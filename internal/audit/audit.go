// Package audit records the append-only trail of operations a repository or
// session performs, as required by the data model's audit event list.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/kaija/agent-skills-runtime/spec"
)

// Sink receives AuditEvents as they occur. Implementations must be safe for
// concurrent use: a session's handle methods may be called from multiple
// goroutines sharing one repository.
type Sink interface {
	Log(event spec.AuditEvent) error
}

// Multi fans one event out to several sinks, stopping at the first error.
type Multi []Sink

func (m Multi) Log(event spec.AuditEvent) error {
	for _, s := range m {
		if err := s.Log(event); err != nil {
			return err
		}
	}
	return nil
}

// Discard is a Sink that drops every event, for callers that never configured
// an audit trail.
type Discard struct{}

func (Discard) Log(spec.AuditEvent) error { return nil }

// JSONLSink appends one JSON object per line to a file, creating its parent
// directory on first use. Writes are serialized by a mutex so concurrent
// Log calls never interleave partial lines.
type JSONLSink struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// NewJSONLSink opens (creating if necessary) the audit log at path for
// appending.
func NewJSONLSink(path string) (*JSONLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLSink{path: path, f: f}, nil
}

func (s *JSONLSink) Log(event spec.AuditEvent) error {
	line, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	line = append(line, '\n')
	_, err = s.f.Write(line)
	return err
}

// Close releases the underlying file handle.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

// SlogSink adapts AuditEvents onto a structured logger, one Info record per
// event with the event's own fields as attributes.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink wraps logger. A nil logger uses slog.Default().
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Log(event spec.AuditEvent) error {
	attrs := []slog.Attr{
		slog.Time("ts", event.TS),
		slog.String("kind", string(event.Kind)),
	}
	if event.Skill != "" {
		attrs = append(attrs, slog.String("skill", event.Skill))
	}
	if event.Path != "" {
		attrs = append(attrs, slog.String("path", event.Path))
	}
	if event.Bytes != 0 {
		attrs = append(attrs, slog.Int64("bytes", event.Bytes))
	}
	if event.SHA256 != "" {
		attrs = append(attrs, slog.String("sha256", event.SHA256))
	}
	for k, v := range event.Detail {
		attrs = append(attrs, slog.Any(k, v))
	}
	s.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
	return nil
}

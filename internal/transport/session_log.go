package transport

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// SessionLog appends one JSON line per recorded event to a file, forming
// the diagnostic trail the `stats` CLI command reads back to chart a
// session's directive rate and error ratio over time. It is an ambient
// artifact, not reconciler state.
type SessionLog struct {
	mu   sync.Mutex
	file *os.File
}

// sessionLogEntry is one line of the log file.
type sessionLogEntry struct {
	Time   time.Time      `json:"time"`
	Event  string         `json:"event"`
	Fields map[string]any `json:"fields,omitempty"`
}

// OpenSessionLog opens (creating if necessary) a session log file at path
// for appending.
func OpenSessionLog(path string) (*SessionLog, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:mnd // standard rw-r--r--
	if err != nil {
		return nil, fmt.Errorf("transport: open session log %q: %w", path, err)
	}

	return &SessionLog{file: file}, nil
}

// Record appends one timestamped entry.
func (s *SessionLog) Record(event string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, err := json.Marshal(sessionLogEntry{Time: time.Now(), Event: event, Fields: fields})
	if err != nil {
		return fmt.Errorf("transport: marshal session log entry: %w", err)
	}

	line = append(line, '\n')

	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("transport: write session log entry: %w", err)
	}

	return nil
}

// Close closes the underlying file.
func (s *SessionLog) Close() error {
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("transport: close session log: %w", err)
	}

	return nil
}

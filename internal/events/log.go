package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogFileName is the durable event log inside a session directory.
const LogFileName = "events.jsonl"

// Log is the append-only, line-oriented event log for one session. Writes go
// straight to the file descriptor so every appended line survives a crash of
// this process. A single sink writer owns the happy path; the mutex exists for
// the direct-sentinel bypass, which appends from the sink's liveness check.
type Log struct {
	mu        sync.Mutex
	file      *os.File
	path      string
	closed    bool
	lastWrite time.Time
	appended  int
}

// OpenLog creates (or reopens for append) the event log in dir.
func OpenLog(dir string) (*Log, error) {
	path := filepath.Join(dir, LogFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &Log{file: file, path: path, lastWrite: time.Now()}, nil
}

// Append writes one event as a single JSON line.
func (l *Log) Append(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return fmt.Errorf("event log already closed")
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	line = append(line, '\n')

	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	l.lastWrite = time.Now()
	l.appended++
	return nil
}

// LastWrite reports when the last byte reached the log.
func (l *Log) LastWrite() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastWrite
}

// Count reports the number of records appended through this handle.
func (l *Log) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appended
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Close syncs and closes the underlying file. Safe to call more than once.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	if err := l.file.Sync(); err != nil {
		l.file.Close()
		return fmt.Errorf("sync event log: %w", err)
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close event log: %w", err)
	}
	return nil
}

// ReadLog parses every record from a session's event log. Records with
// unknown actions or extra fields are kept as-is; consumers must tolerate
// kinds they do not understand.
func ReadLog(dir string) ([]Event, error) {
	file, err := os.Open(filepath.Join(dir, LogFileName))
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer file.Close()

	var parsed []Event
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("parse event line: %w", err)
		}
		parsed = append(parsed, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan event log: %w", err)
	}
	return parsed, nil
}

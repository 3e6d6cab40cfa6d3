package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gzhole/streamguard/internal/pattern"
)

// defaultMaxLogBytes is the size at which the audit log is moved to path.1.
const defaultMaxLogBytes = 5 << 20

type AuditEvent struct {
	Timestamp string   `json:"timestamp"`
	Session   string   `json:"session"`
	Decision  string   `json:"decision"`
	Reason    string   `json:"reason,omitempty"`
	Chunk     string   `json:"chunk,omitempty"`
	Score     int      `json:"score,omitempty"`
	Rules     []string `json:"rules,omitempty"`
	Mode      string   `json:"mode"`
	Error     string   `json:"error,omitempty"`
}

type AuditLogger struct {
	path     string
	file     *os.File
	size     int64
	maxBytes int64
	redact   bool
	mu       sync.Mutex
}

type Option func(*AuditLogger)

// WithoutRedaction keeps chunk text verbatim in the log.
func WithoutRedaction() Option {
	return func(l *AuditLogger) { l.redact = false }
}

func New(path string, opts ...Option) (*AuditLogger, error) {
	l := &AuditLogger{path: path, maxBytes: defaultMaxLogBytes, redact: true}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.open(); err != nil {
		return nil, err
	}
	return l, nil
}

// NewSession returns an id that groups the events of one stream.
func NewSession() string {
	return uuid.New().String()
}

func (l *AuditLogger) open() error {
	if info, err := os.Stat(l.path); err == nil && info.Size() >= l.maxBytes {
		if err := os.Rename(l.path, l.path+".1"); err != nil {
			return fmt.Errorf("rotate audit log: %w", err)
		}
	}
	return l.openFile()
}

func (l *AuditLogger) openFile() error {
	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}
	l.file, l.size = file, info.Size()
	return nil
}

func (l *AuditLogger) Log(event AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return errors.New("audit log is closed")
	}
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	// Redact sensitive data before logging
	if l.redact {
		event.Chunk = pattern.Redact(event.Chunk, "")
		if event.Error != "" {
			event.Error = pattern.Redact(event.Error, "")
		}
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if l.size > 0 && l.size+int64(len(data)) > l.maxBytes {
		if err := l.rotate(); err != nil {
			return err
		}
	}

	n, err := l.file.Write(data)
	l.size += int64(n)
	return err
}

// rotate moves the full log aside and starts a new one. When the move fails
// the current log is reopened in place.
func (l *AuditLogger) rotate() error {
	err := l.file.Close()
	l.file = nil
	if err != nil {
		return err
	}
	if err := os.Rename(l.path, l.path+".1"); err != nil {
		if openErr := l.openFile(); openErr != nil {
			return openErr
		}
		return fmt.Errorf("rotate audit log: %w", err)
	}
	return l.open()
}

func (l *AuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// ReadEvents loads every event in a JSONL audit log. Lines that do not parse
// are skipped.
func ReadEvents(path string) ([]AuditEvent, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var events []AuditEvent
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events, scanner.Err()
}

// Package logbook records a durable journal of engine activity. Every run
// appends entries describing what happened (request received, plan chosen,
// tools invoked, final answer) as JSON lines, giving an auditable history
// independent of process logs. Recording is best effort: a failing recorder
// never aborts a run.
package logbook

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one journal record.
type Entry struct {
	Timestamp  time.Time      `json:"timestamp"`
	InstanceID string         `json:"instance_id,omitempty"`
	Kind       string         `json:"kind"`
	Detail     string         `json:"detail"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Recorder appends entries to the journal.
type Recorder interface {
	Record(entry Entry) error
}

// NoopRecorder discards all entries.
type NoopRecorder struct{}

// Record implements Recorder.
func (NoopRecorder) Record(Entry) error { return nil }

// DefaultMaxBytes is the rotation threshold for FileRecorder.
const DefaultMaxBytes = 5 * 1024 * 1024

// FileRecorder appends JSON lines to a file, rotating it to <path>.1 when it
// exceeds the size limit. Only one previous generation is kept.
type FileRecorder struct {
	mu       sync.Mutex
	path     string
	maxBytes int64
}

// NewFileRecorder creates a recorder writing to path, creating parent
// directories as needed.
func NewFileRecorder(path string, optFns ...func(o *FileRecorderOptions)) (*FileRecorder, error) {
	opts := FileRecorderOptions{MaxBytes: DefaultMaxBytes}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create logbook dir: %w", err)
	}
	return &FileRecorder{path: path, maxBytes: opts.MaxBytes}, nil
}

// FileRecorderOptions configures a FileRecorder.
type FileRecorderOptions struct {
	// MaxBytes is the file size beyond which the journal rotates.
	MaxBytes int64
}

// Record appends the entry, stamping the time if unset.
func (r *FileRecorder) Record(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode logbook entry: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.rotateIfNeeded(int64(len(line) + 1)); err != nil {
		return err
	}

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open logbook: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append logbook entry: %w", err)
	}
	return nil
}

func (r *FileRecorder) rotateIfNeeded(incoming int64) error {
	info, err := os.Stat(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat logbook: %w", err)
	}
	if info.Size()+incoming <= r.maxBytes {
		return nil
	}
	if err := os.Rename(r.path, r.path+".1"); err != nil {
		return fmt.Errorf("rotate logbook: %w", err)
	}
	return nil
}

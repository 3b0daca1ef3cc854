package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore persists notes as JSON lines so memory survives restarts. The
// whole file is loaded at construction and rewritten on Forget; Save appends.
type FileStore struct {
	mu    sync.Mutex
	path  string
	cache *InMemoryStore
}

type fileNote struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFileStore opens or creates the notes file at path.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}

	s := &FileStore{path: path, cache: NewInMemoryStore()}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("open memory file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var n fileNote
		if err := json.Unmarshal(scanner.Bytes(), &n); err != nil {
			continue // skip corrupt lines, keep the rest
		}
		_ = s.cache.Save(context.Background(), n.Text)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read memory file: %w", err)
	}
	return s, nil
}

// Recall delegates to the in-memory cache.
func (s *FileStore) Recall(ctx context.Context, query string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Recall(ctx, query)
}

// Save appends the note to the file and the cache.
func (s *FileStore) Save(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cache.Save(ctx, text); err != nil {
		return err
	}

	line, err := json.Marshal(fileNote{Text: text, CreatedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("encode note: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open memory file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append note: %w", err)
	}
	return nil
}

// Forget removes matching notes from the cache and rewrites the file.
func (s *FileStore) Forget(ctx context.Context, query string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.cache.Forget(ctx, query)
	if err != nil {
		return "", err
	}
	if err := s.rewrite(); err != nil {
		return "", err
	}
	return report, nil
}

func (s *FileStore) rewrite() error {
	s.cache.mu.RLock()
	notes := make([]Note, len(s.cache.notes))
	copy(notes, s.cache.notes)
	s.cache.mu.RUnlock()

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp memory file: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, note := range notes {
		line, err := json.Marshal(fileNote{Text: note.Text, CreatedAt: note.CreatedAt})
		if err != nil {
			f.Close()
			return fmt.Errorf("encode note: %w", err)
		}
		w.Write(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush memory file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close memory file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Note is a single remembered item.
type Note struct {
	ID        string
	Text      string
	CreatedAt time.Time
}

// InMemoryStore is a process-local Store using case-insensitive substring
// matching for recall. Suitable for tests and short-lived sessions; use
// FileStore when notes must survive restarts.
type InMemoryStore struct {
	mu    sync.RWMutex
	notes []Note
	next  int
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Recall returns every note containing the query, newest first. Matching is
// word based: a note matches if it contains any query word of three or more
// characters, or the whole query for shorter ones.
func (s *InMemoryStore) Recall(ctx context.Context, query string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []string
	for i := len(s.notes) - 1; i >= 0; i-- {
		if noteMatches(s.notes[i].Text, query) {
			matched = append(matched, s.notes[i].Text)
		}
	}
	return strings.Join(matched, "\n"), nil
}

// Save appends a note.
func (s *InMemoryStore) Save(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.notes = append(s.notes, Note{
		ID:        fmt.Sprintf("note-%d", s.next),
		Text:      text,
		CreatedAt: time.Now(),
	})
	return nil
}

// Forget removes every note containing the query and reports the count.
func (s *InMemoryStore) Forget(ctx context.Context, query string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.notes[:0]
	removed := 0
	for _, note := range s.notes {
		if noteMatches(note.Text, query) {
			removed++
			continue
		}
		kept = append(kept, note)
	}
	s.notes = kept
	if removed == 0 {
		return "Nothing to forget.", nil
	}
	return fmt.Sprintf("Forgot %d note(s).", removed), nil
}

// Len returns the number of stored notes.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

func noteMatches(text, query string) bool {
	text = strings.ToLower(text)
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	words := strings.Fields(query)
	hasLongWord := false
	for _, word := range words {
		if len(word) < 3 {
			continue
		}
		hasLongWord = true
		if strings.Contains(text, word) {
			return true
		}
	}
	if !hasLongWord {
		return strings.Contains(text, query)
	}
	return false
}

package core

import "sync"

// Transcript is the engine-owned conversational context for one session.
// It is the only piece of mutable state the engine holds between requests.
//
// Contract:
//   - Append adds turns in order
//   - Messages returns a copy; callers never see the live slice
//   - Reset replaces the history wholesale with the seed turn (never edits
//     it incrementally)
//
// Safe for concurrent use.
type Transcript struct {
	mu   sync.RWMutex
	seed *Message
	msgs []Message
}

// NewTranscript creates a transcript optionally seeded with a persona /
// system message that survives resets. Pass nil for an unseeded transcript.
func NewTranscript(seed *Message) *Transcript {
	t := &Transcript{seed: seed}
	if seed != nil {
		t.msgs = []Message{*seed}
	}
	return t
}

// Append adds one or more turns to the history.
func (t *Transcript) Append(msgs ...Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = append(t.msgs, msgs...)
}

// Messages returns a copy of the full history.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.msgs))
	copy(out, t.msgs)
	return out
}

// Len returns the number of turns currently held.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.msgs)
}

// Reset discards the history and re-seeds it with the persona message, if
// one was provided at construction.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = nil
	if t.seed != nil {
		t.msgs = []Message{*t.seed}
	}
}

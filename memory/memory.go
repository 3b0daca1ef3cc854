// Package memory provides the long-term memory store consulted during deep
// mode runs. Recall feeds relevant notes into planning context; Save records
// a summary of each completed deep run. Implementations must be safe for
// concurrent use and must degrade gracefully: a failing store should never
// abort a run, callers log and continue.
package memory

import "context"

// Store is the long-term memory contract.
type Store interface {
	// Recall returns notes relevant to the query, or an empty string when
	// nothing matches.
	Recall(ctx context.Context, query string) (string, error)

	// Save records a note for future recall.
	Save(ctx context.Context, text string) error

	// Forget removes notes matching the query and reports what was removed.
	Forget(ctx context.Context, query string) (string, error)
}

// NoopStore is a Store that remembers nothing. It is the default when no
// memory backend is configured.
type NoopStore struct{}

// Recall always returns an empty string.
func (NoopStore) Recall(context.Context, string) (string, error) { return "", nil }

// Save silently discards the note.
func (NoopStore) Save(context.Context, string) error { return nil }

// Forget always reports that nothing was removed.
func (NoopStore) Forget(context.Context, string) (string, error) {
	return "Nothing to forget.", nil
}

package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*FileStore)(nil)
	_ Store = NoopStore{}
)

func TestInMemoryStore_SaveAndRecall(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "The user prefers dark roast coffee"))
	require.NoError(t, s.Save(ctx, "Project deadline is Friday"))

	got, err := s.Recall(ctx, "coffee preferences")
	require.NoError(t, err)
	assert.Contains(t, got, "dark roast")
	assert.NotContains(t, got, "deadline")
}

func TestInMemoryStore_RecallNoMatch(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "something unrelated"))

	got, err := s.Recall(ctx, "quantum")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInMemoryStore_Forget(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "old password hint"))
	require.NoError(t, s.Save(ctx, "favorite color is green"))

	report, err := s.Forget(ctx, "password")
	require.NoError(t, err)
	assert.Equal(t, "Forgot 1 note(s).", report)
	assert.Equal(t, 1, s.Len())

	report, err = s.Forget(ctx, "password")
	require.NoError(t, err)
	assert.Equal(t, "Nothing to forget.", report)
}

func TestInMemoryStore_SaveIgnoresBlank(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Save(context.Background(), "   "))
	assert.Equal(t, 0, s.Len())
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.jsonl")
	ctx := context.Background()

	s1, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.Save(ctx, "remember the milk"))
	require.NoError(t, s1.Save(ctx, "water the plants"))

	s2, err := NewFileStore(path)
	require.NoError(t, err)

	got, err := s2.Recall(ctx, "milk")
	require.NoError(t, err)
	assert.Contains(t, got, "remember the milk")
}

func TestFileStore_ForgetRewritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.jsonl")
	ctx := context.Background()

	s1, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.Save(ctx, "remember the milk"))
	require.NoError(t, s1.Save(ctx, "water the plants"))

	_, err = s1.Forget(ctx, "milk")
	require.NoError(t, err)

	s2, err := NewFileStore(path)
	require.NoError(t, err)

	got, err := s2.Recall(ctx, "milk")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s2.Recall(ctx, "plants")
	require.NoError(t, err)
	assert.Contains(t, got, "water the plants")
}

func TestNoopStore(t *testing.T) {
	s := NoopStore{}
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "anything"))
	got, err := s.Recall(ctx, "anything")
	require.NoError(t, err)
	assert.Empty(t, got)
}

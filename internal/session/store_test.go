package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, UIDKey)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, UIDKey, "u1"))
	val, err := store.Get(ctx, UIDKey)
	require.NoError(t, err)
	assert.Equal(t, "u1", val)

	require.NoError(t, store.Set(ctx, UIDKey, "u2"))
	val, err = store.Get(ctx, UIDKey)
	require.NoError(t, err)
	assert.Equal(t, "u2", val)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	exerciseStore(t, NewFileStore(path))
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	ctx := context.Background()

	require.NoError(t, NewFileStore(path).Set(ctx, UIDKey, "visitor-42"))

	val, err := NewFileStore(path).Get(ctx, UIDKey)
	require.NoError(t, err)
	assert.Equal(t, "visitor-42", val)
}

func TestFileStoreCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).Get(context.Background(), UIDKey)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestRedisStoreUnreachable(t *testing.T) {
	client := NewRedisClient("127.0.0.1:1", "")
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	store := NewRedisStore(client, "widget:")
	_, err := store.Get(ctx, UIDKey)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))

	require.Error(t, store.Set(ctx, UIDKey, "u1"))
}

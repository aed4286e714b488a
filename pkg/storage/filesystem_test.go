package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStoragePutOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key, err := store.Put(ctx, "evidence/2024/05/a.txt", strings.NewReader("hello"), 5, "text/plain")
	require.NoError(t, err)
	require.Equal(t, "evidence/2024/05/a.txt", key)

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "hello", string(body))

	_, err = store.Put(ctx, key, strings.NewReader("again"), 5, "text/plain")
	require.Error(t, err)

	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Open(ctx, key)
	require.Error(t, err)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../escape.txt", strings.NewReader("x"), 1, "")
	require.ErrorIs(t, err, ErrInvalidKey)
	_, err = store.Open(context.Background(), "/etc/passwd")
	require.ErrorIs(t, err, ErrInvalidKey)
	require.Empty(t, store.Path(""))
}

func TestLocalStorageHonoursCancelledContext(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Put(ctx, "a.txt", strings.NewReader("x"), 1, "")
	require.ErrorIs(t, err, context.Canceled)
}

package record

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/compound"
)

func TestStore_WriteAndResolve(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Write("SN0001", "https://example.org/files/SN0001.mol"))

	url, err := store.Resolve(context.Background(), "SN0001")
	require.NoError(t, err)
	require.Equal(t, "https://example.org/files/SN0001.mol", url)
}

func TestStore_ResolveMissingIsNotFound(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Resolve(context.Background(), "SN9999")
	require.ErrorIs(t, err, compound.ErrNotFound)
}

func TestStore_ResolveEmptyRecordIsNotFound(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SN0001.txt"), []byte("  \n"), 0o600))

	_, err = store.Resolve(context.Background(), "SN0001")
	require.ErrorIs(t, err, compound.ErrNotFound)
}

func TestStore_WriteRejectsEmptyURL(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.Error(t, store.Write("SN0001", "   "))

	_, statErr := os.Stat(filepath.Join(store.dir, "SN0001.txt"))
	require.True(t, os.IsNotExist(statErr), "rejected write must leave no record")
}

func TestStore_List(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Write("SN0002", "https://example.org/b"))
	require.NoError(t, store.Write("SN0001", "https://example.org/a"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o600))

	ids, err := store.List()
	require.NoError(t, err)
	require.Equal(t, []string{"SN0001", "SN0002"}, ids)
}

func TestNewStore_EmptyDirRejected(t *testing.T) {
	t.Parallel()

	_, err := NewStore("  ")
	require.Error(t, err)
}

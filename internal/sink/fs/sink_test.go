package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSink_PutWritesArtifact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink, err := New(Config{BaseDir: dir})
	require.NoError(t, err)

	n, err := sink.Put(context.Background(), "SN0001", strings.NewReader("mol data"))
	require.NoError(t, err)
	require.Equal(t, int64(8), n)

	data, err := os.ReadFile(filepath.Join(dir, "SN0001.mol"))
	require.NoError(t, err)
	require.Equal(t, "mol data", string(data))
}

func TestSink_PutOverwriteIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink, err := New(Config{BaseDir: dir})
	require.NoError(t, err)

	_, err = sink.Put(context.Background(), "SN0001", strings.NewReader("first version"))
	require.NoError(t, err)
	_, err = sink.Put(context.Background(), "SN0001", strings.NewReader("second"))
	require.NoError(t, err)

	data, err := os.ReadFile(sink.Path("SN0001"))
	require.NoError(t, err)
	require.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files may remain")
}

func TestSink_PutLeavesNoPartialOnReadFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sink, err := New(Config{BaseDir: dir})
	require.NoError(t, err)

	_, err = sink.Put(context.Background(), "SN0001", failingReader{})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSink_PutCanceledContext(t *testing.T) {
	t.Parallel()

	sink, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sink.Put(ctx, "SN0001", strings.NewReader("x"))
	require.Error(t, err)
}

func TestSink_RemoveMissingIsNoError(t *testing.T) {
	t.Parallel()

	sink, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, sink.Remove(context.Background(), "SN0001"))
}

func TestSink_RemoveDeletesArtifact(t *testing.T) {
	t.Parallel()

	sink, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = sink.Put(context.Background(), "SN0001", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, sink.Remove(context.Background(), "SN0001"))

	_, statErr := os.Stat(sink.Path("SN0001"))
	require.True(t, os.IsNotExist(statErr))
}

func TestNew_ExtensionNormalization(t *testing.T) {
	t.Parallel()

	sink, err := New(Config{BaseDir: t.TempDir(), Extension: "sdf"})
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(sink.Path("SN0001"), "SN0001.sdf"))
}

func TestNew_EmptyBaseDirRejected(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, os.ErrClosed
}

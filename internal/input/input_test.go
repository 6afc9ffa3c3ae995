package input

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadIdentifiers_TrimsAndSkipsBlanks(t *testing.T) {
	t.Parallel()

	r := strings.NewReader("SN0001\n  SN0002  \n\n\t\nSN0003\n")
	ids, err := ReadIdentifiers(r)
	require.NoError(t, err)
	require.Equal(t, []string{"SN0001", "SN0002", "SN0003"}, ids)
}

func TestReadIdentifiers_DeduplicatesKeepingFirst(t *testing.T) {
	t.Parallel()

	r := strings.NewReader("SN0001\nSN0002\nSN0001\nSN0002\nSN0003\n")
	ids, err := ReadIdentifiers(r)
	require.NoError(t, err)
	require.Equal(t, []string{"SN0001", "SN0002", "SN0003"}, ids)
}

func TestReadIdentifiers_EmptyInput(t *testing.T) {
	t.Parallel()

	ids, err := ReadIdentifiers(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestLoadIdentifierFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ids.txt")
	require.NoError(t, os.WriteFile(path, []byte("SN0001\nSN0002\n"), 0o600))

	ids, err := LoadIdentifierFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{"SN0001", "SN0002"}, ids)
}

func TestLoadIdentifierFile_MissingIsError(t *testing.T) {
	t.Parallel()

	_, err := LoadIdentifierFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "open identifier file")
}

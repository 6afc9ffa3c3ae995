package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_DevelopmentAndProduction(t *testing.T) {
	t.Parallel()

	dev, err := New(true, "")
	require.NoError(t, err)
	require.NotNil(t, dev)

	prod, err := New(false, "")
	require.NoError(t, err)
	require.NotNil(t, prod)
}

func TestNew_FileOutput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.log")
	logger, err := New(false, path)
	require.NoError(t, err)

	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "hello")
}

func TestNew_BadFilePath(t *testing.T) {
	t.Parallel()

	_, err := New(false, filepath.Join(t.TempDir(), "missing", "run.log"))
	require.Error(t, err)
}

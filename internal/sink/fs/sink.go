// Package fs implements a local filesystem artifact sink.
package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Config captures the parameters for the filesystem sink.
type Config struct {
	// BaseDir is the directory artifacts are written into.
	BaseDir string `mapstructure:"base_dir"`
	// Extension is appended to the identifier to form the file name.
	Extension string `mapstructure:"extension"`
}

// Sink writes one file per identifier under a base directory. Bodies are
// streamed through a temp file and renamed into place, so a re-fetch that
// fails part way never truncates a previously written artifact.
type Sink struct {
	baseDir string
	ext     string
}

// New creates the sink, ensuring the base directory exists and is writable.
// A failure here is a fatal setup error: the run must not dispatch items
// into a sink that cannot accept them.
func New(cfg Config) (*Sink, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	ext := cfg.Extension
	if ext == "" {
		ext = ".mol"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	info, err := os.Stat(cfg.BaseDir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat base directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("clean up writable test file: %w", err)
	}

	return &Sink{baseDir: cfg.BaseDir, ext: ext}, nil
}

// Path returns the artifact path for an identifier.
func (s *Sink) Path(id string) string {
	return filepath.Join(s.baseDir, id+s.ext)
}

// Put streams body to {id}{ext} and returns the bytes written. The copy uses
// a bounded buffer so large artifacts never sit fully in memory.
func (s *Sink) Put(ctx context.Context, id string, body io.Reader) (int64, error) {
	if strings.TrimSpace(id) == "" {
		return 0, fmt.Errorf("identifier is required")
	}
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context canceled: %w", err)
	}
	target := s.Path(id)
	tmp, err := os.CreateTemp(s.baseDir, id+".*.part")
	if err != nil {
		return 0, fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	buf := make([]byte, 8192)
	written, copyErr := io.CopyBuffer(tmp, body, buf)
	closeErr := tmp.Close()
	if copyErr != nil {
		_ = os.Remove(tmpName)
		return written, fmt.Errorf("stream artifact %s: %w", id, copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmpName)
		return written, fmt.Errorf("close artifact %s: %w", id, closeErr)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return written, fmt.Errorf("finalize artifact %s: %w", id, err)
	}
	return written, nil
}

// Remove deletes the artifact for id if present. Missing files are not an
// error: a failed attempt may never have produced one.
func (s *Sink) Remove(_ context.Context, id string) error {
	if err := os.Remove(s.Path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove artifact %s: %w", id, err)
	}
	return nil
}

// Package record persists one link record per identifier: a small text file
// holding exactly the resolved download URL. The records are the hand-off
// format between the resolution stage and the bulk-fetch stage, so either
// stage can run on its own.
package record

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/compound"
)

// Store reads and writes {id}.txt link records under a directory.
type Store struct {
	dir string
}

// NewStore ensures dir exists and returns the store.
func NewStore(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("link record directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create link record directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".txt")
}

// Write saves the resolved URL for id. An identifier with no resolvable
// target gets no record at all, never an empty file.
func (s *Store) Write(id, url string) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("record for %s: url is required", id)
	}
	if err := os.WriteFile(s.path(id), []byte(url+"\n"), 0o600); err != nil {
		return fmt.Errorf("write link record %s: %w", id, err)
	}
	return nil
}

// Resolve implements compound.Resolver by reading the link record for id.
// A missing or empty record maps to compound.ErrNotFound.
func (s *Store) Resolve(_ context.Context, id string) (string, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return "", compound.ErrNotFound
		}
		return "", fmt.Errorf("read link record %s: %w", id, err)
	}
	url := strings.TrimSpace(string(data))
	if url == "" {
		return "", compound.ErrNotFound
	}
	return url, nil
}

// List returns the identifiers that have a link record, sorted for
// deterministic enumeration.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list link records: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".txt"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Package input enumerates the compound identifiers a run will process.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadIdentifiers returns the non-empty trimmed lines of r, in order.
// Duplicate identifiers are collapsed to the first occurrence so a re-run
// against a hand-edited list never double-processes an item.
func ReadIdentifiers(r io.Reader) ([]string, error) {
	var (
		ids  []string
		seen = make(map[string]struct{})
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan identifiers: %w", err)
	}
	return ids, nil
}

// LoadIdentifierFile reads identifiers from a file. An unreadable file is a
// fatal setup error: the run reports it and dispatches nothing.
func LoadIdentifierFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open identifier file %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	ids, err := ReadIdentifiers(f)
	if err != nil {
		return nil, fmt.Errorf("read identifier file %s: %w", path, err)
	}
	return ids, nil
}

package report

import (
	"fmt"
	"os"

	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/compound"
	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/metrics"
)

// WriteSummaryFile persists the machine-readable run summary: three counters
// in a stable key-value layout consumed by downstream audit tooling.
func WriteSummaryFile(path string, s compound.RunSummary) error {
	content := fmt.Sprintf(
		"Total files processed: %d\nSuccessfully downloaded: %d\nFailed downloads: %d\n",
		s.Total, s.Succeeded, s.Failed,
	)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write summary file %s: %w", path, err)
	}
	metrics.ObserveSummaryWrite()
	return nil
}

package compound

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the terminal classification of one work item.
type Status string

// Status values recorded on fetch outcomes.
const (
	StatusSuccess          Status = "success"
	StatusEmptyResult      Status = "empty_result"
	StatusHTTPError        Status = "http_error"
	StatusNetworkError     Status = "network_error"
	StatusRetriesExhausted Status = "retries_exhausted"
	StatusNotFound         Status = "not_found"
)

// Failed reports whether the status counts against the failure tally.
func (s Status) Failed() bool {
	return s != StatusSuccess
}

// WorkItem pairs a compound identifier with its resolved download target.
// Items are immutable once admitted to the pipeline.
type WorkItem struct {
	ID  string
	URL string
}

// FetchOutcome is produced exactly once per admitted work item. The ID is the
// correlation key; outcomes may arrive in any order.
type FetchOutcome struct {
	ID           string        `json:"id"`
	Status       Status        `json:"status"`
	HTTPStatus   int           `json:"http_status,omitempty"`
	BytesWritten int64         `json:"bytes_written"`
	Attempts     int           `json:"attempts"`
	Detail       string        `json:"detail,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// RunSummary aggregates the outcome counts for one pipeline run.
type RunSummary struct {
	RunID     uuid.UUID     `json:"run_id"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed"`
}

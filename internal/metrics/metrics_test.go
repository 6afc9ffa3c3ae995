package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestObserve_SafeBeforeInit(t *testing.T) {
	// Must not panic when collectors were never registered.
	ObserveDownload("success", 10, time.Second)
	ObserveRetry()
	ObserveLookup("resolved")
	IncActiveWorkers()
	DecActiveWorkers()
	ObserveThrottleDelay(time.Millisecond)
	ObserveSummaryWrite()
}

func TestInit_IdempotentAndObservable(t *testing.T) {
	Init()
	Init()

	ObserveDownload("success", 128, 2*time.Second)
	ObserveDownload("retries_exhausted", 0, 30*time.Second)
	ObserveRetry()
	ObserveLookup("not_found")
	IncActiveWorkers()
	DecActiveWorkers()
	ObserveThrottleDelay(500 * time.Millisecond)
	ObserveSummaryWrite()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "molfetch_downloads_total")
	require.Contains(t, body, "molfetch_retries_total")
}

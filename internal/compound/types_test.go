package compound

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatus_Failed(t *testing.T) {
	t.Parallel()

	require.False(t, StatusSuccess.Failed())

	for _, s := range []Status{
		StatusEmptyResult,
		StatusHTTPError,
		StatusNetworkError,
		StatusRetriesExhausted,
		StatusNotFound,
	} {
		require.True(t, s.Failed(), "status %s must count as failed", s)
	}
}

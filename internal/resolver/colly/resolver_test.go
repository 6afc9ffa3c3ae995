package collyresolver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/compound"
)

const resultPage = `<html><body>
<h1>Compound %s</h1>
<a href="/files/%s.mol">Download mol-file</a>
</body></html>`

const noResultPage = `<html><body><p>No compounds found</p></body></html>`

const noLinkPage = `<html><body><h1>Compound detail</h1><a href="/about">About</a></body></html>`

func newSearchServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		switch id {
		case "SN404":
			fmt.Fprint(w, noResultPage)
		case "SNNOLINK":
			fmt.Fprint(w, noLinkPage)
		default:
			fmt.Fprintf(w, resultPage, id, id)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolver_Resolve_ExtractsAbsoluteLink(t *testing.T) {
	t.Parallel()

	srv := newSearchServer(t)
	r, err := New(Config{BaseURL: srv.URL + "/compounds.php"}, nil, zap.NewNop())
	require.NoError(t, err)

	url, err := r.Resolve(context.Background(), "SN0001")
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/files/SN0001.mol", url)
}

func TestResolver_Resolve_NoCompoundsFound(t *testing.T) {
	t.Parallel()

	srv := newSearchServer(t)
	r, err := New(Config{BaseURL: srv.URL + "/compounds.php"}, nil, zap.NewNop())
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), "SN404")
	require.ErrorIs(t, err, compound.ErrNotFound)
}

func TestResolver_Resolve_ResultPageWithoutLink(t *testing.T) {
	t.Parallel()

	srv := newSearchServer(t)
	r, err := New(Config{BaseURL: srv.URL + "/compounds.php"}, nil, zap.NewNop())
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), "SNNOLINK")
	require.ErrorIs(t, err, compound.ErrNotFound)
}

func TestResolver_Resolve_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	r, err := New(Config{BaseURL: srv.URL}, nil, zap.NewNop())
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), "SN0001")
	require.Error(t, err)
	require.NotErrorIs(t, err, compound.ErrNotFound)
}

func TestResolver_Resolve_ThrottlerErrorAborts(t *testing.T) {
	t.Parallel()

	srv := newSearchServer(t)
	r, err := New(Config{BaseURL: srv.URL}, blockedThrottler{}, zap.NewNop())
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), "SN0001")
	require.Error(t, err)
	require.Contains(t, err.Error(), "lookup throttle")
}

func TestResolver_SearchURL_PreservesExistingQuery(t *testing.T) {
	t.Parallel()

	r, err := New(Config{BaseURL: "https://example.org/compounds.php?lang=en"}, nil, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, "https://example.org/compounds.php?lang=en&id=SN1", r.searchURL("SN1"))
}

func TestNew_RequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, nil, zap.NewNop())
	require.Error(t, err)
}

type blockedThrottler struct{}

func (blockedThrottler) Wait(context.Context) error {
	return context.Canceled
}

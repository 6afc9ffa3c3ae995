// Package httpfetch implements the retrying download fetcher. Each work item
// gets a bounded retry loop: throttle, GET, stream the body to the sink, and
// classify the result. All failures are converted into outcomes; the fetcher
// never returns an error to the pool.
package httpfetch

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/compound"
	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/metrics"
)

// Config controls fetcher behavior.
type Config struct {
	// Timeout bounds one request attempt end to end.
	Timeout time.Duration
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int
	// BackoffBase scales the exponential backoff; the wait before retry n is
	// BackoffBase*2^n plus a uniform jitter in [0, BackoffBase).
	BackoffBase time.Duration
	// UserAgent overrides the default browser-like identification.
	UserAgent string
}

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 3
	defaultBackoffBase = time.Second
	defaultUserAgent   = "Mozilla/5.0"
)

// Fetcher downloads one artifact per work item with retry and backoff.
type Fetcher struct {
	cfg      Config
	client   *http.Client
	sink     compound.Sink
	throttle compound.Throttler
	logger   *zap.Logger
}

// New builds a Fetcher. The throttler may be nil, in which case requests are
// spaced only by retry backoff.
func New(cfg Config, sink compound.Sink, throttle compound.Throttler, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newHTTPTransport(),
		},
		sink:     sink,
		throttle: throttle,
		logger:   logger,
	}
}

// Fetch runs the bounded retry loop for item and always returns an outcome.
func (f *Fetcher) Fetch(ctx context.Context, item compound.WorkItem) compound.FetchOutcome {
	out := compound.FetchOutcome{ID: item.ID}
	start := time.Now()
	defer func() {
		out.Duration = time.Since(start)
	}()

	for attempt := 0; ; attempt++ {
		out.Attempts = attempt + 1
		if attempt > 0 {
			metrics.ObserveRetry()
			f.logger.Info("retrying download",
				zap.String("id", item.ID),
				zap.Int("retry", attempt),
				zap.Int("max_retries", f.cfg.MaxRetries),
			)
			if err := f.backoffWait(ctx, attempt-1); err != nil {
				out.Status = compound.StatusNetworkError
				out.Detail = err.Error()
				return out
			}
		}
		if f.throttle != nil {
			if err := f.throttle.Wait(ctx); err != nil {
				out.Status = compound.StatusNetworkError
				out.Detail = err.Error()
				return out
			}
		}

		res := f.attempt(ctx, item)
		out.HTTPStatus = res.status

		switch {
		case res.err == nil && success(res.status) && res.written > 0:
			out.Status = compound.StatusSuccess
			out.BytesWritten = res.written
			return out

		case res.err == nil && success(res.status):
			// A zero-byte body is never evidence of success.
			f.removeArtifact(item.ID)
			out.Status = compound.StatusEmptyResult
			out.Detail = "empty response body"
			return out

		case res.err == nil && permanent(res.status):
			out.Status = compound.StatusHTTPError
			out.Detail = fmt.Sprintf("status %d", res.status)
			return out

		default:
			f.removeArtifact(item.ID)
			detail, terminal := f.classifyFailure(ctx, res)
			if terminal {
				out.Status = compound.StatusNetworkError
				out.Detail = detail
				return out
			}
			f.logger.Warn("download attempt failed",
				zap.String("id", item.ID),
				zap.String("url", item.URL),
				zap.String("detail", detail),
			)
			if attempt >= f.cfg.MaxRetries {
				out.Status = compound.StatusRetriesExhausted
				out.Detail = detail
				return out
			}
		}
	}
}

type attemptResult struct {
	status  int
	written int64
	err     error
}

func (f *Fetcher) attempt(ctx context.Context, item compound.WorkItem) attemptResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return attemptResult{err: fmt.Errorf("build request: %w", err)}
	}
	setBrowserHeaders(req, f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return attemptResult{err: fmt.Errorf("execute request: %w", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if !success(resp.StatusCode) {
		return attemptResult{status: resp.StatusCode}
	}

	written, err := f.sink.Put(ctx, item.ID, resp.Body)
	if err != nil {
		return attemptResult{status: resp.StatusCode, written: written, err: fmt.Errorf("persist body: %w", err)}
	}
	return attemptResult{status: resp.StatusCode, written: written}
}

// classifyFailure renders the failure detail and reports whether it is
// terminal regardless of remaining retries. Cancellation of the run context
// is terminal; a per-request timeout is an ordinary transient failure.
func (f *Fetcher) classifyFailure(ctx context.Context, res attemptResult) (string, bool) {
	if res.err != nil {
		if ctx.Err() != nil && (errors.Is(res.err, context.Canceled) || errors.Is(res.err, context.DeadlineExceeded)) {
			return res.err.Error(), true
		}
		return res.err.Error(), false
	}
	return fmt.Sprintf("status %d", res.status), false
}

func (f *Fetcher) backoffWait(ctx context.Context, retry int) error {
	delay := f.cfg.BackoffBase<<uint(retry) + randomJitter(f.cfg.BackoffBase)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff wait canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (f *Fetcher) removeArtifact(id string) {
	// Removal uses a fresh context so cleanup still happens after cancellation.
	if err := f.sink.Remove(context.Background(), id); err != nil {
		f.logger.Warn("artifact cleanup failed", zap.String("id", id), zap.Error(err))
	}
}

func success(status int) bool {
	return status >= 200 && status < 300
}

// permanent reports whether the status identifies a missing resource; those
// are never retried since repeating the request cannot change the answer.
func permanent(status int) bool {
	return status == http.StatusNotFound || status == http.StatusGone
}

func setBrowserHeaders(req *http.Request, userAgent string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit))
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}

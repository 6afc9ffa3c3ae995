// Package headless resolves compound download links by driving the search
// form in a headless browser. The compound database renders its results with
// JavaScript, so a plain GET is not always enough; this resolver fills the
// identifier field, submits the form, and reads the mol-file link from the
// rendered page.
package headless

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/compound"
	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/metrics"
)

// Config controls the behavior of the headless resolver.
type Config struct {
	// BaseURL is the search page carrying the identifier form.
	BaseURL string
	// SearchSelector is the CSS selector of the identifier input field.
	SearchSelector string
	// SubmitSelector is the CSS selector of the search button.
	SubmitSelector string
	MaxParallel    int
	UserAgent      string
	NavTimeout     time.Duration
}

const noResultsMarker = "No compounds found"

// Resolver implements compound.Resolver using chromedp.
type Resolver struct {
	cfg         Config
	throttle    compound.Throttler
	limiter     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
	logger      *zap.Logger
}

// New creates a headless resolver backed by chromedp.
func New(cfg Config, throttle compound.Throttler, logger *zap.Logger) (*Resolver, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.SearchSelector == "" {
		cfg.SearchSelector = "#id"
	}
	if cfg.SubmitSelector == "" {
		cfg.SubmitSelector = `#searchform input[type="submit"]`
	}
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("max parallel must be >= 0")
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter chan struct{}
	if cfg.MaxParallel > 0 {
		limiter = make(chan struct{}, cfg.MaxParallel)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Resolver{
		cfg:         cfg,
		throttle:    throttle,
		limiter:     limiter,
		allocator:   allocCtx,
		allocCancel: allocCancel,
		logger:      logger,
	}, nil
}

// Close cancels the allocator context, shutting down the browser.
func (r *Resolver) Close() {
	r.allocCancel()
}

// Resolve drives the search form for id and returns the mol-file link URL.
func (r *Resolver) Resolve(ctx context.Context, id string) (string, error) {
	if r.throttle != nil {
		if err := r.throttle.Wait(ctx); err != nil {
			return "", fmt.Errorf("lookup throttle: %w", err)
		}
	}
	if err := r.acquire(ctx); err != nil {
		return "", err
	}
	defer r.release()

	taskCtx, taskCancel := chromedp.NewContext(r.allocator)
	defer taskCancel()
	taskCtx, cancel := context.WithTimeout(taskCtx, r.cfg.NavTimeout)
	defer cancel()

	link, err := r.runSearch(taskCtx, id)
	if err != nil {
		metrics.ObserveLookup("error")
		return "", err
	}
	switch link {
	case "", noResultsMarker:
		r.logger.Warn("no compounds found", zap.String("id", id))
		metrics.ObserveLookup("not_found")
		return "", compound.ErrNotFound
	default:
		metrics.ObserveLookup("resolved")
		return link, nil
	}
}

// extractLinkJS finds the mol-file anchor in the rendered result page. It
// returns the href, the no-results marker, or an empty string.
const extractLinkJS = `(() => {
	const anchor = Array.from(document.querySelectorAll('a'))
		.find((a) => a.textContent.toLowerCase().includes('mol-file'));
	if (anchor) {
		return anchor.href;
	}
	if (document.body && document.body.innerText.includes(%q)) {
		return %q;
	}
	return '';
})()`

func (r *Resolver) runSearch(ctx context.Context, id string) (string, error) {
	var link string
	script := fmt.Sprintf(extractLinkJS, noResultsMarker, noResultsMarker)
	actions := []chromedp.Action{
		r.networkSetupAction(),
		chromedp.Navigate(r.cfg.BaseURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.WaitVisible(r.cfg.SearchSelector, chromedp.ByQuery),
		chromedp.Clear(r.cfg.SearchSelector, chromedp.ByQuery),
		chromedp.SendKeys(r.cfg.SearchSelector, id, chromedp.ByQuery),
		chromedp.Click(r.cfg.SubmitSelector, chromedp.ByQuery),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.Evaluate(script, &link),
	}
	if err := chromedp.Run(ctx, actions...); err != nil {
		return "", fmt.Errorf("chromedp search for %s: %w", id, err)
	}
	return strings.TrimSpace(link), nil
}

func (r *Resolver) networkSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if r.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(r.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

func (r *Resolver) acquire(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	select {
	case r.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("browser slot wait canceled: %w", ctx.Err())
	}
}

func (r *Resolver) release() {
	if r.limiter == nil {
		return
	}
	select {
	case <-r.limiter:
	default:
	}
}

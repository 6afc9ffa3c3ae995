// Package collyresolver implements the compound database lookup using a
// gocolly collector against the search endpoint.
package collyresolver

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/compound"
	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/metrics"
)

// Config controls collector behavior.
type Config struct {
	// BaseURL is the compound search page, e.g.
	// https://bioinf-applied.charite.de/supernatural_3/subpages/compounds.php
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// LinkTextMarker identifies the anchor carrying the structure download.
	LinkTextMarker string
	// NoResultsMarker is the page text shown when no compound matches.
	NoResultsMarker string
}

// Resolver looks up the mol-file download link for a compound identifier.
type Resolver struct {
	cfg           Config
	throttle      compound.Throttler
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds a Resolver. The throttler spaces lookups; the remote search page
// is far less tolerant of bursts than the static file host.
func New(cfg Config, throttle compound.Throttler, logger *zap.Logger) (*Resolver, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.LinkTextMarker == "" {
		cfg.LinkTextMarker = "mol-file"
	}
	if cfg.NoResultsMarker == "" {
		cfg.NoResultsMarker = "No compounds found"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(colly.Async(false))
	c.SetRequestTimeout(cfg.Timeout)
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	return &Resolver{
		cfg:           cfg,
		throttle:      throttle,
		baseCollector: c,
		logger:        logger,
	}, nil
}

// Resolve fetches the search result page for id and extracts the mol-file
// link. Both "No compounds found" and a result page without the link map to
// compound.ErrNotFound; the distinction only matters for logs.
func (r *Resolver) Resolve(ctx context.Context, id string) (string, error) {
	if r.throttle != nil {
		if err := r.throttle.Wait(ctx); err != nil {
			return "", fmt.Errorf("lookup throttle: %w", err)
		}
	}

	var (
		link     string
		noneSeen bool
	)
	collector := r.baseCollector.Clone()
	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		if link == "" && strings.Contains(strings.ToLower(e.Text), strings.ToLower(r.cfg.LinkTextMarker)) {
			link = e.Request.AbsoluteURL(e.Attr("href"))
		}
	})
	collector.OnHTML("body", func(e *colly.HTMLElement) {
		if strings.Contains(e.Text, r.cfg.NoResultsMarker) {
			noneSeen = true
		}
	})

	if err := r.visit(ctx, collector, r.searchURL(id)); err != nil {
		metrics.ObserveLookup("error")
		return "", err
	}

	switch {
	case noneSeen:
		r.logger.Warn("no compounds found", zap.String("id", id))
		metrics.ObserveLookup("not_found")
		return "", compound.ErrNotFound
	case link == "":
		r.logger.Warn("mol-file link not present on result page", zap.String("id", id))
		metrics.ObserveLookup("not_found")
		return "", compound.ErrNotFound
	default:
		metrics.ObserveLookup("resolved")
		return link, nil
	}
}

func (r *Resolver) searchURL(id string) string {
	q := url.Values{}
	q.Set("id", id)
	sep := "?"
	if strings.Contains(r.cfg.BaseURL, "?") {
		sep = "&"
	}
	return r.cfg.BaseURL + sep + q.Encode()
}

func (r *Resolver) visit(ctx context.Context, collector *colly.Collector, target string) error {
	var fetchErr error
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(target)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("lookup canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit search page: %w", err)
		}
		if fetchErr != nil {
			return fmt.Errorf("search page response: %w", fetchErr)
		}
		return nil
	}
}

// Package main wires together the molecule fetch pipeline binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/api"
	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/compound"
	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/config"
	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/fetcher/httpfetch"
	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/input"
	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/logging"
	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/metrics"
	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/policy/ratelimit"
	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/publisher/pubsub"
	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/report"
	collyresolver "github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/resolver/colly"
	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/resolver/headless"
	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/resolver/record"
	fssink "github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/sink/fs"
	gcssink "github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/sink/gcs"
	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/storage/postgres"
	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/worker"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	mode := flag.String("mode", "fetch", "Pipeline mode: resolve, fetch, or all")
	idFile := flag.String("ids", "", "Override path to the identifier list")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if *idFile != "" {
		cfg.Input.IDFile = *idFile
	}
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	if err := run(ctx, cfg, *mode, logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, mode string, logger *zap.Logger) error {
	ids, err := input.LoadIdentifierFile(cfg.Input.IDFile)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		logger.Warn("identifier list is empty", zap.String("file", cfg.Input.IDFile))
	}
	logger.Info("identifiers loaded",
		zap.Int("count", len(ids)),
		zap.String("file", cfg.Input.IDFile),
		zap.String("mode", mode),
	)

	links, err := record.NewStore(cfg.Input.LinkDir)
	if err != nil {
		return err
	}

	switch mode {
	case "resolve":
		return resolveLinks(ctx, cfg, ids, links, logger)
	case "fetch":
		return fetchCompounds(ctx, cfg, ids, links, logger)
	case "all":
		if err := resolveLinks(ctx, cfg, ids, links, logger); err != nil {
			return err
		}
		return fetchCompounds(ctx, cfg, ids, links, logger)
	default:
		return fmt.Errorf("unknown mode %q: want resolve, fetch, or all", mode)
	}
}

// resolveLinks looks up each identifier's download URL and records it on disk
// for a later fetch pass.
func resolveLinks(ctx context.Context, cfg config.Config, ids []string, links *record.Store, logger *zap.Logger) error {
	resolver, closeResolver, err := newLookupResolver(cfg, logger)
	if err != nil {
		return err
	}
	defer closeResolver()

	resolved, missing := 0, 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		url, err := resolver.Resolve(ctx, id)
		switch {
		case err == nil:
			if err := links.Write(id, url); err != nil {
				return err
			}
			resolved++
		case errors.Is(err, compound.ErrNotFound):
			missing++
			logger.Info("compound not found", zap.String("id", id))
		default:
			logger.Warn("lookup failed", zap.String("id", id), zap.Error(err))
		}
	}
	logger.Info("link resolution finished",
		zap.Int("resolved", resolved),
		zap.Int("not_found", missing),
		zap.Int("total", len(ids)),
	)
	return nil
}

// fetchCompounds downloads every identifier's structure file through the
// worker pool and writes the run summary.
func fetchCompounds(ctx context.Context, cfg config.Config, ids []string, links *record.Store, logger *zap.Logger) error {
	sink, closeSink, err := newSink(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSink()

	throttle := ratelimit.New(ratelimit.Config{
		MinDelay: time.Duration(cfg.Download.MinDelayMs) * time.Millisecond,
		MaxDelay: time.Duration(cfg.Download.MaxDelayMs) * time.Millisecond,
		MaxRPS:   cfg.Download.MaxRPS,
	})

	fetcher := httpfetch.New(httpfetch.Config{
		Timeout:     cfg.HTTPTimeout(),
		MaxRetries:  cfg.HTTP.MaxRetries,
		BackoffBase: cfg.BackoffBase(),
		UserAgent:   cfg.HTTP.UserAgent,
	}, sink, throttle, logger)

	store, publisher, closeSideEffects, err := newSideEffects(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSideEffects()

	var outcomeStore report.OutcomeStore
	if store != nil {
		outcomeStore = store
	}
	reporter := report.New(report.Config{
		Total: len(ids),
		Topic: cfg.Publisher.TopicName,
	}, compound.SystemClock{}, outcomeStore, publisher, logger)

	if cfg.Server.Enabled {
		srv := api.NewServer(reporter, logger)
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			if err := srv.Serve(ctx, addr); err != nil {
				logger.Warn("status server stopped", zap.Error(err))
			}
		}()
	}

	pool := worker.New(links, fetcher, reporter, worker.Config{Concurrency: cfg.Pipeline.Concurrency}, logger)
	pool.Run(ctx, ids)

	summary := reporter.Close()
	logger.Info(report.FormatSummary(summary),
		zap.String("run_id", summary.RunID.String()),
		zap.Duration("elapsed", summary.Elapsed),
	)
	if store != nil {
		recordCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.RecordSummary(recordCtx, summary); err != nil {
			logger.Warn("run summary insert failed", zap.Error(err))
		}
	}
	if cfg.Output.SummaryFile != "" {
		if err := report.WriteSummaryFile(cfg.Output.SummaryFile, summary); err != nil {
			return err
		}
	}
	return nil
}

func newLookupResolver(cfg config.Config, logger *zap.Logger) (compound.Resolver, func(), error) {
	lookupThrottle := ratelimit.New(ratelimit.Config{
		MinDelay: time.Duration(cfg.Resolver.MinDelayMs) * time.Millisecond,
		MaxDelay: time.Duration(cfg.Resolver.MaxDelayMs) * time.Millisecond,
	})
	switch cfg.Resolver.Mode {
	case "headless":
		r, err := headless.New(headless.Config{
			BaseURL:        cfg.Resolver.BaseURL,
			SearchSelector: cfg.Resolver.SearchSelector,
			SubmitSelector: cfg.Resolver.SubmitSelector,
			MaxParallel:    cfg.Resolver.MaxParallel,
			UserAgent:      cfg.HTTP.UserAgent,
			NavTimeout:     time.Duration(cfg.Resolver.NavTimeoutSec) * time.Second,
		}, lookupThrottle, logger)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	case "colly", "links":
		// Link resolution always needs a live lookup; the record store only
		// serves the fetch pass.
		r, err := collyresolver.New(collyresolver.Config{
			BaseURL:         cfg.Resolver.BaseURL,
			UserAgent:       cfg.HTTP.UserAgent,
			Timeout:         time.Duration(cfg.Resolver.TimeoutSeconds) * time.Second,
			LinkTextMarker:  cfg.Resolver.LinkTextMarker,
			NoResultsMarker: cfg.Resolver.NoResultsMarker,
		}, lookupThrottle, logger)
		if err != nil {
			return nil, nil, err
		}
		return r, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown resolver mode %q", cfg.Resolver.Mode)
	}
}

func newSink(ctx context.Context, cfg config.Config) (compound.Sink, func(), error) {
	switch cfg.Storage.Backend {
	case "gcs":
		s, err := gcssink.New(ctx, gcssink.Config{
			Bucket:    cfg.Storage.GCSBucket,
			Prefix:    cfg.Storage.Prefix,
			Extension: cfg.Output.Extension,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "fs":
		s, err := fssink.New(fssink.Config{
			BaseDir:   cfg.Output.Dir,
			Extension: cfg.Output.Extension,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func newSideEffects(ctx context.Context, cfg config.Config, logger *zap.Logger) (*postgres.OutcomeStore, report.Publisher, func(), error) {
	var store *postgres.OutcomeStore
	var pub report.Publisher
	closers := []func(){}

	if cfg.DB.Enabled {
		s, err := postgres.NewOutcomeStore(ctx, postgres.OutcomeStoreConfig{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.Table,
			MaxConns: int32(cfg.DB.MaxConns),
			MinConns: int32(cfg.DB.MinConns),
		})
		if err != nil {
			return nil, nil, nil, err
		}
		store = s
		closers = append(closers, s.Close)
	}
	if cfg.Publisher.Enabled {
		p, err := pubsub.New(ctx, cfg.Publisher.ProjectID, cfg.Publisher.TopicName)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, nil, err
		}
		pub = p
		closers = append(closers, func() {
			if err := p.Close(); err != nil {
				logger.Warn("publisher close failed", zap.Error(err))
			}
		})
	}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return store, pub, closeAll, nil
}

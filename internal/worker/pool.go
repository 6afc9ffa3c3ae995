// Package worker implements the retrieval pipeline execution loop: a fixed
// pool of workers fanning a bounded identifier set out over resolve + fetch.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/compound"
	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/metrics"
)

// Observer receives each outcome as it is produced. It must be safe for
// concurrent use; the pool calls it from every worker.
type Observer interface {
	Observe(outcome compound.FetchOutcome)
}

// Config controls Pool behavior.
type Config struct {
	Concurrency int
}

const defaultConcurrency = 5

// Pool fans identifiers out across a fixed concurrency budget. Failures are
// local to one identifier and never abort siblings; the pool always drains
// to completion unless the run context is canceled.
type Pool struct {
	resolver compound.Resolver
	fetcher  compound.Fetcher
	observer Observer
	cfg      Config
	logger   *zap.Logger
}

// New constructs a Pool. The observer may be nil.
func New(resolver compound.Resolver, fetcher compound.Fetcher, observer Observer, cfg Config, logger *zap.Logger) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		resolver: resolver,
		fetcher:  fetcher,
		observer: observer,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run processes ids and returns one outcome per admitted identifier, in
// arrival order (the identifier is the correlation key; ordering between
// items is not guaranteed). On cancellation the pool stops claiming new
// identifiers, lets in-flight attempts finish, and returns what completed.
func (p *Pool) Run(ctx context.Context, ids []string) []compound.FetchOutcome {
	work := make(chan string)
	results := make(chan compound.FetchOutcome)

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			p.runWorker(ctx, index, work, results)
		}(i)
	}

	go func() {
		defer close(work)
		for _, id := range ids {
			select {
			case work <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := make([]compound.FetchOutcome, 0, len(ids))
	for outcome := range results {
		if p.observer != nil {
			p.observer.Observe(outcome)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (p *Pool) runWorker(ctx context.Context, index int, work <-chan string, results chan<- compound.FetchOutcome) {
	logger := p.logger.With(zap.Int("worker", index))
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-work:
			if !ok {
				return
			}
			metrics.IncActiveWorkers()
			outcome := p.processIdentifier(ctx, logger, id)
			metrics.DecActiveWorkers()
			results <- outcome
		}
	}
}

// processIdentifier produces exactly one outcome for id. A panic anywhere in
// resolve or fetch is contained and mapped to a failure outcome so a broken
// item can never take down a worker.
func (p *Pool) processIdentifier(ctx context.Context, logger *zap.Logger, id string) (outcome compound.FetchOutcome) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("worker panic recovered", zap.String("id", id), zap.Any("panic", rec))
			outcome = compound.FetchOutcome{
				ID:       id,
				Status:   compound.StatusNetworkError,
				Attempts: 1,
				Detail:   fmt.Sprintf("internal error: %v", rec),
			}
		}
	}()

	url, err := p.resolver.Resolve(ctx, id)
	if err != nil {
		if errors.Is(err, compound.ErrNotFound) {
			logger.Warn("identifier has no resolvable target", zap.String("id", id))
			return compound.FetchOutcome{
				ID:       id,
				Status:   compound.StatusNotFound,
				Attempts: 1,
				Detail:   compound.ErrNotFound.Error(),
			}
		}
		logger.Error("lookup failed", zap.String("id", id), zap.Error(err))
		return compound.FetchOutcome{
			ID:       id,
			Status:   compound.StatusNetworkError,
			Attempts: 1,
			Detail:   err.Error(),
		}
	}

	logger.Debug("fetching artifact", zap.String("id", id), zap.String("url", url))
	return p.fetcher.Fetch(ctx, compound.WorkItem{ID: id, URL: url})
}

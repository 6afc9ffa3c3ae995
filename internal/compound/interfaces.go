package compound

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by a Resolver when the database has no entry for the
// identifier. It is terminal and never retried.
var ErrNotFound = errors.New("compound not found")

// Resolver maps a compound identifier to its download URL.
type Resolver interface {
	Resolve(ctx context.Context, id string) (string, error)
}

// Sink persists one artifact per identifier. Put streams the body to durable
// storage and returns the number of bytes written; Remove deletes whatever
// Put left behind so a failed fetch never leaves a partial artifact.
type Sink interface {
	Put(ctx context.Context, id string, body io.Reader) (int64, error)
	Remove(ctx context.Context, id string) error
}

// Fetcher executes the full retry loop for one work item and always returns
// an outcome, never an error.
type Fetcher interface {
	Fetch(ctx context.Context, item WorkItem) FetchOutcome
}

// Throttler blocks the caller before each outbound request.
type Throttler interface {
	Wait(ctx context.Context) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Package compound defines the core types and collaborator interfaces shared
// across the retrieval pipeline: work items, fetch outcomes, run summaries,
// and the Resolver/Sink/Fetcher contracts the worker pool is built on.
package compound

// Package metrics exposes Prometheus collectors for the retrieval pipeline.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	downloadsTotal       *prometheus.CounterVec
	downloadBytesTotal   prometheus.Counter
	retriesTotal         prometheus.Counter
	lookupsTotal         *prometheus.CounterVec
	activeWorkers        prometheus.Gauge
	throttleDelaySeconds prometheus.Histogram
	fetchDurationSeconds prometheus.Histogram
	summaryWritesTotal   prometheus.Counter

	initOnce sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	initOnce.Do(func() {
		downloadsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "molfetch_downloads_total",
				Help: "Total number of compound downloads processed, labeled by outcome status.",
			},
			[]string{"status"},
		)

		downloadBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "molfetch_download_bytes_total",
				Help: "Total number of artifact bytes written to the sink.",
			},
		)

		retriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "molfetch_retries_total",
				Help: "Total number of fetch retry attempts.",
			},
		)

		lookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "molfetch_lookups_total",
				Help: "Total number of resolver lookups, labeled by result.",
			},
			[]string{"result"},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "molfetch_active_workers",
				Help: "Number of workers currently processing an identifier.",
			},
		)

		throttleDelaySeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "molfetch_throttle_delay_seconds",
				Help:    "Histogram of randomized throttle wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 3, 5, 10},
			},
		)

		fetchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "molfetch_fetch_duration_seconds",
				Help:    "Histogram of end-to-end fetch durations including retries.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
		)

		summaryWritesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "molfetch_summary_writes_total",
				Help: "Total number of run summaries persisted.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveDownload records one finished work item.
func ObserveDownload(status string, bytesWritten int64, dur time.Duration) {
	if downloadsTotal == nil {
		return
	}
	downloadsTotal.WithLabelValues(status).Inc()
	if bytesWritten > 0 {
		downloadBytesTotal.Add(float64(bytesWritten))
	}
	fetchDurationSeconds.Observe(dur.Seconds())
}

// ObserveRetry increments the retry counter.
func ObserveRetry() {
	if retriesTotal == nil {
		return
	}
	retriesTotal.Inc()
}

// ObserveLookup records one resolver lookup by result label.
func ObserveLookup(result string) {
	if lookupsTotal == nil {
		return
	}
	lookupsTotal.WithLabelValues(result).Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	if activeWorkers == nil {
		return
	}
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	if activeWorkers == nil {
		return
	}
	activeWorkers.Dec()
}

// ObserveThrottleDelay records the duration of a throttle wait.
func ObserveThrottleDelay(d time.Duration) {
	if throttleDelaySeconds == nil {
		return
	}
	throttleDelaySeconds.Observe(d.Seconds())
}

// ObserveSummaryWrite increments the persisted summary counter.
func ObserveSummaryWrite() {
	if summaryWritesTotal == nil {
		return
	}
	summaryWritesTotal.Inc()
}

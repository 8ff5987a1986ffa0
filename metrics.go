package emberstore

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordBuild is called after each build attempt. rows is the number of
	// rows written, failed the number of sentinel rows, err nil on success.
	RecordBuild(rows, failed int, duration time.Duration, err error)

	// RecordOpen is called after each store open attempt.
	RecordOpen(duration time.Duration, err error)

	// RecordFetch is called after each corpus mirror run.
	RecordFetch(downloaded, skipped int, bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(int, int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordOpen(time.Duration, error)                   {}
func (NoopMetricsCollector) RecordFetch(int, int, int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BuildCount      atomic.Int64
	BuildErrors     atomic.Int64
	BuildRows       atomic.Int64
	BuildFailedRows atomic.Int64
	BuildTotalNanos atomic.Int64
	OpenCount       atomic.Int64
	OpenErrors      atomic.Int64
	FetchCount      atomic.Int64
	FetchErrors     atomic.Int64
	FetchObjects    atomic.Int64
	FetchBytes      atomic.Int64
	FetchTotalNanos atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(rows, failed int, duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
		return
	}
	b.BuildRows.Add(int64(rows))
	b.BuildFailedRows.Add(int64(failed))
}

// RecordOpen implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOpen(duration time.Duration, err error) {
	b.OpenCount.Add(1)
	if err != nil {
		b.OpenErrors.Add(1)
	}
}

// RecordFetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFetch(downloaded, skipped int, bytes int64, duration time.Duration, err error) {
	b.FetchCount.Add(1)
	b.FetchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FetchErrors.Add(1)
		return
	}
	b.FetchObjects.Add(int64(downloaded + skipped))
	b.FetchBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:      b.BuildCount.Load(),
		BuildErrors:     b.BuildErrors.Load(),
		BuildRows:       b.BuildRows.Load(),
		BuildFailedRows: b.BuildFailedRows.Load(),
		BuildAvgNanos:   b.avgBuildNanos(),
		OpenCount:       b.OpenCount.Load(),
		OpenErrors:      b.OpenErrors.Load(),
		FetchCount:      b.FetchCount.Load(),
		FetchErrors:     b.FetchErrors.Load(),
		FetchObjects:    b.FetchObjects.Load(),
		FetchBytes:      b.FetchBytes.Load(),
		FetchAvgNanos:   avgNanos(&b.FetchTotalNanos, &b.FetchCount),
	}
}

func (b *BasicMetricsCollector) avgBuildNanos() int64 {
	return avgNanos(&b.BuildTotalNanos, &b.BuildCount)
}

func avgNanos(total, count *atomic.Int64) int64 {
	c := count.Load()
	if c == 0 {
		return 0
	}
	return total.Load() / c
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount      int64
	BuildErrors     int64
	BuildRows       int64
	BuildFailedRows int64
	BuildAvgNanos   int64
	OpenCount       int64
	OpenErrors      int64
	FetchCount      int64
	FetchErrors     int64
	FetchObjects    int64
	FetchBytes      int64
	FetchAvgNanos   int64
}

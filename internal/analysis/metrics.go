package analysis

import (
	"github.com/repolens/repolens-mcp/internal/walker"
	"github.com/repolens/repolens-mcp/pkg/types"
)

// MetricsAggregator consumes file entries and produces a MetricsSummary.
// Accumulation is single-threaded; the zero value is not usable, use
// NewMetricsAggregator.
type MetricsAggregator struct {
	byExt        map[string]types.ExtensionStats
	included     int
	totalSize    int64
	linesAdded   int
	linesRemoved int

	walk    *walker.Result
	summary *types.MetricsSummary
}

// NewMetricsAggregator creates an empty aggregator.
func NewMetricsAggregator() *MetricsAggregator {
	return &MetricsAggregator{byExt: make(map[string]types.ExtensionStats)}
}

// Accept folds one included entry into the running counters.
func (a *MetricsAggregator) Accept(e types.FileEntry) error {
	ext := e.Extension()
	stats := a.byExt[ext]
	stats.Count++
	stats.SizeBytes += e.SizeBytes
	stats.LinesAdded += e.LinesAdded
	stats.LinesRemoved += e.LinesRemoved
	a.byExt[ext] = stats

	a.included++
	a.totalSize += e.SizeBytes
	a.linesAdded += e.LinesAdded
	a.linesRemoved += e.LinesRemoved
	return nil
}

// ObserveWalk records the walk totals (scanned/excluded/truncated) that
// the aggregator cannot see from included entries alone. Must be called
// before Finalize; calls after Finalize are ignored.
func (a *MetricsAggregator) ObserveWalk(res *walker.Result) {
	if a.summary == nil {
		a.walk = res
	}
}

// Finalize returns the summary. It is idempotent: the first call
// snapshots the counters and subsequent calls return the identical
// summary without re-scanning.
func (a *MetricsAggregator) Finalize() *types.MetricsSummary {
	if a.summary != nil {
		return a.summary
	}
	s := &types.MetricsSummary{
		FilesIncluded:  a.included,
		FilesScanned:   a.included,
		TotalSizeBytes: a.totalSize,
		ByExtension:    make(map[string]types.ExtensionStats, len(a.byExt)),
		LinesAdded:     a.linesAdded,
		LinesRemoved:   a.linesRemoved,
	}
	for ext, stats := range a.byExt {
		s.ByExtension[ext] = stats
	}
	if a.walk != nil {
		s.FilesScanned = a.walk.Scanned
		s.FilesIncluded = a.walk.Included
		s.FilesExcluded = a.walk.Excluded
		s.Truncated = a.walk.Truncated
	}
	a.summary = s
	return s
}

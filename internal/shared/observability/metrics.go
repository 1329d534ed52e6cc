package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flatcode_run_seconds",
		Help:    "Time spent on a complete flatten invocation.",
		Buckets: prometheus.DefBuckets,
	})

	FilesWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flatcode_files_written_total",
		Help: "Total number of files written, by role (entry, module, sibling).",
	}, []string{"role"})

	ReferencesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flatcode_references_total",
		Help: "Total number of require() references processed, by decision.",
	}, []string{"decision"})

	ResolutionFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flatcode_resolution_failures_total",
		Help: "Total number of external references that could not be located on disk.",
	})

	MissingSourcesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flatcode_missing_sources_total",
		Help: "Total number of configured entry files that did not exist.",
	})

	VisitedModules = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "flatcode_visited_destinations",
		Help: "Number of destinations in the visited set of the most recent run.",
	})

	ScanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flatcode_scan_seconds",
		Help:    "Time spent scanning a source file for require() calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"scanner"})

	PackageCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flatcode_package_cache_hits_total",
		Help: "Total number of package.json lookups served from the manifest cache.",
	})
)

// WriteTextfile dumps the default registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

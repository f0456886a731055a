// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Graph metrics
	GraphBuildsTotal prometheus.Counter
	GraphNodes       prometheus.Gauge
	GraphEdges       prometheus.Gauge
	GraphDataErrors  prometheus.Gauge
	DealsSkipped     *prometheus.CounterVec

	// Detection metrics
	LoopsDetected    prometheus.Gauge
	CyclesDetected   *prometheus.GaugeVec
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec

	// Null model metrics
	NullModelRunsTotal *prometheus.CounterVec
	NullModelTrials    prometheus.Counter
	NullModelDuration  prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulAnalysis prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "circularity_lab"
	}

	return &Metrics{
		GraphBuildsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "builds_total",
			Help:      "Total number of deal graphs built",
		}),
		GraphNodes: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "nodes",
			Help:      "Node count of the most recently built graph",
		}),
		GraphEdges: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "edges",
			Help:      "Edge count of the most recently built graph",
		}),
		GraphDataErrors: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "data_errors",
			Help:      "Deals skipped as data errors in the most recent build",
		}),
		DealsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "deals_skipped_total",
			Help:      "Total number of deals skipped during graph builds by reason",
		}, []string{"reason"}),

		LoopsDetected: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "loops",
			Help:      "Loop count from the most recent analysis",
		}),
		CyclesDetected: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "cycles",
			Help:      "Cycle count from the most recent analysis by length",
		}, []string{"length"}),
		AnalysesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "analyses_total",
			Help:      "Total number of analyses run by status",
		}, []string{"status"}),
		AnalysisDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "duration_seconds",
			Help:      "Analysis stage duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),

		NullModelRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nullmodel",
			Name:      "runs_total",
			Help:      "Total number of null model runs by status",
		}, []string{"status"}),
		NullModelTrials: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nullmodel",
			Name:      "trials_total",
			Help:      "Total number of null model trials completed",
		}),
		NullModelDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "nullmodel",
			Name:      "duration_seconds",
			Help:      "Null model run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulAnalysis: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_analysis_timestamp",
			Help:      "Unix timestamp of last successful analysis",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordGraphBuilt records the shape of a freshly built graph.
func RecordGraphBuilt(nodes, edges, dataErrors int) {
	DefaultMetrics.GraphBuildsTotal.Inc()
	DefaultMetrics.GraphNodes.Set(float64(nodes))
	DefaultMetrics.GraphEdges.Set(float64(edges))
	DefaultMetrics.GraphDataErrors.Set(float64(dataErrors))
}

// RecordDealSkipped records a deal dropped during graph construction.
func RecordDealSkipped(reason string) {
	DefaultMetrics.DealsSkipped.WithLabelValues(reason).Inc()
}

// RecordDetection records structure counts from a completed analysis.
func RecordDetection(loops int, cyclesByLength map[int]int) {
	DefaultMetrics.LoopsDetected.Set(float64(loops))
	for length, count := range cyclesByLength {
		DefaultMetrics.CyclesDetected.WithLabelValues(lengthLabel(length)).Set(float64(count))
	}
}

func lengthLabel(n int) string {
	switch n {
	case 3:
		return "3"
	case 4:
		return "4"
	case 5:
		return "5"
	}
	return "other"
}

// RecordAnalysis records an analysis run outcome and stage duration.
func RecordAnalysis(stage, status string, durationSeconds float64) {
	DefaultMetrics.AnalysesTotal.WithLabelValues(status).Inc()
	DefaultMetrics.AnalysisDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordNullModelRun records a null model run.
func RecordNullModelRun(status string, trials int, durationSeconds float64) {
	DefaultMetrics.NullModelRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.NullModelTrials.Add(float64(trials))
	DefaultMetrics.NullModelDuration.Observe(durationSeconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

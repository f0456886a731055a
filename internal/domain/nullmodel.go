package domain

// Null model metric names.
const (
	MetricLoops   = "loops"
	MetricCycles  = "cycles"
	MetricCycles3 = "cycles_len3"
	MetricCycles4 = "cycles_len4"
	MetricCycles5 = "cycles_len5"
)

// TrialCounts holds the structure counts observed in one randomized
// trial (or in the real graph).
type TrialCounts struct {
	Loops   int
	Cycles  int
	Cycles3 int
	Cycles4 int
	Cycles5 int
}

// Metric returns the named count.
func (t TrialCounts) Metric(name string) int {
	switch name {
	case MetricLoops:
		return t.Loops
	case MetricCycles:
		return t.Cycles
	case MetricCycles3:
		return t.Cycles3
	case MetricCycles4:
		return t.Cycles4
	case MetricCycles5:
		return t.Cycles5
	}
	return 0
}

// DistributionStats summarizes the null distribution of one metric.
type DistributionStats struct {
	Mean   float64
	StdDev float64 // sample standard deviation (n-1)
	Min    float64
	Max    float64
}

// MetricComparison compares one observed metric against its null
// distribution. ZScore and PValue are nil when the null distribution
// has zero variance (division-by-zero guard); EmpiricalP is always
// reported when at least one trial completed.
type MetricComparison struct {
	Metric      string
	Observed    int
	Null        DistributionStats
	ZScore      *float64
	PValue      *float64 // two-tailed, normal approximation
	EmpiricalP  *float64 // two-tailed, from the empirical distribution
	Undefined   bool     // zero-variance null, z/p not computable
	Significant bool     // p < 0.05 (empirical preferred when present)
}

// NullModelComparison is the full result of a configuration-model
// significance run.
type NullModelComparison struct {
	Iterations      int    // requested trials
	CompletedTrials int    // trials actually run (wall-clock budget may cut short)
	Seed            int64  // RNG seed the run used
	Warning         string // set for degenerate inputs (too few edges, zero variance)

	Comparisons []MetricComparison // loops, cycles, cycles by length

	// Trials is the full empirical distribution, one entry per
	// completed trial. Feeds exact p-values and the offline sink.
	Trials []TrialCounts
}

// Comparison returns the comparison for the named metric, or nil.
func (n *NullModelComparison) Comparison(metric string) *MetricComparison {
	for i := range n.Comparisons {
		if n.Comparisons[i].Metric == metric {
			return &n.Comparisons[i]
		}
	}
	return nil
}

// Package nullmodel validates observed circularity against a
// degree-preserving random graph baseline (configuration model).
//
// Each trial keeps every company's out- and in-degree, shuffles which
// targets the out-stubs attach to, and re-runs the same loop and
// cycle detectors used on the real graph. The resulting empirical
// distribution tells apart structural circularity from what identical
// degree sequences produce by chance.
package nullmodel

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"circularity-lab/internal/cycles"
	"circularity-lab/internal/domain"
	"circularity-lab/internal/loops"
)

// Alpha is the significance threshold.
const Alpha = 0.05

// DefaultIterations is the default trial count.
const DefaultIterations = 500

// minEdgesForNull is the edge count below which randomization is not
// meaningful and the comparison carries a warning.
const minEdgesForNull = 4

// Options configure a null model run.
type Options struct {
	Iterations int           // default DefaultIterations
	MaxLength  int           // cycle depth bound, default cycles.DefaultMaxLength
	Workers    int           // default GOMAXPROCS
	Seed       int64         // 0 seeds from the OS entropy source
	WallClock  time.Duration // optional budget; 0 means unbounded
}

// Engine runs configuration-model trials against a graph.
type Engine struct {
	opts Options
}

// New creates an Engine, filling unset options with defaults.
func New(opts Options) *Engine {
	if opts.Iterations <= 0 {
		opts.Iterations = DefaultIterations
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = cycles.DefaultMaxLength
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Seed == 0 {
		opts.Seed = entropySeed()
	}
	return &Engine{opts: opts}
}

// Compare runs the trials and compares observed loop/cycle counts to
// the null distribution. Trials are independent and run across a
// bounded worker pool; each trial shuffles a private copy of the stub
// arrays with its own seeded RNG, so the run is reproducible for a
// fixed seed regardless of scheduling.
//
// Degenerate inputs never fail: a graph with too few edges, or a null
// distribution with zero variance, comes back with Warning set and
// the z-score marked undefined instead of a division by zero.
func (e *Engine) Compare(ctx context.Context, g *domain.Graph) (*domain.NullModelComparison, error) {
	observed := CountStructures(g, e.opts.MaxLength)

	result := &domain.NullModelComparison{
		Iterations: e.opts.Iterations,
		Seed:       e.opts.Seed,
	}

	if len(g.Edges) == 0 {
		result.Warning = "graph has no edges; null model not run"
		result.Comparisons = degenerateComparisons(observed)
		return result, nil
	}
	if len(g.Edges) < minEdgesForNull {
		result.Warning = "too few edges for a meaningful null model"
	}

	outStubs := make([]string, len(g.Edges))
	inStubs := make([]string, len(g.Edges))
	for i, edge := range g.Edges {
		outStubs[i] = edge.From
		inStubs[i] = edge.To
	}

	deadline := time.Time{}
	if e.opts.WallClock > 0 {
		deadline = time.Now().Add(e.opts.WallClock)
	}

	jobs := make(chan int)
	counts := make(chan domain.TrialCounts, e.opts.Workers)

	var wg sync.WaitGroup
	for w := 0; w < e.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for trial := range jobs {
				counts <- e.runTrial(trial, g, outStubs, inStubs)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for trial := 0; trial < e.opts.Iterations; trial++ {
			if ctx.Err() != nil {
				return
			}
			if !deadline.IsZero() && time.Now().After(deadline) {
				return
			}
			select {
			case jobs <- trial:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(counts)
	}()

	var trials []domain.TrialCounts
	for c := range counts {
		trials = append(trials, c)
	}
	result.CompletedTrials = len(trials)
	result.Trials = trials

	if len(trials) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Warning = "no trials completed within budget"
		result.Comparisons = degenerateComparisons(observed)
		return result, nil
	}
	if result.CompletedTrials < result.Iterations && result.Warning == "" {
		result.Warning = "trial budget exhausted before requested iterations"
	}

	metrics := []string{
		domain.MetricLoops, domain.MetricCycles,
		domain.MetricCycles3, domain.MetricCycles4, domain.MetricCycles5,
	}
	zeroVariance := false
	for _, name := range metrics {
		values := make([]float64, len(trials))
		for i, t := range trials {
			values[i] = float64(t.Metric(name))
		}
		cmp := compareMetric(name, observed.Metric(name), values)
		if cmp.Undefined {
			zeroVariance = true
		}
		result.Comparisons = append(result.Comparisons, cmp)
	}
	if zeroVariance && result.Warning == "" {
		result.Warning = "null distribution has zero variance for some metrics"
	}

	return result, nil
}

// runTrial produces one randomized graph and counts its structures.
// trial index and base seed fully determine the shuffle.
func (e *Engine) runTrial(trial int, g *domain.Graph, outStubs, inStubs []string) domain.TrialCounts {
	rng := rand.New(rand.NewSource(e.opts.Seed + int64(trial)*1_000_003))

	shuffled := make([]string, len(inStubs))
	copy(shuffled, inStubs)
	// Fisher–Yates on the private copy.
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	// Drop self-pairs and collapse duplicate (from, to) pairs: the
	// randomized multigraph becomes a simple directed graph for
	// detection. The per-trial edge count shrinking is a property of
	// this null model, not an error to correct.
	seen := make(map[string]bool, len(outStubs))
	edges := make([]*domain.Edge, 0, len(outStubs))
	for i, from := range outStubs {
		to := shuffled[i]
		if from == to {
			continue
		}
		key := from + "|" + to
		if seen[key] {
			continue
		}
		seen[key] = true
		edges = append(edges, &domain.Edge{
			From: from, To: to,
			DealType:   domain.DealTypeOther,
			FlowType:   domain.FlowTypeMoney,
			Confidence: domain.DefaultConfidence,
		})
	}

	trialGraph := &domain.Graph{Edges: edges, SlugByID: g.SlugByID}
	return CountStructures(trialGraph, e.opts.MaxLength)
}

// CountStructures runs the production detectors over a graph and
// tallies structure counts. Shared by the observed graph and every
// randomized trial so both sides of the comparison use identical
// detection semantics.
func CountStructures(g *domain.Graph, maxLength int) domain.TrialCounts {
	var t domain.TrialCounts
	t.Loops = len(loops.Detect(g))
	for _, c := range cycles.Detect(g, maxLength) {
		t.Cycles++
		switch c.Length {
		case 3:
			t.Cycles3++
		case 4:
			t.Cycles4++
		case 5:
			t.Cycles5++
		}
	}
	return t
}

// compareMetric builds the comparison for one metric.
func compareMetric(name string, observed int, values []float64) domain.MetricComparison {
	stats := distribution(values)
	cmp := domain.MetricComparison{
		Metric:   name,
		Observed: observed,
		Null:     stats,
	}

	ep := empiricalP(values, float64(observed), stats.Mean)
	cmp.EmpiricalP = &ep

	if stats.StdDev == 0 {
		cmp.Undefined = true
		// The empirical p-value still orders the observation against
		// a degenerate distribution; use it for the flag.
		cmp.Significant = ep < Alpha
		return cmp
	}

	z := (float64(observed) - stats.Mean) / stats.StdDev
	p := twoTailedP(z)
	cmp.ZScore = &z
	cmp.PValue = &p
	// Exact empirical p is preferred over the normal approximation.
	cmp.Significant = ep < Alpha
	return cmp
}

// degenerateComparisons reports every metric with an undefined z and
// no significance, keeping the output well-formed for empty graphs.
func degenerateComparisons(observed domain.TrialCounts) []domain.MetricComparison {
	names := []string{
		domain.MetricLoops, domain.MetricCycles,
		domain.MetricCycles3, domain.MetricCycles4, domain.MetricCycles5,
	}
	out := make([]domain.MetricComparison, 0, len(names))
	for _, name := range names {
		out = append(out, domain.MetricComparison{
			Metric:    name,
			Observed:  observed.Metric(name),
			Undefined: true,
		})
	}
	return out
}

// entropySeed draws a seed from the OS entropy source, falling back
// to the clock if that fails.
func entropySeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	seed := int64(binary.LittleEndian.Uint64(b[:]))
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return seed
}

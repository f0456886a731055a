// Package analysis provides end-to-end orchestration of the deal-graph
// pipeline: graph construction → loop/cycle detection → hub scoring,
// plus null-model comparison and weight sensitivity on demand.
package analysis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"circularity-lab/internal/cycles"
	"circularity-lab/internal/domain"
	"circularity-lab/internal/graph"
	"circularity-lab/internal/hub"
	"circularity-lab/internal/loops"
	"circularity-lab/internal/nullmodel"
	"circularity-lab/internal/observability"
	"circularity-lab/internal/sensitivity"
	"circularity-lab/internal/storage"
)

// Analyzer coordinates the pipeline stages over the configured stores.
type Analyzer struct {
	companyStore storage.CompanyStore
	dealStore    storage.DealStore
	trialStore   storage.TrialStore // optional null-model sink

	maxCycleLength int
	partnerships   graph.PartnershipPolicy
	verbose        bool
}

// Options for creating an Analyzer.
type Options struct {
	// Required stores
	CompanyStore storage.CompanyStore
	DealStore    storage.DealStore

	// Optional: persists null-model trial distributions when set.
	TrialStore storage.TrialStore

	// Options
	MaxCycleLength int                     // default cycles.DefaultMaxLength
	Partnerships   graph.PartnershipPolicy // default bidirectional
	Verbose        bool
}

// New creates a new Analyzer.
func New(opts Options) *Analyzer {
	maxLen := opts.MaxCycleLength
	if maxLen <= 0 {
		maxLen = cycles.DefaultMaxLength
	}
	return &Analyzer{
		companyStore:   opts.CompanyStore,
		dealStore:      opts.DealStore,
		trialStore:     opts.TrialStore,
		maxCycleLength: maxLen,
		partnerships:   opts.Partnerships,
		verbose:        opts.Verbose,
	}
}

// Result contains the output of one full analysis.
type Result struct {
	Graph     *domain.Graph
	Loops     []*domain.Loop
	Cycles    []*domain.Cycle
	HubScores []*domain.HubScore
}

// Analyze runs the deterministic pipeline over all stored data that
// passes the filter.
// Stages:
//  1. Load companies and deals
//  2. Build the aggregated deal graph
//  3. Detect and score loops and cycles
//  4. Aggregate hub scores
func (a *Analyzer) Analyze(ctx context.Context, filter domain.Filter) (*Result, error) {
	started := time.Now()

	a.log("Stage 1: Loading companies and deals...")
	companies, err := a.companyStore.GetAll(ctx)
	if err != nil {
		observability.RecordAnalysis("load", "error", time.Since(started).Seconds())
		return nil, fmt.Errorf("load companies: %w", err)
	}
	deals, err := a.dealStore.GetAll(ctx)
	if err != nil {
		observability.RecordAnalysis("load", "error", time.Since(started).Seconds())
		return nil, fmt.Errorf("load deals: %w", err)
	}
	a.log("  Loaded %d companies, %d deals", len(companies), len(deals))

	a.log("Stage 2: Building graph...")
	g := graph.Build(deals, companies, filter, graph.Options{Partnerships: a.partnerships})
	observability.RecordGraphBuilt(len(g.Nodes), len(g.Edges), len(g.DataErrors))
	a.log("  Graph: %d nodes, %d edges, %d data errors", len(g.Nodes), len(g.Edges), len(g.DataErrors))

	a.log("Stage 3: Detecting structures...")
	detectedLoops := loops.Detect(g)
	detectedCycles := cycles.Detect(g, a.maxCycleLength)
	a.log("  Found %d loops, %d cycles", len(detectedLoops), len(detectedCycles))

	byLength := make(map[int]int)
	for _, c := range detectedCycles {
		byLength[c.Length]++
	}
	observability.RecordDetection(len(detectedLoops), byLength)

	a.log("Stage 4: Computing hub scores...")
	hubs := hub.Compute(companies, detectedLoops, detectedCycles)

	observability.RecordAnalysis("full", "ok", time.Since(started).Seconds())
	observability.DefaultMetrics.LastSuccessfulAnalysis.Set(float64(time.Now().Unix()))

	return &Result{
		Graph:     g,
		Loops:     detectedLoops,
		Cycles:    detectedCycles,
		HubScores: hubs,
	}, nil
}

// CompareToNull runs the configuration-model comparison against the
// graph. When a trial store is configured, the empirical distribution
// is persisted under a fresh run id, returned alongside the result.
func (a *Analyzer) CompareToNull(ctx context.Context, g *domain.Graph, opts nullmodel.Options) (*domain.NullModelComparison, string, error) {
	started := time.Now()
	if opts.MaxLength <= 0 {
		opts.MaxLength = a.maxCycleLength
	}

	engine := nullmodel.New(opts)
	cmp, err := engine.Compare(ctx, g)
	if err != nil {
		observability.RecordNullModelRun("error", 0, time.Since(started).Seconds())
		return nil, "", fmt.Errorf("null model comparison: %w", err)
	}
	observability.RecordNullModelRun("ok", cmp.CompletedTrials, time.Since(started).Seconds())

	runID := ""
	if a.trialStore != nil && len(cmp.Trials) > 0 {
		runID = uuid.NewString()
		if err := a.trialStore.InsertTrials(ctx, runID, cmp.Seed, cmp.Trials); err != nil {
			// Persistence is best effort; the comparison itself stands.
			a.log("  Failed to persist %d trials: %v", len(cmp.Trials), err)
			runID = ""
		}
	}
	return cmp, runID, nil
}

// RunSensitivity re-scores the baseline structures under each scheme.
// A nil schemes slice uses the built-in alternatives.
func (a *Analyzer) RunSensitivity(g *domain.Graph, base *Result, schemes []domain.WeightScheme) *domain.SensitivityResult {
	if schemes == nil {
		schemes = sensitivity.DefaultAlternatives()
	}
	return sensitivity.Run(g, base.Loops, base.Cycles, schemes)
}

func (a *Analyzer) log(format string, args ...interface{}) {
	if a.verbose {
		log.Printf("[analysis] "+format, args...)
	}
}

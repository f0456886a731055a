package analysis

import (
	"context"
	"testing"

	"circularity-lab/internal/domain"
	"circularity-lab/internal/nullmodel"
	"circularity-lab/internal/storage/memory"
)

func newFixtureAnalyzer(t *testing.T) *Analyzer {
	t.Helper()

	companies := memory.NewCompanyStore()
	deals := memory.NewDealStore()
	if err := LoadFixtures(context.Background(), companies, deals); err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	return New(Options{CompanyStore: companies, DealStore: deals})
}

func TestAnalyzeFixtureUniverse(t *testing.T) {
	a := newFixtureAnalyzer(t)

	result, err := a.Analyze(context.Background(), domain.Filter{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if got := len(result.Graph.Nodes); got != 5 {
		t.Errorf("nodes = %d, want 5", got)
	}
	if got := len(result.Graph.Edges); got != 6 {
		t.Errorf("edges = %d, want 6", got)
	}
	if len(result.Graph.DataErrors) != 0 {
		t.Errorf("unexpected data errors: %v", result.Graph.DataErrors)
	}

	// Two reciprocal pairs: chipmaker<->modelworks, datacenter<->searchgiant.
	if got := len(result.Loops); got != 2 {
		t.Fatalf("loops = %d, want 2", got)
	}
	// The chipmaker/modelworks loop has determined amounts both ways
	// and must outrank the half-determined datacenter pair.
	top := result.Loops[0]
	if top.CompanyA != "co-chipmaker" || top.CompanyB != "co-modelworks" {
		t.Errorf("top loop = %s/%s, want chipmaker/modelworks", top.CompanyA, top.CompanyB)
	}
	if top.BalanceRatio != 0.75 {
		t.Errorf("top loop balance ratio = %v, want 0.75", top.BalanceRatio)
	}

	// One 3-cycle: chipmaker -> modelworks -> cloudco -> chipmaker.
	if got := len(result.Cycles); got != 1 {
		t.Fatalf("cycles = %d, want 1", got)
	}
	c := result.Cycles[0]
	if c.Length != 3 {
		t.Errorf("cycle length = %d, want 3", c.Length)
	}
	wantIDs := []string{"co-chipmaker", "co-modelworks", "co-cloudco"}
	for i, id := range wantIDs {
		if c.CompanyIDs[i] != id {
			t.Fatalf("cycle companies = %v, want %v", c.CompanyIDs, wantIDs)
		}
	}

	// Every company is scored; chipmaker participates in both the top
	// loop and the cycle, so it cannot score zero.
	if got := len(result.HubScores); got != 5 {
		t.Fatalf("hub scores = %d, want 5", got)
	}
	for _, h := range result.HubScores {
		if h.CompanyID == "co-chipmaker" && h.StructureCount != 2 {
			t.Errorf("chipmaker structure count = %d, want 2", h.StructureCount)
		}
	}
	if result.HubScores[0].Score < result.HubScores[len(result.HubScores)-1].Score {
		t.Error("hub scores not sorted descending")
	}
}

func TestAnalyzeWithFilter(t *testing.T) {
	a := newFixtureAnalyzer(t)

	// Money-only view drops the undetermined service lease, breaking
	// the datacenter/searchgiant loop.
	result, err := a.Analyze(context.Background(), domain.Filter{
		FlowTypes: []domain.FlowType{domain.FlowTypeMoney},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if got := len(result.Loops); got != 1 {
		t.Fatalf("loops = %d, want 1", got)
	}
	if result.Loops[0].CompanyA != "co-chipmaker" {
		t.Errorf("surviving loop = %s, want chipmaker pair", result.Loops[0].CompanyA)
	}
}

func TestCompareToNullOnFixtures(t *testing.T) {
	a := newFixtureAnalyzer(t)
	ctx := context.Background()

	result, err := a.Analyze(ctx, domain.Filter{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	cmp, runID, err := a.CompareToNull(ctx, result.Graph, nullmodel.Options{
		Iterations: 200,
		Seed:       7,
	})
	if err != nil {
		t.Fatalf("CompareToNull: %v", err)
	}
	if runID != "" {
		t.Errorf("run id = %q, want empty without a trial store", runID)
	}
	if cmp.Seed != 7 {
		t.Errorf("seed = %d, want 7", cmp.Seed)
	}
	if cmp.CompletedTrials != 200 {
		t.Errorf("completed trials = %d, want 200", cmp.CompletedTrials)
	}
	loopsCmp := cmp.Comparison(domain.MetricLoops)
	if loopsCmp == nil {
		t.Fatal("missing loops comparison")
	}
	if loopsCmp.Observed != 2 {
		t.Errorf("observed loops = %d, want 2", loopsCmp.Observed)
	}
}

type recordingTrialStore struct {
	runID  string
	seed   int64
	trials []domain.TrialCounts
}

func (r *recordingTrialStore) InsertTrials(_ context.Context, runID string, seed int64, trials []domain.TrialCounts) error {
	r.runID = runID
	r.seed = seed
	r.trials = trials
	return nil
}

func TestCompareToNullPersistsTrials(t *testing.T) {
	companies := memory.NewCompanyStore()
	deals := memory.NewDealStore()
	ctx := context.Background()
	if err := LoadFixtures(ctx, companies, deals); err != nil {
		t.Fatalf("load fixtures: %v", err)
	}

	sink := &recordingTrialStore{}
	a := New(Options{CompanyStore: companies, DealStore: deals, TrialStore: sink})

	result, err := a.Analyze(ctx, domain.Filter{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	cmp, runID, err := a.CompareToNull(ctx, result.Graph, nullmodel.Options{Iterations: 50, Seed: 3})
	if err != nil {
		t.Fatalf("CompareToNull: %v", err)
	}
	if runID == "" {
		t.Fatal("expected a run id when a trial store is configured")
	}
	if sink.runID != runID {
		t.Errorf("persisted run id = %q, want %q", sink.runID, runID)
	}
	if sink.seed != 3 {
		t.Errorf("persisted seed = %d, want 3", sink.seed)
	}
	if len(sink.trials) != cmp.CompletedTrials {
		t.Errorf("persisted %d trials, want %d", len(sink.trials), cmp.CompletedTrials)
	}
}

func TestRunSensitivityDefaults(t *testing.T) {
	a := newFixtureAnalyzer(t)
	ctx := context.Background()

	result, err := a.Analyze(ctx, domain.Filter{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	sens := a.RunSensitivity(result.Graph, result, nil)
	if len(sens.Schemes) != 3 {
		t.Fatalf("schemes = %d, want 3 built-in alternatives", len(sens.Schemes))
	}
	if sens.Baseline.TopLoopID == "" {
		t.Error("baseline top loop missing")
	}
	for _, s := range sens.Schemes {
		if s.LoopKendall < -1 || s.LoopKendall > 1 {
			t.Errorf("scheme %s loop kendall = %v out of range", s.Scheme.Name, s.LoopKendall)
		}
	}
}

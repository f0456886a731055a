package cycles

import (
	"math"
	"math/rand"
	"testing"

	"circularity-lab/internal/domain"
)

func testGraph(edges []*domain.Edge) *domain.Graph {
	slugs := map[string]string{
		"c-a": "acme", "c-b": "globex", "c-c": "initech",
		"c-d": "umbrella", "c-e": "wayne", "c-f": "stark",
	}
	return &domain.Graph{Edges: edges, SlugByID: slugs}
}

func edge(from, to string, flow domain.FlowType, amount float64, conf float64) *domain.Edge {
	e := &domain.Edge{
		From: from, To: to,
		DealType: domain.DealTypeInvestment, FlowType: flow,
		Confidence: conf,
		DealIDs:    []string{"deal-" + from + "-" + to},
	}
	if amount > 0 {
		e.AmountUSD = amount
		e.HasAmount = true
	}
	return e
}

func triangle() []*domain.Edge {
	return []*domain.Edge{
		edge("c-a", "c-b", domain.FlowTypeMoney, 1e9, 5),
		edge("c-b", "c-c", domain.FlowTypeService, 1e9, 5),
		edge("c-c", "c-a", domain.FlowTypeEquity, 1e9, 5),
	}
}

func TestDetect_ThreeCycleScoring(t *testing.T) {
	// A->B, B->C, C->A, each $1B, conf 5, distinct flow types.
	found := Detect(testGraph(triangle()), 5)

	if len(found) != 1 {
		t.Fatalf("expected exactly one 3-cycle, got %d", len(found))
	}
	c := found[0]
	if c.Length != 3 {
		t.Errorf("expected length 3, got %d", c.Length)
	}
	if c.FlowComplement != 1.0 {
		t.Errorf("expected F=1.0, got %f", c.FlowComplement)
	}
	if c.Balance != 1.0 {
		t.Errorf("expected B=1.0 for equal amounts, got %f", c.Balance)
	}
	wantM := (math.Log10(3e9) - 6) / 6
	if math.Abs(c.Magnitude-wantM) > 1e-9 {
		t.Errorf("expected M=%f, got %f", wantM, c.Magnitude)
	}
	if c.Confidence != 1.0 {
		t.Errorf("expected C=1.0, got %f", c.Confidence)
	}
	if math.Abs(c.LengthPenalty-1/math.Sqrt2) > 1e-9 {
		t.Errorf("expected L=1/sqrt(2), got %f", c.LengthPenalty)
	}
	want := 0.30*1.0 + 0.25*1.0 + 0.10*wantM + 0.20*1.0 + 0.15/math.Sqrt2
	if math.Abs(c.Score-want) > 1e-9 {
		t.Errorf("expected score %f, got %f", want, c.Score)
	}
	if c.TotalValueUSD != 3e9 {
		t.Errorf("expected total value 3e9, got %f", c.TotalValueUSD)
	}
	if c.DealCount != 3 {
		t.Errorf("expected 3 distinct deals, got %d", c.DealCount)
	}
}

func TestDetect_TwoCyclesExcluded(t *testing.T) {
	g := testGraph([]*domain.Edge{
		edge("c-a", "c-b", domain.FlowTypeMoney, 1e9, 3),
		edge("c-b", "c-a", domain.FlowTypeService, 1e9, 3),
	})

	if found := Detect(g, 5); len(found) != 0 {
		t.Errorf("reciprocal pair is a loop, not a cycle; got %d cycles", len(found))
	}
}

func TestDetect_NoClosureNoCycle(t *testing.T) {
	g := testGraph([]*domain.Edge{
		edge("c-a", "c-b", domain.FlowTypeMoney, 1e9, 3),
		edge("c-b", "c-c", domain.FlowTypeMoney, 1e9, 3),
	})

	if found := Detect(g, 5); len(found) != 0 {
		t.Errorf("expected no cycles without closure, got %d", len(found))
	}
}

func TestDetect_LengthBound(t *testing.T) {
	// 6-ring: no cycle of length ≤ 5 exists.
	ring := []*domain.Edge{
		edge("c-a", "c-b", domain.FlowTypeMoney, 1e9, 3),
		edge("c-b", "c-c", domain.FlowTypeMoney, 1e9, 3),
		edge("c-c", "c-d", domain.FlowTypeMoney, 1e9, 3),
		edge("c-d", "c-e", domain.FlowTypeMoney, 1e9, 3),
		edge("c-e", "c-f", domain.FlowTypeMoney, 1e9, 3),
		edge("c-f", "c-a", domain.FlowTypeMoney, 1e9, 3),
	}

	if found := Detect(testGraph(ring), 5); len(found) != 0 {
		t.Errorf("6-ring must yield no cycles at maxLength 5, got %d", len(found))
	}

	// 4-ring is found at maxLength 5 but not at maxLength 3.
	square := []*domain.Edge{
		edge("c-a", "c-b", domain.FlowTypeMoney, 1e9, 3),
		edge("c-b", "c-c", domain.FlowTypeMoney, 1e9, 3),
		edge("c-c", "c-d", domain.FlowTypeMoney, 1e9, 3),
		edge("c-d", "c-a", domain.FlowTypeMoney, 1e9, 3),
	}
	if found := Detect(testGraph(square), 5); len(found) != 1 {
		t.Errorf("expected one 4-cycle, got %d", len(found))
	}
	if found := Detect(testGraph(square), 3); len(found) != 0 {
		t.Errorf("4-cycle must be excluded at maxLength 3, got %d", len(found))
	}
}

func TestDetect_DistinctCompanies(t *testing.T) {
	// Extra chords must not produce cycles revisiting a company.
	edges := append(triangle(),
		edge("c-a", "c-c", domain.FlowTypeMoney, 1e9, 3),
	)

	for _, c := range Detect(testGraph(edges), 5) {
		seen := make(map[string]bool)
		for _, id := range c.CompanyIDs {
			if seen[id] {
				t.Fatalf("cycle revisits company %s: %v", id, c.CompanyIDs)
			}
			seen[id] = true
		}
		if c.Length < 3 || c.Length > 5 {
			t.Fatalf("cycle length out of [3,5]: %d", c.Length)
		}
	}
}

func TestDetect_ReverseDirectionIsDistinct(t *testing.T) {
	// With every edge mirrored, both traversal directions are real
	// directed cycles and both must be reported.
	edges := append(triangle(),
		edge("c-b", "c-a", domain.FlowTypeMoney, 1e9, 3),
		edge("c-c", "c-b", domain.FlowTypeMoney, 1e9, 3),
		edge("c-a", "c-c", domain.FlowTypeMoney, 1e9, 3),
	)

	found := Detect(testGraph(edges), 5)
	if len(found) != 2 {
		t.Fatalf("expected both directed triangles, got %d", len(found))
	}
	if found[0].ID == found[1].ID {
		t.Error("opposite directions must have distinct canonical ids")
	}
}

func TestDetect_CanonicalStartsAtSmallestSlug(t *testing.T) {
	found := Detect(testGraph(triangle()), 5)

	c := found[0]
	if c.Slugs[0] != "acme" {
		t.Errorf("canonical rotation must start at smallest slug, got %v", c.Slugs)
	}
}

func TestCanonicalRotation_AnyRotationSameID(t *testing.T) {
	slugByID := map[string]string{"c-a": "acme", "c-b": "globex", "c-c": "initech"}
	base := []string{"c-a", "c-b", "c-c"}

	for shift := 0; shift < 3; shift++ {
		rotated := append(append([]string{}, base[shift:]...), base[:shift]...)
		got := CanonicalRotation(rotated, slugByID)
		for i := range base {
			if got[i] != base[i] {
				t.Fatalf("rotation by %d: got %v, want %v", shift, got, base)
			}
		}
	}
}

func TestDetect_Deterministic(t *testing.T) {
	edges := append(triangle(),
		edge("c-a", "c-d", domain.FlowTypeMoney, 1e9, 3),
		edge("c-d", "c-b", domain.FlowTypeService, 2e9, 4),
	)

	a := Detect(testGraph(edges), 5)
	b := Detect(testGraph(edges), 5)

	if len(a) != len(b) {
		t.Fatalf("nondeterministic cycle count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Score != b[i].Score {
			t.Fatalf("nondeterministic output at %d", i)
		}
	}
}

func TestScore_UnitInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	flows := []domain.FlowType{
		domain.FlowTypeMoney, domain.FlowTypeComputeHardware,
		domain.FlowTypeService, domain.FlowTypeEquity,
	}

	for i := 0; i < 2000; i++ {
		n := 3 + rng.Intn(3)
		c := &domain.Cycle{Length: n}
		total := 0.0
		for j := 0; j < n; j++ {
			e := &domain.Edge{
				FlowType:   flows[rng.Intn(len(flows))],
				Confidence: 1 + rng.Float64()*4,
			}
			if rng.Intn(4) != 0 {
				e.AmountUSD = rng.Float64() * 1e12
				e.HasAmount = e.AmountUSD > 0
				total += e.AmountUSD
			}
			c.Edges = append(c.Edges, e)
		}
		c.TotalValueUSD = total

		Score(c, domain.BaselineScheme.Cycle)

		if c.Score < 0 || c.Score > 1 {
			t.Fatalf("score out of [0,1]: %f (iteration %d)", c.Score, i)
		}
	}
}

func TestScore_LengthPenaltyExact(t *testing.T) {
	want := map[int]float64{3: 1 / math.Sqrt2, 4: 1 / math.Sqrt(3), 5: 0.5}
	for n, w := range want {
		c := &domain.Cycle{Length: n}
		Score(c, domain.BaselineScheme.Cycle)
		if math.Abs(c.LengthPenalty-w) > 1e-12 {
			t.Errorf("length %d: expected L=%f, got %f", n, w, c.LengthPenalty)
		}
	}
}

func TestScore_FewerThanTwoDeterminedAmounts(t *testing.T) {
	c := &domain.Cycle{
		Length: 3,
		Edges: []*domain.Edge{
			{FlowType: domain.FlowTypeMoney, AmountUSD: 1e9, HasAmount: true, Confidence: 3},
			{FlowType: domain.FlowTypeService, Confidence: 3},
			{FlowType: domain.FlowTypeEquity, Confidence: 3},
		},
		TotalValueUSD: 1e9,
	}

	Score(c, domain.BaselineScheme.Cycle)

	if c.Balance != 0.5 {
		t.Errorf("expected default B=0.5 with one determined amount, got %f", c.Balance)
	}
}

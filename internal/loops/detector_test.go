package loops

import (
	"math"
	"math/rand"
	"testing"

	"circularity-lab/internal/domain"
)

func testGraph(edges []*domain.Edge) *domain.Graph {
	slugs := map[string]string{
		"c-acme": "acme", "c-globex": "globex", "c-initech": "initech",
	}
	return &domain.Graph{Edges: edges, SlugByID: slugs}
}

func edge(from, to string, flow domain.FlowType, amount float64, conf float64) *domain.Edge {
	e := &domain.Edge{
		From: from, To: to,
		DealType: domain.DealTypeInvestment, FlowType: flow,
		Confidence: conf,
	}
	if amount > 0 {
		e.AmountUSD = amount
		e.HasAmount = true
	}
	return e
}

func TestDetect_ReciprocalPair(t *testing.T) {
	// A->B MONEY $10B conf 4, B->A SERVICE $5B conf 4.
	g := testGraph([]*domain.Edge{
		edge("c-acme", "c-globex", domain.FlowTypeMoney, 10e9, 4),
		edge("c-globex", "c-acme", domain.FlowTypeService, 5e9, 4),
	})

	found := Detect(g)

	if len(found) != 1 {
		t.Fatalf("expected exactly 1 loop, got %d", len(found))
	}
	l := found[0]
	if l.FlowDiversity != 1.0 {
		t.Errorf("expected D=1.0, got %f", l.FlowDiversity)
	}
	if l.Balance != 0.75 {
		t.Errorf("expected B=0.75, got %f", l.Balance)
	}
	if l.Confidence != 0.8 {
		t.Errorf("expected C=0.8, got %f", l.Confidence)
	}
	if math.Abs(l.Score-0.7525) > 1e-9 {
		t.Errorf("expected score 0.7525, got %f", l.Score)
	}
}

func TestDetect_NoReciprocalEdges(t *testing.T) {
	g := testGraph([]*domain.Edge{
		edge("c-acme", "c-globex", domain.FlowTypeMoney, 1e9, 3),
		edge("c-globex", "c-initech", domain.FlowTypeMoney, 1e9, 3),
	})

	if found := Detect(g); len(found) != 0 {
		t.Errorf("expected no loops, got %d", len(found))
	}
}

func TestDetect_OneLoopPerUnorderedPair(t *testing.T) {
	// Multiple parallel edges in both directions still collapse to one loop.
	g := testGraph([]*domain.Edge{
		edge("c-acme", "c-globex", domain.FlowTypeMoney, 1e9, 3),
		edge("c-acme", "c-globex", domain.FlowTypeService, 4e9, 3),
		edge("c-globex", "c-acme", domain.FlowTypeEquity, 2e9, 3),
		edge("c-globex", "c-acme", domain.FlowTypeMoney, 3e9, 3),
	})

	found := Detect(g)

	if len(found) != 1 {
		t.Fatalf("expected 1 loop for the pair, got %d", len(found))
	}
	l := found[0]
	// Representative edges carry the largest determined amount per direction.
	if l.EdgeAB.AmountUSD != 4e9 {
		t.Errorf("expected representative A->B amount 4e9, got %v", l.EdgeAB.AmountUSD)
	}
	if l.EdgeBA.AmountUSD != 3e9 {
		t.Errorf("expected representative B->A amount 3e9, got %v", l.EdgeBA.AmountUSD)
	}
}

func TestDetect_CompanyAOrderedBySlug(t *testing.T) {
	g := testGraph([]*domain.Edge{
		edge("c-globex", "c-acme", domain.FlowTypeMoney, 1e9, 3),
		edge("c-acme", "c-globex", domain.FlowTypeService, 2e9, 3),
	})

	l := Detect(g)[0]
	if l.CompanyA != "c-acme" || l.CompanyB != "c-globex" {
		t.Errorf("expected slug-ordered pair (acme, globex), got (%s, %s)", l.CompanyA, l.CompanyB)
	}
	if l.EdgeAB.From != "c-acme" {
		t.Errorf("EdgeAB must leave CompanyA, leaves %s", l.EdgeAB.From)
	}
}

func TestScore_UndeterminedAmountsNeutralBalance(t *testing.T) {
	ab := edge("c-acme", "c-globex", domain.FlowTypeMoney, 0, 3)
	ba := edge("c-globex", "c-acme", domain.FlowTypeMoney, 0, 3)
	l := &domain.Loop{EdgeAB: ab, EdgeBA: ba}

	Score(l, domain.BaselineScheme.Loop)

	if l.Balance != 0.5 {
		t.Errorf("expected neutral B=0.5, got %f", l.Balance)
	}
	if l.BalanceRatio != 0 {
		t.Errorf("expected balance ratio 0, got %f", l.BalanceRatio)
	}
}

func TestScore_MissingConfidenceDefaults(t *testing.T) {
	ab := edge("c-acme", "c-globex", domain.FlowTypeMoney, 1e9, 0)
	ba := edge("c-globex", "c-acme", domain.FlowTypeService, 1e9, 0)
	l := &domain.Loop{EdgeAB: ab, EdgeBA: ba}

	Score(l, domain.BaselineScheme.Loop)

	// Both edges default to 3/5 → C = 6/10
	if l.Confidence != 0.6 {
		t.Errorf("expected C=0.6 from defaults, got %f", l.Confidence)
	}
}

func TestScore_AlwaysInUnitInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		ab := edge("c-acme", "c-globex", randomFlow(rng), rng.Float64()*1e12, 1+rng.Float64()*4)
		ba := edge("c-globex", "c-acme", randomFlow(rng), rng.Float64()*1e12, 1+rng.Float64()*4)
		if rng.Intn(4) == 0 {
			ab.HasAmount = false
			ab.AmountUSD = 0
		}
		if rng.Intn(4) == 0 {
			ba.HasAmount = false
			ba.AmountUSD = 0
		}
		l := &domain.Loop{EdgeAB: ab, EdgeBA: ba}

		Score(l, domain.BaselineScheme.Loop)

		if l.Score < 0 || l.Score > 1 {
			t.Fatalf("score out of [0,1]: %f (iteration %d)", l.Score, i)
		}
	}
}

func randomFlow(rng *rand.Rand) domain.FlowType {
	flows := []domain.FlowType{
		domain.FlowTypeMoney, domain.FlowTypeComputeHardware,
		domain.FlowTypeService, domain.FlowTypeEquity,
	}
	return flows[rng.Intn(len(flows))]
}

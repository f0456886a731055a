// Package loops detects two-party reciprocal structures and computes
// their composite Loop Score.
package loops

import (
	"sort"

	"circularity-lab/internal/domain"
	"circularity-lab/internal/idhash"
)

// Detect finds every unordered company pair {A, B} with at least one
// edge in each direction and emits exactly one Loop per pair, scored
// with the baseline weights. Runs in O(|E|).
func Detect(g *domain.Graph) []*domain.Loop {
	// Best (largest determined amount) edge per ordered pair.
	best := make(map[string]*domain.Edge, len(g.Edges))
	for _, e := range g.Edges {
		key := e.PairKey()
		cur, ok := best[key]
		if !ok || betterRepresentative(e, cur) {
			best[key] = e
		}
	}

	seen := make(map[string]bool)
	var out []*domain.Loop

	for _, e := range g.Edges {
		reverse, ok := best[e.To+"|"+e.From]
		if !ok {
			continue
		}
		a, b := e.From, e.To
		if g.SlugByID[b] < g.SlugByID[a] {
			a, b = b, a
		}
		pairKey := a + "|" + b
		if seen[pairKey] {
			continue
		}
		seen[pairKey] = true

		forward := best[e.PairKey()]
		if e.From != a {
			forward, reverse = reverse, forward
		}

		loop := &domain.Loop{
			ID:       idhash.ComputeLoopID(g.SlugByID[a], g.SlugByID[b]),
			CompanyA: a,
			CompanyB: b,
			EdgeAB:   forward,
			EdgeBA:   reverse,
		}
		Score(loop, domain.BaselineScheme.Loop)
		out = append(out, loop)
	}

	// Deterministic output order: score descending, id ascending.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// betterRepresentative prefers the edge with the larger determined
// amount; determined beats undetermined; first-seen wins ties.
func betterRepresentative(candidate, current *domain.Edge) bool {
	if candidate.HasAmount != current.HasAmount {
		return candidate.HasAmount
	}
	return candidate.HasAmount && candidate.AmountUSD > current.AmountUSD
}

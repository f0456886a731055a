// Package cycles enumerates directed multi-party cycles (3 to 5
// companies) and computes their composite Cycle Score.
package cycles

import (
	"sort"

	"circularity-lab/internal/domain"
	"circularity-lab/internal/idhash"
)

// DefaultMaxLength bounds cycle enumeration depth.
const DefaultMaxLength = 5

// MinLength is fixed: two-party structures belong to the loop
// detector, never here.
const MinLength = 3

// Detect enumerates every directed cycle of length 3..maxLength over
// the graph's representative edges and returns one scored Cycle per
// canonical identity. Cycles are directed: a reversed traversal is a
// distinct cycle only when reverse edges actually exist.
//
// Enumeration starts a DFS at each node in slug order and only visits
// nodes that sort at or after the start node, so every cycle is found
// exactly once, already rotated to its lexicographically smallest
// slug. The path is an explicit stack, no shared mutable state.
func Detect(g *domain.Graph, maxLength int) []*domain.Cycle {
	if maxLength <= 0 || maxLength > DefaultMaxLength {
		maxLength = DefaultMaxLength
	}
	if len(g.Edges) == 0 || maxLength < MinLength {
		return nil
	}

	adj := representativeAdjacency(g)

	// Node visit order: by slug, so the DFS start is always the
	// canonical rotation point.
	nodes := make([]string, 0, len(adj))
	for id := range adj {
		nodes = append(nodes, id)
	}
	sort.Slice(nodes, func(i, j int) bool { return g.SlugByID[nodes[i]] < g.SlugByID[nodes[j]] })

	rank := make(map[string]int, len(nodes))
	for i, id := range nodes {
		rank[id] = i
	}

	seen := make(map[string]bool)
	var out []*domain.Cycle

	for _, start := range nodes {
		path := []string{start}
		onPath := map[string]bool{start: true}
		var walk func()
		walk = func() {
			cur := path[len(path)-1]
			for _, e := range adj[cur] {
				if e.To == start {
					if len(path) >= MinLength {
						c := buildCycle(g, adj, path)
						if !seen[c.ID] {
							seen[c.ID] = true
							out = append(out, c)
						}
					}
					continue
				}
				if onPath[e.To] || rank[e.To] < rank[start] || len(path) >= maxLength {
					continue
				}
				path = append(path, e.To)
				onPath[e.To] = true
				walk()
				path = path[:len(path)-1]
				delete(onPath, e.To)
			}
		}
		walk()
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// representativeAdjacency collapses parallel edges per ordered pair
// to the edge with the largest determined amount (first-seen on
// ties), keyed by source company.
func representativeAdjacency(g *domain.Graph) map[string][]*domain.Edge {
	best := make(map[string]*domain.Edge, len(g.Edges))
	var order []string
	for _, e := range g.Edges {
		key := e.PairKey()
		cur, ok := best[key]
		if !ok {
			best[key] = e
			order = append(order, key)
			continue
		}
		if (e.HasAmount && !cur.HasAmount) || (e.HasAmount && e.AmountUSD > cur.AmountUSD) {
			best[key] = e
		}
	}

	adj := make(map[string][]*domain.Edge)
	for _, key := range order {
		e := best[key]
		adj[e.From] = append(adj[e.From], e)
		if _, ok := adj[e.To]; !ok {
			adj[e.To] = nil
		}
	}
	// Stable neighbor order by target company ID for deterministic traversal.
	for id := range adj {
		es := adj[id]
		sort.Slice(es, func(i, j int) bool { return es[i].To < es[j].To })
	}
	return adj
}

// buildCycle assembles a scored Cycle from the current DFS path.
// The path already starts at the canonical rotation point, but the
// canonical form is recomputed anyway so identity never depends on
// traversal details.
func buildCycle(g *domain.Graph, adj map[string][]*domain.Edge, path []string) *domain.Cycle {
	n := len(path)
	ids := make([]string, n)
	copy(ids, path)
	ids = CanonicalRotation(ids, g.SlugByID)

	slugs := make([]string, n)
	for i, id := range ids {
		slugs[i] = g.SlugByID[id]
	}

	edges := make([]*domain.Edge, n)
	dealSeen := make(map[string]bool)
	total := 0.0
	for i := 0; i < n; i++ {
		from, to := ids[i], ids[(i+1)%n]
		for _, e := range adj[from] {
			if e.To == to {
				edges[i] = e
				break
			}
		}
		if e := edges[i]; e != nil {
			if e.HasAmount {
				total += e.AmountUSD
			}
			for _, id := range e.DealIDs {
				dealSeen[id] = true
			}
		}
	}

	c := &domain.Cycle{
		ID:            idhash.ComputeCycleID(slugs),
		CompanyIDs:    ids,
		Slugs:         slugs,
		Edges:         edges,
		TotalValueUSD: total,
		DealCount:     len(dealSeen),
		Length:        n,
	}
	Score(c, domain.BaselineScheme.Cycle)
	return c
}

// CanonicalRotation rotates the company sequence so it starts at the
// lexicographically smallest slug. The cyclic order is preserved;
// only the start point moves.
func CanonicalRotation(ids []string, slugByID map[string]string) []string {
	n := len(ids)
	if n == 0 {
		return ids
	}
	minIdx := 0
	for i := 1; i < n; i++ {
		if slugByID[ids[i]] < slugByID[ids[minIdx]] {
			minIdx = i
		}
	}
	if minIdx == 0 {
		return ids
	}
	rotated := make([]string, 0, n)
	rotated = append(rotated, ids[minIdx:]...)
	rotated = append(rotated, ids[:minIdx]...)
	return rotated
}

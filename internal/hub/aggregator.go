// Package hub aggregates detected loops and cycles into per-company
// centrality scores.
package hub

import (
	"sort"

	"circularity-lab/internal/domain"
)

// Compute sums every company's participating structure scores into a
// HubScore batch. Output is sorted by raw score descending with slug
// as the deterministic tiebreak. Normalization divides by the batch
// maximum; an all-zero batch stays all-zero instead of dividing by
// zero.
func Compute(companies []*domain.Company, loops []*domain.Loop, cycles []*domain.Cycle) []*domain.HubScore {
	byID := make(map[string]*domain.HubScore, len(companies))
	for _, c := range companies {
		byID[c.ID] = &domain.HubScore{CompanyID: c.ID, Slug: c.Slug, Name: c.Name}
	}

	// Circulation edges are deduplicated per company: an edge shared
	// by several structures counts once.
	circEdges := make(map[string]map[string]*domain.Edge)
	addEdge := func(companyID string, e *domain.Edge) {
		if e == nil {
			return
		}
		m, ok := circEdges[companyID]
		if !ok {
			m = make(map[string]*domain.Edge)
			circEdges[companyID] = m
		}
		m[e.Key()] = e
	}

	participate := func(companyID string, score float64, edges ...*domain.Edge) {
		h, ok := byID[companyID]
		if !ok {
			return // structure references a company outside the batch
		}
		h.Score += score
		h.StructureCount++
		for _, e := range edges {
			addEdge(companyID, e)
		}
	}

	for _, l := range loops {
		participate(l.CompanyA, l.Score, l.EdgeAB, l.EdgeBA)
		participate(l.CompanyB, l.Score, l.EdgeAB, l.EdgeBA)
	}
	for _, c := range cycles {
		for _, id := range c.CompanyIDs {
			participate(id, c.Score, c.Edges...)
		}
	}

	maxScore := 0.0
	out := make([]*domain.HubScore, 0, len(byID))
	for _, h := range byID {
		if h.StructureCount > 0 {
			h.MeanScore = h.Score / float64(h.StructureCount)
		}
		for _, e := range circEdges[h.CompanyID] {
			if e.HasAmount {
				h.TotalCirculationUSD += e.AmountUSD
			}
		}
		if h.Score > maxScore {
			maxScore = h.Score
		}
		out = append(out, h)
	}

	if maxScore > 0 {
		for _, h := range out {
			h.Normalized = h.Score / maxScore
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Slug < out[j].Slug
	})
	return out
}

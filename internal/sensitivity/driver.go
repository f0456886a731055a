// Package sensitivity re-scores detected structures under alternative
// weighting schemes and measures how stable the rankings are.
// Detection itself is never repeated; only the scoring functions run
// again.
package sensitivity

import (
	"sort"

	"circularity-lab/internal/cycles"
	"circularity-lab/internal/domain"
	"circularity-lab/internal/hub"
	"circularity-lab/internal/loops"
)

// Run evaluates every scheme against the baseline ranking of the
// already-detected loops and cycles. Weights are normalized to sum to
// 1 before scoring so composite scores stay in [0,1] for any scheme.
func Run(g *domain.Graph, baseLoops []*domain.Loop, baseCycles []*domain.Cycle, schemes []domain.WeightScheme) *domain.SensitivityResult {
	baseline := evaluate(g, baseLoops, baseCycles, domain.BaselineScheme)
	baseline.LoopKendall = 1
	baseline.CycleKendall = 1

	result := &domain.SensitivityResult{
		Baseline:          baseline,
		TopLoopConsistent: true,
		TopHubConsistent:  true,
	}

	baseLoopScores := scoresByID(loopIDs(baseLoops), loopScoreMap(baseLoops))
	baseCycleScores := scoresByID(cycleIDs(baseCycles), cycleScoreMap(baseCycles))

	for _, scheme := range schemes {
		if scheme.Name == domain.BaselineScheme.Name {
			continue
		}
		sr := evaluate(g, baseLoops, baseCycles, scheme)

		altLoops := rescoreLoops(baseLoops, scheme)
		altCycles := rescoreCycles(baseCycles, scheme)
		sr.LoopKendall = KendallTau(baseLoopScores, scoresByID(loopIDs(baseLoops), loopScoreMap(altLoops)))
		sr.CycleKendall = KendallTau(baseCycleScores, scoresByID(cycleIDs(baseCycles), cycleScoreMap(altCycles)))

		if sr.TopLoopID != baseline.TopLoopID {
			result.TopLoopConsistent = false
		}
		if sr.TopHubID != baseline.TopHubID {
			result.TopHubConsistent = false
		}
		result.Schemes = append(result.Schemes, sr)
	}

	return result
}

// evaluate re-scores under one scheme and extracts the ranking heads.
func evaluate(g *domain.Graph, baseLoops []*domain.Loop, baseCycles []*domain.Cycle, scheme domain.WeightScheme) domain.SchemeResult {
	altLoops := rescoreLoops(baseLoops, scheme)
	altCycles := rescoreCycles(baseCycles, scheme)

	sr := domain.SchemeResult{Scheme: scheme}
	if len(altLoops) > 0 {
		sr.TopLoopID = altLoops[0].ID
	}
	hubs := hub.Compute(g.Nodes, altLoops, altCycles)
	if len(hubs) > 0 && hubs[0].Score > 0 {
		sr.TopHubID = hubs[0].CompanyID
	}
	return sr
}

func rescoreLoops(in []*domain.Loop, scheme domain.WeightScheme) []*domain.Loop {
	w := normalizeLoopWeights(scheme.Loop)
	out := make([]*domain.Loop, len(in))
	for i, l := range in {
		clone := *l
		loops.Score(&clone, w)
		out[i] = &clone
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func rescoreCycles(in []*domain.Cycle, scheme domain.WeightScheme) []*domain.Cycle {
	w := normalizeCycleWeights(scheme.Cycle)
	out := make([]*domain.Cycle, len(in))
	for i, c := range in {
		clone := *c
		cycles.Score(&clone, w)
		out[i] = &clone
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func normalizeLoopWeights(w domain.LoopWeights) domain.LoopWeights {
	sum := w.Diversity + w.Balance + w.Confidence
	if sum <= 0 {
		return domain.BaselineScheme.Loop
	}
	return domain.LoopWeights{
		Diversity:  w.Diversity / sum,
		Balance:    w.Balance / sum,
		Confidence: w.Confidence / sum,
	}
}

func normalizeCycleWeights(w domain.CycleWeights) domain.CycleWeights {
	sum := w.Flow + w.Balance + w.Magnitude + w.Confidence + w.Length
	if sum <= 0 {
		return domain.BaselineScheme.Cycle
	}
	return domain.CycleWeights{
		Flow:       w.Flow / sum,
		Balance:    w.Balance / sum,
		Magnitude:  w.Magnitude / sum,
		Confidence: w.Confidence / sum,
		Length:     w.Length / sum,
	}
}

func loopIDs(ls []*domain.Loop) []string {
	ids := make([]string, len(ls))
	for i, l := range ls {
		ids[i] = l.ID
	}
	return ids
}

func cycleIDs(cs []*domain.Cycle) []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	return ids
}

func loopScoreMap(ls []*domain.Loop) map[string]float64 {
	m := make(map[string]float64, len(ls))
	for _, l := range ls {
		m[l.ID] = l.Score
	}
	return m
}

func cycleScoreMap(cs []*domain.Cycle) map[string]float64 {
	m := make(map[string]float64, len(cs))
	for _, c := range cs {
		m[c.ID] = c.Score
	}
	return m
}

func scoresByID(ids []string, scores map[string]float64) []float64 {
	out := make([]float64, len(ids))
	for i, id := range ids {
		out[i] = scores[id]
	}
	return out
}

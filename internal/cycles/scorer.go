package cycles

import (
	"math"

	"circularity-lab/internal/domain"
)

// Score fills the cycle's component scores and composite score in
// place using the given weights.
//
//	F = 1.0 when ≥2 distinct flow types are present, 0.7 when all
//	    identical, 0.5 when undeterminable
//	B = 1 − log10(maxAmt/minAmt)/3 clamped to [0,1] over determined
//	    edge amounts; 0.5 with fewer than 2 determined amounts
//	M = (log10(totalValue) − 6)/6 clamped to [0,1]; 0 when total ≤ 0
//	C = mean edge confidence / 5
//	L = 1/sqrt(n−1)
func Score(c *domain.Cycle, w domain.CycleWeights) {
	c.FlowComplement = flowComplement(c.Edges)
	c.Balance = balance(c.Edges)
	c.Magnitude = magnitude(c.TotalValueUSD)
	c.Confidence = meanConfidence(c.Edges) / 5
	c.LengthPenalty = 1 / math.Sqrt(float64(c.Length-1))

	c.Score = w.Flow*c.FlowComplement +
		w.Balance*c.Balance +
		w.Magnitude*c.Magnitude +
		w.Confidence*c.Confidence +
		w.Length*c.LengthPenalty
}

func flowComplement(edges []*domain.Edge) float64 {
	distinct := make(map[domain.FlowType]bool)
	for _, e := range edges {
		if e != nil {
			distinct[e.FlowType] = true
		}
	}
	switch {
	case len(distinct) == 0:
		return 0.5 // undeterminable
	case len(distinct) >= 2:
		return 1.0
	default:
		return 0.7
	}
}

func balance(edges []*domain.Edge) float64 {
	minAmt, maxAmt := math.Inf(1), 0.0
	determined := 0
	for _, e := range edges {
		if e == nil || !e.HasAmount {
			continue
		}
		determined++
		if e.AmountUSD < minAmt {
			minAmt = e.AmountUSD
		}
		if e.AmountUSD > maxAmt {
			maxAmt = e.AmountUSD
		}
	}
	if determined < 2 || minAmt <= 0 {
		return 0.5
	}
	return clamp01(1 - math.Log10(maxAmt/minAmt)/3)
}

func magnitude(totalValue float64) float64 {
	if totalValue <= 0 {
		return 0
	}
	return clamp01((math.Log10(totalValue) - 6) / 6)
}

func meanConfidence(edges []*domain.Edge) float64 {
	sum := 0.0
	n := 0
	for _, e := range edges {
		if e == nil {
			continue
		}
		conf := e.Confidence
		if conf < 1 || conf > 5 {
			conf = domain.DefaultConfidence
		}
		sum += conf
		n++
	}
	if n == 0 {
		return domain.DefaultConfidence
	}
	return sum / float64(n)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

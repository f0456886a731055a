package loops

import "circularity-lab/internal/domain"

// Score fills the loop's component scores and composite score in
// place using the given weights.
//
//	D = 1.0 if the two representative edges move different flow types, else 0.7
//	B = 0.5 + 0.5*min(amt)/max(amt); 0.5 when either amount is undetermined
//	C = (conf(AB) + conf(BA)) / 10
func Score(l *domain.Loop, w domain.LoopWeights) {
	if l.EdgeAB.FlowType != l.EdgeBA.FlowType {
		l.FlowDiversity = 1.0
	} else {
		l.FlowDiversity = 0.7
	}

	l.BalanceRatio = 0
	l.Balance = 0.5
	if l.EdgeAB.HasAmount && l.EdgeBA.HasAmount {
		lo, hi := l.EdgeAB.AmountUSD, l.EdgeBA.AmountUSD
		if lo > hi {
			lo, hi = hi, lo
		}
		if hi > 0 {
			l.BalanceRatio = lo / hi
			l.Balance = 0.5 + 0.5*l.BalanceRatio
		}
	}

	l.Confidence = (edgeConfidence(l.EdgeAB) + edgeConfidence(l.EdgeBA)) / 10

	l.Score = w.Diversity*l.FlowDiversity + w.Balance*l.Balance + w.Confidence*l.Confidence
}

// edgeConfidence returns the edge's mean confidence, defaulting to 3
// when the aggregate carries no usable score.
func edgeConfidence(e *domain.Edge) float64 {
	if e.Confidence < 1 || e.Confidence > 5 {
		return domain.DefaultConfidence
	}
	return e.Confidence
}

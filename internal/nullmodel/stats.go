package nullmodel

import (
	"math"

	"circularity-lab/internal/domain"
)

// distribution computes summary statistics over trial values.
// StdDev is the sample standard deviation (n-1 denominator).
func distribution(values []float64) domain.DistributionStats {
	n := len(values)
	if n == 0 {
		return domain.DistributionStats{}
	}

	sum := 0.0
	min := values[0]
	max := values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(n)

	stddev := 0.0
	if n >= 2 {
		sumSq := 0.0
		for _, v := range values {
			d := v - mean
			sumSq += d * d
		}
		stddev = math.Sqrt(sumSq / float64(n-1))
	}

	return domain.DistributionStats{Mean: mean, StdDev: stddev, Min: min, Max: max}
}

// normalCDF is Φ(x) for the standard normal distribution.
func normalCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// twoTailedP is 2·(1 − Φ(|z|)).
func twoTailedP(z float64) float64 {
	p := 2 * (1 - normalCDF(math.Abs(z)))
	if p > 1 {
		p = 1
	}
	return p
}

// empiricalP estimates a two-tailed p-value from the trial values:
// the share of trials at least as extreme as the observation on its
// side of the mean, doubled and clamped to 1.
func empiricalP(values []float64, observed, mean float64) float64 {
	if len(values) == 0 {
		return 1
	}
	extreme := 0
	if observed >= mean {
		for _, v := range values {
			if v >= observed {
				extreme++
			}
		}
	} else {
		for _, v := range values {
			if v <= observed {
				extreme++
			}
		}
	}
	p := 2 * float64(extreme) / float64(len(values))
	if p > 1 {
		p = 1
	}
	return p
}

package sensitivity

import "math"

// KendallTau computes the Kendall τ-b rank correlation between two
// paired score slices. Ties are handled with the τ-b denominator.
// Fewer than two pairs (or all-tied inputs) have no meaningful
// ordering; those degenerate cases return 1, i.e. "nothing moved".
func KendallTau(x, y []float64) float64 {
	n := len(x)
	if n != len(y) || n < 2 {
		return 1
	}

	concordant, discordant := 0, 0
	tiesX, tiesY := 0, 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := x[i] - x[j]
			dy := y[i] - y[j]
			switch {
			case dx == 0 && dy == 0:
				tiesX++
				tiesY++
			case dx == 0:
				tiesX++
			case dy == 0:
				tiesY++
			case dx*dy > 0:
				concordant++
			default:
				discordant++
			}
		}
	}

	pairs := n * (n - 1) / 2
	denom := math.Sqrt(float64(pairs-tiesX)) * math.Sqrt(float64(pairs-tiesY))
	if denom == 0 {
		return 1
	}
	return float64(concordant-discordant) / denom
}

package domain

// Cycle is a detected directed circular flow over 3 to 5 pairwise
// distinct companies. The company sequence is stored in canonical
// rotation: it starts at the lexicographically smallest slug, so the
// same geometric cycle found from any start node collapses to one
// record. Two-party structures are Loops, never Cycles.
type Cycle struct {
	ID string // deterministic hash of the canonical slug sequence

	CompanyIDs []string // canonical rotation, len in [3,5]
	Slugs      []string // parallel to CompanyIDs
	Edges      []*Edge  // Edges[i] goes CompanyIDs[i] -> CompanyIDs[(i+1)%n]

	TotalValueUSD float64 // sum of determined edge amounts
	DealCount     int     // distinct deals across all edges
	Length        int     // number of companies

	// Score components, each in [0,1].
	FlowComplement float64 // F
	Balance        float64 // B
	Magnitude      float64 // M
	Confidence     float64 // C
	LengthPenalty  float64 // L = 1/sqrt(n-1)

	Score float64 // 0.30*F + 0.25*B + 0.10*M + 0.20*C + 0.15*L
}

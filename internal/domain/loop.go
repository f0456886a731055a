package domain

// Loop is a detected two-party circular flow: at least one edge A→B
// and at least one edge B→A. Exactly one Loop exists per unordered
// company pair. Computed fresh on every derivation, never persisted.
type Loop struct {
	ID string // deterministic hash of the unordered pair

	CompanyA string // company ID, slug-lexicographically first
	CompanyB string

	// Representative edges: the aggregate edge with the largest
	// determined amount in each direction.
	EdgeAB *Edge
	EdgeBA *Edge

	// BalanceRatio = min(amtAB, amtBA) / max(amtAB, amtBA) over the
	// representative edges; 0 when either side is undetermined.
	BalanceRatio float64

	// Score components, each in [0,1].
	FlowDiversity float64 // D: 1.0 if flow types differ, else 0.7
	Balance       float64 // B: 0.5 + 0.5*ratio, 0.5 when undetermined
	Confidence    float64 // C: (conf(AB)+conf(BA))/10

	Score float64 // 0.35*D + 0.35*B + 0.30*C
}

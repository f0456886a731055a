package domain

// Edge is a derived directed aggregate of all deals that move value
// from one company to another with the same deal and flow type.
// Edges are never persisted; they are rebuilt on every derivation.
type Edge struct {
	From     string // company ID, always != To
	To       string // company ID
	DealType DealType
	FlowType FlowType

	DealIDs []string // contributing deals, first-seen order

	// AmountUSD is the sum over contributing deals with a determinable
	// amount. Undetermined counts how many contributing deals carried
	// no usable amount (they add 0 to the sum).
	AmountUSD    float64
	HasAmount    bool
	Undetermined int

	// Confidence is the arithmetic mean of contributing deals'
	// source confidence scores (1-5 scale).
	Confidence float64
}

// Key identifies the aggregation bucket for an edge.
func (e *Edge) Key() string {
	return e.From + "|" + e.To + "|" + string(e.DealType) + "|" + string(e.FlowType)
}

// PairKey identifies the ordered (from, to) company pair.
func (e *Edge) PairKey() string {
	return e.From + "|" + e.To
}

// Graph is the derived multigraph over companies.
type Graph struct {
	Nodes []*Company // companies referenced by at least one edge
	Edges []*Edge    // stable first-seen order

	DealsByID map[string]*Deal // drill-down lookup for contributing deals

	// DataErrors lists deals skipped during the build, with reasons.
	// A bad row never aborts the derivation.
	DataErrors []string

	SlugByID map[string]string // company ID -> slug, for canonical ordering
}

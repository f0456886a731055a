package domain

// HubScore aggregates a company's participation across all detected
// loops and cycles into a centrality score.
type HubScore struct {
	CompanyID string
	Slug      string
	Name      string

	Score          float64 // sum of participating structure scores
	StructureCount int     // loops + cycles containing the company
	MeanScore      float64 // Score / StructureCount, 0 when no structures
	Normalized     float64 // Score / max(Score) in the batch, 0 when max is 0

	// TotalCirculationUSD sums determined amounts over the unique
	// edges of every structure the company participates in; an edge
	// shared by several structures counts once per company.
	TotalCirculationUSD float64
}

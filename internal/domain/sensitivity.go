package domain

// LoopWeights are the Loop Score component weights.
type LoopWeights struct {
	Diversity  float64 `yaml:"diversity"`
	Balance    float64 `yaml:"balance"`
	Confidence float64 `yaml:"confidence"`
}

// CycleWeights are the Cycle Score component weights.
type CycleWeights struct {
	Flow       float64 `yaml:"flow"`
	Balance    float64 `yaml:"balance"`
	Magnitude  float64 `yaml:"magnitude"`
	Confidence float64 `yaml:"confidence"`
	Length     float64 `yaml:"length"`
}

// WeightScheme is a named set of scoring weights.
type WeightScheme struct {
	Name  string       `yaml:"name"`
	Loop  LoopWeights  `yaml:"loop"`
	Cycle CycleWeights `yaml:"cycle"`
}

// BaselineScheme carries the default weights used everywhere outside
// sensitivity analysis.
var BaselineScheme = WeightScheme{
	Name:  "baseline",
	Loop:  LoopWeights{Diversity: 0.35, Balance: 0.35, Confidence: 0.30},
	Cycle: CycleWeights{Flow: 0.30, Balance: 0.25, Magnitude: 0.10, Confidence: 0.20, Length: 0.15},
}

// SchemeResult is the outcome of re-scoring under one alternative scheme.
type SchemeResult struct {
	Scheme WeightScheme

	TopLoopID    string
	TopHubID     string
	LoopKendall  float64 // Kendall's tau vs baseline loop ranking
	CycleKendall float64 // Kendall's tau vs baseline cycle ranking
}

// SensitivityResult reports ranking stability across weight schemes.
type SensitivityResult struct {
	Baseline SchemeResult
	Schemes  []SchemeResult

	// Consistent is true when every scheme agrees with the baseline
	// on the #1 loop and the #1 hub.
	TopLoopConsistent bool
	TopHubConsistent  bool
}

package sensitivity

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"circularity-lab/internal/domain"
)

// DefaultAlternatives are the built-in alternative weighting schemes
// compared against the baseline when no scheme file is supplied.
func DefaultAlternatives() []domain.WeightScheme {
	return []domain.WeightScheme{
		{
			Name:  "flow-heavy",
			Loop:  domain.LoopWeights{Diversity: 0.60, Balance: 0.20, Confidence: 0.20},
			Cycle: domain.CycleWeights{Flow: 0.50, Balance: 0.15, Magnitude: 0.05, Confidence: 0.15, Length: 0.15},
		},
		{
			Name:  "balance-heavy",
			Loop:  domain.LoopWeights{Diversity: 0.20, Balance: 0.60, Confidence: 0.20},
			Cycle: domain.CycleWeights{Flow: 0.15, Balance: 0.50, Magnitude: 0.10, Confidence: 0.15, Length: 0.10},
		},
		{
			Name:  "confidence-heavy",
			Loop:  domain.LoopWeights{Diversity: 0.20, Balance: 0.20, Confidence: 0.60},
			Cycle: domain.CycleWeights{Flow: 0.15, Balance: 0.15, Magnitude: 0.05, Confidence: 0.50, Length: 0.15},
		},
	}
}

// schemeFile is the YAML document shape for scheme files.
type schemeFile struct {
	Schemes []domain.WeightScheme `yaml:"schemes"`
}

// LoadSchemes reads alternative weight schemes from a YAML file.
// Every scheme needs a name and at least one positive loop weight and
// one positive cycle weight; weights are normalized at scoring time,
// so they do not have to sum to 1 in the file.
func LoadSchemes(path string) ([]domain.WeightScheme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scheme file: %w", err)
	}

	var f schemeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scheme file: %w", err)
	}
	if len(f.Schemes) == 0 {
		return nil, fmt.Errorf("scheme file %s declares no schemes", path)
	}

	for i, s := range f.Schemes {
		if s.Name == "" {
			return nil, fmt.Errorf("scheme %d has no name", i)
		}
		if s.Loop.Diversity+s.Loop.Balance+s.Loop.Confidence <= 0 {
			return nil, fmt.Errorf("scheme %q has no positive loop weights", s.Name)
		}
		if s.Cycle.Flow+s.Cycle.Balance+s.Cycle.Magnitude+s.Cycle.Confidence+s.Cycle.Length <= 0 {
			return nil, fmt.Errorf("scheme %q has no positive cycle weights", s.Name)
		}
	}
	return f.Schemes, nil
}

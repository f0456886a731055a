// Package report renders analysis results as Markdown.
package report

import (
	"fmt"
	"strings"

	"circularity-lab/internal/domain"
)

// RenderMarkdown renders a full circularity report as a Markdown string.
// The null-model and sensitivity sections are omitted when nil.
func RenderMarkdown(g *domain.Graph, loops []*domain.Loop, cycles []*domain.Cycle, hubs []*domain.HubScore, null *domain.NullModelComparison, sens *domain.SensitivityResult) string {
	var sb strings.Builder

	sb.WriteString("# Deal Graph Circularity Report\n\n")

	// Graph overview
	sb.WriteString("## Graph\n\n")
	sb.WriteString(fmt.Sprintf("- Companies: %d\n", len(g.Nodes)))
	sb.WriteString(fmt.Sprintf("- Aggregated edges: %d\n", len(g.Edges)))
	sb.WriteString(fmt.Sprintf("- Data errors: %d\n\n", len(g.DataErrors)))
	if len(g.DataErrors) > 0 {
		for _, e := range g.DataErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", e))
		}
		sb.WriteString("\n")
	}

	// Loops table
	sb.WriteString("## Reciprocal Loops\n\n")
	if len(loops) == 0 {
		sb.WriteString("No reciprocal loops detected.\n\n")
	} else {
		sb.WriteString("| # | Pair | Score | Diversity | Balance | Confidence |\n")
		sb.WriteString("|---|------|-------|-----------|---------|------------|\n")
		for i, l := range loops {
			sb.WriteString(fmt.Sprintf("| %d | %s ↔ %s | %.4f | %.2f | %.2f | %.2f |\n",
				i+1, g.SlugByID[l.CompanyA], g.SlugByID[l.CompanyB],
				l.Score, l.FlowDiversity, l.Balance, l.Confidence))
		}
		sb.WriteString("\n")
	}

	// Cycles table
	sb.WriteString("## Multi-Party Cycles\n\n")
	if len(cycles) == 0 {
		sb.WriteString("No cycles detected.\n\n")
	} else {
		sb.WriteString("| # | Path | Len | Score | Total Value | Flow | Balance | Magnitude |\n")
		sb.WriteString("|---|------|-----|-------|-------------|------|---------|----------|\n")
		for i, c := range cycles {
			sb.WriteString(fmt.Sprintf("| %d | %s | %d | %.4f | %s | %.2f | %.2f | %.2f |\n",
				i+1, strings.Join(c.Slugs, " → "), c.Length, c.Score,
				formatUSD(c.TotalValueUSD), c.FlowComplement, c.Balance, c.Magnitude))
		}
		sb.WriteString("\n")
	}

	// Hubs table
	sb.WriteString("## Hub Companies\n\n")
	if len(hubs) == 0 {
		sb.WriteString("No hub scores computed.\n\n")
	} else {
		sb.WriteString("| # | Company | Score | Structures | Mean | Normalized | Circulation |\n")
		sb.WriteString("|---|---------|-------|------------|------|------------|-------------|\n")
		for i, h := range hubs {
			sb.WriteString(fmt.Sprintf("| %d | %s | %.4f | %d | %.4f | %.2f | %s |\n",
				i+1, h.Slug, h.Score, h.StructureCount, h.MeanScore, h.Normalized,
				formatUSD(h.TotalCirculationUSD)))
		}
		sb.WriteString("\n")
	}

	if null != nil {
		renderNullModel(&sb, null)
	}
	if sens != nil {
		renderSensitivity(&sb, sens)
	}

	return sb.String()
}

func renderNullModel(sb *strings.Builder, null *domain.NullModelComparison) {
	sb.WriteString("## Null Model\n\n")
	sb.WriteString(fmt.Sprintf("- Trials: %d/%d (seed %d)\n", null.CompletedTrials, null.Iterations, null.Seed))
	if null.Warning != "" {
		sb.WriteString(fmt.Sprintf("- Warning: %s\n", null.Warning))
	}
	sb.WriteString("\n")

	sb.WriteString("| Metric | Observed | Null Mean | Null Stddev | Z | p | Significant |\n")
	sb.WriteString("|--------|----------|-----------|-------------|---|---|-------------|\n")
	for _, c := range null.Comparisons {
		z, p := "n/a", "n/a"
		if c.ZScore != nil {
			z = fmt.Sprintf("%.2f", *c.ZScore)
		}
		if c.EmpiricalP != nil {
			p = fmt.Sprintf("%.4f", *c.EmpiricalP)
		} else if c.PValue != nil {
			p = fmt.Sprintf("%.4f", *c.PValue)
		}
		sig := "no"
		if c.Significant {
			sig = "yes"
		}
		sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.2f | %s | %s | %s |\n",
			c.Metric, c.Observed, c.Null.Mean, c.Null.StdDev, z, p, sig))
	}
	sb.WriteString("\n")
}

func renderSensitivity(sb *strings.Builder, sens *domain.SensitivityResult) {
	sb.WriteString("## Weight Sensitivity\n\n")

	stability := "stable"
	if !sens.TopLoopConsistent || !sens.TopHubConsistent {
		stability = "unstable"
	}
	sb.WriteString(fmt.Sprintf("Top-rank stability across schemes: %s\n\n", stability))

	sb.WriteString("| Scheme | Top Loop | Top Hub | Loop τ | Cycle τ |\n")
	sb.WriteString("|--------|----------|---------|--------|--------|\n")
	sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.3f | %.3f |\n",
		sens.Baseline.Scheme.Name, shortID(sens.Baseline.TopLoopID), sens.Baseline.TopHubID, 1.0, 1.0))
	for _, s := range sens.Schemes {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.3f | %.3f |\n",
			s.Scheme.Name, shortID(s.TopLoopID), s.TopHubID, s.LoopKendall, s.CycleKendall))
	}
	sb.WriteString("\n")
}

func formatUSD(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("$%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.1fM", v/1e6)
	case v > 0:
		return fmt.Sprintf("$%.0f", v)
	}
	return "-"
}

func shortID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

package insight

import (
	"fmt"

	"github.com/claudeview/claudeview-go/internal/metrics"
)

// calculateWorkflowPatterns contributes W01: average tool density
// (tool calls per model turn, i.e. per API call).
func calculateWorkflowPatterns(sessions []SessionFacts, timeRangeDays int) []GeneratedInsight {
	var out []GeneratedInsight
	if ins := w01ToolDensity(sessions, timeRangeDays); ins != nil {
		out = append(out, *ins)
	}
	return out
}

func w01ToolDensity(sessions []SessionFacts, timeRangeDays int) *GeneratedInsight {
	const threshold = 30

	var densities []float64
	for _, s := range sessions {
		if d, ok := metrics.ToolDensity(s.ToolCalls, s.APICalls); ok {
			densities = append(densities, d)
		}
	}
	if len(densities) < threshold {
		return nil
	}
	avgDensity, ok := mean(densities)
	if !ok {
		return nil
	}

	vars := map[string]string{
		"sample_size": fmt.Sprintf("%d", len(densities)),
		"avg_density": fmt.Sprintf("%.1f", avgDensity),
	}
	comparison := map[string]float64{"avg_density": avgDensity}
	return generateInsight("W01", "Workflow Patterns", vars, len(densities), threshold, timeRangeDays, 0.1, Informational, comparison)
}

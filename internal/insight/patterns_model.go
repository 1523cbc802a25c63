package insight

import (
	"fmt"

	"github.com/claudeview/claudeview-go/internal/metrics"
)

// calculateModelPatterns contributes M01: compares re-edit rate across
// the distinct models used in the session set.
func calculateModelPatterns(sessions []SessionFacts, timeRangeDays int) []GeneratedInsight {
	var out []GeneratedInsight
	if ins := m01ModelReeditComparison(sessions, timeRangeDays); ins != nil {
		out = append(out, *ins)
	}
	return out
}

func m01ModelReeditComparison(sessions []SessionFacts, timeRangeDays int) *GeneratedInsight {
	const threshold = 30

	editing := filterEditing(sessions)
	if len(editing) < threshold {
		return nil
	}

	byModel := map[string][]float64{}
	for _, s := range editing {
		if s.Model == "" {
			continue
		}
		if rate, ok := metrics.ReeditRate(s.ReeditedFiles, s.FilesEditedCount); ok {
			byModel[s.Model] = append(byModel[s.Model], rate)
		}
	}

	buckets := bucketsFrom(byModel)
	if qualifyingBucketCount(buckets) < MinBuckets {
		return nil
	}
	best := bestBucket(buckets)
	worst := worstBucket(buckets)
	if best == nil || worst == nil || best.Label == worst.Label {
		return nil
	}
	improvement := relativeImprovement(best.Value, worst.Value) * 100

	vars := map[string]string{
		"best_model":            best.Label,
		"worst_model":           worst.Label,
		"relative_improvement":  fmt.Sprintf("%.0f", improvement),
	}
	comparison := map[string]float64{"best": best.Value, "worst": worst.Value}
	return generateInsight("M01", "Model Patterns", vars, len(editing), threshold, timeRangeDays, improvement/100, Informational, comparison)
}

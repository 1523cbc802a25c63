package insight

import "fmt"

// calculateBehavioralPatterns computes the behavioral family. Only B01
// survives from the original: B03 (commit_count==0 as an "abandonment"
// signal) was removed there because ~90% of sessions have zero commits,
// making it a meaningless metric — that removal is preserved here.
func calculateBehavioralPatterns(sessions []SessionFacts, timeRangeDays int) []GeneratedInsight {
	var out []GeneratedInsight
	if ins := b01RetryPatterns(sessions, timeRangeDays); ins != nil {
		out = append(out, *ins)
	}
	return out
}

func b01RetryPatterns(sessions []SessionFacts, timeRangeDays int) *GeneratedInsight {
	const threshold = 50

	var edited []SessionFacts
	for _, s := range sessions {
		if s.FilesEditedCount > 0 {
			edited = append(edited, s)
		}
	}
	if len(edited) < threshold {
		return nil
	}

	var reeditCounts []float64
	for _, s := range edited {
		if s.ReeditedFiles > 0 {
			reeditCounts = append(reeditCounts, float64(s.ReeditedFiles))
		}
	}
	if len(reeditCounts) == 0 {
		return nil
	}

	avgReedits, _ := mean(reeditCounts)
	pctWithReedits := float64(len(reeditCounts)) / float64(len(edited)) * 100

	vars := map[string]string{
		"sample_size":      fmt.Sprintf("%d", len(edited)),
		"pct_with_reedits": fmt.Sprintf("%.0f", pctWithReedits),
		"avg_reedits":      fmt.Sprintf("%.1f", avgReedits),
	}
	comparison := map[string]float64{
		"pct_with_reedits": pctWithReedits,
		"avg_reedits":      avgReedits,
	}
	return generateInsight("B01", "Behavioral Patterns", vars, len(edited), threshold, timeRangeDays, 0.15, Moderate, comparison)
}

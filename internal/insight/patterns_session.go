package insight

import "fmt"

// calculateSessionPatterns contributes S01: a simple session-length
// summary, gated like every other family rather than always shown.
func calculateSessionPatterns(sessions []SessionFacts, timeRangeDays int) []GeneratedInsight {
	var out []GeneratedInsight
	if ins := s01SessionLength(sessions, timeRangeDays); ins != nil {
		out = append(out, *ins)
	}
	return out
}

func s01SessionLength(sessions []SessionFacts, timeRangeDays int) *GeneratedInsight {
	const threshold = 30
	if len(sessions) < threshold {
		return nil
	}

	var durations []float64
	for _, s := range sessions {
		if s.DurationSeconds > 0 {
			durations = append(durations, float64(s.DurationSeconds))
		}
	}
	avgSecs, ok := mean(durations)
	if !ok {
		return nil
	}
	avgMinutes := avgSecs / 60

	vars := map[string]string{
		"sample_size": fmt.Sprintf("%d", len(sessions)),
		"avg_minutes": fmt.Sprintf("%.0f", avgMinutes),
	}
	comparison := map[string]float64{"avg_minutes": avgMinutes}
	return generateInsight("S01", "Session Patterns", vars, len(sessions), threshold, timeRangeDays, 0.1, Informational, comparison)
}

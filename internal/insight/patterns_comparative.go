package insight

import (
	"fmt"

	"github.com/claudeview/claudeview-go/internal/metrics"
)

const secondsPerDay = 24 * 60 * 60

func calculateComparativePatterns(sessions []SessionFacts, timeRangeDays int) []GeneratedInsight {
	var out []GeneratedInsight
	if ins := cp01YouVsBaseline(sessions, timeRangeDays); ins != nil {
		out = append(out, *ins)
	}
	return out
}

func cp01YouVsBaseline(sessions []SessionFacts, timeRangeDays int) *GeneratedInsight {
	const totalThreshold = 30
	const editingThreshold = 20
	if len(sessions) < totalThreshold {
		return nil
	}

	var editing []SessionFacts
	var maxTS int64
	for _, s := range sessions {
		if s.FilesEditedCount > 0 && s.DurationSeconds > 0 {
			editing = append(editing, s)
		}
		if s.Timestamp > maxTS {
			maxTS = s.Timestamp
		}
	}
	if len(editing) < editingThreshold {
		return nil
	}

	cutoff := maxTS - 7*secondsPerDay
	var recent, earlier []SessionFacts
	for _, s := range editing {
		if s.Timestamp >= cutoff {
			recent = append(recent, s)
		} else {
			earlier = append(earlier, s)
		}
	}
	if len(recent) < 5 || len(earlier) < 10 {
		return nil
	}

	recentAvg, ok1 := meanReeditRate(recent)
	earlierAvg, ok2 := meanReeditRate(earlier)
	if !ok1 || !ok2 {
		return nil
	}

	improvement := relativeImprovement(recentAvg, earlierAvg) * 100
	direction := "lower"
	if improvement < 0 {
		direction = "higher"
	}

	vars := map[string]string{
		"improvement": fmt.Sprintf("%.0f", absFloat(improvement)),
		"direction":   direction,
	}
	comparison := map[string]float64{"recent_avg": recentAvg, "earlier_avg": earlierAvg}
	return generateInsight("CP01", "Comparative Patterns", vars, len(sessions), totalThreshold, timeRangeDays, absFloat(improvement)/100, Informational, comparison)
}

func meanReeditRate(sessions []SessionFacts) (float64, bool) {
	var rates []float64
	for _, s := range sessions {
		if rate, ok := metrics.ReeditRate(s.ReeditedFiles, s.FilesEditedCount); ok {
			rates = append(rates, rate)
		}
	}
	return mean(rates)
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

package insight

import (
	"fmt"
	"time"

	"github.com/claudeview/claudeview-go/internal/metrics"
)

// calculateTemporalPatterns contributes T01: which day of week carries
// the lowest re-edit rate.
func calculateTemporalPatterns(sessions []SessionFacts, timeRangeDays int) []GeneratedInsight {
	var out []GeneratedInsight
	if ins := t01MostProductiveDay(sessions, timeRangeDays); ins != nil {
		out = append(out, *ins)
	}
	return out
}

func t01MostProductiveDay(sessions []SessionFacts, timeRangeDays int) *GeneratedInsight {
	const threshold = 30

	editing := filterEditing(sessions)
	if len(editing) < threshold {
		return nil
	}

	byDay := map[string][]float64{}
	var allRates []float64
	for _, s := range editing {
		rate, ok := metrics.ReeditRate(s.ReeditedFiles, s.FilesEditedCount)
		if !ok || s.Timestamp == 0 {
			continue
		}
		day := time.Unix(s.Timestamp, 0).UTC().Weekday().String()
		byDay[day] = append(byDay[day], rate)
		allRates = append(allRates, rate)
	}

	buckets := bucketsFrom(byDay)
	if qualifyingBucketCount(buckets) < MinBuckets {
		return nil
	}
	overallAvg, ok := mean(allRates)
	if !ok || overallAvg == 0 {
		return nil
	}
	best := bestBucket(buckets)
	if best == nil {
		return nil
	}
	multiplier := best.Value / overallAvg

	vars := map[string]string{
		"best_day":   best.Label,
		"multiplier": fmt.Sprintf("%.2f", multiplier),
	}
	comparison := map[string]float64{"best_day_rate": best.Value, "overall_avg": overallAvg}
	return generateInsight("T01", "Temporal Patterns", vars, len(editing), threshold, timeRangeDays, 1-multiplier, Informational, comparison)
}

package insight

import (
	"fmt"

	"github.com/claudeview/claudeview-go/internal/metrics"
)

func calculateCodebasePatterns(sessions []SessionFacts, timeRangeDays int) []GeneratedInsight {
	var out []GeneratedInsight
	if ins := c03ProjectComplexity(sessions, timeRangeDays); ins != nil {
		out = append(out, *ins)
	}
	if ins := c04NewVsExisting(sessions, timeRangeDays); ins != nil {
		out = append(out, *ins)
	}
	return out
}

func c03ProjectComplexity(sessions []SessionFacts, timeRangeDays int) *GeneratedInsight {
	const threshold = 20

	editing := filterEditing(sessions)
	if len(editing) < threshold {
		return nil
	}

	byProject := map[string][]float64{}
	for _, s := range editing {
		rate, ok := metrics.ReeditRate(s.ReeditedFiles, s.FilesEditedCount)
		if !ok {
			continue
		}
		byProject[s.ProjectID] = append(byProject[s.ProjectID], rate)
	}

	var buckets []Bucket
	var allRates []float64
	for project, rates := range byProject {
		avg, ok := mean(rates)
		if !ok {
			continue
		}
		buckets = append(buckets, Bucket{Label: project, Count: len(rates), Value: avg})
		allRates = append(allRates, rates...)
	}
	if qualifyingBucketCount(buckets) < MinBuckets {
		return nil
	}

	overallAvg, ok := mean(allRates)
	if !ok || overallAvg == 0 {
		// Open question (spec.md §9): guard the divide-by-zero case by
		// simply not emitting a pattern, matching the original's
		// Option-returning behavior rather than inventing a ratio.
		return nil
	}

	worst := worstBucket(buckets)
	if worst == nil {
		return nil
	}
	multiplier := worst.Value / overallAvg

	vars := map[string]string{
		"multiplier":    fmt.Sprintf("%.1f", multiplier),
		"worst_project": worst.Label,
		"overall_avg":   fmt.Sprintf("%.2f", overallAvg),
	}
	comparison := map[string]float64{
		"multiplier":  multiplier,
		"overall_avg": overallAvg,
	}
	return generateInsight("C03", "Codebase Patterns", vars, len(editing), threshold, timeRangeDays, multiplier-1, Informational, comparison)
}

func c04NewVsExisting(sessions []SessionFacts, timeRangeDays int) *GeneratedInsight {
	const threshold = 50

	editing := filterEditing(sessions)
	if len(editing) < threshold {
		return nil
	}

	var mostlyNew, mixed, mostlyModify []float64
	for _, s := range editing {
		rate, ok := metrics.ReeditRate(s.ReeditedFiles, s.FilesEditedCount)
		if !ok {
			continue
		}
		switch classifyNewVsExisting(s) {
		case "mostly_new":
			mostlyNew = append(mostlyNew, rate)
		case "mostly_modify":
			mostlyModify = append(mostlyModify, rate)
		default:
			mixed = append(mixed, rate)
		}
	}

	buckets := bucketsFrom(map[string][]float64{
		"mostly_new":    mostlyNew,
		"mixed":         mixed,
		"mostly_modify": mostlyModify,
	})
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
		"relative_improvement": fmt.Sprintf("%.0f", improvement),
		"best_group":           best.Label,
		"worst_group":          worst.Label,
	}
	comparison := map[string]float64{"best": best.Value, "worst": worst.Value}
	return generateInsight("C04", "Codebase Patterns", vars, len(editing), threshold, timeRangeDays, improvement/100, Informational, comparison)
}

func classifyNewVsExisting(s SessionFacts) string {
	switch {
	case s.WriteToolCalls > s.EditToolCalls*2:
		return "mostly_new"
	case s.EditToolCalls > s.WriteToolCalls*2:
		return "mostly_modify"
	default:
		return "mixed"
	}
}

func filterEditing(sessions []SessionFacts) []SessionFacts {
	var out []SessionFacts
	for _, s := range sessions {
		if s.FilesEditedCount > 0 {
			out = append(out, s)
		}
	}
	return out
}

func bucketsFrom(byLabel map[string][]float64) []Bucket {
	var buckets []Bucket
	for label, values := range byLabel {
		avg, ok := mean(values)
		if !ok {
			continue
		}
		buckets = append(buckets, Bucket{Label: label, Count: len(values), Value: avg})
	}
	return buckets
}

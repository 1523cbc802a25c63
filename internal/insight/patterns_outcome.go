package insight

import "fmt"

func calculateOutcomePatterns(sessions []SessionFacts, timeRangeDays int) []GeneratedInsight {
	var out []GeneratedInsight
	if ins := o01CommitRate(sessions, timeRangeDays); ins != nil {
		out = append(out, *ins)
	}
	if ins := o02SessionOutcomes(sessions, timeRangeDays); ins != nil {
		out = append(out, *ins)
	}
	return out
}

func o01CommitRate(sessions []SessionFacts, timeRangeDays int) *GeneratedInsight {
	const threshold = 50
	if len(sessions) < threshold {
		return nil
	}

	withCommits := 0
	for _, s := range sessions {
		if s.HasCommit {
			withCommits++
		}
	}
	commitPct := float64(withCommits) / float64(len(sessions)) * 100

	vars := map[string]string{
		"sample_size": fmt.Sprintf("%d", len(sessions)),
		"commit_pct":  fmt.Sprintf("%.0f", commitPct),
	}
	comparison := map[string]float64{"commit_pct": commitPct}
	return generateInsight("O01", "Outcome Patterns", vars, len(sessions), threshold, timeRangeDays, 0.1, Informational, comparison)
}

// Session-outcome classification thresholds, ported verbatim from
// outcome.rs: a deep-work session runs at least 15 minutes and edits at
// least one file; a quick task finishes in under 5 minutes; exploration
// reads without editing; everything else is minimal activity.
const (
	deepWorkMinDurationSecs  = 900
	quickTaskMaxDurationSecs = 300
)

func o02SessionOutcomes(sessions []SessionFacts, timeRangeDays int) *GeneratedInsight {
	const threshold = 100
	if len(sessions) < threshold {
		return nil
	}

	var deepWork, quickTask, exploration, minimal int
	for _, s := range sessions {
		switch classifyOutcome(s) {
		case "deep_work":
			deepWork++
		case "quick_task":
			quickTask++
		case "exploration":
			exploration++
		default:
			minimal++
		}
	}

	total := float64(len(sessions))
	vars := map[string]string{
		"sample_size":    fmt.Sprintf("%d", len(sessions)),
		"deep_work_pct":  fmt.Sprintf("%.0f", float64(deepWork)/total*100),
		"quick_task_pct": fmt.Sprintf("%.0f", float64(quickTask)/total*100),
		"exploration_pct": fmt.Sprintf("%.0f", float64(exploration)/total*100),
		"minimal_pct":    fmt.Sprintf("%.0f", float64(minimal)/total*100),
	}
	comparison := map[string]float64{
		"deep_work_pct":   float64(deepWork) / total * 100,
		"quick_task_pct":  float64(quickTask) / total * 100,
		"exploration_pct": float64(exploration) / total * 100,
		"minimal_pct":     float64(minimal) / total * 100,
	}
	return generateInsight("O02", "Outcome Patterns", vars, len(sessions), threshold, timeRangeDays, 0.1, Informational, comparison)
}

func classifyOutcome(s SessionFacts) string {
	switch {
	case s.DurationSeconds >= deepWorkMinDurationSecs && s.FilesEditedCount > 0:
		return "deep_work"
	case s.DurationSeconds < quickTaskMaxDurationSecs:
		return "quick_task"
	case s.FilesReadCount > 0 && s.FilesEditedCount == 0:
		return "exploration"
	default:
		return "minimal"
	}
}

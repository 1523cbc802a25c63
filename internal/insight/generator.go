package insight

import "strings"

// InsightEvidence carries the supporting data behind a GeneratedInsight,
// surfaced to callers who want to show their work.
type InsightEvidence struct {
	SampleSize       int
	TimeRangeDays    int
	ComparisonValues map[string]float64
}

// GeneratedInsight is a fully rendered, scored insight ready to display.
type GeneratedInsight struct {
	PatternID      string
	Category       string
	Title          string
	Body           string
	Recommendation *string
	ImpactScore    float64
	ImpactTier     string
	Evidence       InsightEvidence
}

// template is one entry in the registry: title/body/recommendation text
// with `{var}` placeholders resolved against the vars map passed to
// generateInsight.
type template struct {
	Title          string
	Body           string
	Recommendation string // empty means no recommendation
}

// templates is the pattern-id -> template registry. A pattern family with
// no entry here produces no insight, matching generate_insight's
// None-on-missing-template behavior.
var templates = map[string]template{
	"B01": {
		Title:          "Re-edit patterns",
		Body:           "Across {sample_size} sessions with edits, {pct_with_reedits}% required re-editing a file at least once, averaging {avg_reedits} re-edits per affected session.",
		Recommendation: "Consider reviewing the first edit more carefully before moving on, or breaking large edits into smaller verified steps.",
	},
	"C03": {
		Title:          "Project complexity and re-edit rate",
		Body:           "Your most re-edit-heavy project requires {multiplier}x the re-edits of your average project ({worst_project} vs. overall average of {overall_avg}).",
		Recommendation: "",
	},
	"C04": {
		Title:          "New code vs. existing code",
		Body:           "Sessions in the {best_group} group show a {relative_improvement}% lower re-edit rate than sessions in the {worst_group} group.",
		Recommendation: "",
	},
	"O01": {
		Title:          "Commit rate",
		Body:           "{commit_pct}% of your {sample_size} sessions ended with at least one linked commit.",
		Recommendation: "",
	},
	"O02": {
		Title:          "Session outcome mix",
		Body:           "Across {sample_size} sessions: {deep_work_pct}% deep work, {quick_task_pct}% quick tasks, {exploration_pct}% exploration, {minimal_pct}% minimal activity.",
		Recommendation: "",
	},
	"CP01": {
		Title:          "You vs. your baseline",
		Body:           "Your re-edit rate over the last 7 days is {improvement}% {direction} than your baseline from before that.",
		Recommendation: "",
	},
	"S01": {
		Title:          "Session length",
		Body:           "Your average session lasts {avg_minutes} minutes across {sample_size} sessions.",
		Recommendation: "",
	},
	"T01": {
		Title:          "Most productive day",
		Body:           "Sessions started on {best_day} average {multiplier}x your overall re-edit rate.",
		Recommendation: "",
	},
	"W01": {
		Title:          "Tool density",
		Body:           "You average {avg_density} tool calls per model turn across {sample_size} sessions.",
		Recommendation: "",
	},
	"M01": {
		Title:          "Model re-edit comparison",
		Body:           "Sessions using {best_model} show a {relative_improvement}% lower re-edit rate than sessions using {worst_model}.",
		Recommendation: "",
	},
}

// generateInsight looks up a template by patternID, renders its
// placeholders against vars, scores the pattern, and returns the
// assembled insight. Returns nil if patternID has no registered template.
func generateInsight(
	patternID, category string,
	vars map[string]string,
	sampleSize, threshold, timeRangeDays int,
	relativeDiff float64,
	actionability Actionability,
	comparison map[string]float64,
) *GeneratedInsight {
	tpl, ok := templates[patternID]
	if !ok {
		return nil
	}

	score := CalculatePatternScore(
		CalculateEffectSize(relativeDiff),
		CalculateSampleConfidence(sampleSize, threshold),
		actionability,
	)

	var rec *string
	if tpl.Recommendation != "" {
		r := render(tpl.Recommendation, vars)
		rec = &r
	}

	return &GeneratedInsight{
		PatternID:      patternID,
		Category:       category,
		Title:          tpl.Title,
		Body:           render(tpl.Body, vars),
		Recommendation: rec,
		ImpactScore:    score.Combined,
		ImpactTier:     score.Tier(),
		Evidence: InsightEvidence{
			SampleSize:       sampleSize,
			TimeRangeDays:    timeRangeDays,
			ComparisonValues: comparison,
		},
	}
}

func render(text string, vars map[string]string) string {
	out := text
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}

// SortByImpact returns insights ordered by descending impact score.
func SortByImpact(insights []GeneratedInsight) []GeneratedInsight {
	out := make([]GeneratedInsight, len(insights))
	copy(out, insights)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].ImpactScore < out[j].ImpactScore; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// GroupByTier splits insights into (high, medium, observation) buckets.
func GroupByTier(insights []GeneratedInsight) (high, medium, observation []GeneratedInsight) {
	for _, ins := range insights {
		switch ins.ImpactTier {
		case "high":
			high = append(high, ins)
		case "medium":
			medium = append(medium, ins)
		default:
			observation = append(observation, ins)
		}
	}
	return
}

package insight

// CalculateAllPatterns is the entry point for the pattern engine: it runs
// every pattern family over sessions and returns whatever insights
// cleared their minimum-sample gates, ordered by descending impact.
//
// Ported from original_source/crates/core/src/patterns/mod.rs's
// calculate_all_patterns orchestration.
func CalculateAllPatterns(sessions []SessionFacts, timeRangeDays int) []GeneratedInsight {
	var all []GeneratedInsight
	all = append(all, calculateSessionPatterns(sessions, timeRangeDays)...)
	all = append(all, calculateTemporalPatterns(sessions, timeRangeDays)...)
	all = append(all, calculateWorkflowPatterns(sessions, timeRangeDays)...)
	all = append(all, calculateModelPatterns(sessions, timeRangeDays)...)
	all = append(all, calculateCodebasePatterns(sessions, timeRangeDays)...)
	all = append(all, calculateOutcomePatterns(sessions, timeRangeDays)...)
	all = append(all, calculateBehavioralPatterns(sessions, timeRangeDays)...)
	all = append(all, calculateComparativePatterns(sessions, timeRangeDays)...)
	return SortByImpact(all)
}

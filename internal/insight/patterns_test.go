package insight

import "testing"

func makeEditingSessions(n int, project string, reeditedFiles, filesEdited uint32) []SessionFacts {
	out := make([]SessionFacts, n)
	for i := range out {
		out[i] = SessionFacts{
			SessionID:        "s",
			ProjectID:        project,
			FilesEditedCount: filesEdited,
			ReeditedFiles:    reeditedFiles,
			DurationSeconds:  600,
			Timestamp:        int64(1000 + i),
		}
	}
	return out
}

func TestB01RetryPatternsBelowThresholdReturnsNil(t *testing.T) {
	sessions := makeEditingSessions(10, "p", 1, 4)
	if ins := b01RetryPatterns(sessions, 30); ins != nil {
		t.Fatalf("expected nil below sample threshold, got %+v", ins)
	}
}

func TestB01RetryPatternsAboveThreshold(t *testing.T) {
	sessions := makeEditingSessions(60, "p", 1, 4)
	ins := b01RetryPatterns(sessions, 30)
	if ins == nil {
		t.Fatal("expected a generated insight above threshold")
	}
	if ins.PatternID != "B01" {
		t.Fatalf("got pattern id %q", ins.PatternID)
	}
	if ins.Evidence.SampleSize != 60 {
		t.Fatalf("got sample size %d, want 60", ins.Evidence.SampleSize)
	}
}

func TestC03ProjectComplexityZeroOverallAvgReturnsNil(t *testing.T) {
	// All sessions have a zero re-edit rate, so overallAvg is 0 — this is
	// the divide-by-zero guard, and it must produce no pattern rather
	// than panic or emit a nonsense ratio.
	var sessions []SessionFacts
	sessions = append(sessions, makeEditingSessions(12, "proj-a", 0, 4)...)
	sessions = append(sessions, makeEditingSessions(12, "proj-b", 0, 4)...)
	if ins := c03ProjectComplexity(sessions, 30); ins != nil {
		t.Fatalf("expected nil when overall average is zero, got %+v", ins)
	}
}

func TestC03ProjectComplexityFindsWorstProject(t *testing.T) {
	var sessions []SessionFacts
	sessions = append(sessions, makeEditingSessions(10, "calm-project", 1, 10)...) // rate 0.1
	sessions = append(sessions, makeEditingSessions(10, "messy-project", 4, 10)...) // rate 0.4
	ins := c03ProjectComplexity(sessions, 30)
	if ins == nil {
		t.Fatal("expected a generated insight")
	}
	if ins.Evidence.ComparisonValues["multiplier"] <= 1 {
		t.Fatalf("expected worst project multiplier > 1, got %+v", ins.Evidence.ComparisonValues)
	}
}

func TestO01CommitRateBelowThresholdReturnsNil(t *testing.T) {
	sessions := make([]SessionFacts, 10)
	if ins := o01CommitRate(sessions, 30); ins != nil {
		t.Fatalf("expected nil below threshold, got %+v", ins)
	}
}

func TestO01CommitRate(t *testing.T) {
	sessions := make([]SessionFacts, 60)
	for i := range sessions {
		sessions[i] = SessionFacts{HasCommit: i%2 == 0}
	}
	ins := o01CommitRate(sessions, 30)
	if ins == nil {
		t.Fatal("expected insight")
	}
	if ins.Evidence.ComparisonValues["commit_pct"] != 50 {
		t.Fatalf("got %+v", ins.Evidence.ComparisonValues)
	}
}

func TestClassifyOutcome(t *testing.T) {
	cases := []struct {
		s    SessionFacts
		want string
	}{
		{SessionFacts{DurationSeconds: 1000, FilesEditedCount: 2}, "deep_work"},
		{SessionFacts{DurationSeconds: 100}, "quick_task"},
		{SessionFacts{DurationSeconds: 600, FilesReadCount: 3}, "exploration"},
		{SessionFacts{DurationSeconds: 600}, "minimal"},
	}
	for _, c := range cases {
		if got := classifyOutcome(c.s); got != c.want {
			t.Errorf("classifyOutcome(%+v) = %q, want %q", c.s, got, c.want)
		}
	}
}

func TestCalculateAllPatternsOrdersByImpact(t *testing.T) {
	var sessions []SessionFacts
	sessions = append(sessions, makeEditingSessions(60, "p", 3, 4)...) // high reedit rate -> B01
	out := CalculateAllPatterns(sessions, 30)
	for i := 1; i < len(out); i++ {
		if out[i-1].ImpactScore < out[i].ImpactScore {
			t.Fatalf("insights not sorted by descending impact: %+v", out)
		}
	}
}

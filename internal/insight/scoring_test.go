package insight

import "testing"

func TestActionabilityScore(t *testing.T) {
	cases := map[Actionability]float64{
		Immediate:     1.0,
		Moderate:      0.7,
		Awareness:     0.4,
		Informational: 0.2,
	}
	for a, want := range cases {
		if got := a.Score(); got != want {
			t.Errorf("Actionability(%d).Score() = %v, want %v", a, got, want)
		}
	}
}

func TestCalculatePatternScoreTiers(t *testing.T) {
	high := CalculatePatternScore(1.0, 1.0, Immediate)
	if high.Tier() != "high" {
		t.Fatalf("got tier %q, want high (combined=%v)", high.Tier(), high.Combined)
	}
	obs := CalculatePatternScore(0.0, 0.0, Informational)
	if obs.Tier() != "observation" {
		t.Fatalf("got tier %q, want observation (combined=%v)", obs.Tier(), obs.Combined)
	}
}

func TestCalculateEffectSizeMonotonic(t *testing.T) {
	prev := 0.0
	for _, d := range []float64{0.0, 0.05, 0.10, 0.20, 0.25, 0.40, 0.50, 0.70, 1.0} {
		e := CalculateEffectSize(d)
		if e < prev {
			t.Fatalf("effect size not monotonic at d=%v: %v < %v", d, e, prev)
		}
		if e < 0 || e > 1 {
			t.Fatalf("effect size out of [0,1] at d=%v: %v", d, e)
		}
		prev = e
	}
}

func TestCalculateEffectSizeNegativeDiff(t *testing.T) {
	if got := CalculateEffectSize(-0.3); got != CalculateEffectSize(0.3) {
		t.Fatalf("expected symmetric handling of negative diff, got %v vs %v", got, CalculateEffectSize(0.3))
	}
}

func TestCalculateSampleConfidenceBelowThreshold(t *testing.T) {
	if got := CalculateSampleConfidence(10, 50); got != 0 {
		t.Fatalf("got %v, want 0 below threshold", got)
	}
	if got := CalculateSampleConfidence(10, 0); got != 0 {
		t.Fatalf("got %v, want 0 for zero threshold", got)
	}
}

func TestCalculateSampleConfidenceAtAndAboveThreshold(t *testing.T) {
	at := CalculateSampleConfidence(50, 50)
	if at != 0 {
		t.Fatalf("got %v at exactly threshold, want 0 (ln(1)=0)", at)
	}
	above := CalculateSampleConfidence(500, 50)
	if above <= at {
		t.Fatalf("expected confidence to grow with n, got at=%v above=%v", at, above)
	}
	if above > 1 {
		t.Fatalf("confidence must stay <= 1, got %v", above)
	}
}

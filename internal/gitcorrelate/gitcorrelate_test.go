package gitcorrelate

import "testing"

func TestParseLog(t *testing.T) {
	output := "abc123\x1fAlice\x1f1000\x1ffix bug\x1e" +
		"def456\x1fBob\x1f2000\x1fadd feature\x1e"
	commits, err := parseLog(output, "/repo", "main")
	if err != nil {
		t.Fatalf("parseLog: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("got %d commits, want 2", len(commits))
	}
	if commits[0].Hash != "abc123" || commits[0].Timestamp != 1000 || commits[0].Author != "Alice" {
		t.Fatalf("got %+v", commits[0])
	}
	if commits[1].Message != "add feature" {
		t.Fatalf("got %+v", commits[1])
	}
}

func TestParseLogMalformed(t *testing.T) {
	if _, err := parseLog("bad\x1frecord\x1e", "/repo", ""); err == nil {
		t.Fatal("expected error for malformed record")
	}
}

func TestMatchTier1WithinWindow(t *testing.T) {
	invocations := []CommitSkillInvocation{{SkillName: "Bash", Timestamp: 1000}}
	commits := []Commit{
		{Hash: "in-window-before", Timestamp: 950},  // -50s, within -60s
		{Hash: "in-window-after", Timestamp: 1250},  // +250s, within +300s
		{Hash: "too-early", Timestamp: 800},         // -200s, outside
		{Hash: "too-late", Timestamp: 1400},          // +400s, outside
	}
	matches := MatchTier1("sess-1", invocations, commits)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2: %+v", len(matches), matches)
	}
	hashes := map[string]bool{}
	for _, m := range matches {
		hashes[m.CommitHash] = true
		if m.Tier != 1 {
			t.Fatalf("got tier %d, want 1", m.Tier)
		}
		if m.Evidence.Rule != RuleSkillInvocationWindow {
			t.Fatalf("got rule %q", m.Evidence.Rule)
		}
	}
	if !hashes["in-window-before"] || !hashes["in-window-after"] {
		t.Fatalf("got matches %+v", matches)
	}
}

func TestMatchTier2SessionWindow(t *testing.T) {
	commits := []Commit{
		{Hash: "inside", Timestamp: 1500},
		{Hash: "before", Timestamp: 500},
		{Hash: "after", Timestamp: 3000},
	}
	matches := MatchTier2("sess-1", 1000, 2000, commits)
	if len(matches) != 1 || matches[0].CommitHash != "inside" {
		t.Fatalf("got %+v", matches)
	}
	if matches[0].Tier != 2 || matches[0].Evidence.Rule != RuleSessionWindow {
		t.Fatalf("got %+v", matches[0])
	}
}

package transcript

import (
	"strings"
	"testing"
)

const sampleTranscript = `
{"type":"user","message":{"role":"user","content":[{"type":"text","text":"fix the bug"}]},"timestamp":"2024-01-01T00:00:00Z","gitBranch":"main"}
{"type":"assistant","message":{"role":"assistant","model":"claude-opus-4","content":[{"type":"text","text":"looking into it"},{"type":"tool_use","id":"t1","name":"Read","input":{"file_path":"/repo/main.go"}}],"usage":{"input_tokens":10,"output_tokens":5}},"timestamp":"2024-01-01T00:00:05Z"}
{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"t2","name":"Edit","input":{"file_path":"/repo/main.go","old_string":"a\nb\n","new_string":"a\nb\nc\n"}}],"usage":{"input_tokens":2,"output_tokens":2}},"timestamp":"2024-01-01T00:00:10Z"}
`

func TestParseSession(t *testing.T) {
	out, err := ParseSession(strings.NewReader(sampleTranscript))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.DecodeErrors != 0 {
		t.Fatalf("unexpected decode errors: %d", out.DecodeErrors)
	}
	if out.MessageCount != 3 {
		t.Fatalf("got MessageCount=%d, want 3", out.MessageCount)
	}
	if out.ToolCounts.Read != 1 || out.ToolCounts.Edit != 1 {
		t.Fatalf("got tool counts %+v", out.ToolCounts)
	}
	if out.GitBranch != "main" {
		t.Fatalf("got branch %q, want main", out.GitBranch)
	}
	if len(out.FilesTouched) != 1 || out.FilesTouched[0] != "/repo/main.go" {
		t.Fatalf("got files touched %v", out.FilesTouched)
	}
	if out.InputTokens != 12 || out.OutputTokens != 7 {
		t.Fatalf("got tokens in=%d out=%d", out.InputTokens, out.OutputTokens)
	}
	if out.LinesAdded != 3 || out.LinesRemoved != 2 {
		t.Fatalf("got lines added=%d removed=%d, want 3/2", out.LinesAdded, out.LinesRemoved)
	}
	if out.PrimaryModel != "claude-opus-4" {
		t.Fatalf("got model %q", out.PrimaryModel)
	}
	if out.Preview != "fix the bug" {
		t.Fatalf("got preview %q", out.Preview)
	}
}

const multiModelTranscript = `
{"type":"user","message":{"role":"user","content":[{"type":"text","text":"switch models"}]},"timestamp":"2024-01-01T00:00:00Z"}
{"type":"assistant","message":{"role":"assistant","model":"claude-haiku-4","content":[{"type":"text","text":"quick pass"}],"usage":{"input_tokens":5,"output_tokens":50}},"timestamp":"2024-01-01T00:00:05Z"}
{"type":"assistant","message":{"role":"assistant","model":"claude-opus-4","content":[{"type":"text","text":"deeper pass"}],"usage":{"input_tokens":5,"output_tokens":10}},"timestamp":"2024-01-01T00:00:10Z"}
{"type":"assistant","message":{"role":"assistant","model":"claude-opus-4","content":[{"type":"text","text":"last word"}],"usage":{"input_tokens":5,"output_tokens":5}},"timestamp":"2024-01-01T00:00:15Z"}
`

// TestParseSessionPrimaryModelIsGreatestOutputTokens exercises the
// accumulate-then-pick-max path specifically: the last assistant message
// is claude-opus-4, but claude-haiku-4's single reply (50 output tokens)
// outweighs claude-opus-4's combined replies (10+5=15), so the last-seen
// model must not win just by being last.
func TestParseSessionPrimaryModelIsGreatestOutputTokens(t *testing.T) {
	out, err := ParseSession(strings.NewReader(multiModelTranscript))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.PrimaryModel != "claude-haiku-4" {
		t.Fatalf("got PrimaryModel=%q, want claude-haiku-4 (50 output tokens beats opus's 15)", out.PrimaryModel)
	}
}

func TestParseSessionTracksToolInvocationLineOffsets(t *testing.T) {
	out, err := ParseSession(strings.NewReader(sampleTranscript))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.ToolInvocations) != 2 {
		t.Fatalf("got %d tool invocations, want 2: %+v", len(out.ToolInvocations), out.ToolInvocations)
	}
	if out.ToolInvocations[0].Name != "Read" || out.ToolInvocations[0].LineOffset != 3 {
		t.Fatalf("got first invocation %+v, want Read at line 3", out.ToolInvocations[0])
	}
	if out.ToolInvocations[1].Name != "Edit" || out.ToolInvocations[1].LineOffset != 4 {
		t.Fatalf("got second invocation %+v, want Edit at line 4", out.ToolInvocations[1])
	}
}

func TestParseSessionSkipsMalformedLines(t *testing.T) {
	r := strings.NewReader("not json\n" + sampleTranscript)
	out, err := ParseSession(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.DecodeErrors != 1 {
		t.Fatalf("got DecodeErrors=%d, want 1", out.DecodeErrors)
	}
	if out.MessageCount != 3 {
		t.Fatalf("got MessageCount=%d, want 3", out.MessageCount)
	}
}

func TestCategorizeTool(t *testing.T) {
	cases := map[string]ToolCategory{
		"Skill":          CategorySkill,
		"mcp__fs__read":  CategoryMCP,
		"mcp_fs_read":    CategoryMCP,
		"Task":           CategoryAgent,
		"Read":           CategoryBuiltin,
		"Bash":           CategoryBuiltin,
	}
	for name, want := range cases {
		if got := CategorizeTool(name); got != want {
			t.Errorf("CategorizeTool(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestProgressCategory(t *testing.T) {
	if cat, ok := ProgressCategory("agent_progress"); !ok || cat != CategoryAgent {
		t.Fatalf("got %q ok=%v", cat, ok)
	}
	if _, ok := ProgressCategory("unknown_progress"); ok {
		t.Fatal("expected ok=false for unrecognized data type")
	}
}

func TestCountLines(t *testing.T) {
	cases := []struct {
		in   string
		want uint32
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\nb\n", 2},
	}
	for _, c := range cases {
		if got := CountLines(c.in); got != c.want {
			t.Errorf("CountLines(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestCountAILines(t *testing.T) {
	invocations := []ToolInvocation{
		{Name: "Write", Input: []byte(`{"content":"x\ny\nz\n"}`)},
		{Name: "Edit", Input: []byte(`{"old_string":"a\n","new_string":"a\nb\n"}`)},
		{Name: "Bash", Input: []byte(`{"command":"ls"}`)},
	}
	got := CountAILines(invocations)
	if got.LinesAdded != 5 || got.LinesRemoved != 1 {
		t.Fatalf("got %+v, want added=5 removed=1", got)
	}
	if got.Net() != 4 {
		t.Fatalf("got Net()=%d, want 4", got.Net())
	}
}

package transcript

import (
	"encoding/json"
	"strings"
)

// AiLineCount tallies lines added/removed by AI-driven edits across a
// session, ported from contribution.rs.
type AiLineCount struct {
	LinesAdded   uint32
	LinesRemoved uint32
}

// Net returns added-removed, allowing negative values.
func (c AiLineCount) Net() int32 {
	return int32(c.LinesAdded) - int32(c.LinesRemoved)
}

// Merge adds other into c and returns the result.
func (c AiLineCount) Merge(other AiLineCount) AiLineCount {
	return AiLineCount{
		LinesAdded:   c.LinesAdded + other.LinesAdded,
		LinesRemoved: c.LinesRemoved + other.LinesRemoved,
	}
}

// CountLines counts newline-delimited lines in s: an empty string is zero
// lines, and a trailing line without a final newline still counts.
func CountLines(s string) uint32 {
	if s == "" {
		return 0
	}
	n := uint32(strings.Count(s, "\n"))
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

// CountLinesInEdit reads old_string/new_string out of an Edit tool's raw
// input and reports the add/remove delta.
func CountLinesInEdit(input json.RawMessage) AiLineCount {
	var v struct {
		OldString string `json:"old_string"`
		NewString string `json:"new_string"`
	}
	if err := json.Unmarshal(input, &v); err != nil {
		return AiLineCount{}
	}
	return AiLineCount{
		LinesAdded:   CountLines(v.NewString),
		LinesRemoved: CountLines(v.OldString),
	}
}

// CountLinesInWrite reads content out of a Write tool's raw input; writes
// have no prior content, so nothing is ever counted as removed.
func CountLinesInWrite(input json.RawMessage) AiLineCount {
	var v struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(input, &v); err != nil {
		return AiLineCount{}
	}
	return AiLineCount{LinesAdded: CountLines(v.Content)}
}

// ToolInvocation is the minimal (name, input) pair CountAILines needs.
type ToolInvocation struct {
	Name  string
	Input json.RawMessage
}

// CountAILines walks invocations and sums the line deltas contributed by
// Edit/MultiEdit/Write calls; every other tool is ignored.
func CountAILines(invocations []ToolInvocation) AiLineCount {
	total := AiLineCount{}
	for _, inv := range invocations {
		switch inv.Name {
		case "Edit", "MultiEdit":
			total = total.Merge(CountLinesInEdit(inv.Input))
		case "Write":
			total = total.Merge(CountLinesInWrite(inv.Input))
		}
	}
	return total
}

func countEditInput(toolName string, input json.RawMessage) (added, removed uint32) {
	switch toolName {
	case "Edit", "MultiEdit":
		c := CountLinesInEdit(input)
		return c.LinesAdded, c.LinesRemoved
	case "Write":
		c := CountLinesInWrite(input)
		return c.LinesAdded, c.LinesRemoved
	default:
		return 0, 0
	}
}

// ProgressCategory mirrors categorize_progress in category.rs: it maps a
// progress event's data_type to the tool category that produced it.
func ProgressCategory(dataType string) (ToolCategory, bool) {
	switch dataType {
	case "hook_progress":
		return "hook", true
	case "agent_progress":
		return CategoryAgent, true
	case "bash_progress":
		return CategoryBuiltin, true
	case "mcp_progress":
		return CategoryMCP, true
	case "waiting_for_task":
		return CategoryAgent, true
	default:
		return "", false
	}
}

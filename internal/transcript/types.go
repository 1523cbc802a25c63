// Package transcript decodes a single session's line-delimited JSON
// transcript file into typed records and aggregated summaries.
//
// Grounded in the teacher's claude/transcript.go TranscriptLine/ContentBlock
// shapes and in wilbur182-forge's claudecode adapter JSONL decode loop.
package transcript

import "encoding/json"

// RecordType identifies what kind of JSONL line was decoded.
type RecordType string

const (
	RecordUser      RecordType = "user"
	RecordAssistant RecordType = "assistant"
	RecordProgress  RecordType = "progress"
	RecordMeta      RecordType = "summary"
	RecordUnknown   RecordType = "unknown"
)

// ToolCategory is the category of a tool invocation. CategorizeTool
// returns only the four constants below; ProgressCategory also returns
// "hook", which has no constant.
type ToolCategory string

const (
	CategorySkill   ToolCategory = "skill"
	CategoryMCP     ToolCategory = "mcp"
	CategoryAgent   ToolCategory = "agent"
	CategoryBuiltin ToolCategory = "builtin"
)

// Line mirrors one raw JSONL record. Fields not present in a given record
// type are left at their zero value; unrecognized fields are ignored.
type Line struct {
	ParentUUID  string          `json:"parentUuid"`
	IsSidechain bool            `json:"isSidechain"`
	UserType    string          `json:"userType"`
	Cwd         string          `json:"cwd"`
	SessionID   string          `json:"sessionId"`
	GitBranch   string          `json:"gitBranch"`
	Type        string          `json:"type"`
	Message     Message         `json:"message"`
	UUID        string          `json:"uuid"`
	Timestamp   string          `json:"timestamp"`
	ToolResult  *ToolUseResult  `json:"toolUseResult,omitempty"`
}

// Message is the `message` sub-object of an assistant/user record.
type Message struct {
	Model      string         `json:"model"`
	ID         string         `json:"id"`
	Role       string         `json:"role"`
	Content    []ContentBlock `json:"content"`
	StopReason *string        `json:"stop_reason"`
	Usage      *TokenUsage    `json:"usage"`
}

// ContentBlock is one block of a message's content array.
type ContentBlock struct {
	Type      string          `json:"type"` // "text", "thinking", "tool_use", "tool_result"
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
	Text      string          `json:"text,omitempty"`
	Thinking  string          `json:"thinking,omitempty"`
}

// ToolUseResult carries the side-channel `toolUseResult` field some lines
// attach to tool_result blocks.
type ToolUseResult struct {
	Stdout      string `json:"stdout"`
	Stderr      string `json:"stderr"`
	Interrupted bool   `json:"interrupted"`
	IsImage     bool   `json:"isImage"`
}

// TokenUsage is the `usage` sub-object of an assistant message.
type TokenUsage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
}

// ToolCounts tallies tool invocations by the four headline kinds plus a
// generic bucket for everything else.
type ToolCounts struct {
	Edit  uint32
	Read  uint32
	Bash  uint32
	Write uint32
	Other uint32
}

// Total returns the sum across all buckets.
func (c ToolCounts) Total() uint32 {
	return c.Edit + c.Read + c.Bash + c.Write + c.Other
}

// ParsedMessage is one message surfaced from a parsed session, used both
// for aggregation and for feeding the full-text indexer.
type ParsedMessage struct {
	Role       string // "user" or "assistant"
	Content    string
	TurnNumber uint64
	Timestamp  int64 // unix seconds, 0 if unknown
	Skills     []string
	Model      string
}

// ToolInvocationRecord is one tool_use block, tagged with its line
// position in the source file. The (line offset) pair is the natural
// dedup key a re-run of Pass 2 needs: re-parsing the same file produces
// the same offsets, so re-inserting is a no-op.
type ToolInvocationRecord struct {
	Name       string
	Category   ToolCategory
	LineOffset int64
	Timestamp  int64
}

// ParsedSession is the fully aggregated output of a batch parse.
type ParsedSession struct {
	Messages          []ParsedMessage
	ToolCounts        ToolCounts
	ToolInvocations   []ToolInvocationRecord
	FilesTouched      []string
	FileEditCounts    map[string]uint32 // file path -> number of Edit/MultiEdit/Write calls against it
	SkillsUsed        []string
	GitBranch         string
	IsSidechain       bool
	InputTokens       uint64
	OutputTokens      uint64
	CacheReadTokens   uint64
	CacheCreateTokens uint64
	PrimaryModel      string
	Preview           string
	MessageCount      uint32
	TurnCount         uint32
	DecodeErrors      int
	LinesAdded        uint32
	LinesRemoved      uint32
}

// ReeditedFileCount returns how many distinct files were edited (Edit,
// MultiEdit or Write) more than once within the session, the input
// metrics.ReeditRate needs.
func (p *ParsedSession) ReeditedFileCount() uint32 {
	var n uint32
	for _, count := range p.FileEditCounts {
		if count > 1 {
			n++
		}
	}
	return n
}

// CategorizeTool maps a tool name to its category, per spec.md §4.A.
func CategorizeTool(name string) ToolCategory {
	switch {
	case name == "Skill":
		return CategorySkill
	case hasMCPPrefix(name):
		return CategoryMCP
	case name == "Task":
		return CategoryAgent
	default:
		return CategoryBuiltin
	}
}

func hasMCPPrefix(name string) bool {
	return len(name) >= 5 && name[:5] == "mcp__" || len(name) >= 4 && name[:4] == "mcp_"
}

package transcript

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"
)

// scannerBufPool recycles the large scan buffers bufio.Scanner needs to
// hold a single transcript line without truncating it. Mirrors the pool
// idiom in forge's claudecode adapter, which hits the same problem
// scanning multi-megabyte tool_result lines.
var scannerBufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, 1<<20) // 1MB
		return &buf
	},
}

const maxLineSize = 10 << 20 // 10MB, matches the teacher's parseTranscript limit

// Decoder streams Line records out of a transcript file one at a time.
type Decoder struct {
	scanner *bufio.Scanner
	bufPtr  *[]byte
	lineNo  int64
}

// NewDecoder wraps r in a buffered line scanner sized for large tool
// outputs.
func NewDecoder(r io.Reader) *Decoder {
	bufPtr := scannerBufPool.Get().(*[]byte)
	s := bufio.NewScanner(r)
	s.Buffer(*bufPtr, maxLineSize)
	return &Decoder{scanner: s, bufPtr: bufPtr}
}

// Close returns the scan buffer to the pool. Safe to call multiple times.
func (d *Decoder) Close() {
	if d.bufPtr == nil {
		return
	}
	*d.bufPtr = (*d.bufPtr)[:0]
	scannerBufPool.Put(d.bufPtr)
	d.bufPtr = nil
}

// Next decodes the next non-blank line. Returns io.EOF when the stream is
// exhausted. A malformed line is reported as an error but does not abort
// the scan; callers typically count decode errors and keep going, matching
// the teacher's tolerant parseTranscript loop.
func (d *Decoder) Next() (Line, error) {
	for d.scanner.Scan() {
		d.lineNo++
		raw := d.scanner.Bytes()
		if len(strings.TrimSpace(string(raw))) == 0 {
			continue
		}
		var line Line
		if err := json.Unmarshal(raw, &line); err != nil {
			return Line{}, err
		}
		return line, nil
	}
	if err := d.scanner.Err(); err != nil {
		return Line{}, err
	}
	return Line{}, io.EOF
}

// LineOffset returns the 1-based number of the line most recently
// returned by Next, so callers can tag derived records (tool
// invocations) with their position in the file for dedup keys.
func (d *Decoder) LineOffset() int64 {
	return d.lineNo
}

// ParseSession consumes all of r and returns the aggregated session
// summary, tolerating individual malformed lines. A read error from r, or
// a line longer than maxLineSize, ends the parse with that error.
func ParseSession(r io.Reader) (*ParsedSession, error) {
	dec := NewDecoder(r)
	defer dec.Close()

	out := &ParsedSession{}
	filesTouched := make(map[string]struct{})
	fileEditCounts := make(map[string]uint32)
	skillsUsed := make(map[string]struct{})
	modelOutputTokens := make(map[string]uint64)
	var turn uint64

	for {
		line, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if serr := dec.scanner.Err(); serr != nil {
				return nil, serr
			}
			out.DecodeErrors++
			continue
		}

		if line.GitBranch != "" {
			out.GitBranch = line.GitBranch
		}
		if line.IsSidechain {
			out.IsSidechain = true
		}

		switch line.Message.Role {
		case "user":
			turn++
			text := extractText(line.Message.Content)
			if out.Preview == "" && text != "" {
				out.Preview = previewOf(text)
			}
			out.Messages = append(out.Messages, ParsedMessage{
				Role:       "user",
				Content:    text,
				TurnNumber: turn,
				Timestamp:  parseTimestamp(line.Timestamp),
			})
			out.MessageCount++
		case "assistant":
			turn++
			if u := line.Message.Usage; u != nil {
				out.InputTokens += uint64(u.InputTokens)
				out.OutputTokens += uint64(u.OutputTokens)
				out.CacheReadTokens += uint64(u.CacheReadInputTokens)
				out.CacheCreateTokens += uint64(u.CacheCreationInputTokens)
				if line.Message.Model != "" {
					modelOutputTokens[line.Message.Model] += uint64(u.OutputTokens)
				}
			}
			text := extractText(line.Message.Content)
			out.Messages = append(out.Messages, ParsedMessage{
				Role:       "assistant",
				Content:    text,
				TurnNumber: turn,
				Timestamp:  parseTimestamp(line.Timestamp),
				Model:      line.Message.Model,
			})
			out.MessageCount++

			ts := parseTimestamp(line.Timestamp)
			for _, block := range line.Message.Content {
				if block.Type != "tool_use" {
					continue
				}
				tallyTool(&out.ToolCounts, block.Name)
				invocableName := block.Name
				if block.Name == "Skill" {
					if skill := skillNameFromInput(block.Input); skill != "" {
						skillsUsed[skill] = struct{}{}
						invocableName = skill
					}
				}
				if path := filePathFromInput(block.Input); path != "" {
					filesTouched[path] = struct{}{}
					if block.Name == "Edit" || block.Name == "MultiEdit" || block.Name == "Write" {
						fileEditCounts[path]++
					}
				}
				added, removed := countEditInput(block.Name, block.Input)
				out.LinesAdded += added
				out.LinesRemoved += removed

				out.ToolInvocations = append(out.ToolInvocations, ToolInvocationRecord{
					Name:       invocableName,
					Category:   CategorizeTool(block.Name),
					LineOffset: dec.LineOffset(),
					Timestamp:  ts,
				})
			}
		}
	}

	out.TurnCount = uint32(turn)
	out.FilesTouched = sortedKeys(filesTouched)
	out.FileEditCounts = fileEditCounts
	out.SkillsUsed = sortedKeys(skillsUsed)
	out.PrimaryModel = modelWithMostOutputTokens(modelOutputTokens)
	return out, nil
}

// modelWithMostOutputTokens picks the model id with the greatest
// cumulative output-token count across the session, per the primary-model
// aggregation contract. A session with no assistant usage data returns "".
func modelWithMostOutputTokens(byModel map[string]uint64) string {
	best, bestTokens, seen := "", uint64(0), false
	for model, tokens := range byModel {
		if !seen || tokens > bestTokens {
			best, bestTokens, seen = model, tokens, true
		}
	}
	return best
}

func extractText(blocks []ContentBlock) string {
	var sb strings.Builder
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

func previewOf(text string) string {
	const maxLen = 240
	text = strings.TrimSpace(text)
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen]
}

func parseTimestamp(s string) int64 {
	if s == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0
	}
	return t.Unix()
}

func tallyTool(c *ToolCounts, name string) {
	switch name {
	case "Edit", "MultiEdit":
		c.Edit++
	case "Read":
		c.Read++
	case "Bash":
		c.Bash++
	case "Write":
		c.Write++
	default:
		c.Other++
	}
}

func filePathFromInput(input json.RawMessage) string {
	var v struct {
		FilePath string `json:"file_path"`
	}
	if err := json.Unmarshal(input, &v); err != nil {
		return ""
	}
	return v.FilePath
}

func skillNameFromInput(input json.RawMessage) string {
	var v struct {
		Command string `json:"command"`
		Name    string `json:"name"`
	}
	if err := json.Unmarshal(input, &v); err != nil {
		return ""
	}
	if v.Name != "" {
		return v.Name
	}
	return v.Command
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	// Small sets; insertion order doesn't matter to callers but a stable
	// sort keeps output deterministic for tests.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

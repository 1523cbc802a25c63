// Package gitcorrelate extracts commits from a git repository and links
// sessions to commits by two tiered time-window rules.
//
// Grounded in original_source/crates/db/src/git_correlation.rs's
// scan_repo_commits, which shells out to `git log` with a timeout; here
// translated 1:1 from tokio::process::Command to exec.CommandContext.
package gitcorrelate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// GitTimeout bounds how long a single `git log` invocation may run.
const GitTimeout = 10 * time.Second

// Tier-1 window: a commit counts as skill-invocation-correlated if its
// timestamp falls within [-60s, +300s] of the triggering tool invocation.
const (
	Tier1WindowBefore = 60 * time.Second
	Tier1WindowAfter  = 300 * time.Second
)

// Commit is one parsed `git log` entry.
type Commit struct {
	Hash      string
	RepoPath  string
	Message   string
	Author    string
	Timestamp int64
	Branch    string
}

// ScanResult is the outcome of scanning one repository path.
type ScanResult struct {
	Commits  []Commit
	NotARepo bool
	Error    string
}

// EvidenceRule names which correlation rule produced a match, carried
// through to CorrelationEvidence for audit/debugging.
type EvidenceRule string

const (
	RuleSkillInvocationWindow EvidenceRule = "skill_invocation_window"
	RuleSessionWindow         EvidenceRule = "session_window"
)

// CorrelationEvidence records why a session and commit were linked.
// Fields are omitted from JSON when not applicable to the matching rule,
// matching the Rust source's serde(skip_serializing_if) fields.
type CorrelationEvidence struct {
	Rule         EvidenceRule `json:"rule"`
	SkillTS      *int64       `json:"skill_ts,omitempty"`
	CommitTS     *int64       `json:"commit_ts,omitempty"`
	SkillName    *string      `json:"skill_name,omitempty"`
	SessionStart *int64       `json:"session_start,omitempty"`
	SessionEnd   *int64       `json:"session_end,omitempty"`
}

// CorrelationMatch is one accepted session-to-commit link.
type CorrelationMatch struct {
	SessionID  string
	CommitHash string
	Tier       int
	Evidence   CorrelationEvidence
}

// CommitSkillInvocation is one (tool invocation, timestamp) pair a Tier-1
// scan checks commits against. The indexer's Pass 2 passes every Bash
// invocation of the session, whatever command it ran.
type CommitSkillInvocation struct {
	SkillName string
	Timestamp int64 // unix seconds
}

// logFormat uses ASCII unit/record separators so commit messages
// containing the format's own delimiters can't corrupt parsing.
const logFormat = "%H\x1f%an\x1f%at\x1f%s\x1e"

// ScanRepoCommits runs `git log` against repoPath and parses its output.
// A non-repository path is reported via ScanResult.NotARepo rather than
// as an error, since the indexer routinely probes directories that have
// no .git.
func ScanRepoCommits(ctx context.Context, repoPath string, branch string) ScanResult {
	ctx, cancel := context.WithTimeout(ctx, GitTimeout)
	defer cancel()

	args := []string{"log", "--all", "--pretty=format:" + logFormat}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if strings.Contains(msg, "not a git repository") {
			return ScanResult{NotARepo: true}
		}
		return ScanResult{Error: fmt.Sprintf("git log: %v: %s", err, msg)}
	}

	commits, err := parseLog(stdout.String(), repoPath, branch)
	if err != nil {
		return ScanResult{Error: err.Error()}
	}
	return ScanResult{Commits: commits}
}

func parseLog(output, repoPath, branch string) ([]Commit, error) {
	var commits []Commit
	for _, rec := range strings.Split(output, "\x1e") {
		rec = strings.TrimSpace(rec)
		if rec == "" {
			continue
		}
		fields := strings.Split(rec, "\x1f")
		if len(fields) != 4 {
			return nil, fmt.Errorf("gitcorrelate: malformed git log record: %q", rec)
		}
		ts, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("gitcorrelate: bad timestamp %q: %w", fields[2], err)
		}
		commits = append(commits, Commit{
			Hash:      fields[0],
			RepoPath:  repoPath,
			Message:   fields[3],
			Author:    fields[1],
			Timestamp: ts,
			Branch:    branch,
		})
	}
	return commits, nil
}

// MatchTier1 correlates commits against skill invocations within the
// [-60s, +300s] window and returns matches with skill_invocation_window
// evidence. sessionID identifies the owning session for every match.
func MatchTier1(sessionID string, invocations []CommitSkillInvocation, commits []Commit) []CorrelationMatch {
	var matches []CorrelationMatch
	for _, inv := range invocations {
		invTS := inv.Timestamp
		for _, c := range commits {
			delta := time.Duration(c.Timestamp-invTS) * time.Second
			if delta >= -Tier1WindowBefore && delta <= Tier1WindowAfter {
				skillName := inv.SkillName
				skillTS := invTS
				commitTS := c.Timestamp
				matches = append(matches, CorrelationMatch{
					SessionID:  sessionID,
					CommitHash: c.Hash,
					Tier:       1,
					Evidence: CorrelationEvidence{
						Rule:      RuleSkillInvocationWindow,
						SkillTS:   &skillTS,
						CommitTS:  &commitTS,
						SkillName: &skillName,
					},
				})
			}
		}
	}
	return matches
}

// MatchTier2 correlates commits that fall within a session's active
// window [sessionStart, sessionEnd], for sessions with no Tier-1 match.
func MatchTier2(sessionID string, sessionStart, sessionEnd int64, commits []Commit) []CorrelationMatch {
	var matches []CorrelationMatch
	for _, c := range commits {
		if c.Timestamp >= sessionStart && c.Timestamp <= sessionEnd {
			start := sessionStart
			end := sessionEnd
			commitTS := c.Timestamp
			matches = append(matches, CorrelationMatch{
				SessionID:  sessionID,
				CommitHash: c.Hash,
				Tier:       2,
				Evidence: CorrelationEvidence{
					Rule:         RuleSessionWindow,
					CommitTS:     &commitTS,
					SessionStart: &start,
					SessionEnd:   &end,
				},
			})
		}
	}
	return matches
}

// MarshalEvidence renders a CorrelationEvidence as the JSON blob the
// catalog's session_commits.evidence_json column stores.
func MarshalEvidence(e CorrelationEvidence) (json.RawMessage, error) {
	return json.Marshal(e)
}

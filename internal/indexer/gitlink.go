package indexer

import (
	"context"
	"sync"

	"github.com/claudeview/claudeview-go/internal/catalog"
	"github.com/claudeview/claudeview-go/internal/gitcorrelate"
	"github.com/claudeview/claudeview-go/internal/transcript"
)

// gitScanCache memoizes one `git log` scan per repository path for the
// lifetime of a single RunDeep call, so a project with many session
// files doesn't shell out to git once per file.
type gitScanCache struct {
	mu    sync.Mutex
	byDir map[string]gitcorrelate.ScanResult
}

func newGitScanCache() *gitScanCache {
	return &gitScanCache{byDir: make(map[string]gitcorrelate.ScanResult)}
}

func (c *gitScanCache) scan(ctx context.Context, repoPath, branch string) gitcorrelate.ScanResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if res, ok := c.byDir[repoPath]; ok {
		return res
	}
	res := gitcorrelate.ScanRepoCommits(ctx, repoPath, branch)
	c.byDir[repoPath] = res
	return res
}

// commitLink is a commit plus the session correlations found for it,
// ready for applyBatch to write through UpsertCommit/LinkSessionCommit.
type commitLink struct {
	commit  gitcorrelate.Commit
	matches []gitcorrelate.CorrelationMatch
}

// toCatalogCommit adapts a gitcorrelate.Commit into the catalog's
// nullable-field shape.
func toCatalogCommit(c gitcorrelate.Commit) catalog.Commit {
	var author, branch *string
	if c.Author != "" {
		author = &c.Author
	}
	if c.Branch != "" {
		branch = &c.Branch
	}
	return catalog.Commit{
		Hash:      c.Hash,
		RepoPath:  c.RepoPath,
		Message:   c.Message,
		Author:    author,
		Timestamp: c.Timestamp,
		Branch:    branch,
	}
}

// correlateCommits scans the session's project directory for commits and
// links any that fall in a Tier-1 window (near a Bash tool invocation).
// Only when no commit matches at Tier 1 does it link Tier-2 commits
// (anywhere in the session's active window).
// repoPath being wrong or not a git repository is not an error: the scan
// simply finds nothing to link, matching the teacher's tolerant handling
// of directories that don't pan out.
func correlateCommits(ctx context.Context, cache *gitScanCache, repoPath, branch, sessionID string, bashInvocations []gitcorrelate.CommitSkillInvocation, sessionStart, sessionEnd int64) []commitLink {
	if repoPath == "" {
		return nil
	}
	res := cache.scan(ctx, repoPath, branch)
	if res.NotARepo || res.Error != "" || len(res.Commits) == 0 {
		return nil
	}

	matches := gitcorrelate.MatchTier1(sessionID, bashInvocations, res.Commits)
	matchedHashes := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		matchedHashes[m.CommitHash] = struct{}{}
	}
	if len(matches) == 0 && sessionStart > 0 && sessionEnd > 0 {
		for _, m := range gitcorrelate.MatchTier2(sessionID, sessionStart, sessionEnd, res.Commits) {
			if _, ok := matchedHashes[m.CommitHash]; ok {
				continue // already linked at Tier 1, the stronger signal
			}
			matches = append(matches, m)
			matchedHashes[m.CommitHash] = struct{}{}
		}
	}
	if len(matches) == 0 {
		return nil
	}

	commitsByHash := make(map[string]gitcorrelate.Commit, len(res.Commits))
	for _, c := range res.Commits {
		commitsByHash[c.Hash] = c
	}
	indexByHash := make(map[string]int, len(matches))
	var out []commitLink
	for _, m := range matches {
		i, ok := indexByHash[m.CommitHash]
		if !ok {
			out = append(out, commitLink{commit: commitsByHash[m.CommitHash]})
			i = len(out) - 1
			indexByHash[m.CommitHash] = i
		}
		out[i].matches = append(out[i].matches, m)
	}
	return out
}

// bashInvocationsFrom extracts the Tier-1 candidate set from a parsed
// session's tool invocations. MatchTier1 only checks time windows, not
// command content, so every Bash invocation is a candidate — the parser
// doesn't retain Bash's actual command text to narrow this down to "git
// commit" calls specifically.
func bashInvocationsFrom(records []transcript.ToolInvocationRecord) []gitcorrelate.CommitSkillInvocation {
	var out []gitcorrelate.CommitSkillInvocation
	for _, r := range records {
		if r.Name != "Bash" {
			continue
		}
		out = append(out, gitcorrelate.CommitSkillInvocation{SkillName: r.Name, Timestamp: r.Timestamp})
	}
	return out
}

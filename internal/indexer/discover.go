// Package indexer orchestrates the two-pass pipeline: discover session
// files on disk, diff them against the durable catalog, parse the ones
// that changed, and write the results back to the catalog and the
// full-text index.
//
// Grounded in original_source/crates/db/src/indexer.rs's scan -> diff ->
// parse -> store pipeline description and in the teacher's
// GetClaudeProjectDir path-encoding convention (claude/transcript.go).
package indexer

import (
	"os"
	"path/filepath"
	"strings"
)

// DiscoveredSession is one session file found on disk, with the cheap
// stat info Pass 1 needs.
type DiscoveredSession struct {
	ProjectID   string // derived from the containing directory name
	ProjectPath string // best-effort DecodeProjectDir of the directory name
	FilePath    string
	SizeBytes   int64
	ModifiedAt  int64 // unix seconds
}

// EncodeProjectDir mirrors the teacher's GetClaudeProjectDir: the
// producing tool stores each project's transcripts under a directory
// name derived by replacing path separators with "-".
func EncodeProjectDir(workDir string) string {
	return strings.ReplaceAll(workDir, "/", "-")
}

// DecodeProjectDir reverses EncodeProjectDir on a best-effort basis: the
// encoding is lossy (an original path segment could itself contain "-"),
// so this recovers the most likely working directory rather than an
// exact one. Used only to locate a repository to scan for git
// correlation, where a near-miss path simply yields no commits.
func DecodeProjectDir(encoded string) string {
	return strings.ReplaceAll(encoded, "-", "/")
}

// DiscoverSessions walks rootDir, one subdirectory per project, and
// returns every *.jsonl session file found directly inside each.
// Side-index files are not read; each ProjectPath comes from
// DecodeProjectDir of the directory name. Session bodies are not parsed.
func DiscoverSessions(rootDir string) ([]DiscoveredSession, error) {
	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return nil, err
	}

	var out []DiscoveredSession
	for _, projectEntry := range entries {
		if !projectEntry.IsDir() {
			continue
		}
		projectDir := filepath.Join(rootDir, projectEntry.Name())
		sessionFiles, err := os.ReadDir(projectDir)
		if err != nil {
			continue // project directory vanished mid-scan; skip it this pass
		}
		for _, f := range sessionFiles {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".jsonl") {
				continue
			}
			info, err := f.Info()
			if err != nil {
				continue
			}
			out = append(out, DiscoveredSession{
				ProjectID:   projectEntry.Name(),
				ProjectPath: DecodeProjectDir(projectEntry.Name()),
				FilePath:    filepath.Join(projectDir, f.Name()),
				SizeBytes:   info.Size(),
				ModifiedAt:  info.ModTime().Unix(),
			})
		}
	}
	return out, nil
}

// SessionIDFromPath derives a session id from its file name, stripping
// the .jsonl extension, matching the producing tool's convention of
// naming each transcript file after its session uuid.
func SessionIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

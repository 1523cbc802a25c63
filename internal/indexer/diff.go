package indexer

import "github.com/claudeview/claudeview-go/internal/catalog"

// Classification is the outcome of comparing a discovered file against
// its recorded indexer_state row.
type Classification int

const (
	// ClassifySkip means the file's (size, mtime) matches what's already
	// recorded; Pass 2 does not need to touch it.
	ClassifySkip Classification = iota
	// ClassifyNew means the file has no recorded indexer_state row.
	ClassifyNew
	// ClassifyChanged means the file's size or mtime differs from the
	// recorded row, including the case where mtime went backwards (a
	// restored or rewritten file) — treated the same as a forward change
	// since either way the recorded state can no longer be trusted.
	ClassifyChanged
)

// Classify compares a discovered file against the previously recorded
// state for the same path, if any.
func Classify(discovered DiscoveredSession, recorded *catalog.IndexerFileState) Classification {
	if recorded == nil {
		return ClassifyNew
	}
	if discovered.SizeBytes != recorded.FileSize || discovered.ModifiedAt != recorded.ModifiedAt {
		return ClassifyChanged
	}
	return ClassifySkip
}

package indexer

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/claudeview/claudeview-go/internal/catalog"
	"github.com/claudeview/claudeview-go/internal/gitcorrelate"
	"github.com/claudeview/claudeview-go/internal/progress"
	"github.com/claudeview/claudeview-go/internal/searchindex"
	"github.com/claudeview/claudeview-go/internal/transcript"
)

// Indexer drives Pass 1 (shallow discovery) and Pass 2 (bounded-worker
// deep parse) against a catalog.DB and searchindex.Index.
//
// Pass 2's fan-out/fan-in replaces the teacher's ad hoc goroutine+channel
// pattern (ws/handler.go's per-connection writer goroutines) with a
// bounded worker pool feeding a single writer goroutine, so every
// catalog write happens on one goroutine and the
// upsert_invocables -> insert_invocations -> update_session_deep_fields ->
// put_indexer_state ordering holds without extra locking. The writer
// runs on its own plain goroutine rather than inside the parse workers'
// errgroup: a transaction failure writing one file's batch must not
// cancel the context the other workers are still parsing under.
type Indexer struct {
	DB       *catalog.DB
	Search   *searchindex.Index
	Progress *progress.State
	Workers  int // 0 = runtime.NumCPU()
}

// writeBatch is one Pass-2 worker's output, funneled to the single writer
// goroutine.
type writeBatch struct {
	session      catalog.SessionInfo
	invocables   []catalog.Invocable
	invocations  []catalog.Invocation
	docs         []searchindex.Document
	commitLinks  []commitLink
	linesAdded   uint32
	linesRemoved uint32
	state        catalog.IndexerFileState
}

// RunShallow performs Pass 1: for every discovered session file, upsert a
// shallow catalog row with cheap fields only. Never parses session
// bodies.
func (idx *Indexer) RunShallow(ctx context.Context, rootDir string) error {
	if idx.Progress != nil {
		idx.Progress.SetStatus(progress.StatusReadingIndexes)
	}

	discovered, err := DiscoverSessions(rootDir)
	if err != nil {
		if idx.Progress != nil {
			idx.Progress.SetError(err.Error())
		}
		return fmt.Errorf("indexer: discover sessions: %w", err)
	}

	projects := map[string]struct{}{}
	for _, d := range discovered {
		projects[d.ProjectID] = struct{}{}
	}
	if idx.Progress != nil {
		idx.Progress.SetProjectsFound(uint64(len(projects)))
		idx.Progress.SetSessionsFound(uint64(len(discovered)))
	}

	for _, d := range discovered {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		sessionID := SessionIDFromPath(d.FilePath)
		s := catalog.SessionInfo{
			ID:          sessionID,
			ProjectID:   d.ProjectID,
			ProjectPath: d.ProjectPath,
			FilePath:    d.FilePath,
			SizeBytes:   d.SizeBytes,
		}
		if err := idx.DB.UpsertSessionShallow(ctx, s); err != nil {
			if idx.Progress != nil {
				idx.Progress.SetError(err.Error())
			}
			return fmt.Errorf("indexer: upsert shallow %s: %w", d.FilePath, err)
		}
	}
	return nil
}

// RunDeep performs Pass 2: diff every discovered file against recorded
// indexer_state, parse the ones classified New or Changed with a bounded
// worker pool, and write results through the ordered barrier described in
// writeLoop's doc comment.
func (idx *Indexer) RunDeep(ctx context.Context, rootDir string) error {
	if idx.Progress != nil {
		idx.Progress.SetStatus(progress.StatusDeepIndexing)
	}

	discovered, err := DiscoverSessions(rootDir)
	if err != nil {
		if idx.Progress != nil {
			idx.Progress.SetError(err.Error())
		}
		return fmt.Errorf("indexer: discover sessions: %w", err)
	}

	recordedStates, err := idx.DB.IterIndexerState(ctx)
	if err != nil {
		return fmt.Errorf("indexer: load indexer state: %w", err)
	}
	recordedByPath := make(map[string]*catalog.IndexerFileState, len(recordedStates))
	for i := range recordedStates {
		recordedByPath[recordedStates[i].FilePath] = &recordedStates[i]
	}

	var toParse []DiscoveredSession
	for _, d := range discovered {
		if Classify(d, recordedByPath[d.FilePath]) != ClassifySkip {
			toParse = append(toParse, d)
		}
	}

	if idx.Progress != nil {
		idx.Progress.SetTotal(uint64(len(toParse)))
		var bytesTotal uint64
		for _, d := range toParse {
			bytesTotal += uint64(d.SizeBytes)
		}
		idx.Progress.SetBytesTotal(bytesTotal)
	}

	workers := idx.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	batches := make(chan writeBatch, workers*2)
	writeDone := make(chan struct{})
	var snapshots map[contributionKey]*contributionTotals
	go func() {
		defer close(writeDone)
		snapshots = idx.writeLoop(ctx, batches)
	}()

	gitCache := newGitScanCache()
	sem := make(chan struct{}, workers)
	var workersGroup errgroup.Group
	for _, d := range toParse {
		d := d
		select {
		case <-ctx.Done():
			break
		default:
		}
		sem <- struct{}{}
		workersGroup.Go(func() error {
			defer func() { <-sem }()
			batch, err := idx.parseOne(ctx, gitCache, d)
			if err != nil {
				return fmt.Errorf("indexer: parse %s: %w", d.FilePath, err)
			}
			select {
			case batches <- batch:
			case <-ctx.Done():
				return ctx.Err()
			}
			if idx.Progress != nil {
				idx.Progress.IncrementIndexed()
				idx.Progress.AddBytesProcessed(uint64(d.SizeBytes))
			}
			return nil
		})
	}

	workerErr := workersGroup.Wait()
	close(batches)
	<-writeDone

	if workerErr != nil {
		if idx.Progress != nil {
			idx.Progress.SetError(workerErr.Error())
		}
		return workerErr
	}

	if err := idx.Search.Commit(); err != nil {
		return fmt.Errorf("indexer: commit search index: %w", err)
	}

	for key, t := range snapshots {
		err := idx.DB.PutContributionSnapshot(ctx, key.date, key.projectID, key.branch,
			t.sessions, t.linesAdded, t.linesRemoved, int64(len(t.commits)))
		if err != nil {
			slog.Error("indexer: put contribution snapshot failed", "date", key.date, "project", key.projectID, "err", err)
		}
	}

	if idx.Progress != nil {
		idx.Progress.SetStatus(progress.StatusDone)
	}
	return nil
}

// parseOne parses a single discovered file, producing everything the
// writer needs, off the catalog's single writer goroutine.
func (idx *Indexer) parseOne(ctx context.Context, gitCache *gitScanCache, d DiscoveredSession) (writeBatch, error) {
	f, err := os.Open(d.FilePath)
	if err != nil {
		return writeBatch{}, err
	}
	defer f.Close()

	parsed, err := transcript.ParseSession(f)
	if err != nil {
		return writeBatch{}, err
	}

	sessionID := SessionIDFromPath(d.FilePath)
	branch := parsed.GitBranch
	var branchPtr *string
	if branch != "" {
		branchPtr = &branch
	}

	var firstMessageAt, lastMessageAt *int64
	for _, m := range parsed.Messages {
		if m.Timestamp == 0 {
			continue
		}
		ts := m.Timestamp
		if firstMessageAt == nil || ts < *firstMessageAt {
			firstMessageAt = &ts
		}
		if lastMessageAt == nil || ts > *lastMessageAt {
			lastMessageAt = &ts
		}
	}

	session := catalog.SessionInfo{
		ID:                  sessionID,
		ProjectID:           d.ProjectID,
		ProjectPath:         d.ProjectPath,
		FilePath:            d.FilePath,
		FileHash:            fileHash(d.FilePath),
		Preview:             parsed.Preview,
		TurnCount:           int(parsed.TurnCount),
		MessageCount:        int(parsed.MessageCount),
		FirstMessageAt:      firstMessageAt,
		LastMessageAt:       lastMessageAt,
		FilesTouched:        parsed.FilesTouched,
		SkillsUsed:          parsed.SkillsUsed,
		ToolCountsEdit:      int(parsed.ToolCounts.Edit),
		ToolCountsRead:      int(parsed.ToolCounts.Read),
		ToolCountsBash:      int(parsed.ToolCounts.Bash),
		ToolCountsWrite:     int(parsed.ToolCounts.Write),
		GitBranch:           branchPtr,
		IsSidechain:         parsed.IsSidechain,
		InputTokens:         int64(parsed.InputTokens),
		OutputTokens:        int64(parsed.OutputTokens),
		CacheReadTokens:     int64(parsed.CacheReadTokens),
		CacheCreationTokens: int64(parsed.CacheCreateTokens),
		PrimaryModel:        parsed.PrimaryModel,
		ReeditedFilesCount:  int(parsed.ReeditedFileCount()),
	}

	var commitLinks []commitLink
	if gitCache != nil && d.ProjectPath != "" {
		var sessionStart, sessionEnd int64
		if firstMessageAt != nil {
			sessionStart = *firstMessageAt
		}
		if lastMessageAt != nil {
			sessionEnd = *lastMessageAt
		}
		bashInvocations := bashInvocationsFrom(parsed.ToolInvocations)
		commitLinks = correlateCommits(ctx, gitCache, d.ProjectPath, branch, sessionID, bashInvocations, sessionStart, sessionEnd)
	}

	var invocables []catalog.Invocable
	var invocations []catalog.Invocation
	var docs []searchindex.Document
	seenInvocable := map[string]struct{}{}
	for _, m := range parsed.Messages {
		docs = append(docs, searchindex.Document{
			SessionID:  sessionID,
			Project:    d.ProjectID,
			Branch:     branch,
			Model:      m.Model,
			Role:       m.Role,
			Content:    m.Content,
			TurnNumber: m.TurnNumber,
			Timestamp:  m.Timestamp,
			Skills:     m.Skills,
		})
	}
	for _, inv := range parsed.ToolInvocations {
		if _, ok := seenInvocable[inv.Name]; !ok {
			seenInvocable[inv.Name] = struct{}{}
			invocables = append(invocables, catalog.Invocable{
				ID:       inv.Name,
				Name:     inv.Name,
				Category: string(inv.Category),
			})
		}
		invocations = append(invocations, catalog.Invocation{
			InvocableID: inv.Name,
			SessionID:   sessionID,
			FilePath:    d.FilePath,
			LineOffset:  inv.LineOffset,
			Timestamp:   inv.Timestamp,
		})
	}

	return writeBatch{
		session:      session,
		invocables:   invocables,
		invocations:  invocations,
		docs:         docs,
		commitLinks:  commitLinks,
		linesAdded:   parsed.LinesAdded,
		linesRemoved: parsed.LinesRemoved,
		state: catalog.IndexerFileState{
			FilePath:   d.FilePath,
			FileSize:   d.SizeBytes,
			ModifiedAt: d.ModifiedAt,
			IndexedAt:  d.ModifiedAt,
		},
	}, nil
}

// contributionKey buckets one day's contribution_snapshots row by
// project/branch, mirroring PutContributionSnapshot's (date, project_id,
// branch) primary key.
type contributionKey struct {
	date      string
	projectID string
	branch    string
}

type contributionTotals struct {
	sessions     int64
	linesAdded   int64
	linesRemoved int64
	commits      map[string]struct{}
}

// writeLoop is the single goroutine that applies every write batch,
// holding the ordering guarantee: upsert_invocables, then
// insert_invocations, then update_session_deep_fields, then
// put_indexer_state. A batch whose transaction fails is logged and
// skipped rather than aborting the run: one bad file must not take down
// every other file's write in the same pass. Returns this pass's
// per-day/project/branch contribution totals for RunDeep to persist once
// every batch has landed.
func (idx *Indexer) writeLoop(ctx context.Context, batches <-chan writeBatch) map[contributionKey]*contributionTotals {
	snapshots := make(map[contributionKey]*contributionTotals)
	for b := range batches {
		if err := idx.applyBatch(ctx, b); err != nil {
			slog.Error("indexer: skipping batch after write failure", "session", b.session.ID, "file", b.session.FilePath, "err", err)
			continue
		}
		accumulateContribution(snapshots, b)
	}
	return snapshots
}

func accumulateContribution(snapshots map[contributionKey]*contributionTotals, b writeBatch) {
	ts := b.state.ModifiedAt
	if ts == 0 && b.session.FirstMessageAt != nil {
		ts = *b.session.FirstMessageAt
	}
	if ts == 0 {
		return
	}
	branch := ""
	if b.session.GitBranch != nil {
		branch = *b.session.GitBranch
	}
	key := contributionKey{
		date:      time.Unix(ts, 0).UTC().Format("2006-01-02"),
		projectID: b.session.ProjectID,
		branch:    branch,
	}
	t, ok := snapshots[key]
	if !ok {
		t = &contributionTotals{commits: make(map[string]struct{})}
		snapshots[key] = t
	}
	t.sessions++
	t.linesAdded += int64(b.linesAdded)
	t.linesRemoved += int64(b.linesRemoved)
	for _, link := range b.commitLinks {
		t.commits[link.commit.Hash] = struct{}{}
	}
}

func (idx *Indexer) applyBatch(ctx context.Context, b writeBatch) error {
	if err := idx.DB.UpsertSessionShallow(ctx, b.session); err != nil {
		return fmt.Errorf("upsert session shallow: %w", err)
	}

	if len(b.invocables) > 0 || len(b.invocations) > 0 {
		err := idx.DB.WithTx(ctx, func(tx *sql.Tx) error {
			if err := catalog.BatchUpsertInvocables(ctx, tx, b.invocables); err != nil {
				return err
			}
			return catalog.BatchInsertInvocations(ctx, tx, b.invocations)
		})
		if err != nil {
			return fmt.Errorf("write invocables/invocations: %w", err)
		}
	}

	deepIndexedAt := b.state.IndexedAt
	if err := idx.DB.UpdateSessionDeepFields(ctx, b.session.ID, b.session, deepIndexedAt); err != nil {
		return fmt.Errorf("update deep fields: %w", err)
	}

	if idx.Search != nil && len(b.docs) > 0 {
		if err := idx.Search.IndexSession(b.session.ID, b.docs); err != nil {
			return fmt.Errorf("index search docs: %w", err)
		}
	}

	for _, link := range b.commitLinks {
		if err := idx.DB.UpsertCommit(ctx, toCatalogCommit(link.commit)); err != nil {
			return fmt.Errorf("upsert commit %s: %w", link.commit.Hash, err)
		}
		for _, m := range link.matches {
			evidence, err := gitcorrelate.MarshalEvidence(m.Evidence)
			if err != nil {
				return fmt.Errorf("marshal commit evidence: %w", err)
			}
			if err := idx.DB.LinkSessionCommit(ctx, m.SessionID, m.CommitHash, link.commit.RepoPath, m.Tier, evidence); err != nil {
				return fmt.Errorf("link session commit: %w", err)
			}
		}
	}

	if err := idx.DB.PutIndexerState(ctx, b.state); err != nil {
		return fmt.Errorf("put indexer state: %w", err)
	}
	return nil
}

func fileHash(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	h := sha1.New()
	buf := make([]byte, 64*1024)
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if readErr != nil {
			break
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

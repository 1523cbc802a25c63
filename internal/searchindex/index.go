package searchindex

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// fieldSessionID is the bleve field every document is tagged with, used
// to implement per-session delete-then-add.
const fieldSessionID = "session_id"

// poisonableMutex detects a panic mid-critical-section and surfaces that
// as a permanent I/O-class error on every later call, mirroring Rust's
// poisoned-mutex semantics (spec.md: "poisoned mutex surfaces as I/O-class
// error").
type poisonableMutex struct {
	mu      sync.Mutex
	poisoned bool
}

var errPoisoned = fmt.Errorf("searchindex: writer mutex poisoned by a prior panic: %w", io.ErrClosedPipe)

// withLock runs fn holding the mutex, marking it poisoned if fn panics.
func (m *poisonableMutex) withLock(fn func() error) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.poisoned {
		return errPoisoned
	}
	defer func() {
		if r := recover(); r != nil {
			m.poisoned = true
			err = fmt.Errorf("searchindex: writer panicked: %v: %w", r, io.ErrClosedPipe)
		}
	}()
	return fn()
}

// Index wraps a bleve index with the per-session delete-then-add
// discipline and an explicit Commit step.
type Index struct {
	bi    bleve.Index
	mu    poisonableMutex
	batch *bleve.Batch
}

// Open opens the index at path, creating it (with a default mapping) if
// it doesn't already exist.
func Open(path string) (*Index, error) {
	bi, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		mapping := bleve.NewIndexMapping()
		bi, err = bleve.New(path, mapping)
	}
	if err != nil {
		return nil, fmt.Errorf("searchindex: open %s: %w", path, err)
	}
	return &Index{bi: bi, batch: bi.NewBatch()}, nil
}

// OpenMemory opens an in-memory-only index, used by tests and by any
// caller that doesn't need the index to survive a restart.
func OpenMemory() (*Index, error) {
	mapping := bleve.NewIndexMapping()
	bi, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("searchindex: open in-memory index: %w", err)
	}
	return &Index{bi: bi, batch: bi.NewBatch()}, nil
}

// Close releases the underlying bleve index.
func (idx *Index) Close() error {
	return idx.bi.Close()
}

func docID(sessionID string, turnNumber uint64) string {
	return sessionID + "#" + strconv.FormatUint(turnNumber, 10)
}

// IndexSession stages a delete of every existing document for sessionID
// followed by an add of docs, all inside the pending batch. Nothing is
// visible to Search until Commit is called.
func (idx *Index) IndexSession(sessionID string, docs []Document) error {
	return idx.mu.withLock(func() error {
		if err := idx.stageDeleteSessionLocked(sessionID); err != nil {
			return err
		}
		for _, d := range docs {
			id := docID(sessionID, d.TurnNumber)
			if err := idx.batch.Index(id, d); err != nil {
				return fmt.Errorf("searchindex: stage index %s: %w", id, err)
			}
		}
		return nil
	})
}

// DeleteSession stages removal of every document belonging to sessionID,
// without adding anything new.
func (idx *Index) DeleteSession(sessionID string) error {
	return idx.mu.withLock(func() error {
		return idx.stageDeleteSessionLocked(sessionID)
	})
}

func (idx *Index) stageDeleteSessionLocked(sessionID string) error {
	q := bleve.NewTermQuery(sessionID)
	q.SetField(fieldSessionID)
	ids, err := idx.matchingIDs(q)
	if err != nil {
		return fmt.Errorf("searchindex: find existing docs for %s: %w", sessionID, err)
	}
	for _, id := range ids {
		idx.batch.Delete(id)
	}
	return nil
}

func (idx *Index) matchingIDs(q query.Query) ([]string, error) {
	req := bleve.NewSearchRequestOptions(q, 10000, 0, false)
	res, err := idx.bi.Search(req)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

// Commit flushes all staged deletes/adds to the underlying index and
// resets the pending batch.
func (idx *Index) Commit() error {
	return idx.mu.withLock(func() error {
		if idx.batch.Size() == 0 {
			return nil
		}
		if err := idx.bi.Batch(idx.batch); err != nil {
			return fmt.Errorf("searchindex: commit batch: %w", err)
		}
		idx.batch = idx.bi.NewBatch()
		return nil
	})
}

// Search parses qs for qualifiers (project:, branch:) and the remaining
// free text, then runs the query and assembles a Response grouped by
// session. offset skips the first offset hits, for pagination past the
// first page.
func (idx *Index) Search(qs string, limit, offset int) (*Response, error) {
	start := time.Now()
	terms, project, branch := parseQualifiers(qs)

	var q query.Query
	if terms == "" {
		q = bleve.NewMatchAllQuery()
	} else {
		mq := bleve.NewMatchQuery(terms)
		mq.SetField("content")
		q = mq
	}
	conjuncts := []query.Query{q}
	if project != "" {
		tq := bleve.NewTermQuery(project)
		tq.SetField("project")
		conjuncts = append(conjuncts, tq)
	}
	if branch != "" {
		tq := bleve.NewTermQuery(branch)
		tq.SetField("branch")
		conjuncts = append(conjuncts, tq)
	}
	finalQuery := q
	if len(conjuncts) > 1 {
		finalQuery = bleve.NewConjunctionQuery(conjuncts...)
	}

	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	req := bleve.NewSearchRequestOptions(finalQuery, limit, offset, false)
	req.Fields = []string{"session_id", "project", "branch", "role", "turn_number", "timestamp"}
	req.Highlight = bleve.NewHighlight()

	res, err := idx.bi.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searchindex: search: %w", err)
	}

	bySession := map[string]*SessionHit{}
	var order []string
	for _, hit := range res.Hits {
		sessionID := fieldString(hit.Fields, "session_id")
		sh, ok := bySession[sessionID]
		if !ok {
			sh = &SessionHit{
				SessionID:  sessionID,
				Project:    fieldString(hit.Fields, "project"),
				Branch:     fieldString(hit.Fields, "branch"),
				ModifiedAt: fieldInt64(hit.Fields, "timestamp"),
			}
			bySession[sessionID] = sh
			order = append(order, sessionID)
		}
		match := MatchHit{
			Role:       fieldString(hit.Fields, "role"),
			TurnNumber: uint64(fieldInt64(hit.Fields, "turn_number")),
			Snippet:    firstFragment(hit.Fragments),
			Timestamp:  fieldInt64(hit.Fields, "timestamp"),
		}
		sh.Matches = append(sh.Matches, match)
		sh.MatchCount++
		if hit.Score > sh.BestScore {
			sh.BestScore = hit.Score
			sh.TopMatch = match
		}
	}

	sessions := make([]SessionHit, 0, len(order))
	totalMatches := 0
	for _, id := range order {
		sh := bySession[id]
		sessions = append(sessions, *sh)
		totalMatches += sh.MatchCount
	}

	return &Response{
		Query:         qs,
		TotalSessions: len(sessions),
		TotalMatches:  totalMatches,
		ElapsedMS:     float64(time.Since(start).Microseconds()) / 1000.0,
		Sessions:      sessions,
	}, nil
}

func fieldString(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func fieldInt64(fields map[string]interface{}, key string) int64 {
	switch v := fields[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}

func firstFragment(fragments map[string][]string) string {
	if frags, ok := fragments["content"]; ok && len(frags) > 0 {
		return frags[0]
	}
	return ""
}

// parseQualifiers splits qs into remaining free-text terms and the
// project:/branch: qualifier values. Qualifiers are hand-rolled rather
// than delegated to bleve's query-string syntax so behavior matches the
// original implementation's bespoke parser exactly.
func parseQualifiers(qs string) (terms, project, branch string) {
	var rest []string
	for _, tok := range strings.Fields(qs) {
		switch {
		case strings.HasPrefix(tok, "project:"):
			project = strings.TrimPrefix(tok, "project:")
		case strings.HasPrefix(tok, "branch:"):
			branch = strings.TrimPrefix(tok, "branch:")
		default:
			rest = append(rest, tok)
		}
	}
	return strings.Join(rest, " "), project, branch
}

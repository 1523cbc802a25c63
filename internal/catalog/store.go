// Package catalog is the durable relational store for session metadata,
// tool invocations, git commits, and indexer file-state. Backed by
// modernc.org/sqlite (cgo-free) via database/sql.
//
// Grounded in original_source/crates/db (migrations, queries) and in the
// teacher's session/manager.go, whose save-under-mutex discipline is
// generalized here into a transaction-under-pool discipline appropriate
// for SQL: see WithTx.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a *sql.DB opened against the catalog database file (or an
// in-memory database for tests).
type DB struct {
	conn *sql.DB
}

// Open opens (creating if absent) the catalog database at path and runs
// all pending migrations. Pass ":memory:" for an ephemeral in-process
// database, the pattern used throughout this package's tests.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers
	db := &DB{conn: conn}
	if err := db.Migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalog: migrate: %w", err)
	}
	return db, nil
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on error or panic.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// SessionInfo is the catalog's row shape for a session, matching spec.md
// §3's Session entity.
type SessionInfo struct {
	ID                  string
	ProjectID           string
	ProjectPath         string
	ProjectDisplayName  string
	FilePath            string
	FileHash            string
	SizeBytes           int64
	Preview             string
	LastMessage         string
	TurnCount           int
	MessageCount        int
	FirstMessageAt      *int64
	LastMessageAt       *int64
	IndexedAt           *int64
	FilesTouched        []string
	SkillsUsed          []string
	ToolCountsEdit      int
	ToolCountsRead      int
	ToolCountsBash      int
	ToolCountsWrite     int
	GitBranch           *string
	IsSidechain         bool
	DeepIndexedAt       *int64
	InputTokens         int64
	OutputTokens        int64
	CacheReadTokens     int64
	CacheCreationTokens int64
	PrimaryModel        string
	ReeditedFilesCount  int
}

// ToolCallCount is the sum of the four tracked tool-count buckets.
func (s SessionInfo) ToolCallCount() int {
	return s.ToolCountsEdit + s.ToolCountsRead + s.ToolCountsBash + s.ToolCountsWrite
}

// UpsertSessionShallow inserts or refreshes the cheap fields discovered by
// Pass 1 (shallow scan). Deep fields (tokens, branch, sidechain,
// deep_indexed_at) are left untouched on conflict.
func (db *DB) UpsertSessionShallow(ctx context.Context, s SessionInfo) error {
	filesJSON, err := json.Marshal(nonNilStrings(s.FilesTouched))
	if err != nil {
		return err
	}
	skillsJSON, err := json.Marshal(nonNilStrings(s.SkillsUsed))
	if err != nil {
		return err
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO sessions (
			id, project_id, project_path, project_display_name, file_path,
			file_hash, size_bytes, preview, last_message, turn_count,
			message_count, first_message_at, last_message_at, indexed_at,
			files_touched, skills_used,
			tool_counts_edit, tool_counts_read, tool_counts_bash, tool_counts_write
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(file_path) DO UPDATE SET
			project_id=excluded.project_id,
			project_path=excluded.project_path,
			project_display_name=excluded.project_display_name,
			file_hash=excluded.file_hash,
			size_bytes=excluded.size_bytes,
			preview=excluded.preview,
			last_message=excluded.last_message,
			turn_count=excluded.turn_count,
			message_count=excluded.message_count,
			first_message_at=excluded.first_message_at,
			last_message_at=excluded.last_message_at,
			indexed_at=excluded.indexed_at,
			files_touched=excluded.files_touched,
			skills_used=excluded.skills_used,
			tool_counts_edit=excluded.tool_counts_edit,
			tool_counts_read=excluded.tool_counts_read,
			tool_counts_bash=excluded.tool_counts_bash,
			tool_counts_write=excluded.tool_counts_write
	`,
		s.ID, s.ProjectID, s.ProjectPath, s.ProjectDisplayName, s.FilePath,
		s.FileHash, s.SizeBytes, s.Preview, s.LastMessage, s.TurnCount,
		s.MessageCount, s.FirstMessageAt, s.LastMessageAt, s.IndexedAt,
		string(filesJSON), string(skillsJSON),
		s.ToolCountsEdit, s.ToolCountsRead, s.ToolCountsBash, s.ToolCountsWrite,
	)
	return err
}

// UpdateSessionDeepFields writes the fields only a full parse (Pass 2)
// can populate, and stamps deep_indexed_at.
func (db *DB) UpdateSessionDeepFields(ctx context.Context, sessionID string, s SessionInfo, deepIndexedAt int64) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE sessions SET
			git_branch=?, is_sidechain=?, input_tokens=?, output_tokens=?,
			cache_read_tokens=?, cache_creation_tokens=?, primary_model=?,
			reedited_files_count=?, deep_indexed_at=?
		WHERE id=?
	`,
		s.GitBranch, s.IsSidechain, s.InputTokens, s.OutputTokens,
		s.CacheReadTokens, s.CacheCreationTokens, s.PrimaryModel,
		s.ReeditedFilesCount, deepIndexedAt, sessionID,
	)
	return err
}

// GetSession fetches one session by id.
func (db *DB) GetSession(ctx context.Context, id string) (*SessionInfo, error) {
	row := db.conn.QueryRowContext(ctx, sessionSelectColumns+` WHERE id = ?`, id)
	return scanSession(row)
}

// ListSessions returns sessions matching the branch filter, most recent
// first.
func (db *DB) ListSessions(ctx context.Context, projectID string, filter BranchFilter) ([]SessionInfo, error) {
	query := sessionSelectColumns + ` WHERE (? = '' OR project_id = ?)`
	args := []any{projectID, projectID}
	switch filter.Kind {
	case BranchNone:
		query += ` AND (git_branch IS NULL OR git_branch = '')`
	case BranchNamed:
		query += ` AND git_branch = ?`
		args = append(args, filter.Name)
	}
	query += ` ORDER BY last_message_at DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		s, err := scanSessionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

const sessionSelectColumns = `
	SELECT id, project_id, project_path, project_display_name, file_path,
		file_hash, size_bytes, preview, last_message, turn_count,
		message_count, first_message_at, last_message_at, indexed_at,
		files_touched, skills_used,
		tool_counts_edit, tool_counts_read, tool_counts_bash, tool_counts_write,
		git_branch, is_sidechain, deep_indexed_at, input_tokens, output_tokens,
		cache_read_tokens, cache_creation_tokens, primary_model, reedited_files_count
	FROM sessions`

type scannable interface {
	Scan(dest ...any) error
}

func scanSession(row scannable) (*SessionInfo, error) {
	return scanSessionRows(row)
}

func scanSessionRows(row scannable) (*SessionInfo, error) {
	var s SessionInfo
	var filesJSON, skillsJSON string
	var isSidechain int
	var fileHash, gitBranch sql.NullString
	err := row.Scan(
		&s.ID, &s.ProjectID, &s.ProjectPath, &s.ProjectDisplayName, &s.FilePath,
		&fileHash, &s.SizeBytes, &s.Preview, &s.LastMessage, &s.TurnCount,
		&s.MessageCount, &s.FirstMessageAt, &s.LastMessageAt, &s.IndexedAt,
		&filesJSON, &skillsJSON,
		&s.ToolCountsEdit, &s.ToolCountsRead, &s.ToolCountsBash, &s.ToolCountsWrite,
		&gitBranch, &isSidechain, &s.DeepIndexedAt, &s.InputTokens, &s.OutputTokens,
		&s.CacheReadTokens, &s.CacheCreationTokens, &s.PrimaryModel, &s.ReeditedFilesCount,
	)
	if err != nil {
		return nil, err
	}
	if fileHash.Valid {
		s.FileHash = fileHash.String
	}
	if gitBranch.Valid {
		s.GitBranch = &gitBranch.String
	}
	s.IsSidechain = isSidechain != 0
	_ = json.Unmarshal([]byte(filesJSON), &s.FilesTouched)
	_ = json.Unmarshal([]byte(skillsJSON), &s.SkillsUsed)
	return &s, nil
}

func nonNilStrings(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

// IndexerFileState is one row of the indexer_state table: the sole source
// of truth for whether a file needs re-parsing.
type IndexerFileState struct {
	FilePath   string
	FileSize   int64
	ModifiedAt int64
	IndexedAt  int64
}

// GetIndexerState fetches the recorded state for path, if any.
func (db *DB) GetIndexerState(ctx context.Context, path string) (*IndexerFileState, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT file_path, file_size, modified_at, indexed_at FROM indexer_state WHERE file_path = ?`, path)
	var s IndexerFileState
	if err := row.Scan(&s.FilePath, &s.FileSize, &s.ModifiedAt, &s.IndexedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// PutIndexerState upserts the file-state row for path.
func (db *DB) PutIndexerState(ctx context.Context, s IndexerFileState) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO indexer_state (file_path, file_size, modified_at, indexed_at)
		VALUES (?,?,?,?)
		ON CONFLICT(file_path) DO UPDATE SET
			file_size=excluded.file_size, modified_at=excluded.modified_at, indexed_at=excluded.indexed_at
	`, s.FilePath, s.FileSize, s.ModifiedAt, s.IndexedAt)
	return err
}

// IterIndexerState returns every recorded file-state row, loaded by Pass 2
// to classify each discovered file as new, changed, or unchanged.
func (db *DB) IterIndexerState(ctx context.Context) ([]IndexerFileState, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT file_path, file_size, modified_at, indexed_at FROM indexer_state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []IndexerFileState
	for rows.Next() {
		var s IndexerFileState
		if err := rows.Scan(&s.FilePath, &s.FileSize, &s.ModifiedAt, &s.IndexedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Invocable is a canonical tool identity.
type Invocable struct {
	ID       string
	Name     string
	Category string
}

// Invocation is one tool-use occurrence.
type Invocation struct {
	InvocableID string
	SessionID   string
	FilePath    string
	LineOffset  int64
	Timestamp   int64
}

// BatchUpsertInvocables inserts any invocables not already known, inside
// tx, preserving the ordering guarantee
// upsert_invocables -> insert_invocations -> update_session_deep_fields ->
// put_indexer_state that the indexer's Pass 2 write barrier relies on.
func BatchUpsertInvocables(ctx context.Context, tx *sql.Tx, invocables []Invocable) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO invocables (id, name, category) VALUES (?,?,?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, category=excluded.category
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, inv := range invocables {
		if _, err := stmt.ExecContext(ctx, inv.ID, inv.Name, inv.Category); err != nil {
			return err
		}
	}
	return nil
}

// BatchInsertInvocations inserts invocation rows inside tx, deduping by
// the natural (file_path, line_offset) key.
func BatchInsertInvocations(ctx context.Context, tx *sql.Tx, invocations []Invocation) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO invocations (invocable_id, session_id, file_path, line_offset, timestamp)
		VALUES (?,?,?,?,?)
		ON CONFLICT(file_path, line_offset) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, inv := range invocations {
		if _, err := stmt.ExecContext(ctx, inv.InvocableID, inv.SessionID, inv.FilePath, inv.LineOffset, inv.Timestamp); err != nil {
			return err
		}
	}
	return nil
}

// Commit is a git commit discovered by the git correlator.
type Commit struct {
	Hash      string
	RepoPath  string
	Message   string
	Author    *string
	Timestamp int64
	Branch    *string
}

// UpsertCommit inserts or refreshes a commit row, keyed by (hash, repo_path).
func (db *DB) UpsertCommit(ctx context.Context, c Commit) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO commits (hash, repo_path, message, author, timestamp, branch)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(hash, repo_path) DO UPDATE SET
			message=excluded.message, author=excluded.author,
			timestamp=excluded.timestamp, branch=excluded.branch
	`, c.Hash, c.RepoPath, c.Message, c.Author, c.Timestamp, c.Branch)
	return err
}

// LinkSessionCommit records a session-commit correlation with its tier
// and supporting evidence.
func (db *DB) LinkSessionCommit(ctx context.Context, sessionID, commitHash, repoPath string, tier int, evidence json.RawMessage) error {
	if evidence == nil {
		evidence = json.RawMessage(`{}`)
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO session_commits (session_id, commit_hash, repo_path, tier, evidence_json)
		VALUES (?,?,?,?,?)
		ON CONFLICT(session_id, commit_hash, repo_path) DO UPDATE SET
			tier=excluded.tier, evidence_json=excluded.evidence_json
	`, sessionID, commitHash, repoPath, tier, string(evidence))
	return err
}

// AppSettings mirrors queries/settings.rs's AppSettings row.
type AppSettings struct {
	LLMModel       string
	LLMTimeoutSecs int64
}

// GetAppSettings returns the single settings row, seeding defaults
// (llm_model="haiku", llm_timeout_secs=120) on first read.
func (db *DB) GetAppSettings(ctx context.Context) (AppSettings, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT llm_model, llm_timeout_secs FROM app_settings WHERE id = 1`)
	var s AppSettings
	err := row.Scan(&s.LLMModel, &s.LLMTimeoutSecs)
	if err == sql.ErrNoRows {
		s = AppSettings{LLMModel: "haiku", LLMTimeoutSecs: 120}
		_, err = db.conn.ExecContext(ctx,
			`INSERT INTO app_settings (id, llm_model, llm_timeout_secs) VALUES (1, ?, ?)`,
			s.LLMModel, s.LLMTimeoutSecs)
		return s, err
	}
	return s, err
}

// UpdateAppSettings applies a partial update: nil fields are left
// untouched.
func (db *DB) UpdateAppSettings(ctx context.Context, llmModel *string, llmTimeoutSecs *int64) error {
	if _, err := db.GetAppSettings(ctx); err != nil { // ensure row exists
		return err
	}
	if llmModel != nil {
		if _, err := db.conn.ExecContext(ctx, `UPDATE app_settings SET llm_model = ? WHERE id = 1`, *llmModel); err != nil {
			return err
		}
	}
	if llmTimeoutSecs != nil {
		if _, err := db.conn.ExecContext(ctx, `UPDATE app_settings SET llm_timeout_secs = ? WHERE id = 1`, *llmTimeoutSecs); err != nil {
			return err
		}
	}
	return nil
}

// ListPairedDevices returns the peer device ids paired with deviceID.
func (db *DB) ListPairedDevices(ctx context.Context, deviceID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT peer_device_id FROM paired_devices WHERE device_id = ? ORDER BY paired_at`, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var peer string
		if err := rows.Scan(&peer); err != nil {
			return nil, err
		}
		out = append(out, peer)
	}
	return out, rows.Err()
}

// AddPairedDevice records a symmetric pairing between two devices.
func (db *DB) AddPairedDevice(ctx context.Context, deviceID, peerID string, pairedAt int64) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, pair := range [][2]string{{deviceID, peerID}, {peerID, deviceID}} {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO paired_devices (device_id, peer_device_id, paired_at) VALUES (?,?,?)
				ON CONFLICT(device_id, peer_device_id) DO NOTHING
			`, pair[0], pair[1], pairedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemovePairedDevice removes a pairing in both directions.
func (db *DB) RemovePairedDevice(ctx context.Context, deviceID, peerID string) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, pair := range [][2]string{{deviceID, peerID}, {peerID, deviceID}} {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM paired_devices WHERE device_id = ? AND peer_device_id = ?`, pair[0], pair[1]); err != nil {
				return err
			}
		}
		return nil
	})
}

// DashboardStats is an aggregate summary over the whole catalog,
// supplementing spec.md's distilled "aggregate stats queries" bullet with
// the trend/snapshot queries dropped from the original's db/src/trends.rs.
type DashboardStats struct {
	TotalSessions      int64
	TotalProjects      int64
	TotalInputTok      int64
	TotalOutputTok     int64
	SessionsWithCommit int64
}

// GetDashboardStats computes whole-catalog totals in a single query.
func (db *DB) GetDashboardStats(ctx context.Context) (DashboardStats, error) {
	var s DashboardStats
	row := db.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(DISTINCT project_id),
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0),
			(SELECT COUNT(DISTINCT session_id) FROM session_commits)
		FROM sessions
	`)
	err := row.Scan(&s.TotalSessions, &s.TotalProjects, &s.TotalInputTok, &s.TotalOutputTok, &s.SessionsWithCommit)
	return s, err
}

// SessionIDsWithCommits returns the set of session ids that have at least
// one linked commit, letting callers derive a per-session HasCommit flag
// without a query per session.
func (db *DB) SessionIDsWithCommits(ctx context.Context) (map[string]bool, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT DISTINCT session_id FROM session_commits`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// TokenTrendPoint is one day's token totals, the unit GetTokenTrend returns.
type TokenTrendPoint struct {
	Date         string
	InputTokens  int64
	OutputTokens int64
	Sessions     int64
}

// GetTokenTrend aggregates sessions.input_tokens/output_tokens by the date
// derived from last_message_at, most recent day first, bounded to the
// last `days` calendar days.
func (db *DB) GetTokenTrend(ctx context.Context, days int) ([]TokenTrendPoint, error) {
	if days <= 0 {
		days = 30
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT
			date(last_message_at, 'unixepoch') AS day,
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0),
			COUNT(*)
		FROM sessions
		WHERE last_message_at IS NOT NULL
			AND last_message_at >= strftime('%s', date('now', ?))
		GROUP BY day
		ORDER BY day DESC
	`, fmt.Sprintf("-%d days", days))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TokenTrendPoint
	for rows.Next() {
		var p TokenTrendPoint
		if err := rows.Scan(&p.Date, &p.InputTokens, &p.OutputTokens, &p.Sessions); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AIGenerationTotals summarizes AI-authored line churn recorded in
// contribution_snapshots for a scope (project/branch, or the whole
// catalog when both are empty).
type AIGenerationTotals struct {
	LinesAdded   int64
	LinesRemoved int64
	Commits      int64
	Sessions     int64
	EstimatedUSD float64
}

// GetAIGenerationStats sums contribution_snapshots rows for the given
// project/branch scope. An empty projectID or branch leaves that
// dimension unfiltered, so rows of every project/branch are summed.
func (db *DB) GetAIGenerationStats(ctx context.Context, projectID, branch string) (AIGenerationTotals, error) {
	var projectArg, branchArg any
	if projectID != "" {
		projectArg = projectID
	}
	if branch != "" {
		branchArg = branch
	}
	var t AIGenerationTotals
	row := db.conn.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(ai_lines_added), 0),
			COALESCE(SUM(ai_lines_removed), 0),
			COALESCE(SUM(commits_count), 0),
			COALESCE(SUM(sessions_count), 0),
			COALESCE(SUM(estimated_cost_usd), 0)
		FROM contribution_snapshots
		WHERE (? IS NULL OR project_id = ?)
			AND (? IS NULL OR branch = ?)
	`, projectArg, projectArg, branchArg, branchArg)
	err := row.Scan(&t.LinesAdded, &t.LinesRemoved, &t.Commits, &t.Sessions, &t.EstimatedUSD)
	return t, err
}

// ContributionTrendPoint is one day's pre-aggregated contribution row.
type ContributionTrendPoint struct {
	Date         string
	Sessions     int64
	LinesAdded   int64
	LinesRemoved int64
	Commits      int64
}

// GetContributionTrend returns contribution_snapshots rows for a scope,
// most recent day first, bounded to the last `days` calendar days. This is
// the read side of PutContributionSnapshot's daily pre-aggregation.
func (db *DB) GetContributionTrend(ctx context.Context, projectID, branch string, days int) ([]ContributionTrendPoint, error) {
	if days <= 0 {
		days = 30
	}
	var projectArg, branchArg any
	if projectID != "" {
		projectArg = projectID
	}
	if branch != "" {
		branchArg = branch
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT date, sessions_count, ai_lines_added, ai_lines_removed, commits_count
		FROM contribution_snapshots
		WHERE (? IS NULL OR project_id = ?)
			AND (? IS NULL OR branch = ?)
			AND date >= date('now', ?)
		ORDER BY date DESC
	`, projectArg, projectArg, branchArg, branchArg, fmt.Sprintf("-%d days", days))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ContributionTrendPoint
	for rows.Next() {
		var p ContributionTrendPoint
		if err := rows.Scan(&p.Date, &p.Sessions, &p.LinesAdded, &p.LinesRemoved, &p.Commits); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// BlendedCostPerToken is the assumed blended $/token rate (≈50% Sonnet,
// 40% Haiku, 10% Opus, 2:1 input:output), ported from snapshots.rs.
const BlendedCostPerToken = 0.00025

// PutContributionSnapshot upserts one day's pre-aggregated contribution
// row for a (project, branch) scope. project and branch are empty string
// for the global/project-wide scope, matching snapshots.rs's NULL-means-
// all-projects / NULL-means-project-wide convention.
func (db *DB) PutContributionSnapshot(ctx context.Context, date, projectID, branch string, sessions int64, linesAdded, linesRemoved, commits int64) error {
	var projectArg, branchArg any
	if projectID != "" {
		projectArg = projectID
	}
	if branch != "" {
		branchArg = branch
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO contribution_snapshots
			(date, project_id, branch, sessions_count, ai_lines_added, ai_lines_removed, commits_count)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(date, project_id, branch) DO UPDATE SET
			sessions_count=excluded.sessions_count,
			ai_lines_added=excluded.ai_lines_added,
			ai_lines_removed=excluded.ai_lines_removed,
			commits_count=excluded.commits_count
	`, date, projectArg, branchArg, sessions, linesAdded, linesRemoved, commits)
	return err
}

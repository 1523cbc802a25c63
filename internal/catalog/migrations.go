package catalog

// migrations is an ordered list of idempotent DDL statements applied in
// sequence at startup. Each entry is safe to re-run against an
// already-migrated database, mirroring original_source's
// db/src/migrations.rs MIGRATIONS slice (translated from sqlx to plain
// database/sql — no external migration runner).
var migrations = []string{
	// 1. sessions
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		preview TEXT NOT NULL DEFAULT '',
		turn_count INTEGER NOT NULL DEFAULT 0,
		file_count INTEGER NOT NULL DEFAULT 0,
		first_message_at INTEGER,
		last_message_at INTEGER,
		file_path TEXT NOT NULL UNIQUE,
		file_hash TEXT,
		indexed_at INTEGER,
		project_path TEXT NOT NULL DEFAULT '',
		project_display_name TEXT NOT NULL DEFAULT '',
		size_bytes INTEGER NOT NULL DEFAULT 0,
		last_message TEXT NOT NULL DEFAULT '',
		files_touched TEXT NOT NULL DEFAULT '[]',
		skills_used TEXT NOT NULL DEFAULT '[]',
		tool_counts_edit INTEGER NOT NULL DEFAULT 0,
		tool_counts_read INTEGER NOT NULL DEFAULT 0,
		tool_counts_bash INTEGER NOT NULL DEFAULT 0,
		tool_counts_write INTEGER NOT NULL DEFAULT 0,
		message_count INTEGER NOT NULL DEFAULT 0
	)`,
	// 2. session indexes
	`CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_last_message ON sessions(last_message_at DESC)`,
	// 3. indexer_state
	`CREATE TABLE IF NOT EXISTS indexer_state (
		file_path TEXT PRIMARY KEY,
		file_size INTEGER NOT NULL,
		modified_at INTEGER NOT NULL,
		indexed_at INTEGER NOT NULL
	)`,
	// 4. deep-parse columns
	`ALTER TABLE sessions ADD COLUMN summary TEXT`,
	`ALTER TABLE sessions ADD COLUMN git_branch TEXT`,
	`ALTER TABLE sessions ADD COLUMN is_sidechain INTEGER NOT NULL DEFAULT 0`,
	`ALTER TABLE sessions ADD COLUMN deep_indexed_at INTEGER`,
	// 5. token fields, populated by deep parse
	`ALTER TABLE sessions ADD COLUMN input_tokens INTEGER NOT NULL DEFAULT 0`,
	`ALTER TABLE sessions ADD COLUMN output_tokens INTEGER NOT NULL DEFAULT 0`,
	`ALTER TABLE sessions ADD COLUMN cache_read_tokens INTEGER NOT NULL DEFAULT 0`,
	`ALTER TABLE sessions ADD COLUMN cache_creation_tokens INTEGER NOT NULL DEFAULT 0`,
	`ALTER TABLE sessions ADD COLUMN primary_model TEXT NOT NULL DEFAULT ''`,
	// 6. invocables / invocations
	`CREATE TABLE IF NOT EXISTS invocables (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS invocations (
		invocable_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		file_path TEXT NOT NULL,
		line_offset INTEGER NOT NULL,
		timestamp INTEGER NOT NULL,
		PRIMARY KEY (file_path, line_offset)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invocations_session ON invocations(session_id)`,
	// 7. commits / session_commits
	`CREATE TABLE IF NOT EXISTS commits (
		hash TEXT NOT NULL,
		repo_path TEXT NOT NULL,
		message TEXT NOT NULL,
		author TEXT,
		timestamp INTEGER NOT NULL,
		branch TEXT,
		PRIMARY KEY (hash, repo_path)
	)`,
	`CREATE TABLE IF NOT EXISTS session_commits (
		session_id TEXT NOT NULL,
		commit_hash TEXT NOT NULL,
		repo_path TEXT NOT NULL,
		tier INTEGER NOT NULL,
		evidence_json TEXT NOT NULL DEFAULT '{}',
		PRIMARY KEY (session_id, commit_hash, repo_path)
	)`,
	// 8. app settings
	`CREATE TABLE IF NOT EXISTS app_settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		llm_model TEXT NOT NULL DEFAULT 'haiku',
		llm_timeout_secs INTEGER NOT NULL DEFAULT 120
	)`,
	// 9. paired devices (relay's durable side: survives process restarts,
	// unlike the in-memory connection/offer maps in internal/relay)
	`CREATE TABLE IF NOT EXISTS paired_devices (
		device_id TEXT NOT NULL,
		peer_device_id TEXT NOT NULL,
		paired_at INTEGER NOT NULL,
		PRIMARY KEY (device_id, peer_device_id)
	)`,
	// 10. contribution snapshots (daily pre-aggregation)
	`CREATE TABLE IF NOT EXISTS contribution_snapshots (
		date TEXT NOT NULL,
		project_id TEXT,
		branch TEXT,
		sessions_count INTEGER NOT NULL DEFAULT 0,
		ai_lines_added INTEGER NOT NULL DEFAULT 0,
		ai_lines_removed INTEGER NOT NULL DEFAULT 0,
		commits_count INTEGER NOT NULL DEFAULT 0,
		estimated_cost_usd REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (date, project_id, branch)
	)`,
	// 11. per-file edit counts, populated by deep parse, feeding the
	// re-edit-rate metric
	`ALTER TABLE sessions ADD COLUMN reedited_files_count INTEGER NOT NULL DEFAULT 0`,
}

// Migrate applies every pending migration in order. Statements are plain
// DDL; failures abort the whole sequence since later statements may
// depend on earlier ones (e.g. ALTER TABLE on a table just created).
func (db *DB) Migrate() error {
	for _, stmt := range migrations {
		if _, err := db.conn.Exec(stmt); err != nil {
			if isDuplicateColumnError(err) {
				continue
			}
			return err
		}
	}
	return nil
}

// isDuplicateColumnError tolerates re-running ALTER TABLE ADD COLUMN
// against a database that already has the column, since SQLite has no
// "ADD COLUMN IF NOT EXISTS" form.
func isDuplicateColumnError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return contains(msg, "duplicate column name")
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

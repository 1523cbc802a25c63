package catalog

import (
	"context"
	"database/sql"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertAndGetSessionShallow(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	s := SessionInfo{
		ID:        "sess-1",
		ProjectID: "proj-a",
		FilePath:  "/data/proj-a/sess-1.jsonl",
		Preview:   "hello world",
		TurnCount: 2,
		FilesTouched: []string{"main.go"},
		SkillsUsed:   []string{},
	}
	if err := db.UpsertSessionShallow(ctx, s); err != nil {
		t.Fatalf("UpsertSessionShallow: %v", err)
	}

	got, err := db.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Preview != "hello world" || got.ProjectID != "proj-a" {
		t.Fatalf("got %+v", got)
	}
	if len(got.FilesTouched) != 1 || got.FilesTouched[0] != "main.go" {
		t.Fatalf("got FilesTouched=%v", got.FilesTouched)
	}

	// re-upsert with changed preview must update in place, keyed by file_path.
	s.Preview = "updated"
	if err := db.UpsertSessionShallow(ctx, s); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	got, err = db.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Preview != "updated" {
		t.Fatalf("got preview %q, want updated", got.Preview)
	}
}

func TestUpdateSessionDeepFields(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	base := SessionInfo{ID: "sess-2", ProjectID: "proj-a", FilePath: "/data/proj-a/sess-2.jsonl"}
	if err := db.UpsertSessionShallow(ctx, base); err != nil {
		t.Fatalf("UpsertSessionShallow: %v", err)
	}

	branch := "main"
	deep := SessionInfo{GitBranch: &branch, IsSidechain: true, InputTokens: 100, OutputTokens: 50, PrimaryModel: "claude-opus-4"}
	if err := db.UpdateSessionDeepFields(ctx, "sess-2", deep, 12345); err != nil {
		t.Fatalf("UpdateSessionDeepFields: %v", err)
	}

	got, err := db.GetSession(ctx, "sess-2")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.GitBranch == nil || *got.GitBranch != "main" {
		t.Fatalf("got GitBranch=%v", got.GitBranch)
	}
	if !got.IsSidechain || got.InputTokens != 100 || got.DeepIndexedAt == nil || *got.DeepIndexedAt != 12345 {
		t.Fatalf("got %+v", got)
	}
}

func TestListSessionsBranchFilter(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	mainBranch := "main"
	for _, s := range []SessionInfo{
		{ID: "s1", ProjectID: "p", FilePath: "/p/s1.jsonl"},
		{ID: "s2", ProjectID: "p", FilePath: "/p/s2.jsonl"},
	} {
		if err := db.UpsertSessionShallow(ctx, s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if err := db.UpdateSessionDeepFields(ctx, "s1", SessionInfo{GitBranch: &mainBranch}, 1); err != nil {
		t.Fatalf("deep s1: %v", err)
	}

	all, err := db.ListSessions(ctx, "p", BranchFilter{Kind: BranchAll})
	if err != nil || len(all) != 2 {
		t.Fatalf("ListSessions all: got %d err=%v", len(all), err)
	}

	named, err := db.ListSessions(ctx, "p", BranchFilter{Kind: BranchNamed, Name: "main"})
	if err != nil || len(named) != 1 || named[0].ID != "s1" {
		t.Fatalf("ListSessions named: got %+v err=%v", named, err)
	}

	none, err := db.ListSessions(ctx, "p", BranchFilter{Kind: BranchNone})
	if err != nil || len(none) != 1 || none[0].ID != "s2" {
		t.Fatalf("ListSessions none: got %+v err=%v", none, err)
	}
}

func TestIndexerState(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if s, err := db.GetIndexerState(ctx, "/missing"); err != nil || s != nil {
		t.Fatalf("expected nil,nil for missing path, got %v %v", s, err)
	}

	if err := db.PutIndexerState(ctx, IndexerFileState{FilePath: "/p/s1.jsonl", FileSize: 100, ModifiedAt: 10, IndexedAt: 20}); err != nil {
		t.Fatalf("PutIndexerState: %v", err)
	}
	got, err := db.GetIndexerState(ctx, "/p/s1.jsonl")
	if err != nil || got == nil || got.FileSize != 100 {
		t.Fatalf("got %+v err=%v", got, err)
	}

	if err := db.PutIndexerState(ctx, IndexerFileState{FilePath: "/p/s1.jsonl", FileSize: 200, ModifiedAt: 30, IndexedAt: 40}); err != nil {
		t.Fatalf("PutIndexerState update: %v", err)
	}
	got, err = db.GetIndexerState(ctx, "/p/s1.jsonl")
	if err != nil || got.FileSize != 200 {
		t.Fatalf("got %+v err=%v, want FileSize=200", got, err)
	}

	all, err := db.IterIndexerState(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("IterIndexerState: got %d err=%v", len(all), err)
	}
}

func TestBatchInvocablesAndInvocationsDedup(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	seed := SessionInfo{ID: "s1", ProjectID: "p", FilePath: "/p/s1.jsonl"}
	if err := db.UpsertSessionShallow(ctx, seed); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := BatchUpsertInvocables(ctx, tx, []Invocable{{ID: "inv-1", Name: "Edit", Category: "builtin"}}); err != nil {
			return err
		}
		invocations := []Invocation{
			{InvocableID: "inv-1", SessionID: "s1", FilePath: "/p/s1.jsonl", LineOffset: 0, Timestamp: 100},
			{InvocableID: "inv-1", SessionID: "s1", FilePath: "/p/s1.jsonl", LineOffset: 1, Timestamp: 200},
			// duplicate (file_path, line_offset) must be dropped silently.
			{InvocableID: "inv-1", SessionID: "s1", FilePath: "/p/s1.jsonl", LineOffset: 0, Timestamp: 999},
		}
		return BatchInsertInvocations(ctx, tx, invocations)
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	var count int
	row := db.conn.QueryRow(`SELECT COUNT(*) FROM invocations`)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("count invocations: %v", err)
	}
	if count != 2 {
		t.Fatalf("got %d invocations, want 2 after dedup", count)
	}
}

func TestAppSettingsDefaultsAndUpdate(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	got, err := db.GetAppSettings(ctx)
	if err != nil {
		t.Fatalf("GetAppSettings: %v", err)
	}
	if got.LLMModel != "haiku" || got.LLMTimeoutSecs != 120 {
		t.Fatalf("got %+v, want defaults haiku/120", got)
	}

	newModel := "sonnet"
	if err := db.UpdateAppSettings(ctx, &newModel, nil); err != nil {
		t.Fatalf("UpdateAppSettings: %v", err)
	}
	got, err = db.GetAppSettings(ctx)
	if err != nil || got.LLMModel != "sonnet" || got.LLMTimeoutSecs != 120 {
		t.Fatalf("got %+v err=%v", got, err)
	}
}

func TestSessionIDsWithCommits(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	seed := SessionInfo{ID: "s1", ProjectID: "p", FilePath: "/p/s1.jsonl"}
	if err := db.UpsertSessionShallow(ctx, seed); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if err := db.UpsertCommit(ctx, Commit{Hash: "abc123", RepoPath: "/repo", Message: "fix bug", Timestamp: 100}); err != nil {
		t.Fatalf("UpsertCommit: %v", err)
	}
	if err := db.LinkSessionCommit(ctx, "s1", "abc123", "/repo", 1, nil); err != nil {
		t.Fatalf("LinkSessionCommit: %v", err)
	}

	withCommits, err := db.SessionIDsWithCommits(ctx)
	if err != nil {
		t.Fatalf("SessionIDsWithCommits: %v", err)
	}
	if !withCommits["s1"] {
		t.Fatalf("got %v, want s1 present", withCommits)
	}
	if withCommits["s2"] {
		t.Fatalf("unlinked session s2 should not be present")
	}
}

func TestGetTokenTrend(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	ts := int64(1700000000)
	seed := SessionInfo{ID: "s1", ProjectID: "p", FilePath: "/p/s1.jsonl", LastMessageAt: &ts}
	if err := db.UpsertSessionShallow(ctx, seed); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if err := db.UpdateSessionDeepFields(ctx, "s1", SessionInfo{InputTokens: 100, OutputTokens: 40}, ts); err != nil {
		t.Fatalf("UpdateSessionDeepFields: %v", err)
	}

	trend, err := db.GetTokenTrend(ctx, 3650)
	if err != nil {
		t.Fatalf("GetTokenTrend: %v", err)
	}
	if len(trend) != 1 || trend[0].InputTokens != 100 || trend[0].OutputTokens != 40 {
		t.Fatalf("got %+v", trend)
	}
}

func TestAIGenerationAndContributionTrend(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := db.PutContributionSnapshot(ctx, "2024-01-01", "proj-a", "main", 2, 30, 5, 1); err != nil {
		t.Fatalf("PutContributionSnapshot: %v", err)
	}
	if err := db.PutContributionSnapshot(ctx, "2024-01-02", "proj-a", "main", 1, 10, 0, 0); err != nil {
		t.Fatalf("PutContributionSnapshot: %v", err)
	}

	totals, err := db.GetAIGenerationStats(ctx, "proj-a", "main")
	if err != nil {
		t.Fatalf("GetAIGenerationStats: %v", err)
	}
	if totals.LinesAdded != 40 || totals.LinesRemoved != 5 || totals.Commits != 1 || totals.Sessions != 3 {
		t.Fatalf("got %+v", totals)
	}

	trend, err := db.GetContributionTrend(ctx, "proj-a", "main", 3650)
	if err != nil {
		t.Fatalf("GetContributionTrend: %v", err)
	}
	if len(trend) != 2 {
		t.Fatalf("got %d rows, want 2", len(trend))
	}
}

func TestPairedDevicesSymmetric(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := db.AddPairedDevice(ctx, "mac-1", "phone-1", 1000); err != nil {
		t.Fatalf("AddPairedDevice: %v", err)
	}
	macPeers, err := db.ListPairedDevices(ctx, "mac-1")
	if err != nil || len(macPeers) != 1 || macPeers[0] != "phone-1" {
		t.Fatalf("got %v err=%v", macPeers, err)
	}
	phonePeers, err := db.ListPairedDevices(ctx, "phone-1")
	if err != nil || len(phonePeers) != 1 || phonePeers[0] != "mac-1" {
		t.Fatalf("got %v err=%v", phonePeers, err)
	}

	if err := db.RemovePairedDevice(ctx, "mac-1", "phone-1"); err != nil {
		t.Fatalf("RemovePairedDevice: %v", err)
	}
	macPeers, err = db.ListPairedDevices(ctx, "mac-1")
	if err != nil || len(macPeers) != 0 {
		t.Fatalf("expected empty after removal, got %v err=%v", macPeers, err)
	}
}

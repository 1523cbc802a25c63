// Command claudeview-server exposes the catalog, search index, and
// insight engine over HTTP/SSE, and runs the indexer once at startup and
// again on each POST /api/reindex.
// Thin handlers only: every non-trivial operation lives in internal/.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/claudeview/claudeview-go/internal/apperr"
	"github.com/claudeview/claudeview-go/internal/applog"
	"github.com/claudeview/claudeview-go/internal/catalog"
	"github.com/claudeview/claudeview-go/internal/config"
	"github.com/claudeview/claudeview-go/internal/indexer"
	"github.com/claudeview/claudeview-go/internal/insight"
	"github.com/claudeview/claudeview-go/internal/progress"
	"github.com/claudeview/claudeview-go/internal/searchindex"
)

func main() {
	configPath := flag.String("config", config.ConfigPath(), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "claudeview-server: load config: %v\n", err)
		os.Exit(1)
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}

	logger := applog.New(cfg.LogFormat, cfg.LogLevel)

	db, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		logger.Error("open catalog", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	search, err := searchindex.Open(cfg.SearchIndexDir)
	if err != nil {
		logger.Error("open search index", "err", err)
		os.Exit(1)
	}
	defer search.Close()

	prog := progress.New()
	idx := &indexer.Indexer{DB: db, Search: search, Progress: prog}

	srv := &server{db: db, search: search, progress: prog, indexer: idx, dataDir: cfg.DataDir, logger: logger}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go srv.runInitialIndex(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", srv.handleHealth)
	mux.HandleFunc("GET /api/sessions", srv.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", srv.handleGetSession)
	mux.HandleFunc("GET /api/search", srv.handleSearch)
	mux.HandleFunc("GET /api/insights", srv.handleInsights)
	mux.HandleFunc("GET /api/progress", srv.handleProgress)
	mux.HandleFunc("GET /api/stats", srv.handleStats)
	mux.HandleFunc("GET /api/stats/tokens", srv.handleTokenTrend)
	mux.HandleFunc("GET /api/stats/ai-generation", srv.handleAIGeneration)
	mux.HandleFunc("GET /api/stats/trends", srv.handleContributionTrend)
	mux.HandleFunc("POST /api/reindex", srv.handleReindex)

	httpSrv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("claudeview-server listening", "addr", httpSrv.Addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("serve", "err", err)
		os.Exit(1)
	}
}

type server struct {
	db       *catalog.DB
	search   *searchindex.Index
	progress *progress.State
	indexer  *indexer.Indexer
	dataDir  string
	logger   *slog.Logger
}

func (s *server) runInitialIndex(ctx context.Context) {
	if err := s.indexer.RunShallow(ctx, s.dataDir); err != nil {
		s.logger.Error("shallow index pass failed", "err", err)
		return
	}
	if err := s.indexer.RunDeep(ctx, s.dataDir); err != nil {
		s.logger.Error("deep index pass failed", "err", err)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

func (s *server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := catalog.BranchFilterFromParam(optionalParam(q, "branch"))
	sessions, err := s.db.ListSessions(r.Context(), q.Get("project"), filter)
	if err != nil {
		writeErr(w, apperr.Internal(err))
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	session, err := s.db.GetSession(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeErr(w, apperr.NotFound("session not found"))
		return
	}
	if err != nil {
		writeErr(w, apperr.Internal(err))
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query().Get("q")
	if qs == "" {
		writeErr(w, apperr.BadRequest("q is required"))
		return
	}
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	offset := 0
	if o := r.URL.Query().Get("from"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			offset = n
		}
	}
	res, err := s.search.Search(qs, limit, offset)
	if err != nil {
		writeErr(w, apperr.Internal(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleInsights(w http.ResponseWriter, r *http.Request) {
	days := daysParam(r, 30)
	facts, err := s.loadSessionFacts(r.Context())
	if err != nil {
		writeErr(w, apperr.Internal(err))
		return
	}
	writeJSON(w, http.StatusOK, insight.CalculateAllPatterns(facts, days))
}

func (s *server) handleProgress(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusOK, s.progress.Snapshot())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates, unsubscribe := s.progress.Subscribe()
	defer unsubscribe()

	writeSnapshot := func(snap progress.Snapshot) {
		data, _ := json.Marshal(snap)
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
	writeSnapshot(s.progress.Snapshot())

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			writeSnapshot(snap)
		}
	}
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetDashboardStats(r.Context())
	if err != nil {
		writeErr(w, apperr.Internal(err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *server) handleTokenTrend(w http.ResponseWriter, r *http.Request) {
	days := daysParam(r, 30)
	trend, err := s.db.GetTokenTrend(r.Context(), days)
	if err != nil {
		writeErr(w, apperr.Internal(err))
		return
	}
	writeJSON(w, http.StatusOK, trend)
}

func (s *server) handleAIGeneration(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	totals, err := s.db.GetAIGenerationStats(r.Context(), q.Get("project"), q.Get("branch"))
	if err != nil {
		writeErr(w, apperr.Internal(err))
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *server) handleContributionTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days := daysParam(r, 30)
	trend, err := s.db.GetContributionTrend(r.Context(), q.Get("project"), q.Get("branch"), days)
	if err != nil {
		writeErr(w, apperr.Internal(err))
		return
	}
	writeJSON(w, http.StatusOK, trend)
}

func daysParam(r *http.Request, fallback int) int {
	if d := r.URL.Query().Get("days"); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func (s *server) handleReindex(w http.ResponseWriter, r *http.Request) {
	go s.runInitialIndex(context.Background())
	writeJSON(w, http.StatusAccepted, map[string]bool{"started": true})
}

// loadSessionFacts adapts catalog.SessionInfo rows into the pattern
// engine's decoupled SessionFacts input shape.
func (s *server) loadSessionFacts(ctx context.Context) ([]insight.SessionFacts, error) {
	sessions, err := s.db.ListSessions(ctx, "", catalog.BranchFilter{})
	if err != nil {
		return nil, err
	}
	withCommits, err := s.db.SessionIDsWithCommits(ctx)
	if err != nil {
		return nil, err
	}
	facts := make([]insight.SessionFacts, 0, len(sessions))
	for _, sess := range sessions {
		branch := ""
		if sess.GitBranch != nil {
			branch = *sess.GitBranch
		}
		var timestamp int64
		var duration uint32
		if sess.FirstMessageAt != nil {
			timestamp = *sess.FirstMessageAt
			if sess.LastMessageAt != nil && *sess.LastMessageAt > *sess.FirstMessageAt {
				duration = uint32(*sess.LastMessageAt - *sess.FirstMessageAt)
			}
		}
		facts = append(facts, insight.SessionFacts{
			SessionID:        sess.ID,
			ProjectID:        sess.ProjectID,
			Branch:           branch,
			Timestamp:        timestamp,
			DurationSeconds:  duration,
			FilesEditedCount: uint32(len(sess.FilesTouched)),
			// No distinct-files-read dedup is retained at parse time, so
			// this approximates "files read" with the read tool-call count.
			FilesReadCount: uint32(sess.ToolCountsRead),
			ReeditedFiles:  uint32(sess.ReeditedFilesCount),
			HasCommit:      withCommits[sess.ID],
			WriteToolCalls: uint32(sess.ToolCountsWrite),
			EditToolCalls:  uint32(sess.ToolCountsEdit),
			ToolCalls:      uint32(sess.ToolCallCount()),
			// No distinct LLM-round-trip counter is recorded; message count
			// (user+assistant turns) is the closest available stand-in.
			APICalls: uint32(sess.MessageCount),
			Model:    sess.PrimaryModel,
		})
	}
	return facts, nil
}

func optionalParam(q map[string][]string, key string) *string {
	vals, ok := q[key]
	if !ok || len(vals) == 0 {
		return nil
	}
	return &vals[0]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), apperr.HTTPStatus(err))
}

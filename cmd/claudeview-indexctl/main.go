// Command claudeview-indexctl runs a single indexer pass against a
// catalog and search index, printing summary stats, or watches for
// changes when -watch is set. The thin CLI flag set the teacher's own
// main.go favors over a framework like cobra.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/claudeview/claudeview-go/internal/applog"
	"github.com/claudeview/claudeview-go/internal/catalog"
	"github.com/claudeview/claudeview-go/internal/config"
	"github.com/claudeview/claudeview-go/internal/indexer"
	"github.com/claudeview/claudeview-go/internal/progress"
	"github.com/claudeview/claudeview-go/internal/searchindex"
)

func main() {
	configPath := flag.String("config", config.ConfigPath(), "path to config file")
	dataDir := flag.String("data-dir", "", "override the session transcripts directory")
	watch := flag.Bool("watch", false, "keep running and re-index on file changes")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "indexctl: load config: %v\n", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := applog.New("text", cfg.LogLevel)

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *watch {
		logger.Info("watching for changes", "data_dir", cfg.DataDir)
		if err := idx.Watch(ctx, cfg.DataDir); err != nil && ctx.Err() == nil {
			logger.Error("watch", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := idx.RunShallow(ctx, cfg.DataDir); err != nil {
		logger.Error("shallow pass", "err", err)
		os.Exit(1)
	}
	if err := idx.RunDeep(ctx, cfg.DataDir); err != nil {
		logger.Error("deep pass", "err", err)
		os.Exit(1)
	}

	snap := prog.Snapshot()
	stats, err := db.GetDashboardStats(ctx)
	if err != nil {
		logger.Error("dashboard stats", "err", err)
		os.Exit(1)
	}

	fmt.Printf("indexed %d/%d sessions across %d projects\n", snap.Indexed, snap.Total, snap.ProjectsFound)
	fmt.Printf("catalog: %d sessions, %d projects, %d input tokens, %d output tokens, %d with a commit\n",
		stats.TotalSessions, stats.TotalProjects, stats.TotalInputTok, stats.TotalOutputTok, stats.SessionsWithCommit)
}

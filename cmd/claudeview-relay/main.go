// Command claudeview-relay is the standalone pairing + WebSocket relay
// server a companion device (phone) talks to, so it can exchange
// end-to-end encrypted messages with the machine running
// claudeview-server without either device needing a reachable public
// address.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claudeview/claudeview-go/internal/applog"
	"github.com/claudeview/claudeview-go/internal/config"
	"github.com/claudeview/claudeview-go/internal/relay"
)

func main() {
	configPath := flag.String("config", config.ConfigPath(), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "claudeview-relay: load config: %v\n", err)
		os.Exit(1)
	}

	logger := applog.New(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state := relay.NewState()
	go relay.RunCleanupSweep(ctx, state)

	mux := relay.NewServeMux(state)
	addr := fmt.Sprintf(":%d", cfg.RelayPort)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		logger.Info("relay shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("claudeview-relay listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("serve", "err", err)
		os.Exit(1)
	}
}

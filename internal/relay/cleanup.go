package relay

import (
	"context"
	"log/slog"
	"time"
)

// cleanupInterval matches original_source/crates/relay/src/lib.rs's
// tokio::spawn sweep loop, translated to the same ticker-goroutine idiom
// the teacher uses for ws/handler.go's saveTimers debouncing.
const cleanupInterval = 60 * time.Second

// RunCleanupSweep periodically drops expired pairing offers until ctx is
// canceled. Intended to be started once as its own goroutine alongside
// the relay's HTTP server.
func RunCleanupSweep(ctx context.Context, state *State) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := state.SweepExpiredOffers(PairingTTL); n > 0 {
				slog.Debug("relay: cleaned expired pairing offers", "count", n)
			}
		}
	}
}

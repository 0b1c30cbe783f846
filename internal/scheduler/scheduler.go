// Package scheduler drives the notification dispatch cycle on a fixed
// wall-clock cadence. One loop, parameterized by interval and deadline —
// cadence variants are configuration, not code.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/streamcast/streamcast-notify/internal/dispatch"
)

// Start runs the dispatch cycle every interval until ctx is cancelled.
// Blocks; intended to be called with `go`. Each cycle gets its own deadline
// so a stuck provider cannot wedge the loop — partial completion is safe
// because delivery state is recorded per signup as the cycle progresses.
func Start(ctx context.Context, coordinator *dispatch.Coordinator, interval, cycleTimeout time.Duration, logger *slog.Logger) {
	logger.Info("Dispatch scheduler started", "interval", interval, "timeout", cycleTimeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runOnce(ctx, coordinator, cycleTimeout, logger)
		case <-ctx.Done():
			logger.Info("Dispatch scheduler stopped")
			return
		}
	}
}

func runOnce(ctx context.Context, coordinator *dispatch.Coordinator, cycleTimeout time.Duration, logger *slog.Logger) {
	runCtx := ctx
	if cycleTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cycleTimeout)
		defer cancel()
	}

	_, err := coordinator.Run(runCtx)
	switch {
	case errors.Is(err, dispatch.ErrRunInProgress):
		logger.Warn("Previous cycle still in flight, skipping tick")
	case err != nil:
		logger.Error("Dispatch cycle failed", "error", err)
	}
}

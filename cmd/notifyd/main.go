// Command notifyd is the Streamcast notification service.
//
// It runs the scheduled dispatch cycle for upcoming live-stream events and
// serves the HTTP API (RTC credential issuance, health, manual cycle
// trigger).
//
// Usage:
//
//	notifyd
//	API_PORT=8080 CYCLE_INTERVAL_MINUTES=10 notifyd
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/streamcast/streamcast-notify/internal/api"
	"github.com/streamcast/streamcast-notify/internal/config"
	"github.com/streamcast/streamcast-notify/internal/db"
	"github.com/streamcast/streamcast-notify/internal/dispatch"
	"github.com/streamcast/streamcast-notify/internal/push"
	"github.com/streamcast/streamcast-notify/internal/rtc"
	"github.com/streamcast/streamcast-notify/internal/scheduler"
	"github.com/streamcast/streamcast-notify/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Push sender: real delivery when a server key is configured
	var sender dispatch.Sender
	if fcm := push.NewFCMSender(cfg.PushEndpoint, cfg.PushServerKey, cfg.PushSendTimeout, logger); fcm != nil {
		sender = fcm
		logger.Info("Push delivery enabled", "endpoint", cfg.PushEndpoint)
	} else {
		sender = push.NewLogSender(logger)
		logger.Info("Push delivery disabled (no PUSH_SERVER_KEY), logging sends")
	}

	// Dispatch cycle coordinator + scheduler
	coordinator := dispatch.NewCoordinator(
		store.NewPostgres(pool.Pool), sender,
		cfg.LookaheadWindow, cfg.DispatchWorkers, logger)
	go scheduler.Start(ctx, coordinator, cfg.CycleInterval, cfg.CycleTimeout, logger)

	// RTC credential issuer
	issuer := rtc.NewIssuer(cfg.RTCAppID, cfg.RTCAppSecret, nil)
	if cfg.RTCAppID == "" || cfg.RTCAppSecret == "" {
		logger.Warn("RTC credentials not configured, token issuance will fail")
	}

	// Create router
	router := api.NewRouter(pool.Pool, coordinator, issuer, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Streamcast Notify API",
			"addr", addr,
			"environment", cfg.Environment,
			"cycle_interval", cfg.CycleInterval,
			"lookahead", cfg.LookaheadWindow)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}

	// Let an in-flight cycle settle so delivery state is fully recorded.
	for coordinator.Running() && shutdownCtx.Err() == nil {
		time.Sleep(100 * time.Millisecond)
	}
	logger.Info("Server stopped")
}

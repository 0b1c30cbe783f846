// Command notifyctl is the Streamcast notification ops CLI.
//
// Usage:
//
//	notifyctl cycle run --window 60m --workers 4
//	notifyctl token issue --channel main-stage --uid 42 --expiry 3600
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/streamcast/streamcast-notify/internal/config"
	"github.com/streamcast/streamcast-notify/internal/db"
	"github.com/streamcast/streamcast-notify/internal/dispatch"
	"github.com/streamcast/streamcast-notify/internal/push"
	"github.com/streamcast/streamcast-notify/internal/rtc"
	"github.com/streamcast/streamcast-notify/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "notifyctl",
		Short: "Streamcast notification ops CLI",
	}

	root.AddCommand(cycleCmd())
	root.AddCommand(tokenCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// cycle command
// --------------------------------------------------------------------------

func cycleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cycle",
		Short: "Dispatch cycle operations",
	}
	cmd.AddCommand(cycleRunCmd())
	return cmd
}

func cycleRunCmd() *cobra.Command {
	var window time.Duration
	var workers int
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one notification dispatch cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.CycleTimeout)
			defer cancel()

			pool, err := db.New(ctx, cfg)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer pool.Close()

			var sender dispatch.Sender = push.NewLogSender(logger)
			if !dryRun {
				if fcm := push.NewFCMSender(cfg.PushEndpoint, cfg.PushServerKey, cfg.PushSendTimeout, logger); fcm != nil {
					sender = fcm
				} else {
					logger.Info("No PUSH_SERVER_KEY configured, logging sends")
				}
			}

			if window <= 0 {
				window = cfg.LookaheadWindow
			}
			coordinator := dispatch.NewCoordinator(store.NewPostgres(pool.Pool), sender, window, workers, logger)

			start := time.Now()
			result, err := coordinator.Run(ctx)
			if err != nil {
				return fmt.Errorf("run cycle: %w", err)
			}
			logger.Info("Cycle finished", "duration", time.Since(start).Round(time.Millisecond), "summary", result.Summary())
			for _, e := range result.Errors {
				logger.Error("cycle error", "error", e)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&window, "window", 0, "Lookahead window (default from env)")
	cmd.Flags().IntVar(&workers, "workers", 4, "Dispatch worker count")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log sends instead of delivering")
	return cmd
}

// --------------------------------------------------------------------------
// token command
// --------------------------------------------------------------------------

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "RTC credential operations",
	}
	cmd.AddCommand(tokenIssueCmd())
	return cmd
}

func tokenIssueCmd() *cobra.Command {
	var channel string
	var uid uint32
	var expiry uint32
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue an RTC channel token",
		RunE: func(cmd *cobra.Command, args []string) error {
			appID := os.Getenv("RTC_APP_ID")
			appSecret := os.Getenv("RTC_APP_CERTIFICATE")

			issuer := rtc.NewIssuer(appID, appSecret, nil)
			token, err := issuer.IssueToken(channel, uid, expiry)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "", "Channel name (required)")
	cmd.Flags().Uint32Var(&uid, "uid", 0, "Subject identifier (0 = anonymous)")
	cmd.Flags().Uint32Var(&expiry, "expiry", 3600, "Expiry in seconds")
	_ = cmd.MarkFlagRequired("channel")
	return cmd
}

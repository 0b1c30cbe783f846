// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamcast/streamcast-notify/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the dispatch cycle and
// API layers use. Prepared statements eliminate parse overhead on every tick.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Dispatch cycle: event window selection
		"events_in_window": "SELECT id, title, starts_at FROM events WHERE starts_at >= $1 AND starts_at <= $2 ORDER BY starts_at",

		// Dispatch cycle: signup resolution
		"signups_for_event": "SELECT event_id, user_id, notified FROM signups WHERE event_id = $1",

		// Dispatch cycle: user lookup
		"user_by_id": "SELECT id, push_token, notify FROM users WHERE id = $1",

		// Dispatch cycle: delivery state
		"mark_signup_notified": "UPDATE signups SET notified = true, notified_at = NOW() WHERE event_id = $1 AND user_id = $2",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}

// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/notifyd and cmd/notifyctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Dispatch cycle
	CycleInterval   time.Duration // cadence of the notification scheduler
	LookaheadWindow time.Duration // events starting within [now, now+W] qualify
	DispatchWorkers int           // fan-out width for per-event processing
	CycleTimeout    time.Duration // deadline for a single cycle
	PushEndpoint    string        // push provider HTTP endpoint
	PushServerKey   string        // push provider server key
	PushSendTimeout time.Duration

	// RTC credential issuance
	RTCAppID     string
	RTCAppSecret string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("POSTGRES_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or POSTGRES_URL must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CycleInterval:   time.Duration(envInt("CYCLE_INTERVAL_MINUTES", 10)) * time.Minute,
		LookaheadWindow: time.Duration(envInt("LOOKAHEAD_WINDOW_MINUTES", 60)) * time.Minute,
		DispatchWorkers: envInt("DISPATCH_WORKERS", 4),
		CycleTimeout:    time.Duration(envInt("CYCLE_TIMEOUT_MINUTES", 5)) * time.Minute,
		PushEndpoint:    envOr("PUSH_ENDPOINT", "https://fcm.googleapis.com/fcm/send"),
		PushServerKey:   envOr("PUSH_SERVER_KEY", ""),
		PushSendTimeout: time.Duration(envInt("PUSH_SEND_TIMEOUT_SECONDS", 10)) * time.Second,

		RTCAppID:     envOr("RTC_APP_ID", envOr("APP_ID", "")),
		RTCAppSecret: envOr("RTC_APP_CERTIFICATE", envOr("APP_CERTIFICATE", "")),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts. There is no write timeout: SSE connections are
// long-lived.
const (
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job settings: abandoned waiting sessions older than
// StaleSessionAge are garbage-collected every CleanupJobInterval.
const (
	CleanupJobInterval = 5 * time.Minute
	StaleSessionAge    = 10 * time.Minute
)

// Bounded retries for conditional session writes that lose a race.
const WriteRetryAttempts = 3

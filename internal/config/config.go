// Package config loads the claims service settings from environment variables.
// Defaults are applied for unset values and the result is validated once at
// startup so misconfiguration fails before any listener or pool is opened.
package config

import (
	"net"
	"strconv"
	"time"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Conflict keys accepted by IMPORT_CONFLICT_KEY.
const (
	ConflictPolicyID = "policy_id"
	ConflictClaimID  = "claim_id"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Chat     ChatConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8000)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8000"`

	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout stays 0 so chat streams are not cut off mid-response
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including draining imports
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware deadline applied to API requests
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds store selection and connection pool settings.
type DatabaseConfig struct {
	// Driver selects the claim store: postgres or memory (default: postgres)
	Driver string `env:"STORE_DRIVER" default:"postgres"`

	// URL is the PostgreSQL connection string, required for the postgres driver.
	// Supports both DATABASE_URL and DB_URL.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// Migrate creates the claims table and indexes on connect (default: true)
	Migrate bool `env:"DB_MIGRATE" default:"true"`
}

// ImportConfig holds CSV bulk load settings.
type ImportConfig struct {
	// BatchSize is the number of rows written per transaction (default: 100)
	BatchSize int `env:"IMPORT_BATCH_SIZE" default:"100"`

	// ConflictKey is the column used to match existing rows: policy_id or claim_id
	ConflictKey string `env:"IMPORT_CONFLICT_KEY" default:"policy_id"`

	// CSVPath is the file loaded by IMPORT_ON_STARTUP
	CSVPath string `env:"IMPORT_CSV_PATH" default:"data/insurance_claims.csv"`

	OnStartup bool `env:"IMPORT_ON_STARTUP" default:"false"`

	// ClearOnStartup empties the table before the startup import
	ClearOnStartup bool `env:"IMPORT_CLEAR_ON_STARTUP" default:"true"`

	// MaxFileSize caps uploaded CSV bodies in bytes (default: 100MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the number of imports allowed to run at once (default: 1)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"1"`

	// MaxWaitTime is how long a caller waits for a free import slot (default: 2s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"2s"`

	// Timeout bounds a single import run (default: 10m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"10m"`
}

// ChatConfig holds synthetic chat streaming settings.
type ChatConfig struct {
	// ChunkWords is the number of words per streamed chunk (default: 1)
	ChunkWords int `env:"CHAT_CHUNK_WORDS" default:"1"`

	// Delay is the pause between streamed chunks (default: 100ms)
	Delay time.Duration `env:"CHAT_DELAY" default:"100ms"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ImportLimit is requests per minute for the import endpoint (default: 5)
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"5"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects /api/v1 with the X-API-Key header
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// PublicDashboard serves GET / without an API key even when
	// REQUIRE_API_KEY is set (default: false)
	PublicDashboard bool `env:"PUBLIC_DASHBOARD" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

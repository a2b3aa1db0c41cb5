package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Oracle (Sui JSON-RPC endpoint)
	OracleRPCURL          string
	OracleCallTimeout     time.Duration
	MembershipTableHandle string

	// External query tool (activity counters)
	QueryToolBin     string
	QueryToolTimeout time.Duration

	// Freshness / stale windows per data kind. Fresh must be < Stale.
	BalanceFreshWindow    time.Duration
	BalanceStaleWindow    time.Duration
	MembershipFreshWindow time.Duration
	MembershipStaleWindow time.Duration
	ActivityFreshWindow   time.Duration
	ActivityStaleWindow   time.Duration

	// Batch fetch executor
	FetchChunkSize      int
	FetchChunkDelay     time.Duration
	FetchMaxAttempts    int
	FetchInitialBackoff time.Duration
	FetchMaxBackoff     time.Duration

	// Response micro-cache (whole-request memoization in front of the
	// coordinator; keep this well under the smallest fresh window)
	ResponseCacheTTL time.Duration

	// Fetch audit storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Oracle defaults
		OracleRPCURL:          getEnvOrDefault("ORACLE_RPC_URL", "https://fullnode.mainnet.sui.io:443"),
		OracleCallTimeout:     getDurationOrDefault("ORACLE_CALL_TIMEOUT", 10*time.Second),
		MembershipTableHandle: os.Getenv("MEMBERSHIP_TABLE_HANDLE"),

		// Query tool defaults
		QueryToolBin:     getEnvOrDefault("QUERY_TOOL_BIN", "sui"),
		QueryToolTimeout: getDurationOrDefault("QUERY_TOOL_TIMEOUT", 15*time.Second),

		// Window defaults: balances move fast, membership and activity are
		// slow-moving and the activity fetch shells out, so it gets the
		// widest windows.
		BalanceFreshWindow:    getDurationOrDefault("BALANCE_FRESH_WINDOW", 30*time.Second),
		BalanceStaleWindow:    getDurationOrDefault("BALANCE_STALE_WINDOW", 2*time.Minute),
		MembershipFreshWindow: getDurationOrDefault("MEMBERSHIP_FRESH_WINDOW", 5*time.Minute),
		MembershipStaleWindow: getDurationOrDefault("MEMBERSHIP_STALE_WINDOW", 30*time.Minute),
		ActivityFreshWindow:   getDurationOrDefault("ACTIVITY_FRESH_WINDOW", 10*time.Minute),
		ActivityStaleWindow:   getDurationOrDefault("ACTIVITY_STALE_WINDOW", time.Hour),

		// Executor defaults
		FetchChunkSize:      getIntOrDefault("FETCH_CHUNK_SIZE", 3),
		FetchChunkDelay:     getDurationOrDefault("FETCH_CHUNK_DELAY", 200*time.Millisecond),
		FetchMaxAttempts:    getIntOrDefault("FETCH_MAX_ATTEMPTS", 3),
		FetchInitialBackoff: getDurationOrDefault("FETCH_INITIAL_BACKOFF", 500*time.Millisecond),
		FetchMaxBackoff:     getDurationOrDefault("FETCH_MAX_BACKOFF", 5*time.Second),

		ResponseCacheTTL: getDurationOrDefault("RESPONSE_CACHE_TTL", 2*time.Second),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "suidash"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "suidash123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "suidash"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.OracleRPCURL == "" {
		return fmt.Errorf("ORACLE_RPC_URL cannot be empty")
	}

	if c.FetchChunkSize <= 0 {
		return fmt.Errorf("FETCH_CHUNK_SIZE must be positive, got %d", c.FetchChunkSize)
	}

	if c.FetchMaxAttempts <= 0 {
		return fmt.Errorf("FETCH_MAX_ATTEMPTS must be positive, got %d", c.FetchMaxAttempts)
	}

	windows := []struct {
		name         string
		fresh, stale time.Duration
	}{
		{"balance", c.BalanceFreshWindow, c.BalanceStaleWindow},
		{"membership", c.MembershipFreshWindow, c.MembershipStaleWindow},
		{"activity", c.ActivityFreshWindow, c.ActivityStaleWindow},
	}
	for _, w := range windows {
		if w.fresh <= 0 || w.stale <= 0 {
			return fmt.Errorf("%s windows must be positive", w.name)
		}
		if w.fresh >= w.stale {
			return fmt.Errorf("%s fresh window (%v) must be shorter than stale window (%v)", w.name, w.fresh, w.stale)
		}
	}

	if c.StorageMode != "console" && c.StorageMode != "postgres" {
		return fmt.Errorf("STORAGE_MODE must be 'console' or 'postgres', got %q", c.StorageMode)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// SidePolicy decides what happens to rows whose side is not long/short/buy/sell
type SidePolicy string

const (
	// SidePolicyPermissive books unmapped sides as long and flags the trade
	SidePolicyPermissive SidePolicy = "permissive"
	// SidePolicyStrict rejects unmapped sides with InvalidSide
	SidePolicyStrict SidePolicy = "strict"
)

// PnLPolicy decides whether a pnl value supplied by the source row is trusted
type PnLPolicy string

const (
	// PnLPolicyRecompute always stores the calculated value; the source value
	// is kept as a cross-check and only adopted when prices are absent
	PnLPolicyRecompute PnLPolicy = "recompute"
	// PnLPolicyPreferSource adopts any non-zero pnl supplied by the row
	PnLPolicyPreferSource PnLPolicy = "prefer_source"
)

// Config holds application configuration
type Config struct {
	DataDir                string // Directory holding ledger.db (always absolute)
	ContractsFile          string // Optional YAML contract table override
	LogLevel               string
	RepairSchedule         string // Cron spec (with seconds); empty disables scheduled repair
	DefaultAccountName     string
	DefaultAccountPlatform string
	SidePolicy             SidePolicy
	PnLPolicy              PnLPolicy
	StoreTimeout           time.Duration // Deadline applied to every persistence call
	Port                   int
	DevMode                bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir, err := filepath.Abs(getEnv("TRADEJOURNAL_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:                dataDir,
		ContractsFile:          getEnv("CONTRACTS_FILE", ""),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		RepairSchedule:         os.Getenv("REPAIR_SCHEDULE"),
		DefaultAccountName:     getEnv("DEFAULT_ACCOUNT_NAME", "Default Account"),
		DefaultAccountPlatform: getEnv("DEFAULT_ACCOUNT_PLATFORM", "import"),
		SidePolicy:             SidePolicy(strings.ToLower(getEnv("SIDE_POLICY", string(SidePolicyPermissive)))),
		PnLPolicy:              PnLPolicy(strings.ToLower(getEnv("PNL_POLICY", string(PnLPolicyRecompute)))),
		StoreTimeout:           getEnvAsDuration("STORE_TIMEOUT", 5*time.Second),
		Port:                   getEnvAsInt("PORT", 8001),
		DevMode:                getEnvAsBool("DEV_MODE", false),
	}

	// Unset means hourly; an explicitly empty value disables the job
	if _, set := os.LookupEnv("REPAIR_SCHEDULE"); !set {
		cfg.RepairSchedule = "0 0 * * * *"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that policies and limits hold usable values
func (c *Config) Validate() error {
	switch c.SidePolicy {
	case SidePolicyPermissive, SidePolicyStrict:
	default:
		return fmt.Errorf("SIDE_POLICY must be %q or %q, got %q", SidePolicyPermissive, SidePolicyStrict, c.SidePolicy)
	}

	switch c.PnLPolicy {
	case PnLPolicyRecompute, PnLPolicyPreferSource:
	default:
		return fmt.Errorf("PNL_POLICY must be %q or %q, got %q", PnLPolicyRecompute, PnLPolicyPreferSource, c.PnLPolicy)
	}

	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive, got %s", c.StoreTimeout)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}

	return nil
}

// LedgerPath returns the path of the ledger database file
func (c *Config) LedgerPath() string {
	return filepath.Join(c.DataDir, "ledger.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

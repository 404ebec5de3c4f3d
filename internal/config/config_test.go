package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADEJOURNAL_DATA_DIR", dir)
	t.Setenv("SIDE_POLICY", "")
	t.Setenv("PNL_POLICY", "")
	t.Setenv("STORE_TIMEOUT", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "ledger.db"), cfg.LedgerPath())
	assert.Equal(t, SidePolicyPermissive, cfg.SidePolicy)
	assert.Equal(t, PnLPolicyRecompute, cfg.PnLPolicy)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "Default Account", cfg.DefaultAccountName)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TRADEJOURNAL_DATA_DIR", t.TempDir())
	t.Setenv("SIDE_POLICY", "STRICT")
	t.Setenv("PNL_POLICY", "prefer_source")
	t.Setenv("STORE_TIMEOUT", "250ms")
	t.Setenv("REPAIR_SCHEDULE", "")
	t.Setenv("PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SidePolicyStrict, cfg.SidePolicy)
	assert.Equal(t, PnLPolicyPreferSource, cfg.PnLPolicy)
	assert.Equal(t, 250*time.Millisecond, cfg.StoreTimeout)
	assert.Equal(t, "", cfg.RepairSchedule, "explicitly empty schedule disables the job")
	assert.Equal(t, 9100, cfg.Port)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			SidePolicy:   SidePolicyPermissive,
			PnLPolicy:    PnLPolicyRecompute,
			StoreTimeout: time.Second,
			Port:         8001,
		}
	}

	testCases := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown side policy", mutate: func(c *Config) { c.SidePolicy = "lenient" }, errorMsg: "SIDE_POLICY"},
		{name: "unknown pnl policy", mutate: func(c *Config) { c.PnLPolicy = "average" }, errorMsg: "PNL_POLICY"},
		{name: "zero timeout", mutate: func(c *Config) { c.StoreTimeout = 0 }, errorMsg: "STORE_TIMEOUT"},
		{name: "bad port", mutate: func(c *Config) { c.Port = 70000 }, errorMsg: "PORT"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.errorMsg == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errorMsg)
			}
		})
	}
}

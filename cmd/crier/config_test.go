package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/crier"
	"github.com/viant/crier/service/messaging"
)

const configYAML = `
selector:
  maxActionsPerDay: 4
approval:
  timeout: 30m
ledger:
  driver: memory
decisions:
  vendor: redis
  redis:
    addr: cache:6379
curation:
  qualityThreshold: 7
  feeds:
    - name: lobsters
      url: https://lobste.rs/rss
`

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crier.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o644))
	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("DISCORD_CHANNEL_ID=42\n"), 0o644))
	t.Setenv("CRIER_SELECTOR_ENGAGEMENTSLOTS", "1")
	t.Setenv("DISCORD_BOT_TOKEN", "secret")
	t.Cleanup(func() { _ = os.Unsetenv("DISCORD_CHANNEL_ID") })

	cfg, err := loadConfig(path, dotenv)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Selector.MaxActionsPerDay)
	assert.Equal(t, 2, cfg.Selector.MaxCuratedSharesPerDay)
	assert.Equal(t, 1, cfg.Selector.EngagementSlots)
	assert.Equal(t, 30*time.Minute, cfg.Approval.Timeout)
	assert.Equal(t, crier.LedgerMemory, cfg.Ledger.Driver)
	assert.Equal(t, messaging.VendorRedis, cfg.Decisions.Vendor)
	assert.Equal(t, "cache:6379", cfg.Decisions.Redis.Addr)
	assert.Equal(t, "crier:decisions", cfg.Decisions.Channel)
	assert.Equal(t, 7.0, cfg.Curation.QualityThreshold)
	assert.Equal(t, 20, cfg.Curation.TopN)
	require.Len(t, cfg.Curation.Feeds, 1)
	assert.Equal(t, "https://lobste.rs/rss", cfg.Curation.Feeds[0].URL)
	assert.Equal(t, "secret", cfg.Notifier.Token)
	assert.Equal(t, "42", cfg.Notifier.ChannelID)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := loadConfig("", "")
	require.NoError(t, err)
	assert.Equal(t, crier.DefaultConfig().Selector, cfg.Selector)
	assert.Equal(t, crier.DefaultConfig().Schedule, cfg.Schedule)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crier.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ledger:\n  driver: oracle\n"), 0o644))
	_, err := loadConfig(path, "")
	assert.ErrorContains(t, err, "unsupported ledger.driver")

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  host: ""
database:
  url: postgres://localhost/engage
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 90, cfg.Health.StaleDays)
	assert.Equal(t, 2.0, cfg.Health.BlockedResponseRate)
	assert.Equal(t, 70.0, cfg.Health.OpportunityMinScore)
	assert.Equal(t, 60, cfg.NBA.ReEngageThresholdDays)
	assert.Equal(t, 40.0, cfg.NBA.MinConfidenceThreshold)
	assert.Equal(t, 40.0, cfg.Saturation.TargetMSI)
	assert.Equal(t, 30, cfg.Scheduler.PollIntervalSeconds)
}

func TestLoadExplicitValuesWin(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 9090
health:
  stale_days: 120
  blocked_min_touches: 8
nba:
  prioritize_opportunities: true
  re_engage_threshold_days: 45
scheduler:
  enabled: true
  poll_interval_seconds: 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 120, cfg.Health.StaleDays)
	assert.Equal(t, 8, cfg.Health.BlockedMinTouches)
	assert.True(t, cfg.NBA.PrioritizeOpportunities)
	assert.Equal(t, 45, cfg.NBA.ReEngageThresholdDays)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 10, cfg.Scheduler.PollIntervalSeconds)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://file/engage
`)

	t.Setenv("DATABASE_URL", "postgres://env/engage")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("REPORTS_S3_BUCKET", "engage-reports")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/engage", cfg.Database.URL)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.True(t, cfg.Storage.Enabled)
	assert.Equal(t, "engage-reports", cfg.Storage.S3Bucket)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
server:
  run-mode: debug
  http-port: ":9200"
app:
  autosave-delay: 2s
study:
  review-ratio-short: 0.25
  demo-delay: 1m
backend:
  base-url: http://backend.local/
limiter:
  rules:
    - key: /api/cards/rebuild/recordings
      fill-interval: 1m
      capacity: 2
    - key: ""
      capacity: 1
mail:
  host: smtp.example.com
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	c, path, err := LoadConfig(writeConfig(t, testConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, c.File, path)

	assert.Equal(t, "debug", c.Server.RunMode)
	assert.Equal(t, ":9200", c.Server.HttpPort)
	assert.Equal(t, "sqlite", c.Database.Type)
	assert.Equal(t, "pp_", c.Database.TablePrefix)
	assert.Equal(t, 587, c.Mail.Port)
	assert.True(t, c.Tracer.Enabled)

	svc := c.GetServiceConfig()
	assert.Equal(t, 2*time.Second, svc.Editor.AutosaveDelay)
	assert.Equal(t, 30*time.Minute, svc.Editor.IdleTimeout)
	assert.Equal(t, 0.25, svc.Study.ReviewRatioShort)
	assert.Equal(t, 0.1, svc.Study.ReviewRatioLong)
	assert.Equal(t, time.Minute, svc.Study.DemoDelay)
	assert.Equal(t, 30, svc.Study.ShortGoalDays)

	assert.True(t, c.GetDatabaseConfig().Debug)
	assert.Equal(t, "http://backend.local/", c.GetBackendConfig().BaseURL)
	assert.Equal(t, 60*time.Second, c.GetBackendConfig().Timeout)
	assert.Equal(t, "smtp.example.com", c.GetMailerConfig().Host)
	assert.Equal(t, 30*time.Second, c.GetReminderInterval())

	rules := c.GetLimiterRules()
	require.Len(t, rules, 1)
	assert.Equal(t, time.Minute, rules[0].FillInterval)
	assert.Equal(t, int64(2), rules[0].Capacity)
	assert.Equal(t, int64(1), rules[0].Quantum)
}

func TestLoadConfigErrors(t *testing.T) {
	_, _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, _, err = LoadConfig(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestConfigSaveRoundTrip(t *testing.T) {
	c, _, err := LoadConfig(writeConfig(t, testConfigYAML))
	require.NoError(t, err)

	c.Server.HttpPort = ":9300"
	require.NoError(t, c.Save())

	again, _, err := LoadConfig(c.File)
	require.NoError(t, err)
	assert.Equal(t, ":9300", again.Server.HttpPort)
	assert.Equal(t, c.Limiter.Rules[0].Key, again.Limiter.Rules[0].Key)
}

func TestOrphanCleanupSchedule(t *testing.T) {
	c := &AppConfig{}
	c.App.OrphanCleanupCron = "30 3 * * *"
	s, err := c.GetOrphanCleanupSchedule()
	require.NoError(t, err)
	from := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 30, 0, 0, time.UTC), s.Next(from))

	c.App.OrphanCleanupCron = " "
	s, err = c.GetOrphanCleanupSchedule()
	require.NoError(t, err)
	assert.Nil(t, s)

	c.App.OrphanCleanupCron = "every day"
	_, err = c.GetOrphanCleanupSchedule()
	assert.Error(t, err)
}

func TestUploadMaxSize(t *testing.T) {
	c := &AppConfig{}
	c.App.UploadMaxSize = "10MB"
	assert.Equal(t, int64(10<<20), c.GetUploadMaxSize())
	c.App.UploadMaxSize = "huge"
	assert.Equal(t, int64(200<<20), c.GetUploadMaxSize())
}

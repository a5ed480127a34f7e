package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/termbot/internal/config"
	errs "github.com/edgard/termbot/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("BOT_TELEGRAM_TOKEN", "123:abc")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, config.DefaultTelegramMode, cfg.Telegram.Mode)
	assert.Equal(t, config.DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, config.DefaultDatabaseBusyTimeout, cfg.Database.BusyTimeout)
	assert.Equal(t, config.DefaultEncyclopediaResults, cfg.Encyclopedia.SearchResults)
	assert.Equal(t, config.DefaultEncyclopediaMaxLen, cfg.Encyclopedia.SummaryMaxLen)
	assert.Equal(t, config.DefaultRetentionDays, cfg.Scheduler.RetentionDays)
	assert.Equal(t, config.DefaultMessages.GeneralError, cfg.Messages.GeneralError)
	assert.ElementsMatch(t, config.DefaultCancelWords, cfg.Dialogue.CancelWords)

	require.Contains(t, cfg.Scheduler.Tasks, config.TaskCleanupOldData)
	assert.True(t, cfg.Scheduler.Tasks[config.TaskCleanupOldData].Enabled)
	assert.Equal(t, config.DefaultTasks[config.TaskSQLMaintenance].Schedule, cfg.Scheduler.Tasks[config.TaskSQLMaintenance].Schedule)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  json: true
telegram:
  token: from-file
  admin_ids: [10, 20]
database:
  path: /tmp/termbot.db
encyclopedia:
  timeout: 3s
scheduler:
  retention_days: 30
  tasks:
    sql_maintenance:
      enabled: false
messages:
  general_error: "Oops"
`)
	t.Setenv("BOT_TELEGRAM_TOKEN", "from-env")
	t.Setenv("BOT_DATABASE_PATH", "/var/lib/termbot.db")
	t.Setenv("PORT", "9000")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, []int64{10, 20}, cfg.Telegram.AdminIDs)
	assert.Equal(t, "/var/lib/termbot.db", cfg.Database.Path)
	assert.Equal(t, 3*time.Second, cfg.Encyclopedia.Timeout)
	assert.Equal(t, 30, cfg.Scheduler.RetentionDays)
	assert.False(t, cfg.Scheduler.Tasks[config.TaskSQLMaintenance].Enabled)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "Oops", cfg.Messages.GeneralError)
	assert.Equal(t, config.DefaultMessages.Welcome, cfg.Messages.Welcome, "unset templates keep defaults")
}

func TestLoadConfigValidation(t *testing.T) {
	t.Setenv("BOT_TELEGRAM_TOKEN", "")

	tests := []struct {
		name string
		body string
	}{
		{"missing token", "log:\n  level: info\n"},
		{"bad log level", "telegram:\n  token: t\nlog:\n  level: loud\n"},
		{"webhook without url", "telegram:\n  token: t\n  mode: webhook\n"},
		{"redis without url", "telegram:\n  token: t\ndialogue:\n  backend: redis\n"},
		{"bad admin id", "telegram:\n  token: t\n  admin_ids: [-1]\n"},
		{"enabled task without schedule", "telegram:\n  token: t\nscheduler:\n  tasks:\n    extra:\n      enabled: true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Equal(t, errs.CodeConfig, errs.Code(err))
		})
	}
}

func TestIsAdmin(t *testing.T) {
	t.Parallel()

	tg := config.TelegramConfig{AdminIDs: []int64{5, 6}}
	assert.True(t, tg.IsAdmin(6))
	assert.False(t, tg.IsAdmin(7))
	assert.False(t, config.TelegramConfig{}.IsAdmin(5))
}

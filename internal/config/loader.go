package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	errs "github.com/edgard/termbot/internal/errors"
)

// LoadConfig loads configuration in increasing priority:
// defaults, the YAML file at path, a .env file, BOT_* environment variables.
// A missing config file or .env file is not an error.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errs.NewConfigError("failed to read .env file", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, errs.NewConfigError(fmt.Sprintf("failed to read config file %s", path), err)
		}
		slog.Info("Config file not found, using defaults and environment", "path", path)
	}

	cfg := &Config{Messages: DefaultMessages}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errs.NewConfigError("failed to parse config", err)
	}

	if port := os.Getenv("PORT"); port != "" && cfg.HTTP.Addr == DefaultHTTPAddr {
		cfg.HTTP.Addr = ":" + port
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return errs.NewConfigError("invalid configuration", err)
	}
	for name, task := range cfg.Scheduler.Tasks {
		if task.Enabled && strings.TrimSpace(task.Schedule) == "" {
			return errs.NewConfigError(fmt.Sprintf("scheduler task %q is enabled but has no schedule", name), nil)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", false)

	// Registered so BOT_* variables are picked up without a config file.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_ids", []int64{})
	v.SetDefault("telegram.mode", DefaultTelegramMode)
	v.SetDefault("telegram.webhook_url", "")
	v.SetDefault("telegram.webhook_secret", "")

	v.SetDefault("http.addr", DefaultHTTPAddr)

	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("database.busy_timeout", DefaultDatabaseBusyTimeout)

	v.SetDefault("encyclopedia.base_url", DefaultEncyclopediaBaseURL)
	v.SetDefault("encyclopedia.search_results", DefaultEncyclopediaResults)
	v.SetDefault("encyclopedia.summary_max_len", DefaultEncyclopediaMaxLen)
	v.SetDefault("encyclopedia.timeout", DefaultEncyclopediaTimeout)
	v.SetDefault("encyclopedia.requests_per_second", DefaultEncyclopediaRPS)
	v.SetDefault("encyclopedia.user_agent", DefaultEncyclopediaUserAgent)

	v.SetDefault("dialogue.backend", DefaultDialogueBackend)
	v.SetDefault("dialogue.redis_url", "")
	v.SetDefault("dialogue.state_ttl", DefaultDialogueStateTTL)
	v.SetDefault("dialogue.cancel_words", DefaultCancelWords)

	for name, task := range DefaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}
	v.SetDefault("scheduler.retention_days", DefaultRetentionDays)
	v.SetDefault("scheduler.task_timeout", DefaultTaskTimeout)

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
}

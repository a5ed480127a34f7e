// Package config loads TermBot configuration from config.yaml, a .env file
// and BOT_* environment variables, and validates it.
package config

import (
	"time"

	"github.com/go-telegram/bot/models"
)

// Config is the root configuration.
type Config struct {
	Log          LogConfig          `mapstructure:"log"`
	Telegram     TelegramConfig     `mapstructure:"telegram"`
	HTTP         HTTPConfig         `mapstructure:"http"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Encyclopedia EncyclopediaConfig `mapstructure:"encyclopedia"`
	Dialogue     DialogueConfig     `mapstructure:"dialogue"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Sentry       SentryConfig       `mapstructure:"sentry"`
	Messages     MessagesConfig     `mapstructure:"messages"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds transport settings. BotInfo is filled at startup.
type TelegramConfig struct {
	Token         string  `mapstructure:"token"          validate:"required"`
	AdminIDs      []int64 `mapstructure:"admin_ids"      validate:"dive,gt=0"`
	Mode          string  `mapstructure:"mode"           validate:"oneof=polling webhook"`
	WebhookURL    string  `mapstructure:"webhook_url"    validate:"required_if=Mode webhook"`
	WebhookSecret string  `mapstructure:"webhook_secret"`

	BotInfo *models.User `mapstructure:"-"`
}

// IsAdmin reports whether userID is listed in admin_ids.
func (t TelegramConfig) IsAdmin(userID int64) bool {
	for _, id := range t.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"         validate:"required"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout" validate:"min=0"`
}

type EncyclopediaConfig struct {
	BaseURL           string        `mapstructure:"base_url"            validate:"required,url"`
	SearchResults     int           `mapstructure:"search_results"      validate:"min=1,max=10"`
	SummaryMaxLen     int           `mapstructure:"summary_max_len"     validate:"min=100,max=4000"`
	Timeout           time.Duration `mapstructure:"timeout"             validate:"min=1s,max=1m"`
	RequestsPerSecond int           `mapstructure:"requests_per_second" validate:"min=1"`
	UserAgent         string        `mapstructure:"user_agent"          validate:"required"`
}

type DialogueConfig struct {
	Backend     string        `mapstructure:"backend"      validate:"oneof=memory redis"`
	RedisURL    string        `mapstructure:"redis_url"    validate:"required_if=Backend redis"`
	StateTTL    time.Duration `mapstructure:"state_ttl"    validate:"min=1m"`
	CancelWords []string      `mapstructure:"cancel_words" validate:"min=1"`
}

// TaskConfig enables one scheduled task and sets its cron schedule
// (seconds field first).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

type SchedulerConfig struct {
	Tasks         map[string]TaskConfig `mapstructure:"tasks"`
	RetentionDays int                   `mapstructure:"retention_days" validate:"min=1"`
	TaskTimeout   time.Duration         `mapstructure:"task_timeout"   validate:"min=1s"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// MessagesConfig holds every user-facing template. Templates with %s or %d
// verbs are formatted with already escaped values.
type MessagesConfig struct {
	Welcome            string `mapstructure:"welcome"              validate:"required"`
	RegistrationStart  string `mapstructure:"registration_start"   validate:"required"`
	AskLastName        string `mapstructure:"ask_last_name"        validate:"required"`
	AskEmail           string `mapstructure:"ask_email"            validate:"required"`
	AskAge             string `mapstructure:"ask_age"              validate:"required"`
	RegistrationDone   string `mapstructure:"registration_done"    validate:"required"`
	RegistrationSkip   string `mapstructure:"registration_skip"    validate:"required"`
	RegistrationCancel string `mapstructure:"registration_cancel"  validate:"required"`
	InvalidFirstName   string `mapstructure:"invalid_first_name"   validate:"required"`
	InvalidLastName    string `mapstructure:"invalid_last_name"    validate:"required"`
	InvalidEmail       string `mapstructure:"invalid_email"        validate:"required"`
	InvalidAge         string `mapstructure:"invalid_age"          validate:"required"`
	MainMenu           string `mapstructure:"main_menu"            validate:"required"`
	Help               string `mapstructure:"help"                 validate:"required"`
	About              string `mapstructure:"about"                validate:"required"`
	FAQ                string `mapstructure:"faq"                  validate:"required"`
	Contacts           string `mapstructure:"contacts"             validate:"required"`
	Settings           string `mapstructure:"settings"             validate:"required"`
	SettingsNotify     string `mapstructure:"settings_notify"      validate:"required"`
	SettingsLanguage   string `mapstructure:"settings_language"    validate:"required"`
	SettingsTheme      string `mapstructure:"settings_theme"       validate:"required"`
	AskSearchTerm      string `mapstructure:"ask_search_term"      validate:"required"`
	SearchNotFound     string `mapstructure:"search_not_found"     validate:"required"`
	SearchAmbiguous    string `mapstructure:"search_ambiguous"     validate:"required"`
	SearchFailed       string `mapstructure:"search_failed"        validate:"required"`
	SearchCancelled    string `mapstructure:"search_cancelled"     validate:"required"`
	ActionCancelled    string `mapstructure:"action_cancelled"     validate:"required"`
	HistoryEmpty       string `mapstructure:"history_empty"        validate:"required"`
	NotRegistered      string `mapstructure:"not_registered"       validate:"required"`
	EditChoose         string `mapstructure:"edit_choose"          validate:"required"`
	EditAsk            string `mapstructure:"edit_ask"             validate:"required"`
	EditDone           string `mapstructure:"edit_done"            validate:"required"`
	UnknownInput       string `mapstructure:"unknown_input"        validate:"required"`
	NotAuthorized      string `mapstructure:"not_authorized"       validate:"required"`
	GeneralError       string `mapstructure:"general_error"        validate:"required"`
	AdminDeleteUsage   string `mapstructure:"admin_delete_usage"   validate:"required"`
	AdminDeleteConfirm string `mapstructure:"admin_delete_confirm" validate:"required"`
	AdminDeleteSelf    string `mapstructure:"admin_delete_self"    validate:"required"`
	AdminDeleteDone    string `mapstructure:"admin_delete_done"    validate:"required"`
	AdminDeleteCancel  string `mapstructure:"admin_delete_cancel"  validate:"required"`
	AdminUserNotFound  string `mapstructure:"admin_user_not_found" validate:"required"`
	UserDeletedNotice  string `mapstructure:"user_deleted_notice"  validate:"required"`
}

// Package config manages application configuration from a YAML file,
// CHATLOGGER_* environment variables and default values.
package config

import (
	"errors"
	"time"
)

// ErrConfiguration wraps every error returned while loading or validating configuration.
var ErrConfiguration = errors.New("configuration error")

// Config is the complete, immutable application configuration.
// It is loaded once at startup and only read afterwards.
type Config struct {
	ChatLog `mapstructure:",squash"`

	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ChatLog holds the settings that drive event filtering and record writing.
type ChatLog struct {
	DatabaseURL        string   `mapstructure:"database_url"         validate:"required"`
	BotNickname        string   `mapstructure:"bot_nickname"`
	IncludeBotMessages bool     `mapstructure:"include_bot_messages"`
	GroupWhitelist     []string `mapstructure:"group_whitelist"`
	GroupBlacklist     []string `mapstructure:"group_blacklist"`
	DataDir            string   `mapstructure:"data_dir"             validate:"required"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
	File  string `mapstructure:"file"`
}

// DatabaseConfig tunes the connection pool. SQLite always runs with a single connection.
type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"min=0"`
}

// TelegramConfig enables the Telegram host when Token is set.
type TelegramConfig struct {
	Token       string `mapstructure:"token"`
	ReplyPrefix string `mapstructure:"reply_prefix"`
}

// Enabled reports whether the Telegram host should be started.
func (t TelegramConfig) Enabled() bool {
	return t.Token != ""
}

// HTTPConfig enables the HTTP ingest host when ListenAddr is set.
type HTTPConfig struct {
	ListenAddr string  `mapstructure:"listen_addr"`
	RateLimit  float64 `mapstructure:"rate_limit"  validate:"min=0"`
	RateBurst  int     `mapstructure:"rate_burst"  validate:"min=1"`
}

// Enabled reports whether the HTTP ingest host should be started.
func (h HTTPConfig) Enabled() bool {
	return h.ListenAddr != ""
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig configures one scheduled task. Schedule is a cron expression with a seconds field.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

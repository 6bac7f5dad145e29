package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration
const (
	DefaultDataDir            = "./data/chatlogger"
	DefaultDatabaseURL        = "sqlite:///" + DefaultDataDir + "/chat_logs.db"
	DefaultBotNickname        = "Self"
	DefaultIncludeBotMessages = true

	DefaultLogLevel = "info"

	DefaultDBMaxOpenConns    = 10
	DefaultDBConnMaxLifetime = 5 * time.Minute

	DefaultHTTPRateBurst = 20

	SQLMaintenanceTask            = "sql_maintenance"
	DefaultSQLMaintenanceSchedule = "0 0 4 * * *"
)

// setDefaults registers defaults for every key so env overrides and
// partial config files resolve against a complete tree.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database_url", DefaultDatabaseURL)
	v.SetDefault("bot_nickname", DefaultBotNickname)
	v.SetDefault("include_bot_messages", DefaultIncludeBotMessages)
	v.SetDefault("group_whitelist", []string{})
	v.SetDefault("group_blacklist", []string{})
	v.SetDefault("data_dir", DefaultDataDir)

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")

	v.SetDefault("database.max_open_conns", DefaultDBMaxOpenConns)
	v.SetDefault("database.conn_max_lifetime", DefaultDBConnMaxLifetime)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.reply_prefix", "")

	v.SetDefault("http.listen_addr", "")
	v.SetDefault("http.rate_limit", 0.0)
	v.SetDefault("http.rate_burst", DefaultHTTPRateBurst)

	v.SetDefault("scheduler.tasks."+SQLMaintenanceTask+".enabled", true)
	v.SetDefault("scheduler.tasks."+SQLMaintenanceTask+".schedule", DefaultSQLMaintenanceSchedule)
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override file values,
// e.g. CHATLOGGER_TELEGRAM_TOKEN or CHATLOGGER_BOT_NICKNAME.
const EnvPrefix = "CHATLOGGER"

// Load builds the configuration from, in increasing priority:
//  1. default values
//  2. the YAML file at path (optional; a missing file is not an error)
//  3. CHATLOGGER_* environment variables
//
// The result is validated before it is returned.
func Load(path string) (*Config, error) {
	startTime := time.Now()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("%w: failed to read config file %s: %v", ErrConfiguration, path, err)
			}
			slog.Info("configuration file not found, using defaults", "path", path)
		} else {
			slog.Debug("configuration file loaded", "path", v.ConfigFileUsed())
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}
	cfg.GroupWhitelist = normalizeIDs(cfg.GroupWhitelist)
	cfg.GroupBlacklist = normalizeIDs(cfg.GroupBlacklist)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	slog.Debug("configuration loaded",
		"log_level", cfg.Log.Level,
		"data_dir", cfg.DataDir,
		"telegram_enabled", cfg.Telegram.Enabled(),
		"http_enabled", cfg.HTTP.Enabled(),
		"duration_ms", time.Since(startTime).Milliseconds())

	return cfg, nil
}

// normalizeIDs trims every id and drops empty entries. Numeric ids written
// unquoted in YAML arrive here already converted to strings by viper.
func normalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

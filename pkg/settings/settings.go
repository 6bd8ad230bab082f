// Package settings loads the application configuration from a JSON file in
// the user's config directory, merging it over built-in defaults. A missing
// or broken file is never fatal; the defaults carry the session.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const appDir = "xvkeyboard"

type Settings struct {
	AutoRepeatEnabled    bool   `mapstructure:"auto_repeat_enabled"`
	AutoRepeatDelayMs    int    `mapstructure:"auto_repeat_delay_ms"`
	AutoRepeatIntervalMs int    `mapstructure:"auto_repeat_interval_ms"`
	PollIntervalMs       int    `mapstructure:"poll_interval_ms"`
	LayoutsDir           string `mapstructure:"layouts_dir"`
	StoreBackend         string `mapstructure:"store_backend"` // sqlite, json or memory
	SwitchCommand        string `mapstructure:"switch_command"`
	AutoShowOnEdit       bool   `mapstructure:"auto_show_on_edit"`
}

// ConfigDir returns (and creates) the per-user config directory.
func ConfigDir() (string, error) {
	dir := filepath.Join(xdg.ConfigHome, appDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// DefaultPath is where settings live unless overridden on the command line.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}

// Load reads path, falling back to defaults for anything missing. path may
// point at a nonexistent file.
func Load(path string, log *zap.SugaredLogger) (Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetDefault("auto_repeat_enabled", true)
	v.SetDefault("auto_repeat_delay_ms", 1500)
	v.SetDefault("auto_repeat_interval_ms", 100)
	v.SetDefault("poll_interval_ms", 1000)
	v.SetDefault("layouts_dir", filepath.Join(filepath.Dir(path), "layouts"))
	v.SetDefault("store_backend", "sqlite")
	v.SetDefault("switch_command", "")
	v.SetDefault("auto_show_on_edit", false)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			log.Infow("no settings file, using defaults", "path", path)
		} else {
			log.Warnw("settings file unreadable, using defaults", "path", path, "error", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	s.clampIntervals(log)

	return s, nil
}

// clampIntervals forces the timer-driving values back to their defaults when
// the file sets them to zero or below; tickers cannot run on such intervals.
func (s *Settings) clampIntervals(log *zap.SugaredLogger) {
	clamp := func(v *int, def int, key string) {
		if *v <= 0 {
			log.Warnw("interval must be positive, using default", "key", key, "value", *v, "default", def)
			*v = def
		}
	}
	clamp(&s.PollIntervalMs, 1000, "poll_interval_ms")
	clamp(&s.AutoRepeatDelayMs, 1500, "auto_repeat_delay_ms")
	clamp(&s.AutoRepeatIntervalMs, 100, "auto_repeat_interval_ms")
}

// Package config loads daemon and CLI settings from the XDG config
// directory with sane defaults for every key.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"codeberg.org/lkiss/wlplug/pkg/paths"
)

// Settings holds everything tunable about wlplug.
type Settings struct {
	// ClamshellMode disables the internal panel when the lid is closed and
	// an external monitor is connected.
	ClamshellMode bool `mapstructure:"clamshell_mode"`

	// NiriSettleSeconds is added to the hotplug debounce when output changes
	// are inferred from workspace events instead of reported directly.
	NiriSettleSeconds int `mapstructure:"niri_settle_seconds"`

	// UpdateSDDM regenerates the SDDM Xsetup script on profile writes.
	UpdateSDDM bool `mapstructure:"update_sddm"`

	// UpdateGreetd regenerates the greetd sway monitor config on profile
	// writes.
	UpdateGreetd bool `mapstructure:"update_greetd"`

	// MigrateWorkspaces moves workspaces stranded on disconnected outputs
	// back onto a connected one after a profile apply.
	MigrateWorkspaces bool `mapstructure:"migrate_workspaces"`

	// UseDescription identifies monitors by EDID description instead of
	// connector name in generated configs.
	UseDescription bool `mapstructure:"use_description"`

	// HyprlandMonitorV2 emits monitorv2 blocks instead of monitor= lines.
	HyprlandMonitorV2 bool `mapstructure:"hyprland_monitorv2"`

	// Store selects the profile store backend: "json" or "sqlite".
	Store string `mapstructure:"store"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
}

// Load reads wlplug.toml from the config directory, falling back to
// defaults when the file or individual keys are absent.
func Load() (*Settings, error) {
	dir, err := paths.ConfigDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName("wlplug")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)

	v.SetDefault("clamshell_mode", false)
	v.SetDefault("niri_settle_seconds", 2)
	v.SetDefault("update_sddm", true)
	v.SetDefault("update_greetd", true)
	v.SetDefault("migrate_workspaces", true)
	v.SetDefault("use_description", true)
	v.SetDefault("hyprland_monitorv2", false)
	v.SetDefault("store", "json")
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	switch strings.ToLower(s.Store) {
	case "json", "sqlite":
	default:
		return nil, fmt.Errorf("unknown store backend %q", s.Store)
	}

	return &s, nil
}

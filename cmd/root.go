// Package cmd wires the wlplug subcommands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"codeberg.org/lkiss/wlplug/pkg/compositor"
	"codeberg.org/lkiss/wlplug/pkg/compositor/hyprland"
	"codeberg.org/lkiss/wlplug/pkg/compositor/niri"
	"codeberg.org/lkiss/wlplug/pkg/compositor/sway"
	"codeberg.org/lkiss/wlplug/pkg/config"
	"codeberg.org/lkiss/wlplug/pkg/paths"
	"codeberg.org/lkiss/wlplug/pkg/profilestore"
	storejson "codeberg.org/lkiss/wlplug/pkg/profilestore/json"
	storesqlite "codeberg.org/lkiss/wlplug/pkg/profilestore/sqlite"
)

var (
	// Version is set during build
	Version = "0.1.0-dev"

	debug bool

	rootCmd = &cobra.Command{
		Use:   "wlplug",
		Short: "Per-output layout manager for Wayland compositors",
		Long: `wlplug saves and restores monitor layouts across Hyprland, Sway and niri.
Profiles are matched against the connected monitor set, and the daemon
re-applies the best one on every hotplug, dock or lid event.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(deleteCmd)
}

func newLogger(cfg *config.Settings) (*zap.SugaredLogger, error) {
	loggerConfig := zap.NewDevelopmentConfig()

	loggerConfig.OutputPaths = []string{"stdout"}
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.InfoLevel
	if err := level.Set(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.LogLevel, err)
	}
	if debug {
		level = zapcore.DebugLevel
	}
	loggerConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger.Sugar(), nil
}

func openStore(cfg *config.Settings, log *zap.SugaredLogger) (profilestore.Store, error) {
	switch cfg.Store {
	case "sqlite":
		path, err := profilestore.SQLitePath()
		if err != nil {
			return nil, err
		}
		return storesqlite.NewProfileStore(path, log)
	default:
		dir, err := paths.ProfilesDir()
		if err != nil {
			return nil, err
		}
		return storejson.NewProfileStore(dir)
	}
}

func connectClient(log *zap.SugaredLogger) (compositor.Client, error) {
	kind, err := compositor.Detect()
	if err != nil {
		return nil, err
	}

	switch kind {
	case compositor.KindHyprland:
		return hyprland.NewClient(log)
	case compositor.KindSway:
		return sway.NewClient(log)
	case compositor.KindNiri:
		return niri.NewClient(log)
	}
	return nil, fmt.Errorf("unknown compositor %q", kind)
}

func applyOptions(cfg *config.Settings) compositor.ApplyOptions {
	return compositor.ApplyOptions{
		UseDescription: cfg.UseDescription,
		HyprlandV2:     cfg.HyprlandMonitorV2,
		UpdateSDDM:     cfg.UpdateSDDM,
		UpdateGreetd:   cfg.UpdateGreetd,
	}
}

// setup loads the settings and builds the logger most subcommands need.
func setup() (*config.Settings, *zap.SugaredLogger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, log, nil
}

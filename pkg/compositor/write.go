package compositor

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"codeberg.org/lkiss/wlplug/pkg/output"
	"codeberg.org/lkiss/wlplug/pkg/paths"
)

// WriteConfigs persists a profile to disk for the active compositor and
// cross-writes configs for the other installed ones, so a later login into
// a different compositor comes up with the same layout. Only the active
// compositor's write can fail the call; cross-writes and the login-manager
// files are best-effort and logged. Existing files get a single-generation
// .bak copy first.
//
// niriIDs maps normalized descriptions to niri-native ones and is only
// meaningful when active is "niri"; pass nil otherwise.
func WriteConfigs(log *zap.SugaredLogger, p *output.Profile, active string, niriIDs map[string]string, opts ApplyOptions) error {
	switch active {
	case KindHyprland:
		if err := writeHyprland(p, opts); err != nil {
			return err
		}
	case KindSway:
		if err := writeSway(p, opts); err != nil {
			return err
		}
	case KindNiri:
		if err := writeNiri(p, niriIDs, opts); err != nil {
			return err
		}
	}

	if active != KindHyprland && paths.HyprlandInstalled() {
		if err := writeHyprland(p, opts); err != nil {
			log.Warnw("cross-write hyprland config", "error", err)
		}
	}
	if active != KindSway && paths.SwayInstalled() {
		if err := writeSway(p, opts); err != nil {
			log.Warnw("cross-write sway config", "error", err)
		}
	}
	// niri watches its config files, so cross-writing the layout while
	// another compositor is active would apply it immediately on the next
	// niri session start anyway; only the niri backend writes it.

	if opts.UpdateSDDM && paths.SDDMPresent() {
		if err := paths.WritePrivileged(paths.SDDMXsetupPath(), p.XsetupScript()); err != nil {
			log.Warnw("write sddm xsetup", "error", err)
		}
	}
	if opts.UpdateGreetd && paths.GreetdPresent() {
		if err := paths.WritePrivileged(paths.GreetdMonitorsPath(), p.SwayConfig(opts.UseDescription)); err != nil {
			log.Warnw("write greetd monitors", "error", err)
		}
	}

	return nil
}

func writeHyprland(p *output.Profile, opts ApplyOptions) error {
	conf := filepath.Join(paths.HyprlandConfigDir(), "wlplug-monitors.conf")
	if err := paths.BackupFile(conf); err != nil {
		return fmt.Errorf("backup hyprland config: %w", err)
	}
	if err := paths.WriteText(conf, p.HyprlandConfig(opts.UseDescription, opts.HyprlandV2)); err != nil {
		return fmt.Errorf("write hyprland config: %w", err)
	}
	return nil
}

func writeSway(p *output.Profile, opts ApplyOptions) error {
	conf := filepath.Join(paths.SwayConfigDir(), "wlplug-monitors.conf")
	if err := paths.BackupFile(conf); err != nil {
		return fmt.Errorf("backup sway config: %w", err)
	}
	if err := paths.WriteText(conf, p.SwayConfig(opts.UseDescription)); err != nil {
		return fmt.Errorf("write sway config: %w", err)
	}
	return nil
}

func writeNiri(p *output.Profile, niriIDs map[string]string, opts ApplyOptions) error {
	conf := filepath.Join(paths.NiriConfigDir(), "wlplug-monitors.kdl")
	if err := paths.BackupFile(conf); err != nil {
		return fmt.Errorf("backup niri config: %w", err)
	}
	if err := paths.WriteText(conf, p.NiriConfig(opts.UseDescription, niriIDs)); err != nil {
		return fmt.Errorf("write niri config: %w", err)
	}
	return nil
}

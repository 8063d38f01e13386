// Package paths centralizes the filesystem surface: XDG locations, config
// file helpers with single-generation backups, and the privileged writes
// used for login-manager artifacts.
package paths

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// ConfigDir returns the wlplug config directory, creating it if needed.
func ConfigDir() (string, error) {
	dir := filepath.Join(xdg.ConfigHome, "wlplug")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// ProfilesDir returns the profile store directory, creating it if needed.
func ProfilesDir() (string, error) {
	base, err := ConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "profiles")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create profiles dir: %w", err)
	}
	return dir, nil
}

func HyprlandConfigDir() string { return filepath.Join(xdg.ConfigHome, "hypr") }
func SwayConfigDir() string     { return filepath.Join(xdg.ConfigHome, "sway") }
func NiriConfigDir() string     { return filepath.Join(xdg.ConfigHome, "niri") }

// HyprlandRuntimeDir returns the directory holding the two Hyprland IPC
// sockets for the current instance.
func HyprlandRuntimeDir() string {
	return filepath.Join(xdg.RuntimeDir, "hypr", os.Getenv("HYPRLAND_INSTANCE_SIGNATURE"))
}

func HyprlandInstalled() bool { return lookPathOK("Hyprland") }
func SwayInstalled() bool     { return lookPathOK("sway") }
func NiriInstalled() bool     { return lookPathOK("niri") }

func lookPathOK(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}

// WriteText writes a text file, creating parent directories.
func WriteText(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// BackupFile copies path to path.bak, keeping a single generation. Missing
// files are not an error.
func BackupFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := os.WriteFile(path+".bak", data, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// RestoreBackup moves path.bak back over path. Reports whether a backup
// existed.
func RestoreBackup(path string) (bool, error) {
	bak := path + ".bak"
	data, err := os.ReadFile(bak)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read backup: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("restore %s: %w", path, err)
	}
	if err := os.Remove(bak); err != nil {
		return false, fmt.Errorf("remove backup: %w", err)
	}
	return true, nil
}

// SDDMXsetupPath is the script SDDM runs before showing the greeter.
func SDDMXsetupPath() string { return "/usr/share/sddm/scripts/Xsetup" }

// SDDMPresent reports whether SDDM looks installed.
func SDDMPresent() bool {
	_, err := os.Stat(SDDMXsetupPath())
	return err == nil
}

// GreetdSwayConfigPath is the sway config greetd launches its greeter with.
func GreetdSwayConfigPath() string { return "/etc/greetd/sway-config" }

// GreetdMonitorsPath is where the generated greeter monitor layout goes.
func GreetdMonitorsPath() string { return "/etc/greetd/wlplug-monitors.conf" }

// GreetdPresent reports whether greetd is configured with sway.
func GreetdPresent() bool {
	_, err := os.Stat(GreetdSwayConfigPath())
	return err == nil
}

// WritePrivileged writes content to a root-owned path through pkexec.
func WritePrivileged(path, content string) error {
	cmd := exec.Command("pkexec", "tee", path)
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = nil
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pkexec tee %s: %w", path, err)
	}
	return nil
}

package compositor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Kind names a supported compositor backend.
const (
	KindHyprland = "hyprland"
	KindSway     = "sway"
	KindNiri     = "niri"
)

// Detect figures out which supported compositor is running, first from the
// session environment, then by scanning the runtime directory for IPC
// sockets (the daemon may be started from systemd without the session env).
func Detect() (string, error) {
	if os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") != "" {
		return KindHyprland, nil
	}
	if os.Getenv("SWAYSOCK") != "" {
		return KindSway, nil
	}
	if os.Getenv("NIRI_SOCKET") != "" {
		return KindNiri, nil
	}
	return detectFromRuntimeDir(xdg.RuntimeDir)
}

func detectFromRuntimeDir(dir string) (string, error) {
	checks := []struct {
		kind string
		glob string
	}{
		{KindHyprland, filepath.Join(dir, "hypr", "*", ".socket.sock")},
		{KindSway, filepath.Join(dir, "sway-ipc.*.sock")},
		{KindNiri, filepath.Join(dir, "niri.wayland-*.sock")},
	}

	for _, c := range checks {
		matches, err := filepath.Glob(c.glob)
		if err != nil {
			return "", fmt.Errorf("scan runtime dir: %w", err)
		}
		if len(matches) > 0 {
			return c.kind, nil
		}
	}
	return "", ErrNotRunning
}

// SocketFromRuntimeDir finds the IPC socket for a backend when the session
// environment does not provide it.
func SocketFromRuntimeDir(dir, kind string) (string, error) {
	var glob string
	switch kind {
	case KindHyprland:
		glob = filepath.Join(dir, "hypr", "*", ".socket.sock")
	case KindSway:
		glob = filepath.Join(dir, "sway-ipc.*.sock")
	case KindNiri:
		glob = filepath.Join(dir, "niri.wayland-*.sock")
	default:
		return "", fmt.Errorf("unknown compositor %q", kind)
	}

	matches, err := filepath.Glob(glob)
	if err != nil {
		return "", fmt.Errorf("scan runtime dir: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%s socket: %w", kind, ErrNotRunning)
	}
	return matches[0], nil
}

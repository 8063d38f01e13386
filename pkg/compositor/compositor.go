// Package compositor defines the interface the daemon and CLI use to talk
// to a running Wayland compositor, plus the shared config-writing path
// every backend applies profiles through.
package compositor

import (
	"context"
	"errors"

	"codeberg.org/lkiss/wlplug/pkg/output"
)

// ErrNotRunning is returned when no supported compositor can be reached.
var ErrNotRunning = errors.New("no supported compositor is running")

// Workspace is a compositor workspace and the output it currently sits on.
type Workspace struct {
	ID     int
	Name   string
	Output string
}

// EventSource says how an output change was observed. The daemon picks its
// debounce delay based on it.
type EventSource int

const (
	// SourceNative means the compositor reported the hotplug directly.
	SourceNative EventSource = iota
	// SourceUdev means a DRM uevent was seen; the compositor may not have
	// processed the change yet.
	SourceUdev
	// SourceHeuristic means the change was inferred from indirect events
	// (niri workspace updates) and needs a longer settle time.
	SourceHeuristic
)

func (s EventSource) String() string {
	switch s {
	case SourceNative:
		return "native"
	case SourceUdev:
		return "udev"
	case SourceHeuristic:
		return "heuristic"
	}
	return "unknown"
}

// Event is a single observed output change.
type Event struct {
	// Kind is "added", "removed" or "changed".
	Kind string
	// Output is the connector name when the compositor reported one.
	Output string
	Source EventSource
}

// ApplyOptions tunes how a profile is written out.
type ApplyOptions struct {
	// UseDescription identifies monitors by EDID description rather than
	// connector name in generated configs.
	UseDescription bool
	// HyprlandV2 emits monitorv2 blocks instead of monitor= lines.
	HyprlandV2 bool
	// UpdateSDDM regenerates the SDDM Xsetup script.
	UpdateSDDM bool
	// UpdateGreetd regenerates the greetd sway monitor config.
	UpdateGreetd bool
}

// Client talks to one compositor.
type Client interface {
	// Name identifies the backend: "hyprland", "sway" or "niri".
	Name() string

	// GetOutputs returns all connected outputs, including disabled ones.
	GetOutputs() ([]output.Output, error)

	// GetWorkspaces returns the current workspaces.
	GetWorkspaces() ([]Workspace, error)

	// MoveWorkspace moves a workspace onto the named output.
	MoveWorkspace(workspace, target string) error

	// Apply writes the profile's config files and makes the compositor
	// pick them up.
	Apply(profile *output.Profile, opts ApplyOptions) error

	// StreamEvents delivers output change events until ctx is cancelled or
	// the connection drops.
	StreamEvents(ctx context.Context, events chan<- Event) error

	// MigratesWorkspaces reports whether the compositor moves workspaces
	// off removed outputs by itself.
	MigratesWorkspaces() bool
}

package niri

import (
	"fmt"
	"strings"

	"codeberg.org/lkiss/wlplug/pkg/output"
)

func modeString(w, h int, refresh float64) string {
	return fmt.Sprintf("%dx%d@%.3fHz", w, h, refresh)
}

type niriMode struct {
	Width       int `json:"width"`
	Height      int `json:"height"`
	RefreshRate int `json:"refresh_rate"` // millihertz
}

type niriLogical struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Scale     float64 `json:"scale"`
	Transform string  `json:"transform"`
}

type niriOutput struct {
	Make        string       `json:"make"`
	Model       string       `json:"model"`
	Serial      *string      `json:"serial"`
	Modes       []niriMode   `json:"modes"`
	CurrentMode *int         `json:"current_mode"`
	Logical     *niriLogical `json:"logical"` // null when disabled
	VRREnabled  bool         `json:"vrr_enabled"`
}

// nativeDescription joins make/model/serial the way niri renders output
// identifiers.
func (n *niriOutput) nativeDescription() string {
	serial := ""
	if n.Serial != nil {
		serial = *n.Serial
	}
	var parts []string
	for _, p := range []string{n.Make, n.Model, serial} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func (n *niriOutput) toOutput(name string) output.Output {
	o := output.New()
	o.Name = name
	o.Make = n.Make
	o.Model = n.Model
	if n.Serial != nil {
		o.Serial = *n.Serial
	}
	o.Description = output.NormalizeDescription(n.nativeDescription())

	if n.CurrentMode != nil && *n.CurrentMode >= 0 && *n.CurrentMode < len(n.Modes) {
		mode := n.Modes[*n.CurrentMode]
		o.Width = mode.Width
		o.Height = mode.Height
		o.RefreshRate = float64(mode.RefreshRate) / 1000
	}
	o.ResolutionMode = output.ResolutionExplicit

	o.AvailableModes = make([]string, 0, len(n.Modes))
	for _, m := range n.Modes {
		o.AvailableModes = append(o.AvailableModes,
			modeString(m.Width, m.Height, float64(m.RefreshRate)/1000))
	}

	if n.Logical != nil {
		o.Enabled = true
		o.X = n.Logical.X
		o.Y = n.Logical.Y
		o.Scale = n.Logical.Scale
		o.Transform = output.ParseNiriTransform(n.Logical.Transform)
		o.PositionMode = output.PositionExplicit
	} else {
		o.Enabled = false
		o.PositionMode = output.PositionAuto
	}
	o.ScaleMode = output.ScaleExplicit

	if n.VRREnabled {
		o.VRR = output.VRROn
	}

	return o
}

type niriWorkspace struct {
	ID     uint64 `json:"id"`
	Idx    int    `json:"idx"`
	Name   string `json:"name"`
	Output string `json:"output"`
}

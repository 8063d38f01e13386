package sway

import (
	"fmt"
	"strings"

	"codeberg.org/lkiss/wlplug/pkg/output"
)

type swayMode struct {
	Width   int `json:"width"`
	Height  int `json:"height"`
	Refresh int `json:"refresh"` // millihertz
}

type swayRect struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type swayOutput struct {
	Name               string     `json:"name"`
	Make               string     `json:"make"`
	Model              string     `json:"model"`
	Serial             string     `json:"serial"`
	Active             bool       `json:"active"`
	Scale              float64    `json:"scale"`
	Transform          string     `json:"transform"`
	AdaptiveSyncStatus string     `json:"adaptive_sync_status"`
	CurrentMode        swayMode   `json:"current_mode"`
	Modes              []swayMode `json:"modes"`
	Rect               swayRect   `json:"rect"`
}

func mhz(refresh int) float64 {
	return float64(refresh) / 1000
}

func (s *swayOutput) toOutput() output.Output {
	o := output.New()
	o.Name = s.Name
	o.Make = s.Make
	o.Model = s.Model
	o.Serial = s.Serial
	// sway has no description field, reconstruct it from the components
	o.Description = strings.TrimSpace(strings.Join([]string{s.Make, s.Model, s.Serial}, " "))
	o.Description = output.NormalizeDescription(o.Description)

	if s.CurrentMode.Width > 0 {
		o.Width = s.CurrentMode.Width
		o.Height = s.CurrentMode.Height
		o.RefreshRate = mhz(s.CurrentMode.Refresh)
	}
	o.ResolutionMode = output.ResolutionExplicit

	o.AvailableModes = make([]string, 0, len(s.Modes))
	for _, m := range s.Modes {
		o.AvailableModes = append(o.AvailableModes,
			fmt.Sprintf("%dx%d@%.3fHz", m.Width, m.Height, mhz(m.Refresh)))
	}

	// scale -1 marks a disabled output
	if s.Scale < 0 {
		o.Enabled = false
		o.Scale = 1.0
		o.PositionMode = output.PositionAuto
		o.X, o.Y = 0, 0
	} else {
		o.Enabled = s.Active
		o.Scale = s.Scale
		o.PositionMode = output.PositionExplicit
		o.X, o.Y = s.Rect.X, s.Rect.Y
	}
	o.ScaleMode = output.ScaleExplicit

	o.Transform = output.ParseSwayTransform(s.Transform)

	if s.AdaptiveSyncStatus == "enabled" {
		o.VRR = output.VRROn
	}

	return o
}

type swayWorkspace struct {
	Num    int    `json:"num"`
	Name   string `json:"name"`
	Output string `json:"output"`
}

package hyprland

import (
	"encoding/json"
	"math"
	"strings"

	"codeberg.org/lkiss/wlplug/pkg/output"
)

type hyprMonitor struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Make           string   `json:"make"`
	Model          string   `json:"model"`
	Serial         string   `json:"serial"`
	Width          int      `json:"width"`
	Height         int      `json:"height"`
	RefreshRate    float64  `json:"refreshRate"`
	X              int      `json:"x"`
	Y              int      `json:"y"`
	Scale          float64  `json:"scale"`
	Transform      int      `json:"transform"`
	Disabled       bool     `json:"disabled"`
	AvailableModes []string `json:"availableModes"`
	VRR            vrrValue `json:"vrr"`
}

// vrrValue tolerates both encodings Hyprland has used: a bool and a number.
type vrrValue int

func (v *vrrValue) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if b {
			*v = vrrValue(output.VRROn)
		} else {
			*v = vrrValue(output.VRROff)
		}
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = vrrValue(n)
	return nil
}

func (m *hyprMonitor) toOutput() output.Output {
	o := output.New()
	o.Name = m.Name
	o.Description = output.NormalizeDescription(m.Description)
	o.Make = m.Make
	o.Model = m.Model
	o.Serial = m.Serial
	o.Width = m.Width
	o.Height = m.Height
	o.RefreshRate = math.Round(m.RefreshRate*1000) / 1000
	o.ResolutionMode = output.ResolutionExplicit
	o.AvailableModes = m.AvailableModes
	o.Scale = m.Scale
	o.ScaleMode = output.ScaleExplicit
	o.Transform = output.Transform(m.Transform)
	o.Enabled = !m.Disabled
	o.VRR = output.VRR(m.VRR)

	// disabled monitors report x=-1,y=-1
	if m.Disabled && m.X < 0 && m.Y < 0 {
		o.PositionMode = output.PositionAuto
		o.X, o.Y = 0, 0
	} else {
		o.PositionMode = output.PositionExplicit
		o.X, o.Y = m.X, m.Y
	}

	return o
}

type hyprWorkspace struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Monitor string `json:"monitor"`
}

// gapsValue tolerates both an int and a [top, right, bottom, left] array,
// taking the first element.
type gapsValue int

func (g *gapsValue) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*g = gapsValue(n)
		return nil
	}

	var arr []int
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) == 0 {
		*g = -1
		return nil
	}
	*g = gapsValue(arr[0])
	return nil
}

type hyprWorkspaceRule struct {
	WorkspaceString string     `json:"workspaceString"`
	Monitor         string     `json:"monitor"`
	Default         bool       `json:"default"`
	Persistent      bool       `json:"persistent"`
	Rounding        *int       `json:"rounding"`
	Decorate        *int       `json:"decorate"`
	GapsIn          *gapsValue `json:"gapsIn"`
	GapsOut         *gapsValue `json:"gapsOut"`
	Border          *int       `json:"border"`
	BorderSize      *int       `json:"borderSize"`
	OnCreatedEmpty  string     `json:"onCreatedEmpty"`
}

func (e *hyprWorkspaceRule) toRule(descToName map[string]string) output.WorkspaceRule {
	rule := output.NewWorkspaceRule()
	rule.Workspace = e.WorkspaceString
	rule.Default = e.Default
	rule.Persistent = e.Persistent
	rule.OnCreatedEmpty = e.OnCreatedEmpty

	monitor := e.Monitor
	if desc, ok := strings.CutPrefix(monitor, "desc:"); ok {
		if name, found := descToName[desc]; found {
			monitor = name
		}
	}
	rule.Output = monitor

	if e.Rounding != nil {
		rule.Rounding = *e.Rounding
	}
	if e.Decorate != nil {
		rule.Decorate = *e.Decorate
	}
	if e.GapsIn != nil {
		rule.GapsIn = int(*e.GapsIn)
	}
	if e.GapsOut != nil {
		rule.GapsOut = int(*e.GapsOut)
	}
	if e.Border != nil {
		rule.Border = *e.Border
	}
	if e.BorderSize != nil {
		rule.BorderSize = *e.BorderSize
	}
	return rule
}

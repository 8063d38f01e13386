// Package output holds the monitor layout model: a single Output, workspace
// assignment rules, and named Profiles, together with the per-compositor
// config renderers.
package output

import (
	"strings"
)

type ResolutionMode string

const (
	ResolutionExplicit  ResolutionMode = "explicit"
	ResolutionPreferred ResolutionMode = "preferred"
	ResolutionHighRes   ResolutionMode = "highres"
	ResolutionHighRR    ResolutionMode = "highrr"
)

type PositionMode string

const (
	PositionExplicit        PositionMode = "explicit"
	PositionAuto            PositionMode = "auto"
	PositionAutoRight       PositionMode = "auto-right"
	PositionAutoLeft        PositionMode = "auto-left"
	PositionAutoUp          PositionMode = "auto-up"
	PositionAutoDown        PositionMode = "auto-down"
	PositionAutoCenterRight PositionMode = "auto-center-right"
	PositionAutoCenterLeft  PositionMode = "auto-center-left"
	PositionAutoCenterUp    PositionMode = "auto-center-up"
	PositionAutoCenterDown  PositionMode = "auto-center-down"
)

type ScaleMode string

const (
	ScaleExplicit ScaleMode = "explicit"
	ScaleAuto     ScaleMode = "auto"
)

// VRR is the variable-refresh-rate tri-state. The numeric values are the ones
// Hyprland uses in its config, so they serialize as-is.
type VRR int

const (
	VRROff        VRR = 0
	VRROn         VRR = 1
	VRRFullscreen VRR = 2
)

// Output describes one display connector as a compositor sees it, plus the
// user-facing layout settings that get rendered into each compositor's
// config syntax.
type Output struct {
	// Identity
	Name        string `json:"name"`
	Description string `json:"description"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Serial      string `json:"serial"`

	// Resolution
	Width          int            `json:"width"`
	Height         int            `json:"height"`
	RefreshRate    float64        `json:"refresh_rate"`
	ResolutionMode ResolutionMode `json:"resolution_mode"`
	AvailableModes []string       `json:"available_modes,omitempty"`

	// Position, in logical (scaled) compositor coordinates
	X            int          `json:"x"`
	Y            int          `json:"y"`
	PositionMode PositionMode `json:"position_mode"`

	Scale     float64   `json:"scale"`
	ScaleMode ScaleMode `json:"scale_mode"`

	Transform Transform `json:"transform"`

	MirrorOf string `json:"mirror_of,omitempty"`

	BitDepth        int     `json:"bitdepth"`
	VRR             VRR     `json:"vrr"`
	ColorManagement string  `json:"color_management,omitempty"`
	SDRBrightness   float64 `json:"sdr_brightness"`
	SDRSaturation   float64 `json:"sdr_saturation"`

	// HDR / EDID override (Hyprland monitorv2 only)
	HDR               bool    `json:"hdr"`
	SDREOTF           int     `json:"sdr_eotf"`
	SupportsHDR       int     `json:"supports_hdr"`
	SupportsWideColor int     `json:"supports_wide_color"`
	SDRMinLuminance   float64 `json:"sdr_min_luminance"`
	SDRMaxLuminance   float64 `json:"sdr_max_luminance"`
	MinLuminance      float64 `json:"min_luminance"`
	MaxLuminance      float64 `json:"max_luminance"`
	MaxAvgLuminance   float64 `json:"max_avg_luminance"`

	ReservedTop    int `json:"reserved_top"`
	ReservedBottom int `json:"reserved_bottom"`
	ReservedLeft   int `json:"reserved_left"`
	ReservedRight  int `json:"reserved_right"`

	Enabled bool `json:"enabled"`
}

// New returns an Output with the defaults every constructor starts from.
func New() Output {
	return Output{
		Width:          1920,
		Height:         1080,
		RefreshRate:    60.0,
		ResolutionMode: ResolutionExplicit,
		PositionMode:   PositionAuto,
		Scale:          1.0,
		ScaleMode:      ScaleExplicit,
		BitDepth:       8,
		SDRBrightness:  1.0,
		SDRSaturation:  1.0,
		Enabled:        true,
	}
}

// NormalizeDescription rewrites a compositor-reported description so the same
// physical monitor fingerprints identically regardless of which compositor
// reported it. Hyprland appends "Unknown" when a monitor has no serial, and
// Niri wraps three-letter vendor IDs in "PNP(...)".
func NormalizeDescription(desc string) string {
	if strings.HasSuffix(desc, " Unknown") {
		desc = strings.TrimSuffix(desc, " Unknown")
	}
	if strings.HasPrefix(desc, "PNP(") {
		if i := strings.Index(desc, ") "); i != -1 {
			desc = desc[4:i] + desc[i+1:]
		}
	}
	return desc
}

// Normalize applies description normalization in place. Every constructor and
// store loader runs this so descriptions are the cross-compositor identity.
func (o *Output) Normalize() {
	o.Description = NormalizeDescription(o.Description)
}

// LogicalWidth is the width in logical pixels, accounting for scale and
// 90°/270° rotation.
func (o *Output) LogicalWidth() float64 {
	w := o.Width
	if o.Transform.IsRotated() {
		w = o.Height
	}
	return float64(w) / o.Scale
}

// LogicalHeight is the height in logical pixels, accounting for scale and
// 90°/270° rotation.
func (o *Output) LogicalHeight() float64 {
	h := o.Height
	if o.Transform.IsRotated() {
		h = o.Width
	}
	return float64(h) / o.Scale
}

// PhysicalSizeRotated is the physical pixel size with width/height swapped
// for rotated transforms, ignoring scale.
func (o *Output) PhysicalSizeRotated() (w, h int) {
	if o.Transform.IsRotated() {
		return o.Height, o.Width
	}
	return o.Width, o.Height
}

// IsInternal reports whether the port name belongs to a built-in laptop
// panel connector family.
func (o *Output) IsInternal() bool {
	if o.Name == "" {
		return false
	}
	prefix := strings.ToUpper(strings.SplitN(o.Name, "-", 2)[0])
	return prefix == "EDP" || prefix == "LVDS" || prefix == "DSI"
}

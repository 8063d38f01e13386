package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHyprlandLine(t *testing.T) {
	o := testOutput("DP-1", "AOC 2757 ABC")
	o.Width = 2560
	o.Height = 1440
	o.RefreshRate = 144
	o.X = 1920
	o.Y = 0
	o.Scale = 1.0

	assert.Equal(t, "monitor=DP-1, 2560x1440@144, 1920x0, 1", o.HyprlandLine(false, nil))

	o.Transform = TransformRotate90
	o.VRR = VRROn
	o.BitDepth = 10
	o.SDRBrightness = 1.2
	assert.Equal(t,
		"monitor=DP-1, 2560x1440@144, 1920x0, 1, transform, 1, bitdepth, 10, vrr, 1, sdrbrightness, 1.2",
		o.HyprlandLine(false, nil))

	// by description
	assert.True(t, strings.HasPrefix(o.HyprlandLine(true, nil), "monitor=desc:AOC 2757 ABC, "))

	// disabled short-circuits everything else
	o.Enabled = false
	assert.Equal(t, "monitor=DP-1, disable", o.HyprlandLine(false, nil))
}

func TestHyprlandLineAutoModes(t *testing.T) {
	o := testOutput("eDP-1", "panel")
	o.ResolutionMode = ResolutionPreferred
	o.PositionMode = PositionAutoLeft
	o.ScaleMode = ScaleAuto

	assert.Equal(t, "monitor=eDP-1, preferred, auto-left, auto", o.HyprlandLine(false, nil))
}

func TestHyprlandV2Block(t *testing.T) {
	o := testOutput("DP-1", "AOC 2757 ABC")
	o.Width = 3840
	o.Height = 2160
	o.RefreshRate = 60
	o.X = 0
	o.Y = 0
	o.Scale = 1.5
	o.HDR = true
	o.SupportsHDR = 1
	o.SDRMaxLuminance = 250

	block := o.HyprlandV2Block(false, nil)
	assert.Contains(t, block, "monitorv2 {")
	assert.Contains(t, block, "  output = DP-1")
	assert.Contains(t, block, "  mode = 3840x2160@60")
	assert.Contains(t, block, "  position = 0x0")
	assert.Contains(t, block, "  scale = 1.5")
	assert.Contains(t, block, "  cm = hdr")
	assert.Contains(t, block, "  supports_hdr = 1")
	assert.Contains(t, block, "  sdr_max_luminance = 250")

	o.Enabled = false
	assert.Equal(t, "monitorv2 {\n  output = DP-1\n  disabled = 1\n}", o.HyprlandV2Block(false, nil))
}

func TestHyprlandConfigMirrorAndWorkspaces(t *testing.T) {
	ext := testOutput("DP-1", "AOC 2757 ABC")
	mirror := testOutput("HDMI-A-1", "LG TV")
	mirror.MirrorOf = "DP-1"

	rule := NewWorkspaceRule()
	rule.Workspace = "2"
	rule.Output = "DP-1"
	rule.Default = true

	p := &Profile{Name: "desk", Outputs: []Output{ext, mirror}, WorkspaceRules: []WorkspaceRule{rule}}

	conf := p.HyprlandConfig(true, false)
	// mirror and workspace references are rewritten to desc: identifiers
	assert.Contains(t, conf, "mirror, desc:AOC 2757 ABC")
	assert.Contains(t, conf, "workspace=2, monitor:desc:AOC 2757 ABC, default:true")
}

func TestSwayBlock(t *testing.T) {
	o := testOutput("DP-1", "AOC 2757 ABC")
	o.Width = 2560
	o.Height = 1440
	o.RefreshRate = 143.912
	o.X = 1920
	o.Y = 0
	o.Scale = 1.25
	o.Transform = TransformRotate90
	o.VRR = VRROn

	want := `output DP-1 {
    mode 2560x1440@143.912Hz
    pos 1920 0
    scale 1.25
    transform 270
    adaptive_sync on
}`
	assert.Equal(t, want, o.SwayBlock(false))

	o.Enabled = false
	assert.Equal(t, "output DP-1 disable", o.SwayBlock(false))

	o.Enabled = true
	assert.True(t, strings.HasPrefix(o.SwayBlock(true), `output "AOC 2757 ABC" {`))
}

func TestSwayConfigWorkspaceLines(t *testing.T) {
	o := testOutput("DP-1", "AOC 2757 ABC")
	rule := NewWorkspaceRule()
	rule.Workspace = "1"
	rule.Output = "DP-1"
	// rule without an output binding renders nothing in sway
	empty := NewWorkspaceRule()
	empty.Workspace = "9"

	p := &Profile{Outputs: []Output{o}, WorkspaceRules: []WorkspaceRule{rule, empty}}
	conf := p.SwayConfig(false)
	assert.Contains(t, conf, "workspace 1 output DP-1")
	assert.NotContains(t, conf, "workspace 9")
}

func TestNiriBlock(t *testing.T) {
	o := testOutput("DP-1", "AOC 2757 ABC")
	o.Width = 2560
	o.Height = 1440
	o.RefreshRate = 144
	o.X = 0
	o.Y = 0
	o.Transform = TransformRotate90
	o.VRR = VRROn

	block := o.NiriBlock(false, nil)
	assert.Contains(t, block, `output "DP-1" {`)
	assert.Contains(t, block, `    mode "2560x1440@144.000"`)
	assert.Contains(t, block, `    transform "90"`)
	assert.Contains(t, block, "    position x=0 y=0")
	assert.Contains(t, block, "    variable-refresh-rate")

	o.Enabled = false
	assert.Equal(t, "output \"DP-1\" {\n    off\n}", o.NiriBlock(false, nil))
}

func TestNiriBlockDescriptionIdentifiers(t *testing.T) {
	o := testOutput("DP-1", "AOC 2757 ABC")
	o.Make = "AOC"
	o.Model = "2757"
	o.Serial = "ABC"

	// live mapping from niri IPC wins
	ids := map[string]string{"AOC 2757 ABC": "PNP(AOC) 2757 ABC"}
	assert.True(t, strings.HasPrefix(o.NiriBlock(true, ids), `output "PNP(AOC) 2757 ABC" {`))

	// cross-write without niri IPC reconstructs the native form
	assert.True(t, strings.HasPrefix(o.NiriBlock(true, nil), `output "PNP(AOC) 2757 ABC" {`))

	// mapping present but output unknown falls back to the connector name
	assert.True(t, strings.HasPrefix(o.NiriBlock(true, map[string]string{}), `output "DP-1" {`))
}

func TestNiriNativeDescription(t *testing.T) {
	o := testOutput("eDP-1", "")
	o.Make = "BOE"
	o.Model = "0x0BCA"
	o.Serial = "Unknown"
	assert.Equal(t, "PNP(BOE) 0x0BCA", o.NiriNativeDescription())

	o.Make = "Dell Inc."
	o.Serial = "XYZ"
	assert.Equal(t, "Dell Inc. 0x0BCA XYZ", o.NiriNativeDescription())
}

func TestWorkspaceRuleHyprlandRoundTrip(t *testing.T) {
	rule := NewWorkspaceRule()
	rule.Workspace = "3"
	rule.Output = "DP-1"
	rule.Persistent = true
	rule.Rounding = 0
	rule.GapsOut = 12
	rule.OnCreatedEmpty = "foot"

	line := rule.HyprlandLine(nil)
	assert.Equal(t, "workspace=3, monitor:DP-1, persistent:true, rounding:0, gapsout:12, on-created-empty:foot", line)

	parsed, ok := ParseHyprlandWorkspaceLine(line)
	assert.True(t, ok)
	assert.Equal(t, rule, parsed)

	_, ok = ParseHyprlandWorkspaceLine("monitor=DP-1, disable")
	assert.False(t, ok)
}

func TestPhysicalPositions(t *testing.T) {
	// two scaled 4k monitors side by side: logical x of the second is 1920,
	// but physically it starts at 3840
	left := testOutput("DP-1", "left")
	left.Width = 3840
	left.Height = 2160
	left.Scale = 2.0
	right := testOutput("DP-2", "right")
	right.Width = 3840
	right.Height = 2160
	right.Scale = 2.0
	right.X = 1920

	// a rotated monitor in a second row
	below := testOutput("DP-3", "below")
	below.Width = 1920
	below.Height = 1080
	below.Y = 1080
	below.Transform = TransformRotate90

	disabled := testOutput("eDP-1", "panel")
	disabled.Enabled = false

	p := &Profile{Outputs: []Output{left, right, below, disabled}}
	pos := p.PhysicalPositions()

	assert.Equal(t, [2]int{0, 0}, pos["DP-1"])
	assert.Equal(t, [2]int{3840, 0}, pos["DP-2"])
	assert.Equal(t, [2]int{0, 2160}, pos["DP-3"])
	_, ok := pos["eDP-1"]
	assert.False(t, ok)
}

func TestXsetupScript(t *testing.T) {
	o := testOutput("DP-1", "AOC 2757 ABC")
	o.Width = 2560
	o.Height = 1440
	o.RefreshRate = 144
	off := testOutput("eDP-1", "panel")
	off.Enabled = false

	p := &Profile{Name: "desk", Outputs: []Output{o, off}}
	script := p.XsetupScript()

	assert.Contains(t, script, "#!/usr/bin/env python3")
	assert.Contains(t, script, "('AOC 2757 ABC', 'DP-1', '--output DP-1 --mode 2560x1440 --rate 144.000 --pos 0x0 --rotate normal')")
	assert.Contains(t, script, `FB_SIZE = "2560x1440"`)
	// disabled outputs are not listed; the script disables unknowns itself
	assert.NotContains(t, script, "eDP-1")
}

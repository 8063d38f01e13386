package output

import (
	"fmt"
	"strconv"
	"strings"
)

// fnum formats a float the way Hyprland configs expect: shortest
// representation, no trailing zeros.
func fnum(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// HyprlandLine renders a classic "monitor=" config line. nameToID resolves
// mirror references when writing by description.
func (o *Output) HyprlandLine(useDescription bool, nameToID map[string]string) string {
	var parts []string

	if useDescription && o.Description != "" {
		parts = append(parts, "desc:"+o.Description)
	} else {
		parts = append(parts, o.Name)
	}

	if !o.Enabled {
		parts = append(parts, "disable")
		return "monitor=" + strings.Join(parts, ", ")
	}

	if o.ResolutionMode == ResolutionExplicit {
		parts = append(parts, fmt.Sprintf("%dx%d@%s", o.Width, o.Height, fnum(o.RefreshRate)))
	} else {
		parts = append(parts, string(o.ResolutionMode))
	}

	if o.PositionMode == PositionExplicit {
		parts = append(parts, fmt.Sprintf("%dx%d", o.X, o.Y))
	} else {
		parts = append(parts, string(o.PositionMode))
	}

	if o.ScaleMode == ScaleAuto {
		parts = append(parts, "auto")
	} else {
		parts = append(parts, fnum(o.Scale))
	}

	line := "monitor=" + strings.Join(parts, ", ")

	if o.Transform != TransformNormal {
		line += fmt.Sprintf(", transform, %d", o.Transform)
	}
	if o.MirrorOf != "" {
		mirror := o.MirrorOf
		if mapped, ok := nameToID[o.MirrorOf]; ok {
			mirror = mapped
		}
		line += ", mirror, " + mirror
	}
	if o.BitDepth != 8 {
		line += fmt.Sprintf(", bitdepth, %d", o.BitDepth)
	}
	if o.VRR != VRROff {
		line += fmt.Sprintf(", vrr, %d", o.VRR)
	}
	if o.ColorManagement != "" {
		line += ", cm, " + o.ColorManagement
	}
	if o.SDRBrightness != 1.0 {
		line += ", sdrbrightness, " + fnum(o.SDRBrightness)
	}
	if o.SDRSaturation != 1.0 {
		line += ", sdrsaturation, " + fnum(o.SDRSaturation)
	}
	if o.ReservedTop != 0 || o.ReservedBottom != 0 || o.ReservedLeft != 0 || o.ReservedRight != 0 {
		line += fmt.Sprintf(", addreserved, %d, %d, %d, %d",
			o.ReservedTop, o.ReservedBottom, o.ReservedLeft, o.ReservedRight)
	}

	return line
}

// HyprlandV2Block renders a "monitorv2 { ... }" block (Hyprland >= 0.50),
// which is the only syntax carrying the HDR/EDID override fields.
func (o *Output) HyprlandV2Block(useDescription bool, nameToID map[string]string) string {
	var lines []string

	if useDescription && o.Description != "" {
		lines = append(lines, "  output = desc:"+o.Description)
	} else {
		lines = append(lines, "  output = "+o.Name)
	}

	if !o.Enabled {
		lines = append(lines, "  disabled = 1")
		return "monitorv2 {\n" + strings.Join(lines, "\n") + "\n}"
	}

	if o.ResolutionMode == ResolutionExplicit {
		lines = append(lines, fmt.Sprintf("  mode = %dx%d@%s", o.Width, o.Height, fnum(o.RefreshRate)))
	} else {
		lines = append(lines, "  mode = "+string(o.ResolutionMode))
	}

	if o.PositionMode == PositionExplicit {
		lines = append(lines, fmt.Sprintf("  position = %dx%d", o.X, o.Y))
	} else {
		lines = append(lines, "  position = "+string(o.PositionMode))
	}

	if o.ScaleMode == ScaleAuto {
		lines = append(lines, "  scale = auto")
	} else {
		lines = append(lines, "  scale = "+fnum(o.Scale))
	}

	if o.Transform != TransformNormal {
		lines = append(lines, fmt.Sprintf("  transform = %d", o.Transform))
	}
	if o.MirrorOf != "" {
		mirror := o.MirrorOf
		if mapped, ok := nameToID[o.MirrorOf]; ok {
			mirror = mapped
		}
		lines = append(lines, "  mirror = "+mirror)
	}
	if o.BitDepth != 8 {
		lines = append(lines, fmt.Sprintf("  bitdepth = %d", o.BitDepth))
	}
	if o.VRR != VRROff {
		lines = append(lines, fmt.Sprintf("  vrr = %d", o.VRR))
	}

	// An explicit cm tag wins; the plain hdr flag falls back to cm = hdr.
	cm := o.ColorManagement
	if cm == "" && o.HDR {
		cm = "hdr"
	}
	if cm != "" {
		lines = append(lines, "  cm = "+cm)
	}

	if o.SDRBrightness != 1.0 {
		lines = append(lines, "  sdrbrightness = "+fnum(o.SDRBrightness))
	}
	if o.SDRSaturation != 1.0 {
		lines = append(lines, "  sdrsaturation = "+fnum(o.SDRSaturation))
	}

	// addreserved is space-separated in v2 blocks, unlike the v1 line syntax
	if o.ReservedTop != 0 || o.ReservedBottom != 0 || o.ReservedLeft != 0 || o.ReservedRight != 0 {
		lines = append(lines, fmt.Sprintf("  addreserved = %d %d %d %d",
			o.ReservedTop, o.ReservedBottom, o.ReservedLeft, o.ReservedRight))
	}

	if o.SDREOTF != 0 {
		lines = append(lines, fmt.Sprintf("  sdr_eotf = %d", o.SDREOTF))
	}
	if o.SupportsHDR != 0 {
		lines = append(lines, fmt.Sprintf("  supports_hdr = %d", o.SupportsHDR))
	}
	if o.SupportsWideColor != 0 {
		lines = append(lines, fmt.Sprintf("  supports_wide_color = %d", o.SupportsWideColor))
	}
	if o.SDRMinLuminance != 0 {
		lines = append(lines, "  sdr_min_luminance = "+fnum(o.SDRMinLuminance))
	}
	if o.SDRMaxLuminance != 0 {
		lines = append(lines, "  sdr_max_luminance = "+fnum(o.SDRMaxLuminance))
	}
	if o.MinLuminance != 0 {
		lines = append(lines, "  min_luminance = "+fnum(o.MinLuminance))
	}
	if o.MaxLuminance != 0 {
		lines = append(lines, "  max_luminance = "+fnum(o.MaxLuminance))
	}
	if o.MaxAvgLuminance != 0 {
		lines = append(lines, "  max_avg_luminance = "+fnum(o.MaxAvgLuminance))
	}

	return "monitorv2 {\n" + strings.Join(lines, "\n") + "\n}"
}

const generatedHeader = "# Generated by wlplug"

// HyprlandConfig renders the full monitors.conf content for Hyprland,
// either as classic monitor= lines or monitorv2 blocks.
func (p *Profile) HyprlandConfig(useDescription, v2 bool) string {
	nameToID := make(map[string]string, len(p.Outputs))
	for i := range p.Outputs {
		o := &p.Outputs[i]
		if useDescription && o.Description != "" {
			nameToID[o.Name] = "desc:" + o.Description
		} else {
			nameToID[o.Name] = o.Name
		}
	}

	lines := []string{generatedHeader, ""}
	if v2 {
		for i := range p.Outputs {
			lines = append(lines, p.Outputs[i].HyprlandV2Block(useDescription, nameToID), "")
		}
	} else {
		for i := range p.Outputs {
			lines = append(lines, p.Outputs[i].HyprlandLine(useDescription, nameToID))
		}
	}
	if len(p.WorkspaceRules) > 0 {
		lines = append(lines, "")
		for i := range p.WorkspaceRules {
			lines = append(lines, p.WorkspaceRules[i].HyprlandLine(nameToID))
		}
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// HyprlandKeywords renders the profile as a list of "keyword monitor ..."
// commands for a live batch apply without touching config files.
func (p *Profile) HyprlandKeywords() []string {
	cmds := make([]string, 0, len(p.Outputs))
	for i := range p.Outputs {
		line := p.Outputs[i].HyprlandLine(false, nil)
		cmds = append(cmds, "keyword monitor "+strings.TrimPrefix(line, "monitor="))
	}
	return cmds
}

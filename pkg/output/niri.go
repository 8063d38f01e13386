package output

import (
	"fmt"
	"strings"
)

// NiriNativeDescription reconstructs the description string niri itself
// reports for this output. Niri wraps bare three-letter PNP vendor IDs in
// "PNP(...)" and drops absent serials, so the normalized description cannot
// be written back verbatim.
func (o *Output) NiriNativeDescription() string {
	make_ := o.Make
	if len(make_) == 3 && make_ == strings.ToUpper(make_) && isAlpha(make_) {
		make_ = "PNP(" + make_ + ")"
	}
	serial := o.Serial
	if serial == "Unknown" {
		serial = ""
	}
	var parts []string
	for _, p := range []string{make_, o.Model, serial} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// NiriBlock renders the KDL "output { ... }" block for niri. niriIDs maps
// normalized descriptions to niri-native ones (queried over IPC); when nil,
// the native description is reconstructed from make/model/serial, which is
// the best that can be done when cross-writing from another compositor.
func (o *Output) NiriBlock(useDescription bool, niriIDs map[string]string) string {
	identifier := `"` + o.Name + `"`
	if useDescription && o.Description != "" {
		if native, ok := niriIDs[o.Description]; ok {
			identifier = `"` + native + `"`
		} else if niriIDs == nil && o.Make != "" {
			identifier = `"` + o.NiriNativeDescription() + `"`
		}
	}

	if !o.Enabled {
		return fmt.Sprintf("output %s {\n    off\n}", identifier)
	}

	var lines []string

	if o.ResolutionMode == ResolutionExplicit {
		lines = append(lines, fmt.Sprintf("    mode \"%dx%d@%.3f\"", o.Width, o.Height, o.RefreshRate))
	}
	if o.ScaleMode == ScaleExplicit {
		lines = append(lines, "    scale "+fnum(o.Scale))
	}
	if t := NiriTransform(o.Transform); t != "normal" {
		lines = append(lines, fmt.Sprintf("    transform %q", t))
	}
	if o.PositionMode == PositionExplicit {
		lines = append(lines, fmt.Sprintf("    position x=%d y=%d", o.X, o.Y))
	}
	if o.VRR != VRROff {
		lines = append(lines, "    variable-refresh-rate")
	}

	return fmt.Sprintf("output %s {\n%s\n}", identifier, strings.Join(lines, "\n"))
}

// NiriConfig renders the full monitors.kdl content for niri.
func (p *Profile) NiriConfig(useDescription bool, niriIDs map[string]string) string {
	blocks := []string{"// Generated by wlplug"}
	for i := range p.Outputs {
		blocks = append(blocks, p.Outputs[i].NiriBlock(useDescription, niriIDs))
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

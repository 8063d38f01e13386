package output

import (
	"fmt"
	"strings"
)

// SwayBlock renders the "output { ... }" config block for sway.
func (o *Output) SwayBlock(useDescription bool) string {
	identifier := o.Name
	if useDescription && o.Description != "" {
		identifier = `"` + o.Description + `"`
	}

	if !o.Enabled {
		return fmt.Sprintf("output %s disable", identifier)
	}

	var lines []string

	if o.ResolutionMode == ResolutionExplicit {
		lines = append(lines, fmt.Sprintf("    mode %dx%d@%.3fHz", o.Width, o.Height, o.RefreshRate))
	}
	if o.PositionMode == PositionExplicit {
		lines = append(lines, fmt.Sprintf("    pos %d %d", o.X, o.Y))
	}
	if o.ScaleMode == ScaleExplicit {
		lines = append(lines, "    scale "+fnum(o.Scale))
	}

	lines = append(lines, "    transform "+SwayTransform(o.Transform))

	adaptive := "off"
	if o.VRR != VRROff {
		adaptive = "on"
	}
	lines = append(lines, "    adaptive_sync "+adaptive)

	return fmt.Sprintf("output %s {\n%s\n}", identifier, strings.Join(lines, "\n"))
}

// SwayConfig renders the full monitors.conf content for sway.
func (p *Profile) SwayConfig(useDescription bool) string {
	nameToID := make(map[string]string, len(p.Outputs))
	for i := range p.Outputs {
		o := &p.Outputs[i]
		if useDescription && o.Description != "" {
			nameToID[o.Name] = `"` + o.Description + `"`
		} else {
			nameToID[o.Name] = o.Name
		}
	}

	blocks := []string{generatedHeader}
	for i := range p.Outputs {
		blocks = append(blocks, p.Outputs[i].SwayBlock(useDescription))
	}

	var wsLines []string
	for i := range p.WorkspaceRules {
		if line := p.WorkspaceRules[i].SwayLine(nameToID); line != "" {
			wsLines = append(wsLines, line)
		}
	}
	if len(wsLines) > 0 {
		blocks = append(blocks, strings.Join(wsLines, "\n"))
	}

	return strings.Join(blocks, "\n\n") + "\n"
}

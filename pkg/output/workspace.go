package output

import (
	"fmt"
	"strconv"
	"strings"
)

// WorkspaceRule binds a workspace to an output, with optional per-workspace
// rendering hints. Numeric hints use -1 for "unset" so zero stays a valid
// value.
type WorkspaceRule struct {
	Workspace      string `json:"workspace"`
	Output         string `json:"monitor"`
	Default        bool   `json:"default"`
	Persistent     bool   `json:"persistent"`
	Rounding       int    `json:"rounding"`
	Decorate       int    `json:"decorate"`
	GapsIn         int    `json:"gapsin"`
	GapsOut        int    `json:"gapsout"`
	Border         int    `json:"border"`
	BorderSize     int    `json:"bordersize"`
	OnCreatedEmpty string `json:"on_created_empty,omitempty"`
}

// NewWorkspaceRule returns a rule with all numeric hints unset.
func NewWorkspaceRule() WorkspaceRule {
	return WorkspaceRule{
		Rounding:   -1,
		Decorate:   -1,
		GapsIn:     -1,
		GapsOut:    -1,
		Border:     -1,
		BorderSize: -1,
	}
}

// HyprlandLine renders the rule as a "workspace=" line for hyprland.conf.
// nameToID maps port names to the identifier used in the generated config
// (the port name itself, or "desc:..." when writing by description).
func (r *WorkspaceRule) HyprlandLine(nameToID map[string]string) string {
	parts := []string{r.Workspace}

	if r.Output != "" {
		id := r.Output
		if mapped, ok := nameToID[r.Output]; ok {
			id = mapped
		}
		parts = append(parts, "monitor:"+id)
	}
	if r.Default {
		parts = append(parts, "default:true")
	}
	if r.Persistent {
		parts = append(parts, "persistent:true")
	}
	if r.Rounding >= 0 {
		parts = append(parts, fmt.Sprintf("rounding:%d", r.Rounding))
	}
	if r.Decorate >= 0 {
		parts = append(parts, fmt.Sprintf("decorate:%d", r.Decorate))
	}
	if r.GapsIn >= 0 {
		parts = append(parts, fmt.Sprintf("gapsin:%d", r.GapsIn))
	}
	if r.GapsOut >= 0 {
		parts = append(parts, fmt.Sprintf("gapsout:%d", r.GapsOut))
	}
	if r.Border >= 0 {
		parts = append(parts, fmt.Sprintf("border:%d", r.Border))
	}
	if r.BorderSize >= 0 {
		parts = append(parts, fmt.Sprintf("bordersize:%d", r.BorderSize))
	}
	if r.OnCreatedEmpty != "" {
		parts = append(parts, "on-created-empty:"+r.OnCreatedEmpty)
	}

	return "workspace=" + strings.Join(parts, ", ")
}

// SwayLine renders the rule as a "workspace N output NAME" line. Sway has no
// equivalent for the other hints, so they are dropped. Returns "" when the
// rule has no output binding.
func (r *WorkspaceRule) SwayLine(nameToID map[string]string) string {
	if r.Workspace == "" || r.Output == "" {
		return ""
	}
	id := r.Output
	if mapped, ok := nameToID[r.Output]; ok {
		id = mapped
	}
	return fmt.Sprintf("workspace %s output %s", r.Workspace, id)
}

// ParseHyprlandWorkspaceLine parses a "workspace=..." line from a Hyprland
// config file. Returns false when the line is not a workspace rule.
func ParseHyprlandWorkspaceLine(line string) (WorkspaceRule, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "workspace=") {
		return WorkspaceRule{}, false
	}

	parts := strings.Split(strings.TrimPrefix(line, "workspace="), ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) == 0 || parts[0] == "" {
		return WorkspaceRule{}, false
	}

	rule := NewWorkspaceRule()
	rule.Workspace = parts[0]

	intFields := map[string]*int{
		"rounding":   &rule.Rounding,
		"decorate":   &rule.Decorate,
		"gapsin":     &rule.GapsIn,
		"gapsout":    &rule.GapsOut,
		"border":     &rule.Border,
		"bordersize": &rule.BorderSize,
	}

	for _, part := range parts[1:] {
		switch {
		case strings.HasPrefix(part, "monitor:"):
			rule.Output = strings.TrimPrefix(part, "monitor:")
		case part == "default:true":
			rule.Default = true
		case part == "persistent:true":
			rule.Persistent = true
		case strings.HasPrefix(part, "on-created-empty:"):
			rule.OnCreatedEmpty = strings.TrimPrefix(part, "on-created-empty:")
		default:
			for prefix, dst := range intFields {
				if strings.HasPrefix(part, prefix+":") {
					if n, err := strconv.Atoi(part[len(prefix)+1:]); err == nil {
						*dst = n
					}
					break
				}
			}
		}
	}

	return rule, true
}

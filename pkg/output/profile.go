package output

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Profile is a named monitor layout: an ordered list of outputs plus
// workspace assignment rules. Profiles are value objects; anything that
// mutates one (clamshell, safety fallbacks) works on a Clone.
type Profile struct {
	Name           string          `json:"name"`
	Outputs        []Output        `json:"monitors"`
	WorkspaceRules []WorkspaceRule `json:"workspace_rules"`
}

// Fingerprint is the sorted set of non-empty normalized descriptions of the
// profile's outputs. It identifies the physical monitor set the profile was
// saved for.
func (p *Profile) Fingerprint() []string {
	var fp []string
	for i := range p.Outputs {
		if d := p.Outputs[i].Description; d != "" {
			fp = append(fp, d)
		}
	}
	sort.Strings(fp)
	return fp
}

// Fingerprint returns the sorted non-empty descriptions of live outputs.
func Fingerprint(outs []Output) []string {
	var fp []string
	for i := range outs {
		if d := outs[i].Description; d != "" {
			fp = append(fp, d)
		}
	}
	sort.Strings(fp)
	return fp
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	c := &Profile{Name: p.Name}
	c.Outputs = make([]Output, len(p.Outputs))
	for i, o := range p.Outputs {
		modes := make([]string, len(o.AvailableModes))
		copy(modes, o.AvailableModes)
		o.AvailableModes = modes
		c.Outputs[i] = o
	}
	c.WorkspaceRules = append([]WorkspaceRule(nil), p.WorkspaceRules...)
	return c
}

// Marshal serializes the profile to the on-disk JSON form.
func (p *Profile) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}
	return append(data, '\n'), nil
}

// UnmarshalProfile parses the on-disk JSON form and re-normalizes every
// output description.
func UnmarshalProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	for i := range p.Outputs {
		p.Outputs[i].Normalize()
	}
	return &p, nil
}

// ApplyClamshell disables internal displays when at least one external
// display is present and enabled. It does nothing (and reports false) when
// there is no enabled external, so a laptop alone never ends up blank.
func ApplyClamshell(outs []Output) bool {
	var internals []int
	haveExternal := false
	for i := range outs {
		if !outs[i].Enabled {
			continue
		}
		if outs[i].IsInternal() {
			internals = append(internals, i)
		} else {
			haveExternal = true
		}
	}
	if len(internals) == 0 || !haveExternal {
		return false
	}
	for _, i := range internals {
		outs[i].Enabled = false
	}
	return true
}

// UndoClamshell re-enables disabled internal displays. Reports whether
// anything changed.
func UndoClamshell(outs []Output) bool {
	changed := false
	for i := range outs {
		if outs[i].IsInternal() && !outs[i].Enabled {
			outs[i].Enabled = true
			changed = true
		}
	}
	return changed
}

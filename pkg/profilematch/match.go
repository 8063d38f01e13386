// Package profilematch selects the stored profile that best fits the
// currently connected monitors.
package profilematch

import (
	"sort"

	"codeberg.org/lkiss/wlplug/pkg/output"
)

// Options controls FindBestMatch.
type Options struct {
	// Exact only accepts profiles whose every monitor fully matches the
	// current position, scale, transform and resolution. Used when deciding
	// which profile the screen is already showing.
	Exact bool
}

type candidate struct {
	score          float64
	missingEnabled int
	extEnabled     int
	enabledMatches int
	configMatches  int
	profile        *output.Profile
}

// FindBestMatch scores every profile against the connected monitor set and
// returns the winner, or nil when nothing reaches the similarity floor.
//
// Profiles are filtered by Jaccard similarity of the description
// fingerprints (at least 0.5), then ranked by how well their per-monitor
// state agrees with what the compositor currently shows. An internal panel
// the profile enables but the compositor has turned off still counts as
// agreement, so clamshell mode does not push the daemon onto a different
// profile.
func FindBestMatch(profiles []*output.Profile, fingerprint []string, current []output.Output, opts Options) *output.Profile {
	if len(fingerprint) == 0 {
		return nil
	}

	currentSet := make(map[string]struct{}, len(fingerprint))
	for _, desc := range fingerprint {
		currentSet[desc] = struct{}{}
	}

	currentState := make(map[string]*output.Output, len(current))
	for i := range current {
		if current[i].Description != "" {
			currentState[current[i].Description] = &current[i]
		}
	}

	var candidates []candidate
	for _, profile := range profiles {
		fp := profile.Fingerprint()
		if len(fp) == 0 {
			continue
		}

		score := jaccard(currentSet, fp)
		if score < 0.5 {
			continue
		}

		c := candidate{score: score, profile: profile}
		totalCompared := 0
		for i := range profile.Outputs {
			m := &profile.Outputs[i]
			cur, ok := currentState[m.Description]
			if !ok {
				// enabled monitors the profile expects but which are not
				// connected count against it
				if m.Enabled {
					c.missingEnabled++
				}
				continue
			}
			totalCompared++

			if m.Enabled && !cur.IsInternal() {
				c.extEnabled++
			}

			// internal panel off in the compositor but on in the profile:
			// clamshell did that, treat as agreement
			if m.Enabled && !cur.Enabled && cur.IsInternal() {
				c.enabledMatches++
				c.configMatches++
				continue
			}
			if m.Enabled != cur.Enabled {
				continue
			}
			c.enabledMatches++
			if !m.Enabled {
				c.configMatches++
			} else if m.X == cur.X && m.Y == cur.Y &&
				m.Scale == cur.Scale && m.Transform == cur.Transform &&
				m.Width == cur.Width && m.Height == cur.Height {
				c.configMatches++
			}
		}

		if opts.Exact && len(current) > 0 && totalCompared > 0 {
			if c.missingEnabled > 0 {
				continue
			}
			if c.enabledMatches != totalCompared || c.configMatches != totalCompared {
				continue
			}
		}

		candidates = append(candidates, c)
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.missingEnabled != b.missingEnabled {
			return a.missingEnabled < b.missingEnabled
		}
		if a.extEnabled != b.extEnabled {
			return a.extEnabled > b.extEnabled
		}
		if a.enabledMatches != b.enabledMatches {
			return a.enabledMatches > b.enabledMatches
		}
		return a.configMatches > b.configMatches
	})

	return candidates[0].profile
}

func jaccard(current map[string]struct{}, fingerprint []string) float64 {
	profileSet := make(map[string]struct{}, len(fingerprint))
	for _, desc := range fingerprint {
		profileSet[desc] = struct{}{}
	}

	intersection := 0
	for desc := range profileSet {
		if _, ok := current[desc]; ok {
			intersection++
		}
	}
	union := len(current) + len(profileSet) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

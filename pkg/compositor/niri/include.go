package niri

import (
	"fmt"
	"os"
	"strings"

	"codeberg.org/lkiss/wlplug/pkg/paths"
)

// EnsureInclude makes config.kdl include the generated monitor file. On the
// first run it also strips any top-level output blocks, since those would
// override the included ones. Later calls are no-ops. Reports whether the
// file was modified.
func EnsureInclude(configPath, includeName string) (bool, error) {
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read config: %w", err)
	}
	text := string(data)

	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "//") {
			continue
		}
		if strings.Contains(stripped, "include") && strings.Contains(stripped, includeName) {
			return false, nil
		}
	}

	cleaned := stripOutputBlocks(text)
	if !strings.HasSuffix(cleaned, "\n") {
		cleaned += "\n"
	}
	cleaned += fmt.Sprintf("\n// wlplug monitor configuration\ninclude %q\n", includeName)

	if err := paths.BackupFile(configPath); err != nil {
		return false, fmt.Errorf("backup config: %w", err)
	}
	if err := paths.WriteText(configPath, cleaned); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}

// stripOutputBlocks removes top-level `output "..." { ... }` blocks,
// tracking brace depth so nested braces inside a block are skipped too.
func stripOutputBlocks(text string) string {
	lines := strings.SplitAfter(text, "\n")
	var cleaned []string

	for i := 0; i < len(lines); {
		stripped := strings.TrimSpace(lines[i])
		if strings.HasPrefix(stripped, "output ") && strings.Contains(stripped, "{") {
			depth := strings.Count(stripped, "{") - strings.Count(stripped, "}")
			i++
			for i < len(lines) && depth > 0 {
				depth += strings.Count(lines[i], "{") - strings.Count(lines[i], "}")
				i++
			}
			// drop one trailing blank line left behind by the block
			if i < len(lines) && strings.TrimSpace(lines[i]) == "" {
				i++
			}
			continue
		}
		cleaned = append(cleaned, lines[i])
		i++
	}

	return strings.Join(cleaned, "")
}

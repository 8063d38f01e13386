package output

import (
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// XrandrArgs renders the xrandr arguments for this output (without the
// leading "xrandr"). physX/physY override the position with physical pixel
// coordinates, since xrandr does not understand the compositor's logical
// (scaled) positions.
func (o *Output) XrandrArgs(physX, physY int) string {
	if !o.Enabled {
		return fmt.Sprintf("--output %s --off", o.Name)
	}

	parts := []string{"--output " + o.Name}

	if o.ResolutionMode == ResolutionExplicit {
		parts = append(parts, fmt.Sprintf("--mode %dx%d", o.Width, o.Height))
		parts = append(parts, fmt.Sprintf("--rate %.3f", o.RefreshRate))
	} else {
		parts = append(parts, "--auto")
	}

	parts = append(parts, fmt.Sprintf("--pos %dx%d", physX, physY))

	xr := xrandrTransforms[o.Transform]
	parts = append(parts, "--rotate "+xr.rotate)
	if xr.reflect != "" {
		parts = append(parts, "--reflect "+xr.reflect)
	}

	return strings.Join(parts, " ")
}

// PhysicalPositions converts logical compositor positions to physical xrandr
// positions by grouping enabled outputs into horizontal rows (logical y
// within 50 px) and row-packing them left-to-right, top-to-bottom using
// their physical rotated dimensions.
func (p *Profile) PhysicalPositions() map[string][2]int {
	var enabled []*Output
	for i := range p.Outputs {
		if p.Outputs[i].Enabled {
			enabled = append(enabled, &p.Outputs[i])
		}
	}
	if len(enabled) == 0 {
		return map[string][2]int{}
	}

	sort.SliceStable(enabled, func(i, j int) bool {
		if enabled[i].Y != enabled[j].Y {
			return enabled[i].Y < enabled[j].Y
		}
		return enabled[i].X < enabled[j].X
	})

	var rows [][]*Output
	for _, o := range enabled {
		placed := false
		for ri := range rows {
			if abs(o.Y-rows[ri][0].Y) < 50 {
				rows[ri] = append(rows[ri], o)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, []*Output{o})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i][0].Y < rows[j][0].Y })
	for ri := range rows {
		row := rows[ri]
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
	}

	result := make(map[string][2]int)
	physY := 0
	for _, row := range rows {
		physX := 0
		rowHeight := 0
		for _, o := range row {
			result[o.Name] = [2]int{physX, physY}
			pw, ph := o.PhysicalSizeRotated()
			physX += pw
			if ph > rowHeight {
				rowHeight = ph
			}
		}
		physY += rowHeight
	}

	return result
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// XsetupScript generates the SDDM Xsetup script for this profile. The script
// matches monitors by EDID description rather than port name so it works
// where the X11 driver names outputs differently than the Wayland compositor
// (NVIDIA DFP-* vs DP-*), applies the whole layout in one xrandr invocation,
// and explicitly disables connected outputs the layout does not use.
func (p *Profile) XsetupScript() string {
	physPos := p.PhysicalPositions()

	var entries []string
	fbW, fbH := 0, 0
	for i := range p.Outputs {
		o := &p.Outputs[i]
		if !o.Enabled {
			continue // xrandr leaves disabled outputs at the X11 default
		}
		px, py := o.X, o.Y
		if pos, ok := physPos[o.Name]; ok {
			px, py = pos[0], pos[1]
		}
		args := o.XrandrArgs(px, py)
		entries = append(entries, fmt.Sprintf("(%s, %s, %s)",
			pyStr(o.Description), pyStr(o.Name), pyStr(args)))
		pw, ph := o.PhysicalSizeRotated()
		if px+pw > fbW {
			fbW = px + pw
		}
		if py+ph > fbH {
			fbH = py + ph
		}
	}

	var buf strings.Builder
	err := xsetupTemplate.Execute(&buf, map[string]string{
		"Monitors": "[" + strings.Join(entries, ", ") + "]",
		"FBSize":   fmt.Sprintf("%dx%d", fbW, fbH),
	})
	if err != nil {
		// Template and data are static; this cannot fail at runtime.
		panic(err)
	}
	return buf.String()
}

// pyStr renders s as a single-quoted Python string literal.
func pyStr(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

var xsetupTemplate = template.Must(template.New("xsetup").Parse(`#!/usr/bin/env python3
"""SDDM Xsetup - generated by wlplug.

Matches monitors by EDID description so the script works regardless of
whether the X11 driver uses the same output names as the Wayland compositor
(e.g. NVIDIA uses DFP-* instead of DP-*/HDMI-A-*).
"""
import re, subprocess, time

# (edid_description, wayland_name, xrandr_args_with_wayland_name)
MONITORS = {{.Monitors}}
FB_SIZE = "{{.FBSize}}"


def _parse_edid(hex_str):
    """Extract (monitor_name, serial) from raw EDID hex."""
    try:
        data = bytes.fromhex(hex_str)
    except ValueError:
        return "", ""
    name = ""
    serial = ""
    for off in (54, 72, 90, 108):
        if off + 18 > len(data):
            break
        tag = data[off + 3]
        text = data[off + 5 : off + 18].split(b"\x0a")[0]
        text = text.decode("ascii", errors="ignore").strip()
        if tag == 0xFC and not name:
            name = text
        elif tag == 0xFF and not serial:
            serial = text
    return name, serial


def _get_edid_map():
    """Return {x11_output: (edid_name, edid_serial)} for connected outputs."""
    try:
        r = subprocess.run(
            ["xrandr", "--verbose"], capture_output=True, text=True, timeout=10,
        )
    except Exception:
        return {}
    result = {}
    cur = None
    edid = ""
    in_edid = False
    for line in r.stdout.splitlines():
        m = re.match(r"^(\S+)\s+connected", line)
        if m:
            if cur and edid:
                result[cur] = _parse_edid(edid)
            cur = m.group(1)
            edid = ""
            in_edid = False
            continue
        if re.match(r"^\s+EDID:", line):
            in_edid = True
            continue
        if in_edid:
            s = line.strip()
            if re.match(r"^[0-9a-f]{2,}$", s):
                edid += s
            else:
                in_edid = False
    if cur and edid:
        result[cur] = _parse_edid(edid)
    return result


def _resolve(monitors, edid_map):
    """Return list of xrandr arg strings with correct X11 output names."""
    connected = set(edid_map)
    wayland_names = {name for _, name, _ in monitors}

    # Fast path: all Wayland names exist in X11 (Intel/AMD)
    if wayland_names <= connected:
        return [args for _, _, args in monitors]

    # EDID matching: map profile description -> X11 output
    avail = dict(edid_map)
    matched = {}  # index -> x11_name

    # Pass 1: match by EDID model name (tag FC)
    for i, (desc, _, _) in enumerate(monitors):
        for x11, (ename, _eser) in list(avail.items()):
            if ename and ename in desc:
                matched[i] = x11
                del avail[x11]
                break

    # Pass 2: match by EDID serial (tag FF)
    for i, (desc, _, _) in enumerate(monitors):
        if i in matched:
            continue
        for x11, (_ename, eser) in list(avail.items()):
            if eser and eser in desc:
                matched[i] = x11
                del avail[x11]
                break

    # Pass 3: pair remaining 1:1
    unmatched = [i for i in range(len(monitors)) if i not in matched]
    remaining = list(avail)
    for i, x11 in zip(unmatched, remaining):
        matched[i] = x11

    # Build final args, replacing output names
    result = []
    for i, (_, wl_name, args) in enumerate(monitors):
        x11 = matched.get(i, wl_name)
        result.append(args.replace("--output " + wl_name, "--output " + x11, 1))
    return result


def main():
    lf = open("/tmp/wlplug-xsetup.log", "w")
    def _log(msg):
        lf.write(msg + "\n")
        lf.flush()

    _log("wlplug Xsetup - " + time.strftime("%Y-%m-%d %H:%M:%S"))

    edid_map = _get_edid_map()
    _log("EDID map: " + repr(edid_map))

    args = _resolve(MONITORS, edid_map)
    _log("Resolved args: " + repr(args))

    # Detect used X11 output names
    used = set()
    for a in args:
        m = re.match(r"--output\s+(\S+)", a)
        if m:
            used.add(m.group(1))

    # Disable connected outputs not in our layout
    for x11 in sorted(edid_map):
        if x11 not in used:
            args.append("--output " + x11 + " --off")
            _log("Disabling unused output: " + x11)

    cmd = "xrandr --fb " + FB_SIZE + " " + " ".join(args)
    _log("Command: " + cmd)

    r = subprocess.run(cmd, shell=True, capture_output=True, text=True)
    _log("Return code: " + str(r.returncode))
    if r.stdout.strip():
        _log("stdout: " + r.stdout.strip())
    if r.stderr.strip():
        _log("stderr: " + r.stderr.strip())
    lf.close()


if __name__ == "__main__":
    main()
`))

package output

// Transform is the 8-way output rotation/flip, numbered as the Wayland
// protocol (and Hyprland) count them: counter-clockwise rotation, flipped
// variants at 4-7.
type Transform int

const (
	TransformNormal Transform = iota
	TransformRotate90
	TransformRotate180
	TransformRotate270
	TransformFlipped
	TransformFlipped90
	TransformFlipped180
	TransformFlipped270
)

// IsRotated reports whether width/height are swapped (90° or 270° variants).
func (t Transform) IsRotated() bool {
	return t == TransformRotate90 || t == TransformRotate270 ||
		t == TransformFlipped90 || t == TransformFlipped270
}

func (t Transform) Label() string {
	labels := [...]string{
		"Normal", "90°", "180°", "270°",
		"Flipped", "Flipped 90°", "Flipped 180°", "Flipped 270°",
	}
	if t < 0 || int(t) >= len(labels) {
		return "Normal"
	}
	return labels[t]
}

// Sway rotates clockwise while the Wayland protocol counts counter-clockwise,
// so 90° CCW becomes sway "270" and vice-versa.
var swayTransforms = map[Transform]string{
	TransformNormal:     "normal",
	TransformRotate90:   "270",
	TransformRotate180:  "180",
	TransformRotate270:  "90",
	TransformFlipped:    "flipped",
	TransformFlipped90:  "flipped-270",
	TransformFlipped180: "flipped-180",
	TransformFlipped270: "flipped-90",
}

var swayTransformsInv = invertTransforms(swayTransforms)

// Niri follows the Wayland CCW convention, so config strings map 1:1.
var niriTransforms = map[Transform]string{
	TransformNormal:     "normal",
	TransformRotate90:   "90",
	TransformRotate180:  "180",
	TransformRotate270:  "270",
	TransformFlipped:    "flipped",
	TransformFlipped90:  "flipped-90",
	TransformFlipped180: "flipped-180",
	TransformFlipped270: "flipped-270",
}

// Niri IPC reports transforms in a different spelling than its config file
// accepts ("Flipped90" vs "flipped-90").
var niriTransformsInv = map[string]Transform{
	"Normal": TransformNormal, "90": TransformRotate90,
	"180": TransformRotate180, "270": TransformRotate270,
	"Flipped": TransformFlipped, "Flipped90": TransformFlipped90,
	"Flipped180": TransformFlipped180, "Flipped270": TransformFlipped270,
}

// xrandr expresses transforms as a rotation plus an optional x-axis
// reflection.
var xrandrTransforms = map[Transform]struct {
	rotate  string
	reflect string
}{
	TransformNormal:     {"normal", ""},
	TransformRotate90:   {"left", ""},
	TransformRotate180:  {"inverted", ""},
	TransformRotate270:  {"right", ""},
	TransformFlipped:    {"normal", "x"},
	TransformFlipped90:  {"left", "x"},
	TransformFlipped180: {"inverted", "x"},
	TransformFlipped270: {"right", "x"},
}

func invertTransforms(m map[Transform]string) map[string]Transform {
	inv := make(map[string]Transform, len(m))
	for k, v := range m {
		inv[v] = k
	}
	return inv
}

// SwayTransform returns the sway config spelling for t.
func SwayTransform(t Transform) string { return swayTransforms[t] }

// ParseSwayTransform maps a sway transform string back to a Transform.
// Unknown strings map to TransformNormal.
func ParseSwayTransform(s string) Transform { return swayTransformsInv[s] }

// NiriTransform returns the niri config (KDL) spelling for t.
func NiriTransform(t Transform) string { return niriTransforms[t] }

// ParseNiriTransform maps a niri IPC transform string back to a Transform.
// Unknown strings map to TransformNormal.
func ParseNiriTransform(s string) Transform { return niriTransformsInv[s] }

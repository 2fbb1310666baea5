package renderer

// RGB is a renderer-neutral color.
type RGB struct {
	R, G, B uint8
}

// Palette stops.
var (
	ObstacleColor = RGB{48, 53, 58}
	EmptyColor    = RGB{18, 22, 28}
	ToxicColor    = RGB{86, 34, 96}

	resistanceStops = [...]RGB{
		{220, 80, 70},  // susceptible
		{230, 200, 90}, // intermediate
		{80, 200, 220}, // resistant
	}
)

// Normalize maps resistance onto [0, 1] over [lo, hi].
func Normalize(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return clamp01((v - lo) / (hi - lo))
}

// ResistanceColor returns the cell color for a normalized resistance.
func ResistanceColor(norm float64) RGB {
	norm = clamp01(norm)
	seg := norm * float64(len(resistanceStops)-1)
	i := int(seg)
	if i >= len(resistanceStops)-1 {
		return resistanceStops[len(resistanceStops)-1]
	}
	return lerp(resistanceStops[i], resistanceStops[i+1], seg-float64(i))
}

// PatchColor returns the background color of a patch.
func PatchColor(p PatchView) RGB {
	if !p.Habitable {
		return ObstacleColor
	}
	return lerp(EmptyColor, ToxicColor, p.Toxicity)
}

// Scale darkens (f < 1) or brightens (f > 1) c.
func (c RGB) Scale(f float64) RGB {
	ch := func(v uint8) uint8 {
		return uint8(clamp01(float64(v)*f/255) * 255)
	}
	return RGB{ch(c.R), ch(c.G), ch(c.B)}
}

func lerp(a, b RGB, t float64) RGB {
	t = clamp01(t)
	ch := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return RGB{ch(a.R, b.R), ch(a.G, b.G), ch(a.B, b.B)}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

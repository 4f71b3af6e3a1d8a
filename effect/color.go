package effect

import "fmt"

// Color is a linear RGB triple, each component nominally in [0,1].
type Color struct {
	R, G, B float64
}

var Black = Color{}

// RGB builds a Color from its components.
func RGB(r, g, b float64) Color {
	return Color{R: r, G: g, B: b}
}

// IsBlack is true if all components are zero.
func (c Color) IsBlack() bool {
	return c.R == 0 && c.G == 0 && c.B == 0
}

// Scale multiplies every component by f.
func (c Color) Scale(f float64) Color {
	return Color{R: c.R * f, G: c.G * f, B: c.B * f}
}

// Clamp limits every component to [0,1].
func (c Color) Clamp() Color {
	return Color{R: Clamp01(c.R), G: Clamp01(c.G), B: Clamp01(c.B)}
}

// InRange reports whether every component lies in [0,1].
func (c Color) InRange() bool {
	return InUnit(c.R) && InUnit(c.G) && InUnit(c.B)
}

func (c Color) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", c.R, c.G, c.B)
}

// InUnit reports whether v lies in [0,1].
func InUnit(v float64) bool {
	return v >= 0 && v <= 1
}

// Clamp01 limits v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

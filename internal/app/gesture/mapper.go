// Package gesture maps vertical drags to brightness and volume changes.
package gesture

import "github.com/osa030/skystream/internal/domain/device"

// Target is the system level a drag controls.
type Target int

const (
	TargetBrightness Target = iota // Left half of the surface
	TargetVolume                   // Right half of the surface
)

// String returns the string representation of the target.
func (t Target) String() string {
	switch t {
	case TargetBrightness:
		return "brightness"
	case TargetVolume:
		return "volume"
	default:
		return "unknown"
	}
}

// Bounds returns the allowed level range for the target.
func (t Target) Bounds() (lower, upper float64) {
	if t == TargetBrightness {
		return device.MinBrightness, device.MaxBrightness
	}
	return device.MinVolume, device.MaxVolume
}

// Point is a position or displacement in surface coordinates.
type Point struct {
	X, Y float64
}

// Size is the surface size.
type Size struct {
	Width, Height float64
}

// Adjustment is the normalized level change produced by one drag update.
type Adjustment struct {
	Target Target
	Delta  float64
}

// Apply returns current shifted by the adjustment, clamped into the target range.
func (a Adjustment) Apply(current float64) float64 {
	lower, upper := a.Target.Bounds()
	return clamp(current+a.Delta, lower, upper)
}

// Map converts a drag update into an adjustment. The drag start decides the
// target; dragging up (negative dy) increases the level. Returns false for
// a degenerate surface.
func Map(start Point, box Size, delta Point) (Adjustment, bool) {
	if box.Width <= 0 || box.Height <= 0 {
		return Adjustment{}, false
	}

	target := TargetVolume
	if start.X < box.Width/2 {
		target = TargetBrightness
	}

	lower, upper := target.Bounds()
	span := upper - lower
	d := clamp(-delta.Y/box.Height, -span, span)

	return Adjustment{Target: target, Delta: d}, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

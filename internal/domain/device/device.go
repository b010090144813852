// Package device provides the system volume and brightness contract.
package device

import "github.com/cockroachdb/errors"

// ErrPermissionRequired is returned when a system setting cannot be written
// because the application lacks the permission to do so.
var ErrPermissionRequired = errors.New("system permission required")

// Level ranges.
const (
	MinVolume     = 0.0
	MaxVolume     = 1.0
	MinBrightness = 0.1 // Nonzero floor keeps the screen from going black
	MaxBrightness = 1.0
)

// ClampVolume clamps v into the volume range.
func ClampVolume(v float64) float64 {
	return clamp(v, MinVolume, MaxVolume)
}

// ClampBrightness clamps b into the brightness range.
func ClampBrightness(b float64) float64 {
	return clamp(b, MinBrightness, MaxBrightness)
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

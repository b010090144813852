package media

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrInvalidConstraint is returned when a resolution or constraint cannot be parsed.
var ErrInvalidConstraint = errors.New("invalid quality constraint")

// ConstraintKind enumerates the quality constraint variants.
type ConstraintKind int

const (
	ConstraintAuto          ConstraintKind = iota // No constraint, engine decides
	ConstraintMaxResolution                       // Cap video size
	ConstraintForceMinimum                        // Lowest bitrate available
	ConstraintForceMaximum                        // Highest bitrate available
)

// Resolution is a video frame size in pixels.
type Resolution struct {
	Width  int `yaml:"width" json:"width" validate:"gt=0"`
	Height int `yaml:"height" json:"height" validate:"gt=0"`
}

// Pixels returns the frame area.
func (r Resolution) Pixels() int {
	return r.Width * r.Height
}

// String returns "WxH".
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// QualityConstraint restricts the engine's adaptive video selection.
// Constraints only ever apply to video; audio selection is left alone.
type QualityConstraint struct {
	Kind ConstraintKind `json:"kind"`
	Max  Resolution     `json:"max,omitzero"` // Set for ConstraintMaxResolution
}

// Auto clears all constraints.
func Auto() QualityConstraint {
	return QualityConstraint{Kind: ConstraintAuto}
}

// MaxResolution caps the video size.
func MaxResolution(width, height int) QualityConstraint {
	return QualityConstraint{Kind: ConstraintMaxResolution, Max: Resolution{Width: width, Height: height}}
}

// ForceMinimum pins the lowest quality.
func ForceMinimum() QualityConstraint {
	return QualityConstraint{Kind: ConstraintForceMinimum}
}

// ForceMaximum pins the highest quality.
func ForceMaximum() QualityConstraint {
	return QualityConstraint{Kind: ConstraintForceMaximum}
}

// IsAuto reports whether c leaves selection to the engine.
func (c QualityConstraint) IsAuto() bool {
	return c.Kind == ConstraintAuto
}

// MoreRestrictiveThan reports whether c allows strictly less video quality than o.
// Auto and ForceMaximum are the least restrictive, ForceMinimum the most.
func (c QualityConstraint) MoreRestrictiveThan(o QualityConstraint) bool {
	cr, or := c.restrictiveness(), o.restrictiveness()
	return cr < or
}

// restrictiveness returns the allowed pixel budget; lower is more restrictive.
func (c QualityConstraint) restrictiveness() int {
	switch c.Kind {
	case ConstraintMaxResolution:
		return c.Max.Pixels()
	case ConstraintForceMinimum:
		return 0
	default:
		return int(^uint(0) >> 1)
	}
}

// String returns the string representation of the constraint.
func (c QualityConstraint) String() string {
	switch c.Kind {
	case ConstraintAuto:
		return "auto"
	case ConstraintMaxResolution:
		return "max:" + c.Max.String()
	case ConstraintForceMinimum:
		return "min"
	case ConstraintForceMaximum:
		return "max"
	default:
		return "unknown"
	}
}

// ParseResolution parses "WxH", e.g. "854x480".
func ParseResolution(s string) (Resolution, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Resolution{}, errors.Wrapf(ErrInvalidConstraint, "resolution %q", s)
	}
	width, errW := strconv.Atoi(w)
	height, errH := strconv.Atoi(h)
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return Resolution{}, errors.Wrapf(ErrInvalidConstraint, "resolution %q", s)
	}
	return Resolution{Width: width, Height: height}, nil
}

// ParseConstraint parses a quality mode: "auto", "min", "max", "max:WxH" or "WxH".
func ParseConstraint(s string) (QualityConstraint, error) {
	switch mode := strings.ToLower(strings.TrimSpace(s)); mode {
	case "auto", "":
		return Auto(), nil
	case "min":
		return ForceMinimum(), nil
	case "max":
		return ForceMaximum(), nil
	default:
		r, err := ParseResolution(strings.TrimPrefix(mode, "max:"))
		if err != nil {
			return QualityConstraint{}, err
		}
		return MaxResolution(r.Width, r.Height), nil
	}
}

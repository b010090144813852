// Package quality decides video quality constraints from buffer health.
package quality

import (
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/skystream/internal/domain/media"
)

// Config holds adaptation thresholds.
type Config struct {
	GraceWindow       time.Duration      // Continuous buffering tolerated before a downgrade
	RecoveryThreshold time.Duration      // Buffered-ahead needed to clear constraints
	ConservativeCap   media.Resolution   // First downgrade target from Auto
	Ladder            []media.Resolution // Caps ordered from highest to lowest; the last is the floor
	HistorySize       int                // Number of samples retained
}

// DefaultConfig returns the thresholds used by the cloud player.
func DefaultConfig() Config {
	return Config{
		GraceWindow:       3 * time.Second,
		RecoveryThreshold: 5 * time.Second,
		ConservativeCap:   media.Resolution{Width: 854, Height: 480},
		Ladder: []media.Resolution{
			{Width: 1920, Height: 1080},
			{Width: 1280, Height: 720},
			{Width: 854, Height: 480},
			{Width: 640, Height: 360},
			{Width: 426, Height: 240},
		},
		HistorySize: 32,
	}
}

// Engine turns buffer samples into quality constraints.
// It degrades one ladder step per grace window of continuous buffering and
// recovers to Auto at once when the buffer is healthy again.
type Engine struct {
	config Config

	auto    bool
	manual  media.QualityConstraint
	current media.QualityConstraint

	bufferingSince time.Time // Zero when not buffering
	history        *history
}

// NewEngine creates an engine in Auto mode.
func NewEngine(config Config) *Engine {
	if len(config.Ladder) == 0 {
		config.Ladder = DefaultConfig().Ladder
	}
	return &Engine{
		config:  config,
		auto:    true,
		current: media.Auto(),
		history: newHistory(config.HistorySize),
	}
}

// SetAuto re-enables adaptation starting from unconstrained quality.
func (e *Engine) SetAuto() media.QualityConstraint {
	e.auto = true
	e.current = media.Auto()
	e.bufferingSince = time.Time{}
	return e.current
}

// SetManual fixes the constraint chosen by the user and disables adaptation.
func (e *Engine) SetManual(c media.QualityConstraint) media.QualityConstraint {
	if c.IsAuto() {
		return e.SetAuto()
	}
	e.auto = false
	e.manual = c
	e.current = c
	e.bufferingSince = time.Time{}
	return e.current
}

// IsAuto reports whether adaptation is active.
func (e *Engine) IsAuto() bool {
	return e.auto
}

// Current returns the constraint in effect.
func (e *Engine) Current() media.QualityConstraint {
	return e.current
}

// Reset forgets all samples, keeping the mode and the current constraint.
// Called when a new item starts.
func (e *Engine) Reset() {
	e.bufferingSince = time.Time{}
	e.history.reset()
}

// History returns the retained samples, oldest first.
func (e *Engine) History() []Sample {
	return e.history.samples()
}

// Observe records a sample and returns the constraint to apply and whether
// it differs from the previous one.
func (e *Engine) Observe(s Sample) (media.QualityConstraint, bool) {
	e.history.add(s)

	if !e.auto {
		return e.manual, false
	}

	prev := e.current

	if s.IsBuffering {
		if e.bufferingSince.IsZero() {
			e.bufferingSince = s.At
		}
		if s.At.Sub(e.bufferingSince) >= e.config.GraceWindow {
			e.current = e.downgrade(e.current)
			// The next step needs another full window of buffering.
			e.bufferingSince = s.At
		}
	} else {
		e.bufferingSince = time.Time{}
		if s.BufferedAhead > e.config.RecoveryThreshold {
			e.current = media.Auto()
		}
	}

	changed := e.current != prev
	if changed {
		zlog.Debug().Msgf("quality: constraint changed: from=%s to=%s buffered_ahead=%v buffering=%v",
			prev, e.current, s.BufferedAhead, s.IsBuffering)
	}
	return e.current, changed
}

// downgrade returns the next more restrictive step, never below the floor.
func (e *Engine) downgrade(c media.QualityConstraint) media.QualityConstraint {
	ladder := e.config.Ladder
	floor := ladder[len(ladder)-1]

	switch c.Kind {
	case media.ConstraintAuto, media.ConstraintForceMaximum:
		capRes := e.config.ConservativeCap
		if capRes.Pixels() == 0 {
			capRes = ladder[0]
		}
		return media.MaxResolution(capRes.Width, capRes.Height)
	case media.ConstraintMaxResolution:
		for _, step := range ladder {
			if step.Pixels() < c.Max.Pixels() {
				return media.MaxResolution(step.Width, step.Height)
			}
		}
		return media.MaxResolution(floor.Width, floor.Height)
	default:
		return c
	}
}

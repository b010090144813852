package playback

import (
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/skystream/internal/app/wake"
)

// startTimer runs callback on the loop goroutine after duration.
// Returns a cancel function; once it is called the callback never runs,
// even if the timer already fired and its event is still queued.
// Must be called on the loop goroutine.
func (c *Controller) startTimer(name string, duration time.Duration, callback func()) func() {
	if c.closed {
		return func() {}
	}
	cancelled := false // Loop goroutine only
	t := time.AfterFunc(duration, func() {
		c.post(name, func() {
			if !cancelled {
				callback()
			}
		})
	})
	return func() {
		cancelled = true
		t.Stop()
	}
}

// startPolling starts the position/telemetry ticker for the current engine.
func (c *Controller) startPolling() {
	c.stopPolling()
	gen := c.pollGen

	ticker := time.NewTicker(c.config.PollInterval)
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				c.post("poll", func() { c.poll(gen) })
			}
		}
	}()

	// Stopping waits for the ticker goroutine so that no tick is posted afterwards.
	c.pollCancel = func() {
		close(done)
		<-exited
	}
}

// stopPolling stops the ticker. Ticks already queued are invalidated by the
// generation bump.
func (c *Controller) stopPolling() {
	if c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
	}
	c.pollGen++
}

// poll refreshes position and duration, samples buffer health and
// periodically re-reads the system levels.
func (c *Controller) poll(gen uint64) {
	if gen != c.pollGen || c.engine == nil {
		return
	}
	c.pollCount++

	c.refreshDuration()
	if c.session.State != StateEnded {
		pos := c.engine.Position()
		if c.session.Duration > 0 {
			pos = clampDuration(pos, 0, c.session.Duration)
		}
		c.session.Position = pos
		c.lastPosition = pos
	}

	switch c.session.State {
	case StateReady, StateBuffering, StatePlaying, StatePaused:
		c.observeSample()
	}

	if c.pollCount%c.config.SystemSyncTicks == 0 {
		c.syncSystemLevels()
	}
}

// refreshWake re-evaluates the wake decision when its inputs changed, or
// unconditionally when force is set (deadline timer).
func (c *Controller) refreshWake(force bool) {
	if c.closed {
		return
	}
	in := wake.Inputs{
		IsPlaying:             c.session.State == StatePlaying,
		IsBuffering:           c.session.State == StateBuffering,
		ControlsVisible:       c.controlsVisible,
		UserPreferenceEnabled: c.keepAwakePref,
	}
	if !force && c.lastWakeInputs != nil && *c.lastWakeInputs == in {
		return
	}
	c.lastWakeInputs = &in

	prev := c.wake.State()
	now := c.config.Now()
	state := c.wake.Evaluate(in, now)

	if c.wakeTimerCancel != nil {
		c.wakeTimerCancel()
		c.wakeTimerCancel = nil
	}
	if state.HasDeadline() {
		c.wakeTimerCancel = c.startTimer("wake_deadline", state.Deadline.Sub(now), func() {
			c.wakeTimerCancel = nil
			c.refreshWake(true)
		})
	}

	if prev.KeepAwake != state.KeepAwake {
		zlog.Debug().Msgf("playback: keep awake changed: keep_awake=%v deadline=%v", state.KeepAwake, state.Deadline)
	}
}

// armControlsAutoHide (re)starts the auto-hide timer while controls are visible.
// Controls are only hidden automatically during playback.
func (c *Controller) armControlsAutoHide() {
	if c.controlsTimerCancel != nil {
		c.controlsTimerCancel()
		c.controlsTimerCancel = nil
	}
	if !c.controlsVisible || c.config.ControlsAutoHide <= 0 {
		return
	}
	c.controlsTimerCancel = c.startTimer("controls_auto_hide", c.config.ControlsAutoHide, func() {
		c.controlsTimerCancel = nil
		if c.session.State == StatePlaying {
			c.controlsVisible = false
		}
	})
}

func (c *Controller) stopWakeTimers() {
	if c.wakeTimerCancel != nil {
		c.wakeTimerCancel()
		c.wakeTimerCancel = nil
	}
	if c.controlsTimerCancel != nil {
		c.controlsTimerCancel()
		c.controlsTimerCancel = nil
	}
}

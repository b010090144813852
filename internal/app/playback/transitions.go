package playback

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/skystream/internal/app/quality"
	"github.com/osa030/skystream/internal/domain/media"
	"github.com/osa030/skystream/internal/metrics"
)

// All functions in this file run on the loop goroutine.

// setState records a transition.
func (c *Controller) setState(s State) {
	prev := c.session.State
	if prev == s {
		return
	}
	c.session.State = s
	metrics.SessionTransitionsTotal.WithLabelValues(prev.String(), s.String()).Inc()
	metrics.RecordState(s.String(), stateNames())
	zlog.Debug().Msgf("playback: state changed: from=%s to=%s item=%s", prev, s, c.session.ItemID)
}

// changeItem releases the current item and loads the navigator's current one.
func (c *Controller) changeItem() {
	c.teardown()
	c.loadCurrent()
}

// loadCurrent starts a fresh Idle → Resolving cycle for the current item.
func (c *Controller) loadCurrent() {
	item, ok := c.nav.Current()
	if !ok {
		return
	}
	c.session.ItemID = item.ID
	c.session.Position = 0
	c.session.Duration = 0
	c.session.Error = nil
	c.lastPosition = 0
	c.retriesUsed = 0
	c.quality.Reset()
	c.beginResolve(item, 0)
}

// beginResolve resolves item in the background. The result is tagged with a
// request ID so that results of superseded requests are dropped.
func (c *Controller) beginResolve(item media.Item, resumeAt time.Duration) {
	c.cancelResolve()
	c.requestID++
	id := c.requestID

	ctx, cancel := context.WithCancel(c.ctx)
	c.resolveCancel = cancel
	c.setState(StateResolving)
	zlog.Debug().Msgf("playback: resolving: item=%s origin=%s request=%d", item.ID, item.Origin, id)

	c.workers.Add(1)
	go func() {
		defer c.workers.Done()
		src, err := c.resolver.Resolve(ctx, item)
		c.post("resolved", func() {
			c.onResolved(id, resumeAt, src, err)
		})
	}()
}

func (c *Controller) cancelResolve() {
	if c.resolveCancel != nil {
		c.resolveCancel()
		c.resolveCancel = nil
	}
	c.requestID++
}

// onResolved handles a resolver result.
func (c *Controller) onResolved(id uint64, resumeAt time.Duration, src media.Source, err error) {
	if id != c.requestID || c.session.State != StateResolving {
		zlog.Debug().Msgf("playback: discarding stale resolution: request=%d current=%d", id, c.requestID)
		return
	}
	c.resolveCancel()
	c.resolveCancel = nil

	if err != nil {
		se := classifyResolveError(err)
		metrics.ResolveFailuresTotal.WithLabelValues(se.Kind.String()).Inc()
		zlog.Warn().Msgf("playback: failed to resolve stream: item=%s kind=%s: %v", c.session.ItemID, se.Kind, err)
		c.fail(se)
		return
	}
	c.prepare(src, resumeAt)
}

// prepare creates a fresh engine and loads src into it.
func (c *Controller) prepare(src media.Source, resumeAt time.Duration) {
	c.releaseEngine()

	c.engineGen++
	gen := c.engineGen
	engine := c.engines(EngineOptions{}, func(ev EngineEvent) {
		c.post("engine_"+ev.Type.String(), func() {
			c.onEngineEvent(gen, ev)
		})
	})
	c.engine = engine
	c.tracks.Reset(engine)
	c.setState(StatePreparing)

	zlog.Info().Msgf("playback: preparing: item=%s format=%s resume_at=%v", c.session.ItemID, src.Format, resumeAt)
	if err := engine.Prepare(src); err != nil {
		c.fail(SessionError{Kind: KindUnclassified, Message: "Playback error: " + err.Error()})
		return
	}
	engine.SetSpeed(c.session.Speed)
	engine.ApplyConstraint(c.quality.Current())
	if resumeAt > 0 {
		engine.SeekTo(resumeAt)
		c.session.Position = resumeAt
	}
	if c.playIntent {
		engine.Play()
	}
	c.startPolling()
	c.schedulePreload()
}

// onEngineEvent dispatches an engine event. Events from released engines are dropped.
func (c *Controller) onEngineEvent(gen uint64, ev EngineEvent) {
	if gen != c.engineGen || c.engine == nil {
		return
	}
	switch ev.Type {
	case EventStateChanged:
		c.onEngineState(ev.State)
	case EventTracksChanged:
		audio, subs := c.tracks.Refresh(ev.Tracks)
		zlog.Debug().Msgf("playback: tracks changed: audio=%d subtitles=%d", len(audio), len(subs))
	case EventIsPlayingChanged:
		if ev.IsPlaying && (c.session.State == StateReady || c.session.State == StatePaused) {
			c.setState(StatePlaying)
		}
	case EventError:
		c.onEngineError(ev)
	}
}

func (c *Controller) onEngineState(s EngineState) {
	switch s {
	case EngineBuffering:
		switch c.session.State {
		case StatePreparing, StateReady, StatePlaying, StatePaused:
			c.setState(StateBuffering)
			metrics.RebufferTotal.Inc()
			c.observeSample()
		}
	case EngineReady:
		c.refreshDuration()
		switch c.session.State {
		case StatePreparing:
			c.setState(StateReady)
			if c.playIntent {
				c.setState(StatePlaying)
			}
		case StateBuffering:
			if c.playIntent {
				c.setState(StatePlaying)
			} else {
				c.setState(StatePaused)
			}
			c.observeSample()
		}
	case EngineEnded:
		switch c.session.State {
		case StateReady, StatePlaying, StatePaused, StateBuffering:
			c.onEnded()
		}
	}
}

// onEnded advances to the next item, or ends the session on the last one.
func (c *Controller) onEnded() {
	if c.nav.Next() {
		zlog.Info().Msgf("playback: item ended, advancing: index=%d", c.nav.Index())
		c.changeItem()
		return
	}
	c.refreshDuration()
	c.session.Position = c.session.Duration
	c.lastPosition = c.session.Duration
	c.setState(StateEnded)
	zlog.Info().Msgf("playback: playlist ended: session=%s", c.sessionID)
}

// onEngineError classifies a fatal engine error. A network timeout is
// retried once per item; everything else fails the session.
func (c *Controller) onEngineError(ev EngineEvent) {
	se := classifyEngineError(ev)
	metrics.PlaybackErrorsTotal.WithLabelValues(se.Kind.String()).Inc()
	if pos := c.engine.Position(); pos > 0 {
		c.lastPosition = pos
	}

	if se.Kind == KindNetworkTimeout && c.retriesUsed == 0 {
		c.retriesUsed++
		metrics.NetworkRetriesTotal.Inc()
		zlog.Warn().Msgf("playback: network timeout, retrying in %v: item=%s code=%d",
			c.config.RetryDelay, c.session.ItemID, ev.Code)

		c.stopPolling()
		c.cancelPreload()
		c.releaseEngine()
		c.tracks.Reset(nil)
		c.setState(StateResolving)

		item, ok := c.nav.Current()
		if !ok {
			c.fail(se)
			return
		}
		resumeAt := c.lastPosition
		c.cancelResolve()
		c.retryTimerCancel = c.startTimer("retry", c.config.RetryDelay, func() {
			c.retryTimerCancel = nil
			c.beginResolve(item, resumeAt)
		})
		return
	}

	zlog.Error().Msgf("playback: playback failed: item=%s kind=%s code=%d: %s",
		c.session.ItemID, se.Kind, ev.Code, ev.Message)
	c.fail(se)
}

// fail moves the session to Error. Engine and timers are always released.
func (c *Controller) fail(se SessionError) {
	c.cancelResolve()
	c.stopRetry()
	c.stopPolling()
	c.cancelPreload()
	c.releaseEngine()
	c.tracks.Reset(nil)

	c.session.Error = &se
	c.setState(StateError)

	if se.Kind.revokesCredentials() && c.revoker != nil {
		zlog.Warn().Msgf("playback: clearing credentials: kind=%s", se.Kind)
		c.revoker.ClearCredentials()
	}
}

// teardown releases everything owned by the current item and returns to Idle.
// The engine is released before this returns.
func (c *Controller) teardown() {
	c.cancelResolve()
	c.stopRetry()
	c.stopPolling()
	c.cancelPreload()
	c.releaseEngine()
	c.tracks.Reset(nil)
	c.setState(StateIdle)
}

func (c *Controller) releaseEngine() {
	if c.engine == nil {
		return
	}
	c.engineGen++
	c.engine.Release()
	c.engine = nil
}

func (c *Controller) stopRetry() {
	if c.retryTimerCancel != nil {
		c.retryTimerCancel()
		c.retryTimerCancel = nil
	}
}

// refreshDuration copies the engine's duration once it is known.
func (c *Controller) refreshDuration() {
	if c.engine == nil {
		return
	}
	if d := c.engine.Duration(); d > 0 {
		c.session.Duration = d
	}
}

// observeSample feeds the buffer health to the quality engine and applies
// the resulting constraint.
func (c *Controller) observeSample() {
	if c.engine == nil {
		return
	}
	ahead := c.engine.BufferedPosition() - c.engine.Position()
	if ahead < 0 {
		ahead = 0
	}
	constraint, changed := c.quality.Observe(quality.Sample{
		BufferedAhead: ahead,
		IsBuffering:   c.session.State == StateBuffering,
		At:            c.config.Now(),
	})
	if !changed {
		return
	}
	c.engine.ApplyConstraint(constraint)
	direction := "downgrade"
	if constraint.IsAuto() {
		direction = "recover"
	}
	recordQualityChange(direction)
	zlog.Info().Msgf("playback: quality constraint applied: constraint=%s direction=%s", constraint, direction)
}

func recordQualityChange(direction string) {
	metrics.QualityChangesTotal.WithLabelValues(direction).Inc()
}

package playback

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/skystream/internal/domain/media"
)

// preloadState tracks warm-up of the next item. The preload engine is
// resource-capped, released after a probation window and never promoted.
type preloadState struct {
	gen         uint64
	engine      Engine
	cancel      context.CancelFunc
	timerCancel func() // Delay or probation timer
}

// schedulePreload warms up the next item after PreloadDelay.
func (c *Controller) schedulePreload() {
	c.cancelPreload()
	if c.config.PreloadDelay <= 0 || c.nav == nil {
		return
	}
	next, ok := c.nav.Peek()
	if !ok {
		return
	}
	c.preload.timerCancel = c.startTimer("preload", c.config.PreloadDelay, func() {
		c.preload.timerCancel = nil
		c.startPreload(next)
	})
}

func (c *Controller) startPreload(item media.Item) {
	c.preload.gen++
	gen := c.preload.gen

	ctx, cancel := context.WithCancel(c.ctx)
	c.preload.cancel = cancel
	zlog.Debug().Msgf("playback: preloading next item: item=%s", item.ID)

	c.workers.Add(1)
	go func() {
		defer c.workers.Done()
		src, err := c.resolver.Resolve(ctx, item)
		c.post("preload_resolved", func() {
			c.onPreloadResolved(gen, item, src, err)
		})
	}()
}

func (c *Controller) onPreloadResolved(gen uint64, item media.Item, src media.Source, err error) {
	if gen != c.preload.gen {
		return
	}
	c.preload.cancel()
	c.preload.cancel = nil

	// Preload failures are not session errors; the item is resolved again
	// when it becomes current.
	if err != nil {
		zlog.Debug().Msgf("playback: preload resolution failed: item=%s: %v", item.ID, err)
		return
	}

	engine := c.engines(EngineOptions{Preload: true}, func(EngineEvent) {})
	if err := engine.Prepare(src); err != nil {
		zlog.Debug().Msgf("playback: preload prepare failed: item=%s: %v", item.ID, err)
		engine.Release()
		return
	}
	c.preload.engine = engine
	c.preload.timerCancel = c.startTimer("preload_release", c.config.PreloadProbation, func() {
		c.preload.timerCancel = nil
		c.cancelPreload()
	})
}

// cancelPreload stops any pending preload and releases its engine.
func (c *Controller) cancelPreload() {
	if c.preload.timerCancel != nil {
		c.preload.timerCancel()
		c.preload.timerCancel = nil
	}
	if c.preload.cancel != nil {
		c.preload.cancel()
		c.preload.cancel = nil
	}
	if c.preload.engine != nil {
		c.preload.engine.Release()
		c.preload.engine = nil
		zlog.Debug().Msg("playback: preload engine released")
	}
	c.preload.gen++
}

package playback

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/skystream/internal/app/gesture"
	"github.com/osa030/skystream/internal/app/quality"
	"github.com/osa030/skystream/internal/app/tracks"
	"github.com/osa030/skystream/internal/app/wake"
	"github.com/osa030/skystream/internal/domain/device"
	"github.com/osa030/skystream/internal/domain/media"
	"github.com/osa030/skystream/internal/domain/playlist"
)

// Playback speed limits.
const (
	MinSpeed = 0.25
	MaxSpeed = 2.0
)

// Config holds controller configuration.
type Config struct {
	PollInterval     time.Duration // Position/telemetry polling period
	RetryDelay       time.Duration // Delay before the single network retry
	SystemSyncTicks  int           // Re-read volume/brightness every N polls
	ControlsAutoHide time.Duration // Hide visible controls after this long, 0 disables
	PreloadDelay     time.Duration // Delay before warming up the next item, 0 disables
	PreloadProbation time.Duration // Lifetime of the preload engine
	DefaultSpeed     float64       // Initial playback speed
	KeepAwake        bool          // Initial keep-screen-on preference
	WakeTimeout      time.Duration // Keep-awake time with idle visible controls
	Quality          quality.Config

	Now func() time.Time // Clock, defaults to time.Now
}

// DefaultConfig returns the configuration used by the player.
func DefaultConfig() Config {
	return Config{
		PollInterval:     time.Second,
		RetryDelay:       2 * time.Second,
		SystemSyncTicks:  5,
		ControlsAutoHide: 4 * time.Second,
		PreloadDelay:     5 * time.Second,
		PreloadProbation: 3 * time.Second,
		DefaultSpeed:     1.0,
		KeepAwake:        true,
		WakeTimeout:      wake.DefaultTimeout,
		Quality:          quality.DefaultConfig(),
	}
}

// Dependencies are the external collaborators of the controller.
type Dependencies struct {
	Engines     EngineFactory
	Resolver    Resolver
	Controls    SystemControls    // Optional
	Credentials CredentialRevoker // Optional
	Sink        SnapshotSink      // Optional
}

// Controller owns one playback session. All state is mutated on a single
// goroutine that drains the event queue; public methods enqueue an intent
// and wait for it to be processed.
type Controller struct {
	config   Config
	engines  EngineFactory
	resolver Resolver
	controls SystemControls
	revoker  CredentialRevoker
	sink     SnapshotSink

	// Loop
	queue    *eventQueue
	stopLoop chan struct{}
	loopDone chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	workers  sync.WaitGroup
	closing  sync.Once
	closed   bool // Set on the loop goroutine by Close
	latest   atomic.Pointer[Snapshot]

	// Session (loop goroutine only)
	sessionID string
	seq       uint64
	session   Session
	nav       *playlist.Navigator
	tracks    *tracks.Manager
	quality   *quality.Engine
	wake      *wake.Manager

	playIntent   bool
	lastPosition time.Duration
	retriesUsed  int

	// Engine
	engine    Engine
	engineGen uint64

	// Resolution
	requestID        uint64
	resolveCancel    context.CancelFunc
	retryTimerCancel func() // Cancel function for the network retry timer

	// Polling
	pollCancel func()
	pollGen    uint64
	pollCount  int

	// Preload
	preload preloadState

	// Wake and controls
	controlsVisible     bool
	keepAwakePref       bool
	lastWakeInputs      *wake.Inputs
	wakeTimerCancel     func() // Cancel function for the wake deadline timer
	controlsTimerCancel func() // Cancel function for the controls auto-hide timer

	// System levels
	volume             float64
	brightness         float64
	permissionRequired bool
}

// NewController creates a controller and starts its event loop.
func NewController(config Config, deps Dependencies) (*Controller, error) {
	if deps.Engines == nil {
		return nil, errors.New("engine factory is required")
	}
	if deps.Resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if config.PollInterval <= 0 {
		return nil, errors.Newf("poll interval must be positive, got %v", config.PollInterval)
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.SystemSyncTicks <= 0 {
		config.SystemSyncTicks = 1
	}
	if config.DefaultSpeed == 0 {
		config.DefaultSpeed = 1.0
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		config:        config,
		engines:       deps.Engines,
		resolver:      deps.Resolver,
		controls:      deps.Controls,
		revoker:       deps.Credentials,
		sink:          deps.Sink,
		queue:         newEventQueue(),
		stopLoop:      make(chan struct{}),
		loopDone:      make(chan struct{}),
		ctx:           ctx,
		cancel:        cancel,
		tracks:        tracks.NewManager(nil),
		quality:       quality.NewEngine(config.Quality),
		wake:          wake.NewManager(config.WakeTimeout),
		keepAwakePref: config.KeepAwake,
		playIntent:    true,
		volume:        device.MaxVolume,
		brightness:    device.MaxBrightness,
	}
	c.session = Session{
		State:            StateIdle,
		Speed:            clampSpeed(config.DefaultSpeed),
		SelectedAudio:    tracks.None,
		SelectedSubtitle: tracks.None,
	}
	c.syncSystemLevels()

	snap := c.buildSnapshot()
	c.latest.Store(&snap)

	go c.loop()
	return c, nil
}

// Snapshot returns the most recently published snapshot.
func (c *Controller) Snapshot() Snapshot {
	return *c.latest.Load()
}

// Close tears the session down and stops the event loop. The engine is
// released and all timers are stopped before Close returns.
func (c *Controller) Close() {
	c.closing.Do(func() {
		_ = c.call("close", func() error {
			c.teardown()
			c.stopWakeTimers()
			c.closed = true
			zlog.Info().Msgf("playback: controller closed: session=%s", c.sessionID)
			return nil
		})
		c.queue.close()
		c.cancel()
		close(c.stopLoop)
		<-c.loopDone
		c.workers.Wait()
	})
}

// loop drains the event queue until Close.
func (c *Controller) loop() {
	defer close(c.loopDone)
	for {
		select {
		case <-c.stopLoop:
			return
		case <-c.queue.signal:
			for _, ev := range c.queue.take() {
				ev.fn()
				c.refreshWake(false)
				c.publish()
				if ev.done != nil {
					close(ev.done)
				}
			}
		}
	}
}

// post enqueues fn without waiting. Events posted after Close are dropped.
func (c *Controller) post(name string, fn func()) {
	if !c.queue.push(event{name: name, fn: fn}) {
		zlog.Debug().Msgf("playback: dropping event after close: event=%s", name)
	}
}

// call enqueues fn and waits until it ran and its snapshot was published.
func (c *Controller) call(name string, fn func() error) error {
	var err error
	ev := event{name: name, fn: func() { err = fn() }, done: make(chan struct{})}
	if !c.queue.push(ev) {
		return ErrClosed
	}
	select {
	case <-ev.done:
		return err
	case <-c.loopDone:
		return ErrClosed
	}
}

// Open starts a new session over items, beginning at start.
func (c *Controller) Open(items []media.Item, start int) error {
	if len(items) == 0 {
		return errors.Wrap(ErrNoSession, "empty playlist")
	}
	return c.call("open", func() error {
		c.teardown()
		c.nav = playlist.New(items, start)
		c.sessionID = uuid.New().String()
		c.quality = quality.NewEngine(c.config.Quality)
		c.wake.Reset()
		c.lastWakeInputs = nil
		c.session.Error = nil
		c.playIntent = true
		zlog.Info().Msgf("playback: session opened: session=%s items=%d start=%d",
			c.sessionID, c.nav.Len(), c.nav.Index())
		c.loadCurrent()
		return nil
	})
}

// Play resumes or starts playback. Playing while already playing is a no-op.
func (c *Controller) Play() error {
	return c.call("play", func() error {
		c.playIntent = true
		switch c.session.State {
		case StatePlaying:
			return nil
		case StateReady, StatePaused:
			c.engine.Play()
			c.setState(StatePlaying)
		case StatePreparing, StateBuffering:
			c.engine.Play()
		case StateEnded:
			c.engine.SeekTo(0)
			c.session.Position = 0
			c.engine.Play()
			c.setState(StatePlaying)
		case StateIdle:
			if c.nav == nil || c.nav.Len() == 0 {
				return ErrNoSession
			}
			c.loadCurrent()
		}
		return nil
	})
}

// Pause pauses playback.
func (c *Controller) Pause() error {
	return c.call("pause", func() error {
		c.playIntent = false
		switch c.session.State {
		case StatePlaying, StateReady:
			c.engine.Pause()
			c.setState(StatePaused)
		case StatePreparing, StateBuffering:
			c.engine.Pause()
		}
		return nil
	})
}

// Seek moves the playhead, clamped to [0, duration]. Until the duration is
// known only negative positions are clamped.
func (c *Controller) Seek(position time.Duration) error {
	return c.call("seek", func() error {
		if c.engine == nil || !c.session.State.hasMedia() {
			return nil
		}
		c.refreshDuration()
		target := max(position, 0)
		if c.session.Duration > 0 {
			target = clampDuration(position, 0, c.session.Duration)
		}
		c.engine.SeekTo(target)
		c.session.Position = target
		c.lastPosition = target
		if c.session.State == StateEnded && target < c.session.Duration {
			c.playIntent = false
			c.setState(StatePaused)
		}
		return nil
	})
}

// SetSpeed changes the playback speed, clamped to [MinSpeed, MaxSpeed].
// The speed carries over to following items.
func (c *Controller) SetSpeed(factor float64) error {
	return c.call("set_speed", func() error {
		c.session.Speed = clampSpeed(factor)
		if c.engine != nil {
			c.engine.SetSpeed(c.session.Speed)
		}
		return nil
	})
}

// SetQualityMode selects Auto adaptation or a fixed manual constraint.
func (c *Controller) SetQualityMode(constraint media.QualityConstraint) error {
	return c.call("set_quality", func() error {
		var applied media.QualityConstraint
		if constraint.IsAuto() {
			applied = c.quality.SetAuto()
		} else {
			applied = c.quality.SetManual(constraint)
		}
		if c.engine != nil {
			c.engine.ApplyConstraint(applied)
		}
		recordQualityChange("manual")
		zlog.Info().Msgf("playback: quality mode set: constraint=%s auto=%v", applied, c.quality.IsAuto())
		return nil
	})
}

// SelectAudio selects an audio track. Out-of-range indices are ignored.
func (c *Controller) SelectAudio(index int) error {
	return c.call("select_audio", func() error {
		if err := c.tracks.SelectAudio(index); err != nil {
			zlog.Debug().Msgf("playback: ignoring audio selection: %v", err)
		}
		return nil
	})
}

// EnableSubtitle turns on a subtitle track. Out-of-range indices are ignored.
func (c *Controller) EnableSubtitle(index int) error {
	return c.call("enable_subtitle", func() error {
		if err := c.tracks.EnableSubtitle(index); err != nil {
			zlog.Debug().Msgf("playback: ignoring subtitle selection: %v", err)
		}
		return nil
	})
}

// DisableSubtitles turns subtitles off.
func (c *Controller) DisableSubtitles() error {
	return c.call("disable_subtitles", func() error {
		c.tracks.DisableSubtitles()
		return nil
	})
}

// Next moves to the next item. Returns false at the end of the playlist.
func (c *Controller) Next() (bool, error) {
	return c.navigate("next", func(n *playlist.Navigator) bool { return n.Next() })
}

// Previous moves to the previous item. Returns false at the start of the playlist.
func (c *Controller) Previous() (bool, error) {
	return c.navigate("previous", func(n *playlist.Navigator) bool { return n.Previous() })
}

// SelectItem jumps to item index.
func (c *Controller) SelectItem(index int) (bool, error) {
	return c.navigate("select_item", func(n *playlist.Navigator) bool { return n.Select(index) })
}

func (c *Controller) navigate(name string, move func(*playlist.Navigator) bool) (bool, error) {
	var moved bool
	err := c.call(name, func() error {
		if c.nav == nil {
			return ErrNoSession
		}
		moved = move(c.nav)
		if moved {
			c.changeItem()
		}
		return nil
	})
	return moved, err
}

// Gesture applies a drag update to brightness or volume.
func (c *Controller) Gesture(start gesture.Point, box gesture.Size, delta gesture.Point) error {
	return c.call("gesture", func() error {
		adj, ok := gesture.Map(start, box, delta)
		if !ok {
			return nil
		}
		switch adj.Target {
		case gesture.TargetBrightness:
			return c.writeBrightness(adj.Apply(c.brightness))
		default:
			return c.writeVolume(adj.Apply(c.volume))
		}
	})
}

// SetVolume sets the system volume from a slider.
func (c *Controller) SetVolume(level float64) error {
	return c.call("set_volume", func() error {
		return c.writeVolume(device.ClampVolume(level))
	})
}

// SetBrightness sets the screen brightness from a slider.
func (c *Controller) SetBrightness(level float64) error {
	return c.call("set_brightness", func() error {
		return c.writeBrightness(device.ClampBrightness(level))
	})
}

// SetControlsVisible reports whether the player controls are shown.
func (c *Controller) SetControlsVisible(visible bool) error {
	return c.call("set_controls_visible", func() error {
		c.controlsVisible = visible
		c.armControlsAutoHide()
		return nil
	})
}

// SetKeepAwake sets the user's keep-screen-on preference.
func (c *Controller) SetKeepAwake(enabled bool) error {
	return c.call("set_keep_awake", func() error {
		c.keepAwakePref = enabled
		return nil
	})
}

// Cancel abandons a pending resolution and returns to Idle.
func (c *Controller) Cancel() error {
	return c.call("cancel", func() error {
		if c.session.State == StateResolving {
			zlog.Info().Msgf("playback: resolution cancelled: item=%s", c.session.ItemID)
			c.teardown()
		}
		return nil
	})
}

// Retry reloads the current item after an error or cancellation.
func (c *Controller) Retry() error {
	return c.call("retry", func() error {
		if c.nav == nil {
			return ErrNoSession
		}
		if c.session.State != StateError && c.session.State != StateIdle {
			return nil
		}
		item, ok := c.nav.Current()
		if !ok {
			return ErrNoSession
		}
		c.session.Error = nil
		c.retriesUsed = 0
		c.beginResolve(item, c.lastPosition)
		return nil
	})
}

// Stop releases the engine and returns to Idle, keeping the playlist.
func (c *Controller) Stop() error {
	return c.call("stop", func() error {
		c.teardown()
		return nil
	})
}

func (c *Controller) writeVolume(level float64) error {
	if c.controls == nil {
		c.volume = level
		return nil
	}
	if err := c.controls.SetVolume(level); err != nil {
		return c.controlWriteFailed("volume", err)
	}
	c.volume = level
	c.permissionRequired = false
	return nil
}

func (c *Controller) writeBrightness(level float64) error {
	if c.controls == nil {
		c.brightness = level
		return nil
	}
	if err := c.controls.SetBrightness(level); err != nil {
		return c.controlWriteFailed("brightness", err)
	}
	c.brightness = level
	c.permissionRequired = false
	return nil
}

func (c *Controller) controlWriteFailed(what string, err error) error {
	if errors.Is(err, device.ErrPermissionRequired) {
		c.permissionRequired = true
		zlog.Warn().Msgf("playback: %s write needs a system permission", what)
		return err
	}
	return errors.Wrapf(err, "failed to set %s", what)
}

// syncSystemLevels re-reads volume and brightness for display.
func (c *Controller) syncSystemLevels() {
	if c.controls == nil {
		return
	}
	if v, err := c.controls.Volume(); err == nil {
		c.volume = device.ClampVolume(v)
	} else {
		zlog.Debug().Msgf("playback: failed to read volume: %v", err)
	}
	if b, err := c.controls.Brightness(); err == nil {
		c.brightness = device.ClampBrightness(b)
	} else {
		zlog.Debug().Msgf("playback: failed to read brightness: %v", err)
	}
}

func clampSpeed(f float64) float64 {
	if f < MinSpeed {
		return MinSpeed
	}
	if f > MaxSpeed {
		return MaxSpeed
	}
	return f
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

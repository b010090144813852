// Package sim provides a simulated media engine. It models startup latency,
// download bandwidth, buffering and rendition selection on a virtual clock
// so the playback controller can run end to end without a decoder.
package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/skystream/internal/app/playback"
	"github.com/osa030/skystream/internal/domain/media"
)

// ErrReleased is returned by Prepare on a released engine.
var ErrReleased = errors.New("engine released")

// Rendition ladder the simulated stream offers, highest first.
var renditions = []media.Resolution{
	{Width: 1920, Height: 1080},
	{Width: 1280, Height: 720},
	{Width: 854, Height: 480},
	{Width: 640, Height: 360},
	{Width: 426, Height: 240},
}

// Engine is a simulated playback.Engine.
type Engine struct {
	config  Config
	preload bool
	sink    func(playback.EngineEvent)

	mu            sync.Mutex
	src           media.Source
	prepared      bool
	started       bool // Startup delay elapsed
	failed        bool
	released      bool
	state         playback.EngineState
	playWhenReady bool
	playing       bool
	elapsed       time.Duration
	position      time.Duration
	buffered      time.Duration
	speed         float64
	constraint    media.QualityConstraint
	rendition     media.Resolution
	overrides     map[media.TrackKind]any
	pending       []playback.EngineEvent

	// Tick loop, nil in manual mode
	done   chan struct{}
	exited chan struct{}
	manual bool
}

// New creates an engine that reports events to sink from its own goroutine.
func New(cfg Config, opts playback.EngineOptions, sink func(playback.EngineEvent)) *Engine {
	return &Engine{
		config:     cfg,
		preload:    opts.Preload,
		sink:       sink,
		state:      playback.EngineIdle,
		speed:      1.0,
		constraint: media.Auto(),
		overrides:  make(map[media.TrackKind]any),
	}
}

// newManual creates an engine that only advances on Step.
func newManual(cfg Config, opts playback.EngineOptions, sink func(playback.EngineEvent)) *Engine {
	e := New(cfg, opts, sink)
	e.manual = true
	return e
}

// Factory returns a playback.EngineFactory producing simulated engines.
func Factory(cfg Config) playback.EngineFactory {
	return func(opts playback.EngineOptions, sink func(playback.EngineEvent)) playback.Engine {
		return New(cfg, opts, sink)
	}
}

// Prepare loads src and starts buffering.
func (e *Engine) Prepare(src media.Source) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.released {
		return ErrReleased
	}
	if e.prepared {
		return errors.New("engine already prepared")
	}
	if src.URL == "" {
		return errors.New("source url is empty")
	}

	e.src = src
	e.prepared = true
	e.rendition = e.selectRendition()
	e.setState(playback.EngineBuffering)
	zlog.Debug().Msgf("sim: prepared: url=%s, format=%s, preload=%t", src.URL, src.Format, e.preload)

	if !e.manual {
		e.done = make(chan struct{})
		e.exited = make(chan struct{})
		go e.run(e.done, e.exited)
	}
	return nil
}

func (e *Engine) run(done <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)
	ticker := time.NewTicker(e.config.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			e.Step(e.config.Tick)
		}
	}
}

// Step advances the simulation by dt and delivers the resulting events.
func (e *Engine) Step(dt time.Duration) {
	e.mu.Lock()
	if e.released || !e.prepared || e.failed {
		e.mu.Unlock()
		return
	}
	e.advance(dt)
	events := e.pending
	e.pending = nil
	e.mu.Unlock()

	for _, ev := range events {
		e.sink(ev)
	}
}

// advance runs one simulation step. Called with mu held.
func (e *Engine) advance(dt time.Duration) {
	e.elapsed += dt

	if !e.started {
		if e.elapsed < e.config.StartupDelay {
			return
		}
		e.started = true
		if e.config.FailCode != 0 {
			e.failed = true
			e.setPlaying(false)
			e.emit(playback.EngineEvent{
				Type:       playback.EventError,
				Code:       e.config.FailCode,
				HTTPStatus: e.config.FailHTTPStatus,
				Message:    fmt.Sprintf("simulated failure %d", e.config.FailCode),
			})
			return
		}
		e.emit(playback.EngineEvent{Type: playback.EventTracksChanged, Tracks: e.trackReport()})
	}

	e.download(dt)

	switch e.state {
	case playback.EngineBuffering:
		if e.buffered >= e.config.Duration || e.buffered-e.position >= e.config.ResumeBuffer {
			e.setState(playback.EngineReady)
			e.setPlaying(e.playWhenReady && !e.preload)
		}
	case playback.EngineReady:
		if !e.playWhenReady || e.preload {
			return
		}
		e.position += time.Duration(float64(dt) * e.speed)
		switch {
		case e.position >= e.config.Duration:
			e.position = e.config.Duration
			e.setPlaying(false)
			e.setState(playback.EngineEnded)
		case e.position >= e.buffered:
			e.position = e.buffered
			e.setPlaying(false)
			e.setState(playback.EngineBuffering)
		}
	}
}

// download grows the buffer according to bandwidth and the rendition bitrate.
func (e *Engine) download(dt time.Duration) {
	if e.stalled() {
		return
	}
	bitrate := float64(e.config.BitrateKbps) * float64(e.rendition.Pixels()) / float64(renditions[0].Pixels())
	if bitrate <= 0 {
		return
	}
	rate := float64(e.config.BandwidthKbps) / bitrate // media seconds per second
	e.buffered += time.Duration(float64(dt) * rate)

	limit := e.position + e.config.MaxBuffer
	if e.preload {
		limit = e.config.PreloadBuffer
	}
	if limit > e.config.Duration {
		limit = e.config.Duration
	}
	if e.buffered > limit {
		e.buffered = limit
	}
}

func (e *Engine) stalled() bool {
	if e.config.StallEvery <= 0 || e.config.StallFor <= 0 {
		return false
	}
	return e.elapsed%e.config.StallEvery < e.config.StallFor
}

// selectRendition picks the video size for the current constraint.
// In auto mode the highest rendition the bandwidth sustains is used.
func (e *Engine) selectRendition() media.Resolution {
	switch e.constraint.Kind {
	case media.ConstraintForceMaximum:
		return renditions[0]
	case media.ConstraintForceMinimum:
		return renditions[len(renditions)-1]
	case media.ConstraintMaxResolution:
		for _, r := range renditions {
			if r.Width <= e.constraint.Max.Width && r.Height <= e.constraint.Max.Height {
				return r
			}
		}
		return renditions[len(renditions)-1]
	default:
		top := float64(renditions[0].Pixels())
		for _, r := range renditions {
			if float64(e.config.BitrateKbps)*float64(r.Pixels())/top <= float64(e.config.BandwidthKbps) {
				return r
			}
		}
		return renditions[len(renditions)-1]
	}
}

func (e *Engine) trackReport() []media.RawTrack {
	report := []media.RawTrack{{ID: "video", Kind: media.KindVideo, Supported: true, Handle: 0}}
	for i, lang := range e.config.AudioLanguages {
		report = append(report, media.RawTrack{
			ID:        fmt.Sprintf("audio-%d", i),
			Kind:      media.KindAudio,
			Language:  lang,
			Supported: true,
			Handle:    i,
		})
	}
	for i, lang := range e.config.SubtitleLanguages {
		report = append(report, media.RawTrack{
			ID:        fmt.Sprintf("text-%d", i),
			Kind:      media.KindSubtitle,
			Language:  lang,
			Supported: true,
			Handle:    i,
		})
	}
	return report
}

func (e *Engine) setState(s playback.EngineState) {
	if e.state == s {
		return
	}
	e.state = s
	e.emit(playback.EngineEvent{Type: playback.EventStateChanged, State: s})
}

func (e *Engine) setPlaying(playing bool) {
	if e.playing == playing {
		return
	}
	e.playing = playing
	e.emit(playback.EngineEvent{Type: playback.EventIsPlayingChanged, IsPlaying: playing})
}

func (e *Engine) emit(ev playback.EngineEvent) {
	e.pending = append(e.pending, ev)
}

// Play sets play-when-ready.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playWhenReady = true
	if e.state == playback.EngineReady && !e.preload {
		e.setPlaying(true)
	}
}

// Pause clears play-when-ready.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playWhenReady = false
	e.setPlaying(false)
}

// SeekTo moves the playhead. Seeking outside the buffer discards it.
func (e *Engine) SeekTo(position time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if position < 0 {
		position = 0
	}
	if position > e.config.Duration {
		position = e.config.Duration
	}
	inBuffer := position >= e.position && position <= e.buffered
	e.position = position
	if !inBuffer {
		e.buffered = position
	}
	if !e.prepared {
		return
	}
	if e.state == playback.EngineEnded || (!inBuffer && e.started) {
		e.setPlaying(false)
		e.setState(playback.EngineBuffering)
	}
}

// SetSpeed sets the playback rate.
func (e *Engine) SetSpeed(factor float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if factor > 0 {
		e.speed = factor
	}
}

// ApplyConstraint switches the rendition. Already buffered media keeps its
// rendition.
func (e *Engine) ApplyConstraint(c media.QualityConstraint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.constraint = c
	e.rendition = e.selectRendition()
	zlog.Debug().Msgf("sim: constraint applied: constraint=%s, rendition=%s", c, e.rendition)
}

// SetTrackOverride selects a track by its handle.
func (e *Engine) SetTrackOverride(kind media.TrackKind, handle any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.overrides[kind] = handle
}

// ClearTrackOverride restores automatic selection for kind.
func (e *Engine) ClearTrackOverride(kind media.TrackKind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.overrides, kind)
}

// Override returns the track override for kind.
func (e *Engine) Override(kind media.TrackKind) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, ok := e.overrides[kind]
	return h, ok
}

// Rendition returns the video size currently downloaded.
func (e *Engine) Rendition() media.Resolution {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rendition
}

// Position returns the playhead position.
func (e *Engine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// Duration returns the media duration, 0 until the media is loaded.
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return 0
	}
	return e.config.Duration
}

// BufferedPosition returns how far the media is buffered.
func (e *Engine) BufferedPosition() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffered
}

// Release stops the tick loop. No events are delivered after it returns.
func (e *Engine) Release() {
	e.mu.Lock()
	if e.released {
		e.mu.Unlock()
		return
	}
	e.released = true
	e.pending = nil
	done, exited := e.done, e.exited
	url := e.src.URL
	e.mu.Unlock()

	if done != nil {
		close(done)
		<-exited
	}
	zlog.Debug().Msgf("sim: released: url=%s", url)
}

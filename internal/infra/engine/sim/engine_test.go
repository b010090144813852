package sim

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/osa030/skystream/internal/app/playback"
	"github.com/osa030/skystream/internal/domain/media"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu     sync.Mutex
	events []playback.EngineEvent
}

func (r *recorder) sink(ev playback.EngineEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []playback.EngineEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]playback.EngineEvent(nil), r.events...)
}

// states returns the reported engine states in order.
func (r *recorder) states() []playback.EngineState {
	var out []playback.EngineState
	for _, ev := range r.all() {
		if ev.Type == playback.EventStateChanged {
			out = append(out, ev.State)
		}
	}
	return out
}

func testConfig() Config {
	return Config{
		Tick:           100 * time.Millisecond,
		StartupDelay:   200 * time.Millisecond,
		Duration:       10 * time.Second,
		BandwidthKbps:  8000,
		BitrateKbps:    4000,
		MaxBuffer:      50 * time.Second,
		ResumeBuffer:   time.Second,
		PreloadBuffer:  3 * time.Second,
		AudioLanguages: []string{"en", "ja"},
	}
}

func steps(e *Engine, n int) {
	for range n {
		e.Step(100 * time.Millisecond)
	}
}

var src = media.NewSource("https://cdn.test/a.mp4", "video/mp4", nil)

func TestEngine_PlaysToEnd(t *testing.T) {
	rec := &recorder{}
	e := newManual(testConfig(), playback.EngineOptions{}, rec.sink)

	require.NoError(t, e.Prepare(src))
	e.Play()
	assert.Equal(t, time.Duration(0), e.Duration())

	steps(e, 200)

	assert.Equal(t, []playback.EngineState{
		playback.EngineBuffering,
		playback.EngineReady,
		playback.EngineEnded,
	}, rec.states())
	assert.Equal(t, 10*time.Second, e.Position())
	assert.Equal(t, 10*time.Second, e.Duration())
	assert.Equal(t, 10*time.Second, e.BufferedPosition())

	events := rec.all()
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, playback.EventTracksChanged, events[1].Type)
}

func TestEngine_TrackReport(t *testing.T) {
	cfg := testConfig()
	cfg.SubtitleLanguages = []string{"fr"}
	rec := &recorder{}
	e := newManual(cfg, playback.EngineOptions{}, rec.sink)

	require.NoError(t, e.Prepare(src))
	steps(e, 2)

	var report []media.RawTrack
	for _, ev := range rec.all() {
		if ev.Type == playback.EventTracksChanged {
			report = ev.Tracks
		}
	}
	require.Len(t, report, 4)
	assert.Equal(t, media.KindVideo, report[0].Kind)
	assert.Equal(t, "ja", report[2].Language)
	assert.Equal(t, media.KindSubtitle, report[3].Kind)

	e.SetTrackOverride(media.KindAudio, report[2].Handle)
	h, ok := e.Override(media.KindAudio)
	require.True(t, ok)
	assert.Equal(t, 1, h)

	e.ClearTrackOverride(media.KindAudio)
	_, ok = e.Override(media.KindAudio)
	assert.False(t, ok)
}

func TestEngine_Rebuffers(t *testing.T) {
	cfg := testConfig()
	cfg.BandwidthKbps = 2000
	rec := &recorder{}
	e := newManual(cfg, playback.EngineOptions{}, rec.sink)
	e.ApplyConstraint(media.ForceMaximum())

	require.NoError(t, e.Prepare(src))
	e.Play()
	steps(e, 100)

	states := rec.states()
	require.GreaterOrEqual(t, len(states), 3)
	assert.Equal(t, playback.EngineReady, states[1])
	assert.Equal(t, playback.EngineBuffering, states[2])
}

func TestEngine_PauseHoldsPosition(t *testing.T) {
	e := newManual(testConfig(), playback.EngineOptions{}, func(playback.EngineEvent) {})

	require.NoError(t, e.Prepare(src))
	e.Play()
	steps(e, 20)
	e.Pause()
	pos := e.Position()
	steps(e, 20)

	assert.Greater(t, pos, time.Duration(0))
	assert.Equal(t, pos, e.Position())
}

func TestEngine_SeekOutsideBuffer(t *testing.T) {
	rec := &recorder{}
	e := newManual(testConfig(), playback.EngineOptions{}, rec.sink)

	require.NoError(t, e.Prepare(src))
	e.Play()
	steps(e, 10)
	e.SeekTo(8 * time.Second)
	steps(e, 1)

	assert.Equal(t, 8*time.Second, e.Position())
	states := rec.states()
	assert.Equal(t, playback.EngineBuffering, states[len(states)-1])
}

func TestEngine_SpeedScalesProgress(t *testing.T) {
	e := newManual(testConfig(), playback.EngineOptions{}, func(playback.EngineEvent) {})
	e.SetSpeed(2)

	require.NoError(t, e.Prepare(src))
	e.Play()
	steps(e, 7) // Ready after the sixth step
	assert.Equal(t, 200*time.Millisecond, e.Position())
}

func TestEngine_PreloadIsCapped(t *testing.T) {
	rec := &recorder{}
	e := newManual(testConfig(), playback.EngineOptions{Preload: true}, rec.sink)

	require.NoError(t, e.Prepare(src))
	e.Play()
	steps(e, 100)

	assert.Equal(t, time.Duration(0), e.Position())
	assert.Equal(t, 3*time.Second, e.BufferedPosition())
	for _, ev := range rec.all() {
		assert.False(t, ev.Type == playback.EventIsPlayingChanged && ev.IsPlaying)
	}
}

func TestEngine_Failure(t *testing.T) {
	cfg := testConfig()
	cfg.FailCode = playback.CodeBadHTTPStatus
	cfg.FailHTTPStatus = 401
	rec := &recorder{}
	e := newManual(cfg, playback.EngineOptions{}, rec.sink)

	require.NoError(t, e.Prepare(src))
	e.Play()
	steps(e, 10)

	events := rec.all()
	last := events[len(events)-1]
	assert.Equal(t, playback.EventError, last.Type)
	assert.Equal(t, playback.CodeBadHTTPStatus, last.Code)
	assert.Equal(t, 401, last.HTTPStatus)

	n := len(events)
	steps(e, 10)
	assert.Len(t, rec.all(), n)
}

func TestEngine_Prepare(t *testing.T) {
	e := newManual(testConfig(), playback.EngineOptions{}, func(playback.EngineEvent) {})

	assert.Error(t, e.Prepare(media.Source{}))
	require.NoError(t, e.Prepare(src))
	assert.Error(t, e.Prepare(src))

	e.Release()
	e.Release()
	assert.ErrorIs(t, newReleased(t).Prepare(src), ErrReleased)
}

func newReleased(t *testing.T) *Engine {
	t.Helper()
	e := newManual(testConfig(), playback.EngineOptions{}, func(playback.EngineEvent) {})
	e.Release()
	return e
}

func TestEngine_SelectRendition(t *testing.T) {
	tests := []struct {
		name       string
		bandwidth  int
		constraint media.QualityConstraint
		want       media.Resolution
	}{
		{"auto with headroom", 8000, media.Auto(), media.Resolution{Width: 1920, Height: 1080}},
		{"auto constrained bandwidth", 2000, media.Auto(), media.Resolution{Width: 1280, Height: 720}},
		{"auto starved", 100, media.Auto(), media.Resolution{Width: 426, Height: 240}},
		{"force maximum", 100, media.ForceMaximum(), media.Resolution{Width: 1920, Height: 1080}},
		{"force minimum", 8000, media.ForceMinimum(), media.Resolution{Width: 426, Height: 240}},
		{"cap 480p", 8000, media.MaxResolution(854, 480), media.Resolution{Width: 854, Height: 480}},
		{"cap between rungs", 8000, media.MaxResolution(1000, 600), media.Resolution{Width: 854, Height: 480}},
		{"cap below ladder", 8000, media.MaxResolution(100, 100), media.Resolution{Width: 426, Height: 240}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.BandwidthKbps = tt.bandwidth
			e := newManual(cfg, playback.EngineOptions{}, func(playback.EngineEvent) {})
			e.ApplyConstraint(tt.constraint)
			assert.Equal(t, tt.want, e.Rendition())
		})
	}
}

func TestEngine_TickLoopStopsOnRelease(t *testing.T) {
	cfg := testConfig()
	cfg.Tick = 5 * time.Millisecond
	cfg.StartupDelay = 0
	cfg.ResumeBuffer = 0

	rec := &recorder{}
	e := New(cfg, playback.EngineOptions{}, rec.sink)
	require.NoError(t, e.Prepare(src))
	e.Play()

	require.Eventually(t, func() bool {
		return len(rec.all()) >= 3
	}, time.Second, 5*time.Millisecond)

	e.Release()
	n := len(rec.all())
	time.Sleep(30 * time.Millisecond)
	assert.Len(t, rec.all(), n)
}

func TestFactory(t *testing.T) {
	factory := Factory(testConfig())
	eng := factory(playback.EngineOptions{Preload: true}, func(playback.EngineEvent) {})

	e, ok := eng.(*Engine)
	require.True(t, ok)
	assert.True(t, e.preload)
	eng.Release()
}

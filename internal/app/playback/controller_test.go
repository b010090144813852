package playback

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/osa030/skystream/internal/app/gesture"
	"github.com/osa030/skystream/internal/app/tracks"
	"github.com/osa030/skystream/internal/domain/device"
	"github.com/osa030/skystream/internal/domain/media"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type harness struct {
	c        *Controller
	engines  *fakeEngines
	resolver *fakeResolver
	revoker  *fakeRevoker
	controls *fakeControls
	clock    *fakeClock
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PollInterval = time.Hour
	cfg.RetryDelay = 10 * time.Millisecond
	cfg.PreloadDelay = 0
	cfg.ControlsAutoHide = 0
	return cfg
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		engines:  &fakeEngines{},
		resolver: newFakeResolver(),
		revoker:  &fakeRevoker{},
		controls: &fakeControls{volume: 0.5, brightness: 0.5},
		clock:    newFakeClock(),
	}
	cfg.Now = h.clock.Now
	c, err := NewController(cfg, Dependencies{
		Engines:     h.engines.factory,
		Resolver:    h.resolver,
		Controls:    h.controls,
		Credentials: h.revoker,
	})
	require.NoError(t, err)
	h.c = c
	t.Cleanup(c.Close)
	return h
}

func items(ids ...string) []media.Item {
	out := make([]media.Item, len(ids))
	for i, id := range ids {
		out[i] = media.Item{ID: id, Title: id, Origin: media.OriginCloud}
	}
	return out
}

func (h *harness) waitState(t *testing.T, want State) Snapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.c.Snapshot().Session.State == want
	}, waitFor, tick, "state did not become %s (now %s)", want, h.c.Snapshot().Session.State)
	return h.c.Snapshot()
}

func (h *harness) waitEngine(t *testing.T, i int) *fakeEngine {
	t.Helper()
	require.Eventually(t, func() bool { return h.engines.get(i) != nil }, waitFor, tick)
	return h.engines.get(i)
}

// startPlaying opens items and drives the first engine to Playing.
func (h *harness) startPlaying(t *testing.T, ids ...string) *fakeEngine {
	t.Helper()
	require.NoError(t, h.c.Open(items(ids...), 0))
	e := h.waitEngine(t, 0)
	h.waitState(t, StatePreparing)
	e.emit(EngineEvent{Type: EventStateChanged, State: EngineReady})
	h.waitState(t, StatePlaying)
	return e
}

func TestNewController_RequiresDependencies(t *testing.T) {
	_, err := NewController(testConfig(), Dependencies{Resolver: newFakeResolver()})
	assert.Error(t, err)

	_, err = NewController(testConfig(), Dependencies{Engines: (&fakeEngines{}).factory})
	assert.Error(t, err)
}

func TestController_InitialSnapshot(t *testing.T) {
	h := newHarness(t, testConfig())

	snap := h.c.Snapshot()
	assert.Equal(t, StateIdle, snap.Session.State)
	assert.Equal(t, 1.0, snap.Session.Speed)
	assert.Equal(t, tracks.None, snap.Session.SelectedAudio)
	assert.Equal(t, 0.5, snap.Volume)
	assert.Equal(t, 0.5, snap.Brightness)
	assert.True(t, snap.Session.QualityAuto)
}

func TestController_OpenEmptyPlaylist(t *testing.T) {
	h := newHarness(t, testConfig())
	err := h.c.Open(nil, 0)
	assert.True(t, errors.Is(err, ErrNoSession))
}

func TestController_PrepareAppliesSessionSettings(t *testing.T) {
	h := newHarness(t, testConfig())
	require.NoError(t, h.c.SetSpeed(1.5))

	e := h.startPlaying(t, "a")

	e.mu.Lock()
	defer e.mu.Unlock()
	require.Len(t, e.prepared, 1)
	assert.Equal(t, "https://cdn.test/a.mp4", e.prepared[0].URL)
	assert.Equal(t, []float64{1.5}, e.speeds)
	assert.Equal(t, media.Auto(), e.constraints[0])
	assert.Equal(t, 1, e.plays)
}

// Scenario A: item 0 ends while playing, the controller advances and resolves item 1.
func TestController_EndAdvancesToNextItem(t *testing.T) {
	h := newHarness(t, testConfig())
	h.resolver.block("b")

	e := h.startPlaying(t, "a", "b", "c")
	e.setTelemetry(40*time.Second, time.Minute, time.Minute)

	e.emit(EngineEvent{Type: EventStateChanged, State: EngineEnded})

	require.Eventually(t, func() bool {
		s := h.c.Snapshot()
		return s.Session.State == StateResolving && s.Session.ItemID == "b"
	}, waitFor, tick)

	snap := h.c.Snapshot()
	assert.Equal(t, 1, snap.Playlist.Index)
	assert.Equal(t, time.Duration(0), snap.Session.Position)
	assert.True(t, e.isReleased())
}

func TestController_EndOfLastItem(t *testing.T) {
	h := newHarness(t, testConfig())
	e := h.startPlaying(t, "a")

	e.emit(EngineEvent{Type: EventStateChanged, State: EngineEnded})
	snap := h.waitState(t, StateEnded)
	assert.Equal(t, time.Minute, snap.Session.Position)
	assert.False(t, e.isReleased())

	// Play from Ended restarts the item.
	require.NoError(t, h.c.Play())
	snap = h.waitState(t, StatePlaying)
	assert.Equal(t, time.Duration(0), snap.Session.Position)
	assert.Contains(t, e.seekHistory(), time.Duration(0))
}

// Scenario B: AuthExpired during resolution fails without preparing and
// clears credentials exactly once.
func TestController_ResolveAuthExpired(t *testing.T) {
	h := newHarness(t, testConfig())
	h.resolver.fail("c", errors.Mark(errors.New("token rejected"), media.ErrAuthExpired))

	require.NoError(t, h.c.Open(items("a", "b", "c"), 2))

	snap := h.waitState(t, StateError)
	require.NotNil(t, snap.Session.Error)
	assert.Equal(t, KindAuthExpired, snap.Session.Error.Kind)
	assert.Equal(t, "Authentication expired. Please sign in again.", snap.Session.Error.Message)
	assert.Equal(t, 0, h.engines.count())
	assert.Equal(t, 1, h.revoker.clears())
}

func TestController_ResolveErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"network", errors.Mark(errors.New("dial"), media.ErrNetwork), KindNetworkFailure},
		{"not found", errors.Mark(errors.New("404"), media.ErrNotFound), KindNotFound},
		{"unknown", errors.New("boom"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, testConfig())
			h.resolver.fail("a", tt.err)

			require.NoError(t, h.c.Open(items("a"), 0))
			snap := h.waitState(t, StateError)
			assert.Equal(t, tt.want, snap.Session.Error.Kind)
			assert.Equal(t, 0, h.revoker.clears())
		})
	}
}

// Scenario C: 4s of buffering downgrades one step, a healthy buffer recovers at once.
func TestController_QualityAdaptation(t *testing.T) {
	cfg := testConfig()
	cfg.PollInterval = 5 * time.Millisecond
	h := newHarness(t, cfg)
	e := h.startPlaying(t, "a")

	e.emit(EngineEvent{Type: EventStateChanged, State: EngineBuffering})
	h.waitState(t, StateBuffering)

	h.clock.Advance(4 * time.Second)
	require.Eventually(t, func() bool {
		return e.lastConstraint() == media.MaxResolution(854, 480)
	}, waitFor, tick)
	require.Eventually(t, func() bool {
		return h.c.Snapshot().Session.Quality.MoreRestrictiveThan(media.Auto())
	}, waitFor, tick)

	e.setTelemetry(10*time.Second, time.Minute, 16*time.Second)
	h.clock.Advance(time.Second)
	e.emit(EngineEvent{Type: EventStateChanged, State: EngineReady})

	h.waitState(t, StatePlaying)
	require.Eventually(t, func() bool {
		return e.lastConstraint() == media.Auto()
	}, waitFor, tick)
}

func TestController_ManualQualityDisablesAdaptation(t *testing.T) {
	cfg := testConfig()
	cfg.PollInterval = 5 * time.Millisecond
	h := newHarness(t, cfg)
	e := h.startPlaying(t, "a")

	require.NoError(t, h.c.SetQualityMode(media.ForceMinimum()))
	assert.Equal(t, media.ForceMinimum(), e.lastConstraint())

	e.emit(EngineEvent{Type: EventStateChanged, State: EngineBuffering})
	h.waitState(t, StateBuffering)
	h.clock.Advance(10 * time.Second)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, media.ForceMinimum(), e.lastConstraint())
	assert.False(t, h.c.Snapshot().Session.QualityAuto)
}

func TestController_PlayIsIdempotent(t *testing.T) {
	h := newHarness(t, testConfig())
	e := h.startPlaying(t, "a")

	require.NoError(t, h.c.Play())
	first := h.c.Snapshot().Session
	plays := e.playCount()

	require.NoError(t, h.c.Play())
	second := h.c.Snapshot().Session

	assert.Equal(t, first, second)
	assert.Equal(t, plays, e.playCount())
}

func TestController_PauseAndBufferingResume(t *testing.T) {
	h := newHarness(t, testConfig())
	e := h.startPlaying(t, "a")

	require.NoError(t, h.c.Pause())
	assert.Equal(t, StatePaused, h.c.Snapshot().Session.State)

	e.emit(EngineEvent{Type: EventStateChanged, State: EngineBuffering})
	h.waitState(t, StateBuffering)
	e.emit(EngineEvent{Type: EventStateChanged, State: EngineReady})
	h.waitState(t, StatePaused)
}

func TestController_SeekClamps(t *testing.T) {
	h := newHarness(t, testConfig())
	e := h.startPlaying(t, "a")

	tests := []struct {
		name   string
		target time.Duration
		want   time.Duration
	}{
		{"negative", -5 * time.Second, 0},
		{"inside", 30 * time.Second, 30 * time.Second},
		{"past end", 2 * time.Minute, time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, h.c.Seek(tt.target))
			assert.Equal(t, tt.want, h.c.Snapshot().Session.Position)
			seeks := e.seekHistory()
			assert.Equal(t, tt.want, seeks[len(seeks)-1])
		})
	}
}

func TestController_SeekBeforeDurationKnown(t *testing.T) {
	h := newHarness(t, testConfig())
	require.NoError(t, h.c.Open(items("a"), 0))
	e := h.waitEngine(t, 0)
	h.waitState(t, StatePreparing)
	e.setTelemetry(0, 0, 0)

	require.NoError(t, h.c.Seek(90*time.Second))
	assert.Equal(t, 90*time.Second, h.c.Snapshot().Session.Position)
	assert.Equal(t, []time.Duration{90 * time.Second}, e.seekHistory())

	require.NoError(t, h.c.Seek(-time.Second))
	assert.Equal(t, time.Duration(0), h.c.Snapshot().Session.Position)

	e.setTelemetry(0, time.Minute, 0)
	require.NoError(t, h.c.Seek(90*time.Second))
	assert.Equal(t, time.Minute, h.c.Snapshot().Session.Position)
}

func TestController_SetSpeedClamps(t *testing.T) {
	h := newHarness(t, testConfig())

	require.NoError(t, h.c.SetSpeed(5))
	assert.Equal(t, MaxSpeed, h.c.Snapshot().Session.Speed)

	require.NoError(t, h.c.SetSpeed(0.1))
	assert.Equal(t, MinSpeed, h.c.Snapshot().Session.Speed)
}

func TestController_CancelDiscardsPendingResolution(t *testing.T) {
	h := newHarness(t, testConfig())
	h.resolver.block("a")

	require.NoError(t, h.c.Open(items("a"), 0))
	h.waitState(t, StateResolving)

	require.NoError(t, h.c.Cancel())
	assert.Equal(t, StateIdle, h.c.Snapshot().Session.State)

	// The cancelled resolver returns ctx.Err(); that result must be dropped.
	time.Sleep(30 * time.Millisecond)
	snap := h.c.Snapshot()
	assert.Equal(t, StateIdle, snap.Session.State)
	assert.Nil(t, snap.Session.Error)
	assert.Equal(t, 0, h.engines.count())
}

func TestController_ItemChangeDropsStaleResolution(t *testing.T) {
	h := newHarness(t, testConfig())
	gate := h.resolver.block("a")

	require.NoError(t, h.c.Open(items("a", "b"), 0))
	h.waitState(t, StateResolving)

	moved, err := h.c.Next()
	require.NoError(t, err)
	assert.True(t, moved)
	close(gate)

	e := h.waitEngine(t, 0)
	h.waitState(t, StatePreparing)
	assert.Equal(t, "https://cdn.test/b.mp4", e.prepared[0].URL)
	assert.Equal(t, 1, h.engines.count())
}

func TestController_NavigationBounds(t *testing.T) {
	h := newHarness(t, testConfig())
	require.NoError(t, h.c.Open(items("a", "b"), 0))

	moved, err := h.c.Previous()
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = h.c.Next()
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = h.c.Next()
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 1, h.c.Snapshot().Playlist.Index)

	moved, err = h.c.SelectItem(0)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, "a", h.c.Snapshot().Session.ItemID)
}

func TestController_NavigationWithoutPlaylist(t *testing.T) {
	h := newHarness(t, testConfig())
	_, err := h.c.Next()
	assert.True(t, errors.Is(err, ErrNoSession))
}

func TestController_PlayWithoutPlaylist(t *testing.T) {
	h := newHarness(t, testConfig())
	assert.True(t, errors.Is(h.c.Play(), ErrNoSession))
	assert.Equal(t, StateIdle, h.c.Snapshot().Session.State)
	assert.Zero(t, h.resolver.callCount())
}

func TestController_NetworkTimeoutRetriedOnce(t *testing.T) {
	h := newHarness(t, testConfig())
	first := h.startPlaying(t, "a")
	first.setTelemetry(20*time.Second, time.Minute, 25*time.Second)

	first.emit(EngineEvent{Type: EventError, Code: CodeNetworkConnectionTimeout, Message: "timeout"})

	second := h.waitEngine(t, 1)
	assert.True(t, first.isReleased())
	h.waitState(t, StatePreparing)
	assert.Equal(t, []time.Duration{20 * time.Second}, second.seekHistory())

	second.emit(EngineEvent{Type: EventError, Code: CodeNetworkConnectionFailed, Message: "offline"})
	snap := h.waitState(t, StateError)
	assert.Equal(t, KindNetworkTimeout, snap.Session.Error.Kind)
	assert.True(t, second.isReleased())
	assert.Equal(t, 2, h.engines.count())
}

func TestController_PlaybackErrors(t *testing.T) {
	tests := []struct {
		name        string
		event       EngineEvent
		want        ErrorKind
		wantRevokes int
	}{
		{
			name:        "unauthorized",
			event:       EngineEvent{Type: EventError, Code: CodeBadHTTPStatus, HTTPStatus: 401},
			want:        KindHTTPAuthFailure,
			wantRevokes: 1,
		},
		{
			name:  "server error",
			event: EngineEvent{Type: EventError, Code: CodeBadHTTPStatus, HTTPStatus: 500, Message: "500"},
			want:  KindUnclassified,
		},
		{
			name:  "decoder",
			event: EngineEvent{Type: EventError, Code: CodeDecodingFailed, Message: "bad frame"},
			want:  KindUnclassified,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, testConfig())
			e := h.startPlaying(t, "a")

			e.emit(tt.event)

			snap := h.waitState(t, StateError)
			assert.Equal(t, tt.want, snap.Session.Error.Kind)
			assert.True(t, e.isReleased())
			assert.Equal(t, tt.wantRevokes, h.revoker.clears())
			assert.Equal(t, 1, h.engines.count())
		})
	}
}

func TestController_RetryAfterError(t *testing.T) {
	h := newHarness(t, testConfig())
	h.resolver.fail("a", errors.Mark(errors.New("dial"), media.ErrNetwork))
	require.NoError(t, h.c.Open(items("a"), 0))
	h.waitState(t, StateError)

	h.resolver.fail("a", nil)
	require.NoError(t, h.c.Retry())

	h.waitEngine(t, 0)
	snap := h.waitState(t, StatePreparing)
	assert.Nil(t, snap.Session.Error)
}

func TestController_StopReleasesEngineSynchronously(t *testing.T) {
	h := newHarness(t, testConfig())
	e := h.startPlaying(t, "a")

	require.NoError(t, h.c.Stop())

	assert.True(t, e.isReleased())
	assert.Equal(t, StateIdle, h.c.Snapshot().Session.State)

	// Events from the released engine are ignored.
	e.emit(EngineEvent{Type: EventStateChanged, State: EngineReady})
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateIdle, h.c.Snapshot().Session.State)
}

func TestController_TrackSelection(t *testing.T) {
	h := newHarness(t, testConfig())
	e := h.startPlaying(t, "a")

	e.emit(EngineEvent{Type: EventTracksChanged, Tracks: []media.RawTrack{
		{ID: "a1", Kind: media.KindAudio, Language: "en", Supported: true, Handle: "h-a1"},
		{ID: "a2", Kind: media.KindAudio, Language: "ja", Supported: true, Handle: "h-a2"},
		{ID: "s1", Kind: media.KindSubtitle, Supported: true, Handle: "h-s1"},
	}})
	require.Eventually(t, func() bool {
		return len(h.c.Snapshot().AudioTracks) == 2
	}, waitFor, tick)

	require.NoError(t, h.c.SelectAudio(1))
	handle, ok := e.override(media.KindAudio)
	assert.True(t, ok)
	assert.Equal(t, "h-a2", handle)

	// Out of range is a silent no-op.
	require.NoError(t, h.c.SelectAudio(7))
	snap := h.c.Snapshot()
	assert.Equal(t, 1, snap.Session.SelectedAudio)
	assert.Nil(t, snap.Session.Error)

	require.NoError(t, h.c.EnableSubtitle(0))
	assert.True(t, h.c.Snapshot().Session.SubtitlesEnabled)

	require.NoError(t, h.c.DisableSubtitles())
	snap = h.c.Snapshot()
	assert.False(t, snap.Session.SubtitlesEnabled)
	assert.Len(t, snap.SubtitleTracks, 1)
	_, ok = e.override(media.KindSubtitle)
	assert.False(t, ok)
}

func TestController_Gesture(t *testing.T) {
	h := newHarness(t, testConfig())
	box := gesture.Size{Width: 1000, Height: 500}

	// Right half, drag up by a fifth of the height.
	require.NoError(t, h.c.Gesture(gesture.Point{X: 800, Y: 250}, box, gesture.Point{Y: -100}))
	assert.InDelta(t, 0.7, h.c.Snapshot().Volume, 1e-9)

	// Left half, drag far down: brightness stops at its floor.
	require.NoError(t, h.c.Gesture(gesture.Point{X: 100, Y: 250}, box, gesture.Point{Y: 1000}))
	assert.InDelta(t, device.MinBrightness, h.c.Snapshot().Brightness, 1e-9)
}

func TestController_PermissionRequired(t *testing.T) {
	h := newHarness(t, testConfig())
	h.controls.mu.Lock()
	h.controls.denied = true
	h.controls.mu.Unlock()

	err := h.c.SetVolume(0.9)
	assert.True(t, errors.Is(err, device.ErrPermissionRequired))

	snap := h.c.Snapshot()
	assert.True(t, snap.PermissionRequired)
	assert.Equal(t, 0.5, snap.Volume)

	h.controls.mu.Lock()
	h.controls.denied = false
	h.controls.mu.Unlock()

	require.NoError(t, h.c.SetBrightness(0.8))
	snap = h.c.Snapshot()
	assert.False(t, snap.PermissionRequired)
	assert.Equal(t, 0.8, snap.Brightness)
}

func TestController_WakeState(t *testing.T) {
	h := newHarness(t, testConfig())
	h.startPlaying(t, "a")

	snap := h.c.Snapshot()
	assert.True(t, snap.Wake.KeepAwake)
	assert.False(t, snap.Wake.HasDeadline())

	require.NoError(t, h.c.Pause())
	require.NoError(t, h.c.SetControlsVisible(true))
	snap = h.c.Snapshot()
	assert.True(t, snap.Wake.KeepAwake)
	assert.Equal(t, h.clock.Now().Add(testConfig().WakeTimeout), snap.Wake.Deadline)

	require.NoError(t, h.c.SetKeepAwake(false))
	snap = h.c.Snapshot()
	assert.False(t, snap.Wake.KeepAwake)
	assert.False(t, snap.KeepAwakeEnabled)
}

func TestController_WakeDeadlineExpires(t *testing.T) {
	cfg := testConfig()
	cfg.WakeTimeout = 20 * time.Millisecond
	h := newHarness(t, cfg)
	require.NoError(t, h.c.SetControlsVisible(true))
	require.True(t, h.c.Snapshot().Wake.KeepAwake)

	h.clock.Advance(time.Second)
	require.NoError(t, h.c.SetControlsVisible(false))

	require.Eventually(t, func() bool {
		return !h.c.Snapshot().Wake.KeepAwake
	}, waitFor, tick)
}

func TestController_ControlsAutoHide(t *testing.T) {
	cfg := testConfig()
	cfg.ControlsAutoHide = 20 * time.Millisecond
	h := newHarness(t, cfg)
	h.startPlaying(t, "a")

	require.NoError(t, h.c.SetControlsVisible(true))
	require.Eventually(t, func() bool {
		return !h.c.Snapshot().ControlsVisible
	}, waitFor, tick)
}

func TestController_PreloadReleasesAfterProbation(t *testing.T) {
	cfg := testConfig()
	cfg.PreloadDelay = 10 * time.Millisecond
	cfg.PreloadProbation = 10 * time.Millisecond
	h := newHarness(t, cfg)
	h.startPlaying(t, "a", "b")

	require.Eventually(t, func() bool {
		p := h.engines.preloadAt(0)
		return p != nil && p.isReleased()
	}, waitFor, tick)

	p := h.engines.preloadAt(0)
	assert.True(t, p.opts.Preload)
	assert.Equal(t, "https://cdn.test/b.mp4", p.prepared[0].URL)
	// Never promoted.
	assert.Equal(t, 1, h.engines.count())
	assert.Equal(t, "a", h.c.Snapshot().Session.ItemID)
}

func TestController_PollingUpdatesPosition(t *testing.T) {
	cfg := testConfig()
	cfg.PollInterval = 5 * time.Millisecond
	cfg.SystemSyncTicks = 1
	h := newHarness(t, cfg)
	e := h.startPlaying(t, "a")

	e.setTelemetry(12*time.Second, 90*time.Second, 20*time.Second)
	h.controls.mu.Lock()
	h.controls.volume = 0.25
	h.controls.mu.Unlock()

	require.Eventually(t, func() bool {
		s := h.c.Snapshot()
		return s.Session.Position == 12*time.Second && s.Session.Duration == 90*time.Second && s.Volume == 0.25
	}, waitFor, tick)
}

func TestController_ClosedRejectsIntents(t *testing.T) {
	h := newHarness(t, testConfig())
	e := h.startPlaying(t, "a")

	h.c.Close()

	assert.True(t, e.isReleased())
	assert.ErrorIs(t, h.c.Play(), ErrClosed)
	assert.Equal(t, StateIdle, h.c.Snapshot().Session.State)
}

func TestController_SinkReceivesOrderedSnapshots(t *testing.T) {
	var seqs []uint64
	c, err := NewController(testConfig(), Dependencies{
		Engines:  (&fakeEngines{}).factory,
		Resolver: newFakeResolver(),
		Sink: func(s Snapshot) {
			seqs = append(seqs, s.Seq)
		},
	})
	require.NoError(t, err)

	require.NoError(t, c.SetSpeed(1.25))
	require.NoError(t, c.SetKeepAwake(false))
	c.Close()

	require.GreaterOrEqual(t, len(seqs), 2)
	for i := 1; i < len(seqs); i++ {
		assert.Greater(t, seqs[i], seqs[i-1])
	}
}

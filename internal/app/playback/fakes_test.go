package playback

import (
	"context"
	"sync"
	"time"

	"github.com/osa030/skystream/internal/domain/device"
	"github.com/osa030/skystream/internal/domain/media"
)

// fakeEngine records the commands it receives.
type fakeEngine struct {
	mu          sync.Mutex
	opts        EngineOptions
	sink        func(EngineEvent)
	prepared    []media.Source
	plays       int
	pauses      int
	seeks       []time.Duration
	speeds      []float64
	constraints []media.QualityConstraint
	overrides   map[media.TrackKind]any
	position    time.Duration
	duration    time.Duration
	buffered    time.Duration
	released    bool
	prepareErr  error
}

func (e *fakeEngine) emit(ev EngineEvent) {
	e.sink(ev)
}

func (e *fakeEngine) Prepare(src media.Source) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prepared = append(e.prepared, src)
	return e.prepareErr
}

func (e *fakeEngine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.plays++
}

func (e *fakeEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauses++
}

func (e *fakeEngine) SeekTo(position time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seeks = append(e.seeks, position)
	e.position = position
}

func (e *fakeEngine) SetSpeed(factor float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speeds = append(e.speeds, factor)
}

func (e *fakeEngine) ApplyConstraint(c media.QualityConstraint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.constraints = append(e.constraints, c)
}

func (e *fakeEngine) SetTrackOverride(kind media.TrackKind, handle any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.overrides == nil {
		e.overrides = make(map[media.TrackKind]any)
	}
	e.overrides[kind] = handle
}

func (e *fakeEngine) ClearTrackOverride(kind media.TrackKind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.overrides, kind)
}

func (e *fakeEngine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

func (e *fakeEngine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

func (e *fakeEngine) BufferedPosition() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffered
}

func (e *fakeEngine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.released = true
}

func (e *fakeEngine) setTelemetry(position, duration, buffered time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = position
	e.duration = duration
	e.buffered = buffered
}

func (e *fakeEngine) isReleased() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.released
}

func (e *fakeEngine) playCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.plays
}

func (e *fakeEngine) lastConstraint() media.QualityConstraint {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.constraints) == 0 {
		return media.QualityConstraint{}
	}
	return e.constraints[len(e.constraints)-1]
}

func (e *fakeEngine) seekHistory() []time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]time.Duration(nil), e.seeks...)
}

func (e *fakeEngine) override(kind media.TrackKind) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, ok := e.overrides[kind]
	return h, ok
}

// fakeEngines is an EngineFactory that keeps every engine it creates.
type fakeEngines struct {
	mu       sync.Mutex
	engines  []*fakeEngine
	preloads []*fakeEngine
}

func (f *fakeEngines) factory(opts EngineOptions, sink func(EngineEvent)) Engine {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := &fakeEngine{opts: opts, sink: sink, duration: time.Minute}
	if opts.Preload {
		f.preloads = append(f.preloads, e)
	} else {
		f.engines = append(f.engines, e)
	}
	return e
}

func (f *fakeEngines) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.engines)
}

func (f *fakeEngines) get(i int) *fakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.engines) {
		return nil
	}
	return f.engines[i]
}

func (f *fakeEngines) preloadAt(i int) *fakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.preloads) {
		return nil
	}
	return f.preloads[i]
}

// fakeResolver resolves items to "https://cdn.test/<id>.mp4". Items listed in
// errs fail; items listed in gates block until the gate is closed or ctx ends.
type fakeResolver struct {
	mu    sync.Mutex
	errs  map[string]error
	gates map[string]chan struct{}
	calls []string
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		errs:  make(map[string]error),
		gates: make(map[string]chan struct{}),
	}
}

func (r *fakeResolver) Resolve(ctx context.Context, item media.Item) (media.Source, error) {
	r.mu.Lock()
	r.calls = append(r.calls, item.ID)
	gate := r.gates[item.ID]
	err := r.errs[item.ID]
	r.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return media.Source{}, ctx.Err()
		}
	}
	if err != nil {
		return media.Source{}, err
	}
	return media.NewSource("https://cdn.test/"+item.ID+".mp4", "video/mp4", nil), nil
}

func (r *fakeResolver) block(id string) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	gate := make(chan struct{})
	r.gates[id] = gate
	return gate
}

func (r *fakeResolver) fail(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs[id] = err
}

func (r *fakeResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// fakeRevoker counts credential clears.
type fakeRevoker struct {
	mu    sync.Mutex
	count int
}

func (r *fakeRevoker) ClearCredentials() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
}

func (r *fakeRevoker) clears() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// fakeControls holds system levels; writes fail while denied is set.
type fakeControls struct {
	mu         sync.Mutex
	volume     float64
	brightness float64
	denied     bool
}

func (s *fakeControls) Volume() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume, nil
}

func (s *fakeControls) SetVolume(level float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.denied {
		return device.ErrPermissionRequired
	}
	s.volume = level
	return nil
}

func (s *fakeControls) Brightness() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brightness, nil
}

func (s *fakeControls) SetBrightness(level float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.denied {
		return device.ErrPermissionRequired
	}
	s.brightness = level
	return nil
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

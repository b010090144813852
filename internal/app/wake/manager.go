// Package wake decides whether the display should be kept on.
package wake

import "time"

// DefaultTimeout is how long visible-but-idle controls keep the screen on.
const DefaultTimeout = 30 * time.Second

// Inputs are the signals the decision is based on.
type Inputs struct {
	IsPlaying             bool
	IsBuffering           bool
	ControlsVisible       bool
	UserPreferenceEnabled bool
}

// State is the wake decision. A zero Deadline means none.
type State struct {
	KeepAwake bool      `json:"keep_awake"`
	Deadline  time.Time `json:"deadline,omitzero"`
}

// HasDeadline reports whether the state expires.
func (s State) HasDeadline() bool {
	return !s.Deadline.IsZero()
}

// Manager evaluates wake rules and remembers the previous decision.
type Manager struct {
	timeout time.Duration
	state   State
}

// NewManager creates a manager. A non-positive timeout uses DefaultTimeout.
func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{timeout: timeout}
}

// State returns the last decision.
func (m *Manager) State() State {
	return m.state
}

// Evaluate applies the rules in priority order and returns the new state.
func (m *Manager) Evaluate(in Inputs, now time.Time) State {
	switch {
	case !in.UserPreferenceEnabled:
		m.state = State{}
	case in.IsPlaying || in.IsBuffering:
		m.state = State{KeepAwake: true}
	case in.ControlsVisible:
		m.state = State{KeepAwake: true, Deadline: now.Add(m.timeout)}
	case m.state.HasDeadline() && !now.Before(m.state.Deadline):
		m.state = State{}
	}
	return m.state
}

// Reset clears the decision.
func (m *Manager) Reset() {
	m.state = State{}
}

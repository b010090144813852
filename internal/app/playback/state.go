// Package playback provides the playback session controller.
package playback

import "github.com/cockroachdb/errors"

// State represents the playback session state.
type State int

const (
	StateIdle      State = iota // No item loaded
	StateResolving              // Waiting for the stream URL
	StatePreparing              // Engine is loading the source
	StateReady                  // Engine can play, not started
	StateBuffering              // Engine is stalled waiting for data
	StatePlaying                // Media is playing
	StatePaused                 // Media is paused
	StateEnded                  // Last item finished
	StateError                  // Session failed, see Session.Error
)

var allStates = []State{
	StateIdle, StateResolving, StatePreparing, StateReady, StateBuffering,
	StatePlaying, StatePaused, StateEnded, StateError,
}

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StatePreparing:
		return "preparing"
	case StateReady:
		return "ready"
	case StateBuffering:
		return "buffering"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range allStates {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return errors.Newf("unknown state %q", text)
}

// hasMedia reports whether an item is loaded in the engine.
func (s State) hasMedia() bool {
	switch s {
	case StatePreparing, StateReady, StateBuffering, StatePlaying, StatePaused, StateEnded:
		return true
	default:
		return false
	}
}

func stateNames() []string {
	names := make([]string, len(allStates))
	for i, s := range allStates {
		names[i] = s.String()
	}
	return names
}

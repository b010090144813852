package playback

import (
	"context"
	"time"

	"github.com/osa030/skystream/internal/app/tracks"
	"github.com/osa030/skystream/internal/domain/media"
)

// Engine is the media player the controller drives. Implementations decode,
// buffer and render; the controller only issues commands and reads telemetry.
type Engine interface {
	tracks.Selector

	Prepare(src media.Source) error
	Play()
	Pause()
	SeekTo(position time.Duration)
	SetSpeed(factor float64)
	ApplyConstraint(c media.QualityConstraint)

	Position() time.Duration
	Duration() time.Duration
	BufferedPosition() time.Duration

	// Release stops playback and frees all resources. No events may be
	// delivered after Release returns.
	Release()
}

// EngineOptions configures a new engine instance.
type EngineOptions struct {
	// Preload requests a resource-capped instance used only to warm up the
	// next item. It is never promoted to the primary player.
	Preload bool
}

// EngineFactory creates an engine that reports its events to sink.
type EngineFactory func(opts EngineOptions, sink func(EngineEvent)) Engine

// EngineState is the engine's own playback state.
type EngineState int

const (
	EngineIdle      EngineState = iota // No media
	EngineBuffering                    // Waiting for data
	EngineReady                        // Able to play
	EngineEnded                        // End of media reached
)

// String returns the string representation of the engine state.
func (s EngineState) String() string {
	switch s {
	case EngineIdle:
		return "idle"
	case EngineBuffering:
		return "buffering"
	case EngineReady:
		return "ready"
	case EngineEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// EngineEventType represents an engine event type.
type EngineEventType int

const (
	EventStateChanged     EngineEventType = iota // Engine state changed
	EventTracksChanged                           // Track report replaced
	EventError                                   // Fatal playback error
	EventIsPlayingChanged                        // Actual playing flag changed
)

// String returns the string representation of the event type.
func (e EngineEventType) String() string {
	switch e {
	case EventStateChanged:
		return "state_changed"
	case EventTracksChanged:
		return "tracks_changed"
	case EventError:
		return "error"
	case EventIsPlayingChanged:
		return "is_playing_changed"
	default:
		return "unknown"
	}
}

// Engine error codes.
const (
	CodeUnspecified              = 1000
	CodeNetworkConnectionFailed  = 2001
	CodeNetworkConnectionTimeout = 2002
	CodeBadHTTPStatus            = 2004
	CodeFileNotFound             = 2005
	CodeDecodingFailed           = 4001
)

// EngineEvent is an event reported by the engine.
type EngineEvent struct {
	Type      EngineEventType
	State     EngineState      // EventStateChanged
	Tracks    []media.RawTrack // EventTracksChanged
	IsPlaying bool             // EventIsPlayingChanged

	// EventError
	Code       int
	HTTPStatus int // Set with CodeBadHTTPStatus
	Message    string
}

// Resolver turns an item into a playable stream source. Implementations must
// return promptly once ctx is cancelled.
type Resolver interface {
	Resolve(ctx context.Context, item media.Item) (media.Source, error)
}

// SystemControls reads and writes system volume and brightness.
// Write failures caused by a missing permission are marked with
// device.ErrPermissionRequired.
type SystemControls interface {
	Volume() (float64, error)
	SetVolume(level float64) error
	Brightness() (float64, error)
	SetBrightness(level float64) error
}

// CredentialRevoker is signalled when the cloud credentials stop working.
type CredentialRevoker interface {
	ClearCredentials()
}

// SnapshotSink receives a snapshot after every processed intent or event.
// It is called on the controller goroutine and must not block.
type SnapshotSink func(Snapshot)

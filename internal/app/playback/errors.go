package playback

import (
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/osa030/skystream/internal/domain/media"
)

// Errors
var (
	ErrClosed    = errors.New("controller is closed")
	ErrNoSession = errors.New("no playlist loaded")
)

// ErrorKind classifies a session failure.
type ErrorKind int

const (
	// Resolution failures.
	KindNetworkFailure ErrorKind = iota + 1
	KindAuthExpired
	KindNotFound
	KindUnknown

	// Playback failures.
	KindNetworkTimeout
	KindHTTPAuthFailure
	KindUnclassified
)

// String returns the string representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNetworkFailure:
		return "network_failure"
	case KindAuthExpired:
		return "auth_expired"
	case KindNotFound:
		return "not_found"
	case KindUnknown:
		return "unknown"
	case KindNetworkTimeout:
		return "network_timeout"
	case KindHTTPAuthFailure:
		return "http_auth_failure"
	case KindUnclassified:
		return "unclassified"
	default:
		return "invalid"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ErrorKind) UnmarshalText(text []byte) error {
	for kind := KindNetworkFailure; kind <= KindUnclassified; kind++ {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return errors.Newf("unknown error kind %q", text)
}

// IsResolution reports whether the kind comes from stream resolution.
func (k ErrorKind) IsResolution() bool {
	return k >= KindNetworkFailure && k <= KindUnknown
}

// revokesCredentials reports whether the failure invalidates the cloud session.
func (k ErrorKind) revokesCredentials() bool {
	return k == KindAuthExpired || k == KindHTTPAuthFailure
}

// SessionError is the failure recorded on the session.
type SessionError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Error implements error.
func (e *SessionError) Error() string {
	return e.Kind.String() + ": " + e.Message
}

// classifyResolveError maps a resolver error to a session error.
func classifyResolveError(err error) SessionError {
	switch {
	case errors.Is(err, media.ErrAuthExpired):
		return SessionError{Kind: KindAuthExpired, Message: "Authentication expired. Please sign in again."}
	case errors.Is(err, media.ErrNotFound):
		return SessionError{Kind: KindNotFound, Message: "The video could not be found."}
	case errors.Is(err, media.ErrNetwork):
		return SessionError{Kind: KindNetworkFailure, Message: "Network error while loading the video."}
	default:
		return SessionError{Kind: KindUnknown, Message: "Failed to load video: " + err.Error()}
	}
}

// classifyEngineError maps an engine error event to a session error.
func classifyEngineError(ev EngineEvent) SessionError {
	msg := ev.Message
	if msg == "" {
		msg = "unknown error"
	}
	switch ev.Code {
	case CodeNetworkConnectionFailed, CodeNetworkConnectionTimeout:
		return SessionError{Kind: KindNetworkTimeout, Message: "Playback error: " + msg}
	case CodeBadHTTPStatus:
		if ev.HTTPStatus == http.StatusUnauthorized || ev.HTTPStatus == http.StatusForbidden {
			return SessionError{Kind: KindHTTPAuthFailure, Message: "Playback error: access denied by the server"}
		}
	}
	return SessionError{Kind: KindUnclassified, Message: "Playback error: " + msg}
}

package media

// TrackKind represents the type of an elementary stream.
type TrackKind int

const (
	KindVideo    TrackKind = iota // Video stream (never selectable here)
	KindAudio                     // Audio stream
	KindSubtitle                  // Text/subtitle stream
)

// String returns the string representation of the kind.
func (k TrackKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	case KindSubtitle:
		return "subtitle"
	default:
		return "unknown"
	}
}

// RawTrack is a track as reported by the media engine.
type RawTrack struct {
	ID        string    // Engine format ID, may be empty
	Kind      TrackKind // Stream type
	Language  string    // BCP-47 language code, may be empty
	Label     string    // Explicit label from the container, may be empty
	Supported bool      // Whether the engine can render this track
	Handle    any       // Engine-side addressing, relayed untouched
}

// TrackDescriptor is a selectable audio or subtitle track.
type TrackDescriptor struct {
	ID       string    `json:"id"`
	Kind     TrackKind `json:"kind"`
	Language string    `json:"language,omitempty"`
	Label    string    `json:"label"`
	Handle   any       `json:"-"`
}

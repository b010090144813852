// Package tracks provides audio and subtitle track bookkeeping for the current item.
package tracks

import (
	"fmt"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/skystream/internal/domain/media"
)

// ErrIndexOutOfRange is returned when a selection index is not within the current list.
var ErrIndexOutOfRange = errors.New("track index out of range")

// None is the selected index when no explicit track is chosen.
const None = -1

// Selector applies track overrides on the media engine.
type Selector interface {
	SetTrackOverride(kind media.TrackKind, handle any)
	ClearTrackOverride(kind media.TrackKind)
}

// Manager holds the selectable tracks of one item and the user's selection.
type Manager struct {
	selector Selector

	audio     []media.TrackDescriptor
	subtitles []media.TrackDescriptor

	selectedAudio    int
	selectedSubtitle int
	subtitlesEnabled bool
}

// NewManager creates a manager bound to selector. selector may be nil until
// an engine exists.
func NewManager(selector Selector) *Manager {
	return &Manager{
		selector:         selector,
		selectedAudio:    None,
		selectedSubtitle: None,
	}
}

// Reset drops all tracks and selections and binds the manager to a new
// selector. Called on every item change.
func (m *Manager) Reset(selector Selector) {
	m.selector = selector
	m.audio = nil
	m.subtitles = nil
	m.selectedAudio = None
	m.selectedSubtitle = None
	m.subtitlesEnabled = false
}

// Refresh rebuilds both lists from the engine's track report. A selection
// whose track is still reported follows it to its new index; otherwise the
// engine override for that kind is cleared and the selection reset.
func (m *Manager) Refresh(raw []media.RawTrack) (audio, subtitles []media.TrackDescriptor) {
	audio = make([]media.TrackDescriptor, 0)
	subtitles = make([]media.TrackDescriptor, 0)

	for i, rt := range raw {
		if !rt.Supported {
			continue
		}
		switch rt.Kind {
		case media.KindAudio:
			audio = append(audio, describe(rt, i, len(audio)+1))
		case media.KindSubtitle:
			subtitles = append(subtitles, describe(rt, i, len(subtitles)+1))
		}
	}

	m.selectedAudio = m.carry(media.KindAudio, m.audio, m.selectedAudio, audio)
	m.selectedSubtitle = m.carry(media.KindSubtitle, m.subtitles, m.selectedSubtitle, subtitles)
	m.subtitlesEnabled = m.subtitlesEnabled && m.selectedSubtitle != None
	m.audio = audio
	m.subtitles = subtitles

	zlog.Debug().Msgf("tracks: refreshed: audio=%d subtitles=%d", len(audio), len(subtitles))
	return m.Audio(), m.Subtitles()
}

// carry maps the selected index in prev to the same track ID in next.
func (m *Manager) carry(kind media.TrackKind, prev []media.TrackDescriptor, selected int, next []media.TrackDescriptor) int {
	if selected == None || selected >= len(prev) {
		return None
	}
	id := prev[selected].ID
	for i, d := range next {
		if d.ID == id {
			return i
		}
	}
	if m.selector != nil {
		m.selector.ClearTrackOverride(kind)
	}
	zlog.Debug().Msgf("tracks: selected %s track gone: id=%s", kind, id)
	return None
}

// SelectAudio overrides the engine's audio track.
func (m *Manager) SelectAudio(index int) error {
	if index < 0 || index >= len(m.audio) {
		return errors.Wrapf(ErrIndexOutOfRange, "audio index %d (have %d)", index, len(m.audio))
	}
	if m.selector != nil {
		m.selector.SetTrackOverride(media.KindAudio, m.audio[index].Handle)
	}
	m.selectedAudio = index
	return nil
}

// EnableSubtitle overrides the engine's subtitle track and turns subtitles on.
func (m *Manager) EnableSubtitle(index int) error {
	if index < 0 || index >= len(m.subtitles) {
		return errors.Wrapf(ErrIndexOutOfRange, "subtitle index %d (have %d)", index, len(m.subtitles))
	}
	if m.selector != nil {
		m.selector.SetTrackOverride(media.KindSubtitle, m.subtitles[index].Handle)
	}
	m.selectedSubtitle = index
	m.subtitlesEnabled = true
	return nil
}

// DisableSubtitles turns subtitles off. The subtitle list stays available.
func (m *Manager) DisableSubtitles() {
	if m.selector != nil {
		m.selector.ClearTrackOverride(media.KindSubtitle)
	}
	m.selectedSubtitle = None
	m.subtitlesEnabled = false
}

// Audio returns a copy of the audio list.
func (m *Manager) Audio() []media.TrackDescriptor {
	return clone(m.audio)
}

// Subtitles returns a copy of the subtitle list.
func (m *Manager) Subtitles() []media.TrackDescriptor {
	return clone(m.subtitles)
}

// SelectedAudio returns the selected audio index or None.
func (m *Manager) SelectedAudio() int {
	return m.selectedAudio
}

// SelectedSubtitle returns the selected subtitle index or None.
func (m *Manager) SelectedSubtitle() int {
	return m.selectedSubtitle
}

// SubtitlesEnabled reports whether a subtitle track is rendered.
func (m *Manager) SubtitlesEnabled() bool {
	return m.subtitlesEnabled
}

// describe converts a raw track. rawIndex is the position in the engine
// report, ordinal the 1-based position within the kind's own list.
func describe(rt media.RawTrack, rawIndex, ordinal int) media.TrackDescriptor {
	id := rt.ID
	if id == "" {
		id = fmt.Sprintf("%s_%d", rt.Kind, rawIndex)
	}
	return media.TrackDescriptor{
		ID:       id,
		Kind:     rt.Kind,
		Language: rt.Language,
		Label:    label(rt, ordinal),
		Handle:   rt.Handle,
	}
}

// label prefers the explicit label, then the language code, then a synthesized name.
func label(rt media.RawTrack, ordinal int) string {
	if rt.Label != "" {
		return rt.Label
	}
	if rt.Language != "" {
		return rt.Language
	}
	switch rt.Kind {
	case media.KindAudio:
		return fmt.Sprintf("Audio Track %d", ordinal)
	case media.KindSubtitle:
		return fmt.Sprintf("Subtitle Track %d", ordinal)
	default:
		return fmt.Sprintf("Track %d", ordinal)
	}
}

func clone(in []media.TrackDescriptor) []media.TrackDescriptor {
	out := make([]media.TrackDescriptor, len(in))
	copy(out, in)
	return out
}

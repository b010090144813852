package playback

import (
	"time"

	"github.com/osa030/skystream/internal/app/wake"
	"github.com/osa030/skystream/internal/domain/media"
)

// Session is the playback state of the current item.
type Session struct {
	ItemID           string                  `json:"item_id"`
	State            State                   `json:"state"`
	Position         time.Duration           `json:"position"`
	Duration         time.Duration           `json:"duration"`
	Speed            float64                 `json:"speed"`
	QualityAuto      bool                    `json:"quality_auto"`
	Quality          media.QualityConstraint `json:"quality"`
	SubtitlesEnabled bool                    `json:"subtitles_enabled"`
	SelectedAudio    int                     `json:"selected_audio"`
	SelectedSubtitle int                     `json:"selected_subtitle"`
	Error            *SessionError           `json:"error,omitempty"`
}

// PlaylistView is the read-only view of the playlist.
type PlaylistView struct {
	ItemIDs []string `json:"item_ids"`
	Index   int      `json:"index"`
}

// Snapshot is the UI-facing projection of the controller state.
type Snapshot struct {
	SessionID          string                  `json:"session_id"`
	Seq                uint64                  `json:"seq"`
	Session            Session                 `json:"session"`
	Playlist           PlaylistView            `json:"playlist"`
	Wake               wake.State              `json:"wake"`
	AudioTracks        []media.TrackDescriptor `json:"audio_tracks"`
	SubtitleTracks     []media.TrackDescriptor `json:"subtitle_tracks"`
	Volume             float64                 `json:"volume"`
	Brightness         float64                 `json:"brightness"`
	PermissionRequired bool                    `json:"permission_required"`
	ControlsVisible    bool                    `json:"controls_visible"`
	KeepAwakeEnabled   bool                    `json:"keep_awake_enabled"`
}

// buildSnapshot projects the controller state. Must be called on the loop goroutine.
func (c *Controller) buildSnapshot() Snapshot {
	s := c.session
	if s.Error != nil {
		errCopy := *s.Error
		s.Error = &errCopy
	}
	s.SubtitlesEnabled = c.tracks.SubtitlesEnabled()
	s.SelectedAudio = c.tracks.SelectedAudio()
	s.SelectedSubtitle = c.tracks.SelectedSubtitle()
	s.QualityAuto = c.quality.IsAuto()
	s.Quality = c.quality.Current()

	view := PlaylistView{ItemIDs: []string{}}
	if c.nav != nil {
		view.ItemIDs = c.nav.ItemIDs()
		view.Index = c.nav.Index()
	}

	c.seq++
	return Snapshot{
		SessionID:          c.sessionID,
		Seq:                c.seq,
		Session:            s,
		Playlist:           view,
		Wake:               c.wake.State(),
		AudioTracks:        c.tracks.Audio(),
		SubtitleTracks:     c.tracks.Subtitles(),
		Volume:             c.volume,
		Brightness:         c.brightness,
		PermissionRequired: c.permissionRequired,
		ControlsVisible:    c.controlsVisible,
		KeepAwakeEnabled:   c.keepAwakePref,
	}
}

// publish stores and emits the current snapshot.
func (c *Controller) publish() {
	snap := c.buildSnapshot()
	c.latest.Store(&snap)
	if c.sink != nil {
		c.sink(snap)
	}
}

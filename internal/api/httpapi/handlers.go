package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/skystream/internal/app/gesture"
	"github.com/osa030/skystream/internal/app/playback"
	"github.com/osa030/skystream/internal/domain/device"
	"github.com/osa030/skystream/internal/domain/media"
)

var validate = validator.New()

// errBadRequest marks input errors.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), errBadRequest)
}

// OpenRequest is the body of POST /v1/session/open.
type OpenRequest struct {
	Items []OpenItem `json:"items" validate:"required,min=1,dive"`
	Start int        `json:"start" validate:"gte=0"`
}

// OpenItem is a playlist item in an OpenRequest.
type OpenItem struct {
	ID       string `json:"id" validate:"required"`
	Title    string `json:"title"`
	Origin   string `json:"origin" validate:"omitempty,oneof=LOCAL CLOUD"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size" validate:"gte=0"`
}

// GestureRequest is the body of POST /v1/session/gesture.
type GestureRequest struct {
	Start   gesture.Point `json:"start"`
	Surface gesture.Size  `json:"surface"`
	Delta   gesture.Point `json:"delta"`
}

// MoveResponse is returned by navigation requests.
type MoveResponse struct {
	Moved    bool              `json:"moved"`
	Snapshot playback.Snapshot `json:"snapshot"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) getSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.player.Snapshot())
}

// intent adapts a parameterless intent.
func (s *Server) intent(fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.respond(w, fn())
	}
}

// move adapts a navigation intent.
func (s *Server) move(fn func() (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		moved, err := fn()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MoveResponse{Moved: moved, Snapshot: s.player.Snapshot()})
	}
}

// level adapts a volume or brightness write.
func (s *Server) level(fn func(float64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := floatParam(r, "level")
		if err != nil {
			writeError(w, err)
			return
		}
		s.respond(w, fn(v))
	}
}

// toggle adapts a boolean setting.
func (s *Server) toggle(name string, fn func(bool) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get(name)
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, badRequest("invalid %s: %q", name, raw))
			return
		}
		s.respond(w, fn(v))
	}
}

func (s *Server) open(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Mark(errors.Wrap(err, "failed to decode request"), errBadRequest))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, errors.Mark(errors.Wrap(err, "invalid request"), errBadRequest))
		return
	}
	if req.Start >= len(req.Items) {
		writeError(w, badRequest("start %d out of range for %d items", req.Start, len(req.Items)))
		return
	}

	items := make([]media.Item, len(req.Items))
	for i, it := range req.Items {
		title := it.Title
		if title == "" {
			title = it.ID
		}
		origin := media.Origin(it.Origin)
		if origin == "" {
			origin = media.OriginLocal
		}
		items[i] = media.Item{ID: it.ID, Title: title, Origin: origin, MimeType: it.MimeType, Size: it.Size}
	}
	s.respond(w, s.player.Open(items, req.Start))
}

func (s *Server) selectItem(w http.ResponseWriter, r *http.Request) {
	index, err := intParam(r, "index")
	if err != nil {
		writeError(w, err)
		return
	}
	s.move(func() (bool, error) { return s.player.SelectItem(index) })(w, r)
}

func (s *Server) seek(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("position")
	pos, err := time.ParseDuration(raw)
	if err != nil {
		// Plain seconds
		secs, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			writeError(w, badRequest("invalid position: %q", raw))
			return
		}
		pos = time.Duration(secs * float64(time.Second))
	}
	s.respond(w, s.player.Seek(pos))
}

func (s *Server) speed(w http.ResponseWriter, r *http.Request) {
	f, err := floatParam(r, "factor")
	if err != nil {
		writeError(w, err)
		return
	}
	s.respond(w, s.player.SetSpeed(f))
}

func (s *Server) quality(w http.ResponseWriter, r *http.Request) {
	c, err := media.ParseConstraint(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, errors.Mark(err, errBadRequest))
		return
	}
	s.respond(w, s.player.SetQualityMode(c))
}

func (s *Server) audio(w http.ResponseWriter, r *http.Request) {
	index, err := intParam(r, "index")
	if err != nil {
		writeError(w, err)
		return
	}
	s.respond(w, s.player.SelectAudio(index))
}

// subtitle enables the subtitle track at index; a negative index disables subtitles.
func (s *Server) subtitle(w http.ResponseWriter, r *http.Request) {
	index, err := intParam(r, "index")
	if err != nil {
		writeError(w, err)
		return
	}
	if index < 0 {
		s.respond(w, s.player.DisableSubtitles())
		return
	}
	s.respond(w, s.player.EnableSubtitle(index))
}

func (s *Server) gesture(w http.ResponseWriter, r *http.Request) {
	var req GestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Mark(errors.Wrap(err, "failed to decode request"), errBadRequest))
		return
	}
	s.respond(w, s.player.Gesture(req.Start, req.Surface, req.Delta))
}

// respond writes the current snapshot, or the error.
func (s *Server) respond(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.player.Snapshot())
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("invalid %s: %q", name, raw)
	}
	return v, nil
}

func floatParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, badRequest("invalid %s: %q", name, raw)
	}
	return v, nil
}

// statusOf maps an error to its HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, media.ErrInvalidConstraint):
		return http.StatusBadRequest
	case errors.Is(err, device.ErrPermissionRequired):
		return http.StatusForbidden
	case errors.Is(err, playback.ErrNoSession):
		return http.StatusConflict
	case errors.Is(err, playback.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		zlog.Error().Msgf("httpapi: request failed: %v", err)
	} else {
		zlog.Debug().Msgf("httpapi: request rejected: status=%d, err=%v", status, err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Debug().Msgf("httpapi: failed to write response: %v", err)
	}
}

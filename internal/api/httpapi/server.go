// Package httpapi exposes the playback session over HTTP: the snapshot as
// JSON, snapshot changes as server-sent events and user intents as POSTs.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/osa030/skystream/internal/app/gesture"
	"github.com/osa030/skystream/internal/app/notification"
	"github.com/osa030/skystream/internal/app/playback"
	"github.com/osa030/skystream/internal/domain/media"
)

// Player is the session controller driven by the API.
type Player interface {
	Snapshot() playback.Snapshot
	Open(items []media.Item, start int) error
	Play() error
	Pause() error
	Stop() error
	Retry() error
	Cancel() error
	Seek(position time.Duration) error
	SetSpeed(factor float64) error
	SetQualityMode(constraint media.QualityConstraint) error
	SelectAudio(index int) error
	EnableSubtitle(index int) error
	DisableSubtitles() error
	Next() (bool, error)
	Previous() (bool, error)
	SelectItem(index int) (bool, error)
	Gesture(start gesture.Point, box gesture.Size, delta gesture.Point) error
	SetVolume(level float64) error
	SetBrightness(level float64) error
	SetControlsVisible(visible bool) error
	SetKeepAwake(enabled bool) error
}

// Config represents API configuration.
type Config struct {
	AdminToken string // Required on intent requests when set
}

// Server serves the session API.
type Server struct {
	player   Player
	notifier *notification.Manager
	config   Config
	router   chi.Router
}

// NewServer creates a new Server.
func NewServer(player Player, notifier *notification.Manager, cfg Config) *Server {
	s := &Server{
		player:   player,
		notifier: notifier,
		config:   cfg,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/session", func(r chi.Router) {
		r.Get("/", s.getSession)
		r.Get("/events", s.streamEvents)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdminToken)

			r.Post("/open", s.open)
			r.Post("/play", s.intent(s.player.Play))
			r.Post("/pause", s.intent(s.player.Pause))
			r.Post("/stop", s.intent(s.player.Stop))
			r.Post("/retry", s.intent(s.player.Retry))
			r.Post("/cancel", s.intent(s.player.Cancel))
			r.Post("/next", s.move(s.player.Next))
			r.Post("/previous", s.move(s.player.Previous))
			r.Post("/select", s.selectItem)
			r.Post("/seek", s.seek)
			r.Post("/speed", s.speed)
			r.Post("/quality", s.quality)
			r.Post("/audio", s.audio)
			r.Post("/subtitle", s.subtitle)
			r.Post("/volume", s.level(s.player.SetVolume))
			r.Post("/brightness", s.level(s.player.SetBrightness))
			r.Post("/gesture", s.gesture)
			r.Post("/controls", s.toggle("visible", s.player.SetControlsVisible))
			r.Post("/keep-awake", s.toggle("enabled", s.player.SetKeepAwake))
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer returns an HTTP server for addr with h2c (HTTP/2 cleartext) support.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(s, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

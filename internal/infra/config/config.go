// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/osa030/skystream/internal/app/playback"
	"github.com/osa030/skystream/internal/app/quality"
	"github.com/osa030/skystream/internal/domain/media"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Playback PlaybackConfig `yaml:"playback"`
	Quality  QualityConfig  `yaml:"quality"`
	Wake     WakeConfig     `yaml:"wake"`
	Drive    DriveConfig    `yaml:"drive"`
	Local    LocalConfig    `yaml:"local"`
	Engine   EngineConfig   `yaml:"engine"`
	Playlist PlaylistConfig `yaml:"playlist"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Addr             string `yaml:"addr" default:":8080"`
	SubscriberBuffer int    `yaml:"subscriber_buffer" default:"16" validate:"gte=1,lte=1024"`
	AdminToken       string `yaml:"admin_token"` // Required on intent requests when set
}

// PlaybackConfig represents playback controller configuration.
type PlaybackConfig struct {
	PollInterval     time.Duration `yaml:"poll_interval" default:"1s" validate:"gte=100ms,lte=10s"`
	RetryDelay       time.Duration `yaml:"retry_delay" default:"2s" validate:"gte=0,lte=1m"`
	SystemSyncTicks  int           `yaml:"system_sync_ticks" default:"5" validate:"gte=1"`
	ControlsAutoHide time.Duration `yaml:"controls_auto_hide" default:"4s" validate:"gte=0"`
	PreloadDelay     time.Duration `yaml:"preload_delay" default:"5s" validate:"gte=0"`
	PreloadProbation time.Duration `yaml:"preload_probation" default:"3s" validate:"gte=0"`
	DefaultSpeed     float64       `yaml:"default_speed" default:"1.0" validate:"gte=0.25,lte=2"`
}

// QualityConfig represents quality adaptation configuration.
type QualityConfig struct {
	GraceWindow       time.Duration `yaml:"grace_window" default:"3s" validate:"gt=0"`
	RecoveryThreshold time.Duration `yaml:"recovery_threshold" default:"5s" validate:"gt=0"`
	ConservativeCap   string        `yaml:"conservative_cap" default:"854x480" validate:"required"`
	Ladder            []string      `yaml:"ladder" default:"[\"1920x1080\",\"1280x720\",\"854x480\",\"640x360\",\"426x240\"]" validate:"required,min=1"`
	HistorySize       int           `yaml:"history_size" default:"32" validate:"gte=1"`
}

// WakeConfig represents keep-screen-on configuration.
type WakeConfig struct {
	Enabled *bool         `yaml:"enabled" default:"true"`
	Timeout time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
}

// DriveConfig represents cloud drive configuration.
// The drive source is disabled when ClientID is empty.
type DriveConfig struct {
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret" validate:"required_with=ClientID"`
	RefreshToken string        `yaml:"refresh_token" validate:"required_with=ClientID"`
	TokenURL     string        `yaml:"token_url" default:"https://oauth2.googleapis.com/token" validate:"omitempty,url"`
	BaseURL      string        `yaml:"base_url" default:"https://drive.google.com/uc" validate:"omitempty,url"`
	UserAgent    string        `yaml:"user_agent" default:"SkyStream/1.0"`
	Timeout      time.Duration `yaml:"timeout" default:"15s" validate:"gt=0"`
}

// LocalConfig represents local storage configuration.
type LocalConfig struct {
	Root string `yaml:"root" default:"."`
}

// EngineConfig represents media engine configuration.
type EngineConfig struct {
	Type     string         `yaml:"type" default:"sim" validate:"oneof=sim"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// PlaylistConfig represents the playlist opened at startup.
type PlaylistConfig struct {
	Start int          `yaml:"start" validate:"gte=0"`
	Items []ItemConfig `yaml:"items" validate:"dive"`
}

// ItemConfig represents a single playlist item.
type ItemConfig struct {
	ID       string `yaml:"id" validate:"required"`
	Title    string `yaml:"title"`
	Origin   string `yaml:"origin" validate:"omitempty,oneof=LOCAL CLOUD"` // Empty means LOCAL
	MimeType string `yaml:"mime_type"`
	Size     int64  `yaml:"size" validate:"gte=0"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs loads configuration from a YAML file on fs.
func LoadFs(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	// Defaults are set before parsing so that explicit zero durations
	// (e.g. preload_delay: 0s to disable preloading) are kept.
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("DRIVE_CLIENT_ID"); v != "" {
		c.Drive.ClientID = v
	}
	if v := os.Getenv("DRIVE_CLIENT_SECRET"); v != "" {
		c.Drive.ClientSecret = v
	}
	if v := os.Getenv("DRIVE_REFRESH_TOKEN"); v != "" {
		c.Drive.RefreshToken = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.Server.AdminToken = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if _, err := c.QualityEngineConfig(); err != nil {
		return err
	}
	if n := len(c.Playlist.Items); n > 0 && c.Playlist.Start >= n {
		return errors.Newf("playlist start (%d) must be less than the number of items (%d)", c.Playlist.Start, n)
	}
	return nil
}

// DriveEnabled reports whether the cloud drive source is configured.
func (c *Config) DriveEnabled() bool {
	return c.Drive.ClientID != ""
}

// KeepAwake returns the initial keep-screen-on preference.
func (c *Config) KeepAwake() bool {
	return c.Wake.Enabled == nil || *c.Wake.Enabled
}

// QualityEngineConfig converts the quality section.
func (c *Config) QualityEngineConfig() (quality.Config, error) {
	capRes, err := media.ParseResolution(c.Quality.ConservativeCap)
	if err != nil {
		return quality.Config{}, errors.Wrap(err, "failed to parse quality.conservative_cap")
	}
	ladder := make([]media.Resolution, 0, len(c.Quality.Ladder))
	for i, s := range c.Quality.Ladder {
		r, err := media.ParseResolution(s)
		if err != nil {
			return quality.Config{}, errors.Wrapf(err, "failed to parse quality.ladder[%d]", i)
		}
		if len(ladder) > 0 && r.Pixels() >= ladder[len(ladder)-1].Pixels() {
			return quality.Config{}, errors.Newf("quality.ladder must be ordered from highest to lowest, got %s after %s", r, ladder[len(ladder)-1])
		}
		ladder = append(ladder, r)
	}
	return quality.Config{
		GraceWindow:       c.Quality.GraceWindow,
		RecoveryThreshold: c.Quality.RecoveryThreshold,
		ConservativeCap:   capRes,
		Ladder:            ladder,
		HistorySize:       c.Quality.HistorySize,
	}, nil
}

// PlaybackControllerConfig converts the playback, quality and wake sections.
func (c *Config) PlaybackControllerConfig() (playback.Config, error) {
	q, err := c.QualityEngineConfig()
	if err != nil {
		return playback.Config{}, err
	}
	return playback.Config{
		PollInterval:     c.Playback.PollInterval,
		RetryDelay:       c.Playback.RetryDelay,
		SystemSyncTicks:  c.Playback.SystemSyncTicks,
		ControlsAutoHide: c.Playback.ControlsAutoHide,
		PreloadDelay:     c.Playback.PreloadDelay,
		PreloadProbation: c.Playback.PreloadProbation,
		DefaultSpeed:     c.Playback.DefaultSpeed,
		KeepAwake:        c.KeepAwake(),
		WakeTimeout:      c.Wake.Timeout,
		Quality:          q,
	}, nil
}

// Items returns the configured playlist items.
func (c *Config) Items() []media.Item {
	items := make([]media.Item, len(c.Playlist.Items))
	for i, it := range c.Playlist.Items {
		title := it.Title
		if title == "" {
			title = it.ID
		}
		origin := media.Origin(it.Origin)
		if origin == "" {
			origin = media.OriginLocal
		}
		items[i] = media.Item{
			ID:       it.ID,
			Title:    title,
			Origin:   origin,
			MimeType: it.MimeType,
			Size:     it.Size,
		}
	}
	return items
}

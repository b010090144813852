package sim

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Config represents simulated engine settings.
type Config struct {
	Tick              time.Duration `mapstructure:"tick" default:"100ms" validate:"gt=0"`
	StartupDelay      time.Duration `mapstructure:"startup_delay" default:"300ms" validate:"gte=0"`
	Duration          time.Duration `mapstructure:"duration" default:"2m" validate:"gt=0"`
	BandwidthKbps     int           `mapstructure:"bandwidth_kbps" default:"8000" validate:"gt=0"`
	BitrateKbps       int           `mapstructure:"bitrate_kbps" default:"5000" validate:"gt=0"` // Top rendition bitrate
	MaxBuffer         time.Duration `mapstructure:"max_buffer" default:"50s" validate:"gt=0"`
	ResumeBuffer      time.Duration `mapstructure:"resume_buffer" default:"2s" validate:"gte=0"` // Buffered-ahead needed to leave buffering
	PreloadBuffer     time.Duration `mapstructure:"preload_buffer" default:"10s" validate:"gte=0"`
	StallEvery        time.Duration `mapstructure:"stall_every" validate:"gte=0"` // 0 disables network stalls
	StallFor          time.Duration `mapstructure:"stall_for" validate:"gte=0"`
	AudioLanguages    []string      `mapstructure:"audio_languages" default:"[\"en\"]"`
	SubtitleLanguages []string      `mapstructure:"subtitle_languages"`
	FailCode          int           `mapstructure:"fail_code" validate:"gte=0"` // Engine error code raised after startup, 0 disables
	FailHTTPStatus    int           `mapstructure:"fail_http_status" validate:"gte=0"`
}

// DecodeConfig builds a Config from free-form engine settings.
// Durations accept Go duration strings ("250ms"), lists accept
// comma-separated strings.
func DecodeConfig(settings map[string]any) (Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to set defaults")
	}

	if len(settings) > 0 {
		if err := decode(settings, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, errors.Wrap(err, "validation failed")
	}
	if cfg.StallEvery > 0 && cfg.StallFor >= cfg.StallEvery {
		return Config{}, errors.New("stall_for must be shorter than stall_every")
	}
	return cfg, nil
}

func decode(settings map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Result:           cfg,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create settings decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	return nil
}

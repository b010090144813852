// Package engine builds the media engine factory selected by configuration.
package engine

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/skystream/internal/app/playback"
	"github.com/osa030/skystream/internal/infra/config"
	"github.com/osa030/skystream/internal/infra/engine/sim"
)

// NewFactoryFromConfig creates an engine factory from configuration.
func NewFactoryFromConfig(cfg config.EngineConfig) (playback.EngineFactory, error) {
	zlog.Debug().Msgf("creating media engine: type=%s settings=%+v", cfg.Type, cfg.Settings)

	switch cfg.Type {
	case "sim", "":
		simCfg, err := sim.DecodeConfig(cfg.Settings)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create engine (type %s)", cfg.Type)
		}
		zlog.Info().Msgf("media engine: type=sim duration=%s bandwidth=%dkbps", simCfg.Duration, simCfg.BandwidthKbps)
		return sim.Factory(simCfg), nil
	default:
		return nil, errors.Newf("unsupported engine type: %s", cfg.Type)
	}
}

// Package resolver routes items to the resolver of their storage origin.
package resolver

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/skystream/internal/app/playback"
	"github.com/osa030/skystream/internal/domain/media"
)

// ErrDriveUnavailable is returned for cloud items when no drive source is
// configured. It classifies as an expired session so the user is asked to
// sign in.
var ErrDriveUnavailable = errors.Mark(errors.New("cloud drive is not configured"), media.ErrAuthExpired)

// Router dispatches Resolve by item origin.
type Router struct {
	local playback.Resolver
	cloud playback.Resolver
}

// NewRouter creates a router. cloud may be nil when the drive source is
// disabled.
func NewRouter(local, cloud playback.Resolver) *Router {
	return &Router{local: local, cloud: cloud}
}

// Resolve implements playback.Resolver.
func (r *Router) Resolve(ctx context.Context, item media.Item) (media.Source, error) {
	zlog.Debug().Msgf("resolver: resolving item: id=%s, origin=%s", item.ID, item.Origin)

	switch item.Origin {
	case media.OriginCloud:
		if r.cloud == nil {
			return media.Source{}, ErrDriveUnavailable
		}
		return r.cloud.Resolve(ctx, item)
	case media.OriginLocal, "":
		if r.local == nil {
			return media.Source{}, errors.Mark(errors.New("local storage is not configured"), media.ErrNotFound)
		}
		return r.local.Resolve(ctx, item)
	default:
		return media.Source{}, errors.Newf("unknown item origin %q", item.Origin)
	}
}

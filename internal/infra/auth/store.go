// Package auth holds the cloud drive credentials of the signed-in user.
package auth

import (
	"context"
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/osa030/skystream/internal/domain/media"
)

// ErrSignedOut is returned by Token after the credentials were cleared.
var ErrSignedOut = errors.Mark(errors.New("signed out"), media.ErrAuthExpired)

// Config represents OAuth2 client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	TokenURL     string
}

// Store is an oauth2.TokenSource over the user's refresh token. It is the
// explicit credential handle passed to the drive resolver and signalled by
// the playback controller when the credentials stop working.
type Store struct {
	mu     sync.Mutex
	ctx    context.Context
	oauth  *oauth2.Config
	token  *oauth2.Token      // Current token incl. refresh token, nil when signed out
	source oauth2.TokenSource // External source, used when oauth is nil
	gen    uint64             // Bumped on sign-in and sign-out
}

// New creates a store signed in with cfg.RefreshToken. ctx bounds the
// refresh requests made by Token; TokenContext uses its own context.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("drive credentials are required")
	}
	s := &Store{
		ctx: ctx,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
	s.SignIn(cfg.RefreshToken)
	return s, nil
}

// NewWithSource creates a store over an existing token source.
func NewWithSource(source oauth2.TokenSource) *Store {
	return &Store{ctx: context.Background(), source: source}
}

// SignIn replaces the credentials with a new refresh token.
func (s *Store) SignIn(refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.oauth == nil {
		return
	}
	s.gen++
	s.token = &oauth2.Token{RefreshToken: refreshToken}
}

// Token returns a valid access token, refreshing it when needed.
func (s *Store) Token() (*oauth2.Token, error) {
	return s.TokenContext(s.ctx)
}

// TokenContext is Token with the refresh request bound to ctx.
// Rejected refresh tokens are marked with media.ErrAuthExpired, transport
// failures with media.ErrNetwork.
func (s *Store) TokenContext(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	tok, source, gen := s.token, s.source, s.gen
	s.mu.Unlock()

	switch {
	case tok != nil:
		if tok.Valid() {
			return tok, nil
		}
		fresh, err := s.oauth.TokenSource(ctx, tok).Token()
		if err != nil {
			return nil, classify(ctx, err)
		}
		s.mu.Lock()
		if s.gen == gen {
			s.token = fresh
		}
		s.mu.Unlock()
		return fresh, nil
	case source != nil:
		fresh, err := source.Token()
		if err != nil {
			return nil, classify(ctx, err)
		}
		return fresh, nil
	default:
		return nil, ErrSignedOut
	}
}

func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return errors.Wrap(ctx.Err(), "token refresh cancelled")
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.ErrorCode == "invalid_grant" || (re.Response != nil &&
			(re.Response.StatusCode == http.StatusBadRequest || re.Response.StatusCode == http.StatusUnauthorized)) {
			return errors.Mark(errors.Wrap(err, "refresh token rejected"), media.ErrAuthExpired)
		}
		return errors.Wrap(err, "failed to refresh access token")
	}
	return errors.Mark(errors.Wrap(err, "failed to refresh access token"), media.ErrNetwork)
}

// ClearCredentials signs the user out. Subsequent Token calls fail with
// ErrSignedOut until SignIn.
func (s *Store) ClearCredentials() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != nil || s.source != nil {
		zlog.Info().Msg("auth: credentials cleared")
	}
	s.gen++
	s.token = nil
	s.source = nil
}

// SignedIn reports whether credentials are present.
func (s *Store) SignedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != nil || s.source != nil
}

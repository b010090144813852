// Package drive resolves cloud drive items into authenticated stream sources.
package drive

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/osa030/skystream/internal/domain/media"
)

const defaultUserAgent = "SkyStream/1.0"

// Config represents drive resolver configuration.
type Config struct {
	BaseURL   string        // Download endpoint, e.g. https://drive.google.com/uc
	UserAgent string        // User-Agent sent with probe and playback requests
	Timeout   time.Duration // Probe request timeout
}

// Resolver resolves cloud items to direct download URLs.
type Resolver struct {
	baseURL   string
	userAgent string
	tokens    oauth2.TokenSource
	client    *http.Client
}

// New creates a resolver. tokens supplies the bearer token for every request.
func New(cfg Config, tokens oauth2.TokenSource) *Resolver {
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Resolver{
		baseURL:   cfg.BaseURL,
		userAgent: ua,
		tokens:    tokens,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

// Resolve probes the direct download URL of item and returns a source
// carrying the authorization headers needed for playback. When the direct
// URL is refused (large files need a download confirmation) the confirmed
// URL is used instead.
func (r *Resolver) Resolve(ctx context.Context, item media.Item) (media.Source, error) {
	if item.ID == "" {
		return media.Source{}, errors.Mark(errors.New("empty file id"), media.ErrNotFound)
	}

	tok, err := r.token(ctx)
	if err != nil {
		return media.Source{}, errors.Wrap(err, "failed to get access token")
	}

	direct := r.downloadURL(item.ID, false)
	status, err := r.probe(ctx, direct, tok.AccessToken)
	if err != nil {
		return media.Source{}, err
	}

	streamURL := direct
	switch {
	case status >= 200 && status < 300:
	case status == http.StatusUnauthorized:
		return media.Source{}, errors.Mark(errors.Newf("drive rejected access token for %s", item.ID), media.ErrAuthExpired)
	case status == http.StatusNotFound:
		return media.Source{}, errors.Mark(errors.Newf("drive file %s not found", item.ID), media.ErrNotFound)
	default:
		streamURL = r.downloadURL(item.ID, true)
		zlog.Debug().Msgf("drive: direct url refused, using confirmed url: id=%s, status=%d", item.ID, status)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + tok.AccessToken,
		"Range":         "bytes=0-",
		"User-Agent":    r.userAgent,
	}
	return media.NewSource(streamURL, item.MimeType, headers), nil
}

// contextTokenSource is implemented by token sources whose refresh request
// can be bound to a context, such as auth.Store.
type contextTokenSource interface {
	TokenContext(ctx context.Context) (*oauth2.Token, error)
}

// token fetches the bearer token. Sources without context support run on a
// separate goroutine so that cancelling ctx still returns promptly.
func (r *Resolver) token(ctx context.Context) (*oauth2.Token, error) {
	if ts, ok := r.tokens.(contextTokenSource); ok {
		return ts.TokenContext(ctx)
	}

	type result struct {
		tok *oauth2.Token
		err error
	}
	done := make(chan result, 1)
	go func() {
		tok, err := r.tokens.Token()
		done <- result{tok: tok, err: err}
	}()
	select {
	case res := <-done:
		return res.tok, res.err
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "token fetch cancelled")
	}
}

func (r *Resolver) downloadURL(id string, confirm bool) string {
	q := url.Values{}
	q.Set("export", "download")
	q.Set("id", id)
	if confirm {
		q.Set("confirm", "t")
	}
	return r.baseURL + "?" + q.Encode()
}

// probe issues a HEAD request and returns the response status.
func (r *Resolver) probe(ctx context.Context, rawURL, accessToken string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create probe request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, errors.Wrap(ctx.Err(), "probe cancelled")
		}
		return 0, errors.Mark(errors.Wrap(err, "failed to probe drive url"), media.ErrNetwork)
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

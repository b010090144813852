package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/cockroachdb/errors"
	"golang.org/x/oauth2"
)

// Google OAuth2 endpoints and the read-only Drive scope.
const (
	GoogleAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	GoogleTokenURL = "https://oauth2.googleapis.com/token"
	DriveScope     = "https://www.googleapis.com/auth/drive.readonly"
)

// Consent drives the authorization-code flow that yields a refresh token.
type Consent struct {
	config *oauth2.Config
	state  string
}

// NewConsent creates a consent flow redirecting to redirectURL.
func NewConsent(clientID, clientSecret, redirectURL string) (*Consent, error) {
	if clientID == "" || clientSecret == "" {
		return nil, errors.New("client id and secret are required")
	}
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return nil, errors.Wrap(err, "failed to generate state")
	}
	return &Consent{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{DriveScope},
			Endpoint: oauth2.Endpoint{
				AuthURL:  GoogleAuthURL,
				TokenURL: GoogleTokenURL,
			},
		},
		state: hex.EncodeToString(b),
	}, nil
}

// AuthURL returns the URL the user visits to grant access. Offline access
// and a forced prompt make the provider issue a refresh token.
func (c *Consent) AuthURL() string {
	return c.config.AuthCodeURL(c.state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange validates the callback state and trades code for a token.
func (c *Consent) Exchange(ctx context.Context, state, code string) (*oauth2.Token, error) {
	if state != c.state {
		return nil, errors.New("state mismatch")
	}
	if code == "" {
		return nil, errors.New("authorization code missing")
	}
	tok, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "failed to exchange authorization code")
	}
	if tok.RefreshToken == "" {
		return nil, errors.New("no refresh token issued")
	}
	return tok, nil
}

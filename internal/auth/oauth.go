package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/spec-kit/academic-erp/internal/config"
)

// ExternalIdentity is the profile asserted by the external identity provider.
type ExternalIdentity struct {
	Email      string
	GivenName  string
	FamilyName string
}

// IdentityProvider drives the authorization-code round-trip with the external provider.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*ExternalIdentity, error)
}

// StateStore keeps pending login states; Consume succeeds at most once per state.
type StateStore interface {
	Save(ctx context.Context, state string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (bool, error)
}

// OAuthProvider is an OpenID Connect style provider reached through golang.org/x/oauth2.
type OAuthProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
}

var defaultScopes = []string{"openid", "email", "profile"}

// NewGoogleProvider builds a provider against Google's endpoints.
func NewGoogleProvider(cfg config.OAuthConfig) *OAuthProvider {
	return NewOAuthProvider(cfg, google.Endpoint)
}

// NewOAuthProvider builds a provider against an arbitrary endpoint.
func NewOAuthProvider(cfg config.OAuthConfig, endpoint oauth2.Endpoint) *OAuthProvider {
	return &OAuthProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       defaultScopes,
			Endpoint:     endpoint,
		},
		userInfoURL: cfg.UserInfoURL,
	}
}

// AuthCodeURL returns the provider consent URL carrying state.
func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type userInfo struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

// Exchange trades the authorization code for a token and loads the userinfo claims.
// An email the provider explicitly marks as unverified is dropped.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*ExternalIdentity, error) {
	if code == "" {
		return nil, fmt.Errorf("authorization code missing")
	}
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch userinfo: unexpected status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}

	identity := &ExternalIdentity{
		Email:      strings.TrimSpace(info.Email),
		GivenName:  info.GivenName,
		FamilyName: info.FamilyName,
	}
	if info.EmailVerified != nil && !*info.EmailVerified {
		identity.Email = ""
	}
	return identity, nil
}

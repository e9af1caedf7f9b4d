package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/spec-kit/academic-erp/internal/config"
)

func newProviderServer(t *testing.T, userinfo string, status int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(userinfo))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(srv *httptest.Server) *OAuthProvider {
	cfg := config.OAuthConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/login/oauth2/code/google",
		UserInfoURL:  srv.URL + "/userinfo",
	}
	return NewOAuthProvider(cfg, oauth2.Endpoint{
		AuthURL:   srv.URL + "/authorize",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	})
}

func TestOAuthProvider_AuthCodeURL(t *testing.T) {
	srv := newProviderServer(t, `{}`, http.StatusOK)
	p := newTestProvider(srv)

	raw := p.AuthCodeURL("state-1")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Contains(t, q.Get("scope"), "email")
}

func TestOAuthProvider_Exchange(t *testing.T) {
	srv := newProviderServer(t, `{"email":"a@x.com","email_verified":true,"given_name":"Ada","family_name":"Lovelace"}`, http.StatusOK)
	p := newTestProvider(srv)

	identity, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, &ExternalIdentity{Email: "a@x.com", GivenName: "Ada", FamilyName: "Lovelace"}, identity)
}

func TestOAuthProvider_ExchangeDropsUnverifiedEmail(t *testing.T) {
	srv := newProviderServer(t, `{"email":"a@x.com","email_verified":false}`, http.StatusOK)
	p := newTestProvider(srv)

	identity, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Empty(t, identity.Email)
}

func TestOAuthProvider_ExchangeFailures(t *testing.T) {
	t.Run("bad code", func(t *testing.T) {
		p := newTestProvider(newProviderServer(t, `{}`, http.StatusOK))
		_, err := p.Exchange(context.Background(), "bad-code")
		assert.Error(t, err)
	})

	t.Run("empty code", func(t *testing.T) {
		p := newTestProvider(newProviderServer(t, `{}`, http.StatusOK))
		_, err := p.Exchange(context.Background(), "")
		assert.Error(t, err)
	})

	t.Run("userinfo error", func(t *testing.T) {
		p := newTestProvider(newProviderServer(t, `{}`, http.StatusInternalServerError))
		_, err := p.Exchange(context.Background(), "good-code")
		assert.Error(t, err)
	})

	t.Run("userinfo garbage", func(t *testing.T) {
		p := newTestProvider(newProviderServer(t, `<html>`, http.StatusOK))
		_, err := p.Exchange(context.Background(), "good-code")
		assert.Error(t, err)
	})
}

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a11y-auditor/auditor/internal/config"
)

func TestAuthenticate_NoneAlwaysSucceeds(t *testing.T) {
	a, err := New(config.AuthConfig{Type: config.AuthNone}, 5*time.Second)
	require.NoError(t, err)

	require.NoError(t, a.Authenticate(context.Background(), nil))
	assert.True(t, a.IsAuthenticated())
}

func TestAuthenticate_FormLoginViaHTTP_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "alice", r.FormValue("username"))
		w.Write([]byte("welcome back"))
	}))
	defer srv.Close()

	a, err := New(config.AuthConfig{
		Type:        config.AuthForm,
		LoginURL:    srv.URL,
		FormFields:  map[string]string{"username": "alice", "password": "secret"},
		SuccessText: "welcome",
	}, 5*time.Second)
	require.NoError(t, err)

	require.NoError(t, a.Authenticate(context.Background(), nil))
	assert.True(t, a.IsAuthenticated())
}

func TestAuthenticate_FormLoginViaHTTP_MissingSuccessText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("invalid credentials"))
	}))
	defer srv.Close()

	a, err := New(config.AuthConfig{
		Type:        config.AuthForm,
		LoginURL:    srv.URL,
		SuccessText: "welcome",
	}, 5*time.Second)
	require.NoError(t, err)

	err = a.Authenticate(context.Background(), nil)
	assert.Error(t, err)
	assert.False(t, a.IsAuthenticated())
	assert.Equal(t, err, a.AuthError())
}

func TestIsRestrictedURL(t *testing.T) {
	a, err := New(config.AuthConfig{
		RestrictedURLs: []string{"https://example.com/account", "https://example.com/orders"},
	}, time.Second)
	require.NoError(t, err)

	assert.True(t, a.IsRestrictedURL("https://example.com/account/profile"))
	assert.True(t, a.IsRestrictedURL("https://example.com/orders/123"))
	assert.False(t, a.IsRestrictedURL("https://example.com/products"))
}

func TestApplyToRequest_BasicAuth(t *testing.T) {
	a, err := New(config.AuthConfig{Type: config.AuthBasic, Username: "alice", Password: "secret"}, time.Second)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	a.ApplyToRequest(req)

	user, pass, ok := req.BasicAuth()
	require.True(t, ok)
	assert.Equal(t, "alice", user)
	assert.Equal(t, "secret", pass)
}

func TestApplyToRequest_FormAuthAddsSessionCookies(t *testing.T) {
	a, err := New(config.AuthConfig{Type: config.AuthForm}, time.Second)
	require.NoError(t, err)
	a.sessionCookies = []*http.Cookie{{Name: "session", Value: "abc123"}}

	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	a.ApplyToRequest(req)

	cookie, err := req.Cookie("session")
	require.NoError(t, err)
	assert.Equal(t, "abc123", cookie.Value)
}

func TestApplyToBrowser_NoopWithoutSessionCookies(t *testing.T) {
	a, err := New(config.AuthConfig{Type: config.AuthForm}, time.Second)
	require.NoError(t, err)

	// No session established yet, so this must return without trying
	// to drive a (nonexistent, in this test) browser context.
	assert.NoError(t, a.ApplyToBrowser(context.Background()))
}

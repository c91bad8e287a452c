// Package auth authenticates a crawl session before restricted URLs
// are fetched. Basic/cookie auth are applied per-request; form auth
// either POSTs credentials directly (HTTP strategy) or drives a real
// browser through the login form (browser strategy, required when the
// form is rendered/submitted by client-side JS).
package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/a11y-auditor/auditor/internal/config"
	"github.com/a11y-auditor/auditor/internal/renderer"
)

// Authenticator holds session state for one domain's auth strategy.
// A failed authentication is never fatal to the crawl: callers check
// IsAuthenticated and simply skip restricted URLs when it is false,
// per spec's non-fatal auth-failure policy.
type Authenticator struct {
	mu sync.RWMutex

	cfg        config.AuthConfig
	cookieJar  http.CookieJar
	httpClient *http.Client

	sessionCookies  []*http.Cookie
	isAuthenticated bool
	lastAuthTime    time.Time
	authErr         error
}

// New builds an Authenticator for cfg. AuthNone always succeeds
// trivially.
func New(cfg config.AuthConfig, requestTimeout time.Duration) (*Authenticator, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("auth: creating cookie jar: %w", err)
	}

	a := &Authenticator{
		cfg:       cfg,
		cookieJar: jar,
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Jar:     jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
	return a, nil
}

// Authenticate performs the configured auth strategy. pool is only
// used (and may be nil) when cfg.UseBrowserLogin is true.
func (a *Authenticator) Authenticate(ctx context.Context, pool *renderer.Pool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.cfg.Type {
	case config.AuthNone, config.AuthBasic, config.AuthCookie:
		a.isAuthenticated = true
		a.authErr = nil
		return nil

	case config.AuthForm:
		var err error
		if a.cfg.UseBrowserLogin {
			err = a.loginViaBrowser(ctx, pool)
		} else {
			err = a.loginViaHTTP()
		}
		if err != nil {
			a.authErr = err
			a.isAuthenticated = false
			return err
		}
		a.isAuthenticated = true
		a.lastAuthTime = time.Now()
		a.authErr = nil
		return nil

	default:
		return fmt.Errorf("auth: unknown auth type %q", a.cfg.Type)
	}
}

// loginViaHTTP performs a direct form POST, for login forms that work
// without JavaScript.
func (a *Authenticator) loginViaHTTP() error {
	if a.cfg.LoginURL == "" {
		return fmt.Errorf("auth: login_url is required for form authentication")
	}

	formData := url.Values{}
	for key, value := range a.cfg.FormFields {
		formData.Set(key, value)
	}

	resp, err := a.httpClient.PostForm(a.cfg.LoginURL, formData)
	if err != nil {
		return fmt.Errorf("auth: login request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("auth: reading login response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("auth: login failed with status %d", resp.StatusCode)
	}
	if a.cfg.SuccessURL != "" && !strings.HasPrefix(resp.Request.URL.String(), a.cfg.SuccessURL) {
		return fmt.Errorf("auth: login redirected to unexpected URL %s", resp.Request.URL)
	}
	if a.cfg.SuccessText != "" && !strings.Contains(string(body), a.cfg.SuccessText) {
		return fmt.Errorf("auth: login response missing success text")
	}

	loginURL, _ := url.Parse(a.cfg.LoginURL)
	a.sessionCookies = a.cookieJar.Cookies(loginURL)
	return nil
}

// loginViaBrowser drives the login form through a real browser
// session, required when the form is submitted by client-side JS. The
// resulting browser cookies are copied into the shared cookie jar so
// the crawler's light-mode fetcher also carries the session.
func (a *Authenticator) loginViaBrowser(ctx context.Context, pool *renderer.Pool) error {
	if pool == nil {
		return fmt.Errorf("auth: browser login requires a renderer pool")
	}
	if a.cfg.LoginURL == "" {
		return fmt.Errorf("auth: login_url is required for form authentication")
	}

	browserCtx, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("auth: acquiring browser context: %w", err)
	}
	defer pool.Release(browserCtx)

	result := renderer.Render(browserCtx, a.cfg.LoginURL, "", 30*time.Second)
	if result.Error != nil {
		return fmt.Errorf("auth: navigating to login page: %w", result.Error)
	}

	for selector, value := range a.cfg.FormFields {
		if err := setBrowserField(browserCtx, selector, value); err != nil {
			return fmt.Errorf("auth: filling field %s: %w", selector, err)
		}
	}
	if err := submitBrowserForm(browserCtx); err != nil {
		return fmt.Errorf("auth: submitting login form: %w", err)
	}

	currentURL, bodyText, err := browserLoginOutcome(browserCtx)
	if err != nil {
		return fmt.Errorf("auth: reading post-login page: %w", err)
	}
	if a.cfg.SuccessURL != "" && !strings.HasPrefix(currentURL, a.cfg.SuccessURL) {
		return fmt.Errorf("auth: browser login ended at unexpected URL %s", currentURL)
	}
	if a.cfg.SuccessText != "" && !strings.Contains(bodyText, a.cfg.SuccessText) {
		return fmt.Errorf("auth: post-login page missing success text")
	}

	cookies, err := browserCookies(browserCtx, currentURL)
	if err != nil {
		return fmt.Errorf("auth: reading browser cookies: %w", err)
	}
	if u, err := url.Parse(currentURL); err == nil {
		a.cookieJar.SetCookies(u, cookies)
		a.sessionCookies = cookies
	}
	return nil
}

// ApplyToBrowser injects the session's cookies into browserCtx via
// CDP, the heavy-mode counterpart to ApplyToRequest. Callers
// (crawler.fetchHeavy, scanner.scanOne, funnel.Executor.Run) call it
// on the acquired browser context before renderer.Render navigates to
// the restricted URL; no reload follows.
func (a *Authenticator) ApplyToBrowser(browserCtx context.Context) error {
	a.mu.RLock()
	cookies := append([]*http.Cookie(nil), a.sessionCookies...)
	a.mu.RUnlock()

	if len(cookies) == 0 {
		return nil
	}
	return setBrowserCookies(browserCtx, cookies)
}

// ApplyToRequest applies the resolved auth strategy to an outgoing
// light-mode request.
func (a *Authenticator) ApplyToRequest(req *http.Request) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	switch a.cfg.Type {
	case config.AuthBasic:
		creds := base64.StdEncoding.EncodeToString([]byte(a.cfg.Username + ":" + a.cfg.Password))
		req.Header.Set("Authorization", "Basic "+creds)
	case config.AuthCookie, config.AuthForm:
		for _, cookie := range a.sessionCookies {
			req.AddCookie(cookie)
		}
	}
}

// IsRestrictedURL reports whether rawURL matches one of the
// configured restricted-URL prefixes, meaning it requires a successful
// authentication before the crawler will fetch it.
func (a *Authenticator) IsRestrictedURL(rawURL string) bool {
	for _, prefix := range a.cfg.RestrictedURLs {
		if strings.HasPrefix(rawURL, prefix) {
			return true
		}
	}
	return false
}

// IsAuthenticated reports whether the last Authenticate call
// succeeded.
func (a *Authenticator) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.isAuthenticated
}

// AuthError returns the error from the last failed Authenticate call.
func (a *Authenticator) AuthError() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.authErr
}

// HTTPClient returns the cookie-jar-backed client light-mode fetches
// of restricted URLs should use.
func (a *Authenticator) HTTPClient() *http.Client {
	return a.httpClient
}

// RefreshAuth re-runs form authentication once the session is older
// than 30 minutes; other auth types never expire.
func (a *Authenticator) RefreshAuth(ctx context.Context, pool *renderer.Pool) error {
	a.mu.RLock()
	needsRefresh := a.cfg.Type == config.AuthForm && time.Since(a.lastAuthTime) > 30*time.Minute
	a.mu.RUnlock()

	if !needsRefresh {
		return nil
	}
	return a.Authenticate(ctx, pool)
}

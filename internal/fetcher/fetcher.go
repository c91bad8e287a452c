package fetcher

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/a11y-auditor/auditor/internal/auth"
	"github.com/a11y-auditor/auditor/internal/config"
)

// Fetcher issues light-mode (no browser) GET requests, tracking the
// redirect chain and TLS info manually so callers see every hop.
type Fetcher struct {
	client      *http.Client
	cfg         config.CrawlConfig
	maxBodySize int64
	transport   *http.Transport
	authn       *auth.Authenticator
}

// New returns a Fetcher bound to cfg's timeouts, user agent, and
// redirect limit. authn may be nil (unauthenticated crawl); when set,
// every request is passed through authn.ApplyToRequest so a restricted
// URL carries the session's cookies/credentials per spec §4.3's
// apply_to_headers contract.
func New(cfg config.CrawlConfig, authn *auth.Authenticator) *Fetcher {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: false},
	}

	f := &Fetcher{
		cfg:         cfg,
		maxBodySize: 10 * 1024 * 1024,
		transport:   transport,
		authn:       authn,
	}

	f.client = &http.Client{
		Transport: transport,
		Timeout:   cfg.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Stop at the first redirect; Fetch follows manually so it
			// can record every hop.
			return http.ErrUseLastResponse
		},
	}

	return f
}

// Fetch performs a GET against rawURL, following same-origin and
// cross-origin redirects up to cfg.MaxRedirects and recording each hop.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) *Response {
	start := time.Now()
	resp := &Response{
		RequestURL:    rawURL,
		RedirectChain: make([]RedirectHop, 0),
	}

	currentURL := rawURL
	var ttfbRecorded bool

	maxRedirects := f.cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 10
	}

	for i := 0; i <= maxRedirects; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, currentURL, nil)
		if err != nil {
			resp.Error = fmt.Errorf("fetcher: building request: %w", err)
			return resp
		}
		f.setRequestHeaders(req)
		if f.authn != nil {
			f.authn.ApplyToRequest(req)
		}

		reqStart := time.Now()
		httpResp, err := f.client.Do(req)
		if err != nil {
			resp.Error = categorizeError(err)
			resp.Retryable = isRetryableError(err)
			resp.FinalURL = currentURL
			return resp
		}

		if !ttfbRecorded {
			resp.TTFB = time.Since(reqStart)
			ttfbRecorded = true
		}

		if httpResp.StatusCode >= 300 && httpResp.StatusCode < 400 {
			location := httpResp.Header.Get("Location")
			httpResp.Body.Close()

			resp.RedirectChain = append(resp.RedirectChain, RedirectHop{
				URL:        currentURL,
				StatusCode: httpResp.StatusCode,
				Location:   location,
			})

			if location == "" {
				resp.FinalURL = currentURL
				resp.StatusCode = httpResp.StatusCode
				return resp
			}

			nextURL, err := resolveRedirectURL(currentURL, location)
			if err != nil {
				resp.Error = fmt.Errorf("fetcher: invalid redirect location %q: %w", location, err)
				resp.FinalURL = currentURL
				resp.StatusCode = httpResp.StatusCode
				return resp
			}
			currentURL = nextURL
			continue
		}

		resp.FinalURL = currentURL
		resp.StatusCode = httpResp.StatusCode
		resp.Status = httpResp.Status
		resp.Headers = httpResp.Header
		resp.ContentType = extractContentType(httpResp.Header.Get("Content-Type"))
		resp.ContentLength = httpResp.ContentLength
		resp.Retryable = IsRetryableStatus(httpResp.StatusCode)

		if httpResp.StatusCode == http.StatusTooManyRequests {
			resp.RetryAfter = parseRetryAfter(httpResp.Header.Get("Retry-After"))
		}

		if httpResp.TLS != nil {
			resp.TLSInfo = extractTLSInfo(httpResp.TLS)
		}

		body, bodySize, err := f.readBody(httpResp)
		httpResp.Body.Close()
		if err != nil {
			resp.Error = fmt.Errorf("fetcher: reading body: %w", err)
			resp.Retryable = true
		} else {
			resp.Body = body
			resp.BodySize = bodySize
		}

		resp.ResponseTime = time.Since(start)
		return resp
	}

	resp.Error = fmt.Errorf("fetcher: max redirects (%d) exceeded", maxRedirects)
	resp.FinalURL = currentURL
	return resp
}

func (f *Fetcher) setRequestHeaders(req *http.Request) {
	ua := f.cfg.UserAgent
	if ua == "" {
		ua = "a11y-auditor/1.0"
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Connection", "keep-alive")
}

func (f *Fetcher) readBody(resp *http.Response) ([]byte, int64, error) {
	var reader io.Reader = resp.Body

	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, 0, fmt.Errorf("gzip decode: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	body, err := io.ReadAll(io.LimitReader(reader, f.maxBodySize))
	if err != nil {
		return nil, 0, err
	}
	return body, int64(len(body)), nil
}

// SetMaxBodySize overrides the default 10MB body cap.
func (f *Fetcher) SetMaxBodySize(size int64) {
	f.maxBodySize = size
}

// Close releases pooled idle connections.
func (f *Fetcher) Close() {
	f.transport.CloseIdleConnections()
}

func resolveRedirectURL(baseURL, location string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	loc, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(loc).String(), nil
}

func extractContentType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx != -1 {
		return strings.TrimSpace(contentType[:idx])
	}
	return strings.TrimSpace(contentType)
}

// parseRetryAfter supports both the delay-seconds and HTTP-date forms
// of Retry-After; an unparsable header yields zero (caller falls back
// to its own backoff).
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
	}
	return 0
}

func categorizeError(err error) error {
	if err == nil {
		return nil
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return fmt.Errorf("fetcher: timeout: %w", err)
	}
	if _, ok := err.(*net.DNSError); ok {
		return fmt.Errorf("fetcher: DNS error: %w", err)
	}
	if opErr, ok := err.(*net.OpError); ok && opErr.Op == "dial" {
		return fmt.Errorf("fetcher: connection failed: %w", err)
	}
	if strings.Contains(err.Error(), "tls:") || strings.Contains(err.Error(), "certificate") {
		return fmt.Errorf("fetcher: TLS error: %w", err)
	}
	return err
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return true
	}
	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"connection reset", "connection refused", "no such host", "eof", "broken pipe"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

func extractTLSInfo(state *tls.ConnectionState) *TLSInfo {
	info := &TLSInfo{
		Version:     tlsVersionString(state.Version),
		CipherSuite: tls.CipherSuiteName(state.CipherSuite),
		ServerName:  state.ServerName,
		IsValid:     true,
	}

	if len(state.PeerCertificates) > 0 {
		cert := state.PeerCertificates[0]
		info.Subject = cert.Subject.CommonName
		info.Issuer = cert.Issuer.CommonName
		info.NotBefore = cert.NotBefore
		info.NotAfter = cert.NotAfter

		now := time.Now()
		if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
			info.IsValid = false
			info.Error = "certificate expired or not yet valid"
		}
	}

	return info
}

func tlsVersionString(version uint16) string {
	switch version {
	case tls.VersionTLS10:
		return "TLS 1.0"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return fmt.Sprintf("Unknown (0x%04x)", version)
	}
}

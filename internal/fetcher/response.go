// Package fetcher performs light-mode (plain HTTP, no browser) page
// fetches for the crawler, tracking redirect chains and TLS info and
// flagging responses that should be retried or escalated to heavy
// (browser-rendered) mode.
package fetcher

import (
	"net/http"
	"time"
)

// Response is the result of a light-mode fetch.
type Response struct {
	RequestURL string
	FinalURL   string

	StatusCode  int
	Status      string
	Headers     http.Header
	ContentType string

	ContentLength int64
	BodySize      int64
	Body          []byte

	RedirectChain []RedirectHop

	TTFB         time.Duration
	ResponseTime time.Duration

	TLSInfo *TLSInfo

	Error     error
	Retryable bool

	// RetryAfter is the honored Retry-After duration on a 429
	// response, zero when absent.
	RetryAfter time.Duration
}

// RedirectHop is a single hop in a response's redirect chain.
type RedirectHop struct {
	URL        string
	StatusCode int
	Location   string
}

// TLSInfo carries the negotiated TLS connection's certificate data.
type TLSInfo struct {
	Version     string
	CipherSuite string
	ServerName  string
	Issuer      string
	Subject     string
	NotBefore   time.Time
	NotAfter    time.Time
	IsValid     bool
	Error       string
}

func (r *Response) IsSuccess() bool      { return r.StatusCode >= 200 && r.StatusCode < 300 }
func (r *Response) IsRedirect() bool     { return r.StatusCode >= 300 && r.StatusCode < 400 }
func (r *Response) IsClientError() bool  { return r.StatusCode >= 400 && r.StatusCode < 500 }
func (r *Response) IsServerError() bool  { return r.StatusCode >= 500 && r.StatusCode < 600 }
func (r *Response) HasRedirects() bool   { return len(r.RedirectChain) > 0 }
func (r *Response) RedirectCount() int   { return len(r.RedirectChain) }

func (r *Response) GetHeader(name string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get(name)
}

func (r *Response) IsHTML() bool {
	ct := r.ContentType
	return ct == "text/html" || len(ct) > 9 && ct[:9] == "text/html"
}

// retryableStatusCodes is the exact status-code set on which a fetch
// is retried with backoff: 5xx, 408, 429, 403, and the Cloudflare
// 520-524 extended range.
var retryableStatusCodes = map[int]bool{
	500: true, 502: true, 503: true, 504: true,
	408: true, 429: true, 403: true,
	520: true, 521: true, 522: true, 523: true, 524: true,
}

// IsRetryableStatus reports whether code is in the retry set.
func IsRetryableStatus(code int) bool {
	return retryableStatusCodes[code]
}

const smallBodyThreshold = 512

var jsFrameworkMarkers = [][]byte{
	[]byte(`id="root"`), []byte(`id="app"`), []byte(`id="__next"`),
	[]byte("ng-version"), []byte("data-reactroot"),
}

// ShouldEscalateToHeavy reports whether a light-mode response is
// suspicious enough that the caller should re-fetch the same URL in
// heavy (browser-rendered) mode: a very small body, a bare JS-
// framework mount point, or a 403/408/429 status.
func (r *Response) ShouldEscalateToHeavy() bool {
	if r.StatusCode == 403 || r.StatusCode == 408 || r.StatusCode == 429 {
		return true
	}
	if r.BodySize > 0 && r.BodySize < smallBodyThreshold {
		return true
	}
	return containsJSFrameworkMarker(r.Body)
}

func containsJSFrameworkMarker(body []byte) bool {
	if len(body) == 0 || len(body) > 4096 {
		return false
	}
	for _, marker := range jsFrameworkMarkers {
		if bytesContains(body, marker) {
			return true
		}
	}
	return false
}

func bytesContains(haystack, needle []byte) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if string(haystack[i:i+len(needle)]) == string(needle) {
			return true
		}
	}
	return false
}

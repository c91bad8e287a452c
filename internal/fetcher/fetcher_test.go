package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a11y-auditor/auditor/internal/auth"
	"github.com/a11y-auditor/auditor/internal/config"
)

func testConfig() config.CrawlConfig {
	cfg := config.Default().Crawl
	cfg.RequestTimeout = 5 * time.Second
	return cfg
}

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	f := New(testConfig(), nil)
	defer f.Close()

	resp := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, resp.Error)
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, "text/html", resp.ContentType)
	assert.Equal(t, "<html><body>hello</body></html>", string(resp.Body))
	assert.Empty(t, resp.RedirectChain)
}

func TestFetch_FollowsRedirectChain(t *testing.T) {
	var final string
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/middle", http.StatusFound)
	})
	mux.HandleFunc("/middle", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/end", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/end", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("done"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	final = srv.URL + "/end"

	f := New(testConfig(), nil)
	defer f.Close()

	resp := f.Fetch(context.Background(), srv.URL+"/start")
	require.NoError(t, resp.Error)
	assert.Equal(t, final, resp.FinalURL)
	assert.Len(t, resp.RedirectChain, 2)
	assert.Equal(t, http.StatusFound, resp.RedirectChain[0].StatusCode)
}

func TestFetch_RetryableStatusMarked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := New(testConfig(), nil)
	defer f.Close()

	resp := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, resp.Error)
	assert.Equal(t, 503, resp.StatusCode)
	assert.True(t, resp.Retryable)
}

func TestFetch_HonorsRetryAfterSeconds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := New(testConfig(), nil)
	defer f.Close()

	resp := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, resp.Error)
	assert.Equal(t, 7*time.Second, resp.RetryAfter)
}

func TestFetch_AppliesAuthenticatorToRequest(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	authn, err := auth.New(config.AuthConfig{Type: config.AuthBasic, Username: "alice", Password: "secret"}, 5*time.Second)
	require.NoError(t, err)

	f := New(testConfig(), authn)
	defer f.Close()

	resp := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, resp.Error)
	assert.NotEmpty(t, gotAuth)
}

func TestIsRetryableStatus(t *testing.T) {
	for _, code := range []int{500, 502, 503, 504, 408, 429, 403, 520, 524} {
		assert.True(t, IsRetryableStatus(code), "expected %d to be retryable", code)
	}
	for _, code := range []int{200, 301, 404} {
		assert.False(t, IsRetryableStatus(code), "expected %d to not be retryable", code)
	}
}

func TestResponse_ShouldEscalateToHeavy(t *testing.T) {
	cases := []struct {
		name string
		resp Response
		want bool
	}{
		{"403", Response{StatusCode: 403}, true},
		{"408", Response{StatusCode: 408}, true},
		{"429", Response{StatusCode: 429}, true},
		{"small body", Response{StatusCode: 200, BodySize: 100}, true},
		{"react root", Response{StatusCode: 200, BodySize: 1000, Body: []byte(`<div id="root"></div>`)}, true},
		{"normal page", Response{StatusCode: 200, BodySize: 2000, Body: []byte("<html><body><p>content</p></body></html>")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.resp.ShouldEscalateToHeavy())
		})
	}
}

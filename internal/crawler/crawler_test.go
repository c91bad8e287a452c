package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a11y-auditor/auditor/internal/config"
	"github.com/a11y-auditor/auditor/internal/model"
)

func TestCrawler_LightModeFetchesAndEnqueuesLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Write([]byte(`<html><body><a href="/page2">next</a></body></html>`))
		case "/page2":
			w.Write([]byte(`<html><body>leaf</body></html>`))
		}
	}))
	defer srv.Close()

	cfg := config.Default().Crawl
	cfg.PendingThreshold = 0 // never use heavy mode (no pool in this test)
	cfg.RequestDelay = 0
	cfg.Concurrency = 2
	cfg.MaxURLsPerDomain = 10

	state := model.NewDomainCrawlState("test")
	c := New("test", cfg, state, nil, nil)
	defer c.Close()

	require.NoError(t, c.Seed(srv.URL+"/"))

	results := make(chan *PageResult, 10)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		c.Run(ctx, results)
		close(done)
	}()
	<-done
	close(results)

	var pages []*PageResult
	for r := range results {
		pages = append(pages, r)
	}

	require.Len(t, pages, 2)
	assert.Equal(t, 2, state.Stats.Fetched)
	assert.Equal(t, 2, state.Stats.Succeeded)
}

func TestCrawler_PendingThresholdSwitchWithoutPool(t *testing.T) {
	cfg := config.Default().Crawl
	cfg.PendingThreshold = 3

	state := model.NewDomainCrawlState("test")
	// No renderer pool available: shouldUseHeavy must always fall back
	// to light mode regardless of the threshold, never panic on a nil
	// pool.
	c := New("test", cfg, state, nil, nil)
	defer c.Close()

	for i := 0; i < 5; i++ {
		assert.False(t, c.shouldUseHeavy())
	}
}

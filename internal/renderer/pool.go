// Package renderer drives a pool of headless Chromium contexts via
// chromedp, providing heavy-mode page rendering, funnel action
// execution, and screenshot/HTML capture shared by internal/scanner,
// internal/funnel, and internal/auth's browser-login strategy.
package renderer

import (
	"context"
	"sync"

	"github.com/chromedp/chromedp"

	"github.com/a11y-auditor/auditor/internal/config"
)

// Pool hands out chromedp browser contexts, bounded by
// cfg.Concurrency, the way the teacher's Renderer.browserPool does.
type Pool struct {
	mu        sync.Mutex
	allocator context.Context
	cancel    context.CancelFunc
	contexts  chan context.Context
	size      int
}

// NewPool launches a headless Chromium allocator and pre-populates
// size browser contexts.
func NewPool(cfg config.CrawlConfig, chromiumPath string) (*Pool, error) {
	size := cfg.Concurrency
	if size < 1 {
		size = 1
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if chromiumPath != "" {
		opts = append(opts, chromedp.ExecPath(chromiumPath))
	}

	allocator, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	p := &Pool{
		allocator: allocator,
		cancel:    cancel,
		contexts:  make(chan context.Context, size),
		size:      size,
	}
	for i := 0; i < size; i++ {
		ctx, _ := chromedp.NewContext(p.allocator)
		p.contexts <- ctx
	}
	return p, nil
}

// Acquire checks out a browser context, blocking until one is free or
// ctx is cancelled.
func (p *Pool) Acquire(ctx context.Context) (context.Context, error) {
	select {
	case browserCtx := <-p.contexts:
		return browserCtx, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a browser context to the pool.
func (p *Pool) Release(browserCtx context.Context) {
	p.contexts <- browserCtx
}

// Close tears down every browser context and the allocator.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	close(p.contexts)
	for browserCtx := range p.contexts {
		chromedp.Cancel(browserCtx)
	}
	if p.cancel != nil {
		p.cancel()
	}
}

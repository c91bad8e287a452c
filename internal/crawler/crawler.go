package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/a11y-auditor/auditor/internal/auth"
	"github.com/a11y-auditor/auditor/internal/config"
	"github.com/a11y-auditor/auditor/internal/fetcher"
	"github.com/a11y-auditor/auditor/internal/htmlx"
	"github.com/a11y-auditor/auditor/internal/model"
	"github.com/a11y-auditor/auditor/internal/renderer"
	"github.com/a11y-auditor/auditor/internal/urlutil"
)

// FetchMode names which collaborator served a URL.
type FetchMode string

const (
	ModeHeavy FetchMode = "heavy"
	ModeLight FetchMode = "light"
)

// PageResult is one fetched page's outcome, handed to the caller
// (the orchestrator's crawl stage) for template/state bookkeeping.
type PageResult struct {
	Item       *URLItem
	Mode       FetchMode
	StatusCode int
	FinalURL   string
	HTML       string
	Links      []htmlx.Link
	Error      error
	Retry      bool
	RetryAfter time.Duration
}

// Crawler runs the hybrid heavy/light BFS crawl for a single domain.
type Crawler struct {
	domain string
	cfg    config.CrawlConfig

	frontier   *Frontier
	limiter    *HostRateLimiter
	normalizer *urlutil.Normalizer
	fetch      *fetcher.Fetcher
	pool       *renderer.Pool
	authn      *auth.Authenticator

	state *model.DomainCrawlState

	mu        sync.Mutex
	heavyDone int // URLs fetched in heavy mode so far, for the pending_threshold switch
}

// New builds a Crawler for one domain. pool may be nil, in which case
// heavy mode is never used: every URL is fetched in light mode and no
// light response is escalated.
func New(domain string, cfg config.CrawlConfig, state *model.DomainCrawlState, pool *renderer.Pool, authn *auth.Authenticator) *Crawler {
	return &Crawler{
		domain:     domain,
		cfg:        cfg,
		frontier:   NewFrontier(cfg.DepthLimit, cfg.MaxURLsPerDomain),
		limiter:    NewHostRateLimiter(cfg.RequestDelay, cfg.PerHostRPS),
		normalizer: urlutil.NewNormalizer(cfg.StripWWW),
		fetch:      fetcher.New(cfg, authn),
		pool:       pool,
		authn:      authn,
		state:      state,
	}
}

// Frontier exposes the underlying queue, e.g. for seeding or stats.
func (c *Crawler) Frontier() *Frontier { return c.frontier }

// Seed enqueues a starting URL at depth 0.
func (c *Crawler) Seed(rawURL string) error {
	return c.enqueue(rawURL, "", 0)
}

func (c *Crawler) enqueue(rawURL, discoveredFrom string, depth int) error {
	normalized, err := c.normalizer.Normalize(rawURL)
	if err != nil {
		return fmt.Errorf("crawler: normalizing %s: %w", rawURL, err)
	}
	host, err := urlutil.ExtractHost(rawURL)
	if err != nil {
		return fmt.Errorf("crawler: extracting host from %s: %w", rawURL, err)
	}
	if c.frontier.HasVisited(normalized) {
		return nil
	}
	c.frontier.Push(NewURLItem(rawURL, normalized, host, depth, discoveredFrom))
	return nil
}

// Run drains the frontier using cfg.Concurrency workers until it is
// empty, sending each fetched page's result to results. Closing
// results is the caller's responsibility once Run returns.
func (c *Crawler) Run(ctx context.Context, results chan<- *PageResult) {
	concurrency := c.cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var wg sync.WaitGroup
	var active sync32
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.worker(ctx, &active, results)
		}()
	}
	wg.Wait()
}

// sync32 is a tiny atomic counter for tracking idle workers without
// importing sync/atomic's verbose API at every call site.
type sync32 struct {
	mu sync.Mutex
	n  int
}

func (s *sync32) add(delta int) {
	s.mu.Lock()
	s.n += delta
	s.mu.Unlock()
}

func (s *sync32) get() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

func (c *Crawler) worker(ctx context.Context, active *sync32, results chan<- *PageResult) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		item := c.frontier.Pop()
		if item == nil {
			if c.frontier.IsEmpty() && active.get() == 0 {
				return
			}
			time.Sleep(50 * time.Millisecond)
			continue
		}

		if !item.CanCrawl() {
			c.frontier.Requeue(item)
			time.Sleep(20 * time.Millisecond)
			continue
		}

		if err := c.limiter.Wait(ctx, item.Host); err != nil {
			c.frontier.Requeue(item)
			return
		}

		active.add(1)
		result := c.fetchOne(ctx, item)
		active.add(-1)

		c.limiter.RecordAccess(item.Host)
		c.frontier.MarkVisited(item.NormalizedURL)
		c.state.Stats.Fetched++

		if result.Error != nil {
			c.state.Stats.Failed++
			if result.Retry && item.RetryCount < c.cfg.MaxRetries {
				backoff := c.cfg.RetryBackoff
				if result.RetryAfter > 0 {
					backoff = result.RetryAfter
				}
				item.IncrementRetry(backoff, Jitter)
				c.frontier.Requeue(item)
				c.state.Stats.Retried++
			}
		} else {
			c.state.Stats.Succeeded++
			for _, link := range result.Links {
				c.enqueue(link.URL, item.URL, item.Depth+1)
				if normalized, err := c.normalizer.Normalize(link.URL); err == nil {
					c.state.LinkChild(item.NormalizedURL, normalized)
				}
			}
		}

		select {
		case results <- result:
		case <-ctx.Done():
			return
		}
	}
}

// fetchOne decides heavy vs light per the pending_threshold rule,
// escalating a suspicious light-mode response to heavy mode.
func (c *Crawler) fetchOne(ctx context.Context, item *URLItem) *PageResult {
	if c.shouldUseHeavy() {
		return c.fetchHeavy(ctx, item)
	}

	result := c.fetchLight(ctx, item)
	if result.Error == nil && result.ShouldEscalate && c.pool != nil {
		c.state.Stats.HeavyFallback++
		return c.fetchHeavy(ctx, item)
	}
	return result.PageResult
}

// shouldUseHeavy implements spec's pending_threshold rule: the first
// PendingThreshold URLs for a domain render in heavy mode, then the
// crawler switches to light mode for the rest (escalating back to
// heavy per-URL only when a light response looks suspicious).
func (c *Crawler) shouldUseHeavy() bool {
	if c.cfg.PendingThreshold <= 0 || c.pool == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.heavyDone < c.cfg.PendingThreshold {
		c.heavyDone++
		return true
	}
	if c.heavyDone == c.cfg.PendingThreshold {
		c.heavyDone++
		c.state.Stats.SwitchToHTTP++
	}
	return false
}

type lightResult struct {
	PageResult     *PageResult
	ShouldEscalate bool
}

func (c *Crawler) fetchLight(ctx context.Context, item *URLItem) lightResult {
	if c.authn != nil && c.authn.IsRestrictedURL(item.URL) && !c.authn.IsAuthenticated() {
		return lightResult{PageResult: &PageResult{
			Item: item, Mode: ModeLight,
			Error: fmt.Errorf("crawler: skipping restricted URL, auth not established"),
		}}
	}

	resp := c.fetch.Fetch(ctx, item.URL)
	if resp.Error != nil {
		return lightResult{PageResult: &PageResult{
			Item: item, Mode: ModeLight, Error: resp.Error, Retry: resp.Retryable,
		}}
	}
	if resp.Retryable {
		return lightResult{PageResult: &PageResult{
			Item: item, Mode: ModeLight, StatusCode: resp.StatusCode,
			Error: fmt.Errorf("crawler: retryable status %d", resp.StatusCode),
			Retry: true, RetryAfter: resp.RetryAfter,
		}}
	}

	doc, err := urlutil.ParseDocument(string(resp.Body))
	var links []htmlx.Link
	if err == nil {
		links = append(htmlx.ExtractLinks(doc, resp.FinalURL), htmlx.ExtractLinksRegex(string(resp.Body), resp.FinalURL)...)
	}

	return lightResult{
		PageResult: &PageResult{
			Item: item, Mode: ModeLight, StatusCode: resp.StatusCode,
			FinalURL: resp.FinalURL, HTML: string(resp.Body), Links: links,
		},
		ShouldEscalate: resp.ShouldEscalateToHeavy(),
	}
}

func (c *Crawler) fetchHeavy(ctx context.Context, item *URLItem) *PageResult {
	if c.authn != nil && c.authn.IsRestrictedURL(item.URL) && !c.authn.IsAuthenticated() {
		return &PageResult{Item: item, Mode: ModeHeavy,
			Error: fmt.Errorf("crawler: skipping restricted URL, auth not established")}
	}

	browserCtx, err := c.pool.Acquire(ctx)
	if err != nil {
		return &PageResult{Item: item, Mode: ModeHeavy, Error: err, Retry: true}
	}
	defer c.pool.Release(browserCtx)

	if c.authn != nil && c.authn.IsRestrictedURL(item.URL) {
		if err := c.authn.ApplyToBrowser(browserCtx); err != nil {
			return &PageResult{Item: item, Mode: ModeHeavy, Error: fmt.Errorf("crawler: injecting session cookies: %w", err)}
		}
	}

	rendered := renderer.Render(browserCtx, item.URL, "", c.cfg.RenderTimeout)
	if rendered.Error != nil {
		return &PageResult{Item: item, Mode: ModeHeavy, Error: rendered.Error, Retry: true}
	}

	doc, err := urlutil.ParseDocument(rendered.HTML)
	var links []htmlx.Link
	if err == nil {
		links = htmlx.ExtractLinks(doc, rendered.FinalURL)
	}

	return &PageResult{
		Item: item, Mode: ModeHeavy, StatusCode: rendered.StatusCode,
		FinalURL: rendered.FinalURL, HTML: rendered.HTML, Links: links,
	}
}

// Close releases the fetcher's pooled connections. The renderer pool
// is owned by the caller, since it's shared across domains.
func (c *Crawler) Close() {
	c.fetch.Close()
}

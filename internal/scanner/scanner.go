// Package scanner drives a bounded pool of headless-browser workers
// that inject axe-core into each representative page (or funnel-step
// HTML snapshot) and flatten its findings into model.Violations.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a11y-auditor/auditor/internal/auth"
	"github.com/a11y-auditor/auditor/internal/config"
	"github.com/a11y-auditor/auditor/internal/layout"
	"github.com/a11y-auditor/auditor/internal/model"
	"github.com/a11y-auditor/auditor/internal/renderer"
)

// Scanner runs the driver pool for one domain.
type Scanner struct {
	cfg        config.ScanConfig
	pool       *renderer.Pool
	authn      *auth.Authenticator
	layout     *layout.Layout
	domainSlug string
	log        *zap.SugaredLogger

	mu         sync.Mutex
	visited    map[model.NormalizedURL]struct{}
	seen       map[string]struct{}
	violations model.ViolationSet

	saveMu   sync.Mutex
	stopSave chan struct{}
	saveWG   sync.WaitGroup
}

// New returns a Scanner for domainSlug. authn may be nil when the
// domain has no restricted URLs to authenticate against.
func New(cfg config.ScanConfig, pool *renderer.Pool, authn *auth.Authenticator, l *layout.Layout, domainSlug string, log *zap.SugaredLogger) *Scanner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Scanner{
		cfg:        cfg,
		pool:       pool,
		authn:      authn,
		layout:     l,
		domainSlug: domainSlug,
		log:        log,
		visited:    make(map[model.NormalizedURL]struct{}),
		seen:       make(map[string]struct{}),
	}
}

// SeedVisited preloads a previously persisted visited set, implementing
// the scanner's resume behavior: those URLs are dropped from any
// pending job list a caller subsequently builds.
func (s *Scanner) SeedVisited(visited map[model.NormalizedURL]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for u := range visited {
		s.visited[u] = struct{}{}
	}
}

// Pending filters jobs down to those not already in the visited set.
func (s *Scanner) Pending(jobs []Job) []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Job, 0, len(jobs))
	for _, j := range jobs {
		if _, done := s.visited[j.URL]; !done {
			out = append(out, j)
		}
	}
	return out
}

// Run scans every job with cfg.PoolSize concurrent workers and returns
// the accumulated, deduplicated ViolationSet. A per-URL axe failure
// after retries is not fatal: it yields zero violations for that URL
// (still marked visited) rather than aborting the run.
func (s *Scanner) Run(ctx context.Context, jobs []Job) (*model.ViolationSet, error) {
	s.startAutoSave()
	defer s.stopAutoSave()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.PoolSize)

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			s.scanOne(gctx, job)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scanner: running driver pool: %w", err)
	}

	if err := s.saveVisited(); err != nil {
		s.log.Warnw("scanner: final visited-set save failed", "domain", s.domainSlug, "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return &model.ViolationSet{Violations: append([]model.Violation(nil), s.violations.Violations...)}, nil
}

// scanOne applies auth if needed, acquires a browser context, and
// runs the inject-and-scan sequence with up to cfg.AxeRetries retries.
// Recreating the worker on driver death is implicit: a failed
// navigation never poisons the shared pool, it only loses this job.
func (s *Scanner) scanOne(ctx context.Context, job Job) {
	browserCtx, err := s.pool.Acquire(ctx)
	if err != nil {
		s.log.Warnw("scanner: acquiring browser context", "url", job.URL, "error", err)
		s.markVisited(job.URL)
		return
	}
	defer s.pool.Release(browserCtx)

	if job.AuthRequired {
		if s.authn == nil || !s.authn.IsAuthenticated() {
			s.log.Infow("scanner: skipping restricted URL, not authenticated", "url", job.URL)
			s.markVisited(job.URL)
			return
		}
		if err := s.authn.ApplyToBrowser(browserCtx); err != nil {
			s.log.Warnw("scanner: injecting session cookies failed", "url", job.URL, "error", err)
		}
	}

	result, err := s.runAxeWithRetries(ctx, browserCtx, string(job.URL))
	if err != nil {
		s.log.Warnw("scanner: axe run failed after retries", "url", job.URL, "error", err)
		s.markVisited(job.URL)
		return
	}

	violations := flatten(job.URL, job.AuthRequired, job, result)
	s.addViolations(violations)
	s.markVisited(job.URL)
}

// runAxeWithRetries navigates to rawURL, sleeps cfg.SleepTime to allow
// late scripts to finish, and injects+runs axe-core with up to
// cfg.AxeRetries internal retries.
func (s *Scanner) runAxeWithRetries(ctx context.Context, browserCtx context.Context, rawURL string) (axeResult, error) {
	navResult := renderer.Render(browserCtx, rawURL, "", s.cfg.PageLoadTimeout)
	if navResult.Error != nil {
		return axeResult{}, fmt.Errorf("navigating: %w", navResult.Error)
	}

	if s.cfg.SleepTime > 0 {
		select {
		case <-time.After(s.cfg.SleepTime):
		case <-ctx.Done():
			return axeResult{}, ctx.Err()
		}
	}

	var lastErr error
	attempts := s.cfg.AxeRetries
	if attempts < 0 {
		attempts = 0
	}
	for attempt := 0; attempt <= attempts; attempt++ {
		result, err := s.runAxeOnce(browserCtx)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return axeResult{}, lastErr
}

// runAxeOnce injects axe-core if the page doesn't already have it
// loaded, then evaluates axe.run restricted to violations.
func (s *Scanner) runAxeOnce(browserCtx context.Context) (axeResult, error) {
	var hasAxe bool
	if err := renderer.Evaluate(browserCtx, "typeof window.axe !== 'undefined'", &hasAxe, 5*time.Second); err != nil {
		return axeResult{}, fmt.Errorf("checking for axe-core: %w", err)
	}
	if !hasAxe {
		var ignored interface{}
		if err := renderer.Evaluate(browserCtx, axeCoreScript, &ignored, 10*time.Second); err != nil {
			return axeResult{}, fmt.Errorf("injecting axe-core: %w", err)
		}
	}

	var result axeResult
	if err := renderer.Evaluate(browserCtx, axeRunScript, &result, s.cfg.PageLoadTimeout); err != nil {
		return axeResult{}, fmt.Errorf("running axe: %w", err)
	}
	return result, nil
}

func (s *Scanner) addViolations(vs []model.Violation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vs {
		s.violations.Add(v, s.seen)
	}
}

func (s *Scanner) markVisited(u model.NormalizedURL) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visited[u] = struct{}{}
}

// Violations returns a snapshot of the accumulated ViolationSet.
func (s *Scanner) Violations() model.ViolationSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.ViolationSet{Violations: append([]model.Violation(nil), s.violations.Violations...)}
}

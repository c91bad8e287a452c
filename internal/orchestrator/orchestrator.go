// Package orchestrator drives the full crawler -> auth -> axe ->
// funnel -> analysis pipeline across one or more domains, the way the
// teacher's cmd/spider/main.go drives a single crawl: a context wired
// to OS signals, a resource-monitor task watched alongside the work,
// and a completion barrier before final stats are reported. Here that
// control flow is generalized to gate on a configurable start stage,
// run many domains concurrently, and tolerate a single domain's
// failure without aborting the rest.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a11y-auditor/auditor/internal/config"
	"github.com/a11y-auditor/auditor/internal/layout"
	"github.com/a11y-auditor/auditor/internal/mailer"
	"github.com/a11y-auditor/auditor/internal/report"
	"github.com/a11y-auditor/auditor/internal/store"
)

// DomainResult is one domain's outcome: whether it completed cleanly,
// the artifact paths it produced, and any stage errors encountered
// along the way. OK is false when the crawler or axe stage failed or
// the run was cancelled. Degraded is set when a non-fatal stage (auth,
// funnel, analysis) failed; such a domain keeps OK true and its later
// stages still run. Either way the run continues with the other
// domains rather than aborting the whole pipeline.
type DomainResult struct {
	Domain    string
	OK        bool
	Degraded  bool
	Artifacts []string
	Errors    []error
}

// Orchestrator wires every stage's collaborators together for a run.
type Orchestrator struct {
	Config  *config.Config
	Layout  *layout.Layout
	Store   *store.Store
	Log     *zap.SugaredLogger
	Charts  report.ChartRenderer
	Mailer  mailer.Mailer
	Now     func() time.Time
}

// New builds an Orchestrator. log may be nil, in which case a no-op
// logger is used (tests construct an Orchestrator without a zap
// dependency this way).
func New(cfg *config.Config, l *layout.Layout, st *store.Store, log *zap.SugaredLogger) *Orchestrator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Orchestrator{
		Config: cfg,
		Layout: l,
		Store:  st,
		Log:    log,
		Charts: report.DefaultChartRenderer{},
		Now:    time.Now,
	}
}

// Run processes every base URL in baseURLs concurrently (bounded by
// the configured crawl concurrency so many domains don't each spin up
// their own unbounded Chromium pool) and returns one DomainResult per
// domain, in the input order.
func (o *Orchestrator) Run(ctx context.Context, baseURLs []string) ([]DomainResult, error) {
	results := make([]DomainResult, len(baseURLs))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	monitor := newResourceMonitor(o.Config.Resources, o.Log)
	monitorDone := monitor.Start(ctx, cancel)
	defer func() { <-monitorDone }()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInt(1, o.Config.Crawl.Concurrency))

	for i, rawURL := range baseURLs {
		i, rawURL := i, rawURL
		g.Go(func() error {
			results[i] = o.runDomain(gctx, rawURL)
			return nil
		})
	}
	// errgroup.Wait's error is always nil here: runDomain never returns
	// an error, it records one on the DomainResult, so one domain's
	// failure never cancels the others via gctx.
	_ = g.Wait()

	return results, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (o *Orchestrator) domainResultPaths(domainSlug string) []string {
	return []string{
		o.Layout.Dir(domainSlug, layout.DirReports),
	}
}

// notifyCompletion emails the run summary if a mailer is configured;
// a nil Mailer is the common case (spec's mailer is opt-in).
func (o *Orchestrator) notifyCompletion(ctx context.Context, result DomainResult) {
	if o.Mailer == nil {
		return
	}
	subject := fmt.Sprintf("Accessibility audit complete: %s", result.Domain)
	body := fmt.Sprintf("Domain: %s\nStatus: %s\nArtifacts: %v\n", result.Domain, statusLabel(result), result.Artifacts)
	if len(result.Errors) > 0 {
		body += fmt.Sprintf("Errors: %v\n", result.Errors)
	}
	if err := o.Mailer.Send(ctx, mailer.Message{Subject: subject, Body: body}); err != nil {
		o.Log.Warnw("orchestrator: sending completion email failed", "domain", result.Domain, "error", err)
	}
}

func statusLabel(r DomainResult) string {
	switch {
	case r.OK:
		return "ok"
	case r.Degraded:
		return "degraded"
	default:
		return "failed"
	}
}

package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/a11y-auditor/auditor/internal/analyzer"
	"github.com/a11y-auditor/auditor/internal/auth"
	"github.com/a11y-auditor/auditor/internal/checkpoint"
	"github.com/a11y-auditor/auditor/internal/config"
	"github.com/a11y-auditor/auditor/internal/crawler"
	"github.com/a11y-auditor/auditor/internal/funnel"
	"github.com/a11y-auditor/auditor/internal/layout"
	"github.com/a11y-auditor/auditor/internal/model"
	"github.com/a11y-auditor/auditor/internal/renderer"
	"github.com/a11y-auditor/auditor/internal/report"
	"github.com/a11y-auditor/auditor/internal/scanner"
	"github.com/a11y-auditor/auditor/internal/store"
	"github.com/a11y-auditor/auditor/internal/urlutil"
)

// domainRun carries the mutable state threaded through one domain's
// stages: the resolved slug, its crawl state, and the collaborators
// built once and shared across stages.
type domainRun struct {
	baseURL    string
	domain     string
	domainSlug string

	state *model.DomainCrawlState
	pool  *renderer.Pool
	authn *auth.Authenticator
	ckpt  *checkpoint.Manager

	errors   []error
	degraded bool
}

// runDomain executes every stage from cfg.Start onward for one base
// URL. It never returns an error itself: every failure is captured on
// the returned DomainResult, so one domain never aborts the others'
// errgroup.
func (o *Orchestrator) runDomain(ctx context.Context, baseURL string) DomainResult {
	host, err := urlutil.ExtractHost(baseURL)
	if err != nil {
		return DomainResult{Domain: baseURL, OK: false, Errors: []error{fmt.Errorf("orchestrator: %w", err)}}
	}
	slug := layout.Slugify(host)

	run := &domainRun{baseURL: baseURL, domain: host, domainSlug: slug}
	log := o.Log.With("domain", host)

	if err := o.Layout.ArchivePriorRun(slug, o.Now()); err != nil {
		log.Warnw("orchestrator: archiving prior run failed, continuing into existing directory", "error", err)
	}
	if err := o.Layout.EnsureDomain(slug); err != nil {
		return DomainResult{Domain: host, OK: false, Errors: []error{fmt.Errorf("orchestrator: %w", err)}}
	}

	runID, err := o.Store.StartRun(host)
	if err != nil {
		return DomainResult{Domain: host, OK: false, Errors: []error{fmt.Errorf("orchestrator: starting run record: %w", err)}}
	}

	run.ckpt = checkpoint.NewManager(o.Layout, slug)
	run.state = o.loadOrNewState(run)

	if needsPool(o.Config) {
		pool, err := renderer.NewPool(o.Config.Crawl, "")
		if err != nil {
			o.Store.CompleteRun(runID, "failed", err.Error())
			return DomainResult{Domain: host, OK: false, Errors: []error{fmt.Errorf("orchestrator: launching renderer pool: %w", err)}}
		}
		run.pool = pool
		defer pool.Close()
	}

	authn, err := auth.New(o.Config.Auth, o.Config.Crawl.RequestTimeout)
	if err != nil {
		o.Store.CompleteRun(runID, "failed", err.Error())
		return DomainResult{Domain: host, OK: false, Errors: []error{fmt.Errorf("orchestrator: building authenticator: %w", err)}}
	}
	run.authn = authn

	stages := []struct {
		stage config.Stage
		run   func(context.Context, *domainRun, *zapLike) error
	}{
		{config.StageCrawler, o.runCrawlStage},
		{config.StageAuth, o.runAuthStage},
		{config.StageAxe, o.runAxeStage},
		{config.StageFunnel, o.runFunnelStage},
		{config.StageAnalysis, o.runAnalysisStage},
	}

	started := o.Config.Start == ""
	fatal := false
	for _, s := range stages {
		if !started {
			if s.stage == o.Config.Start {
				started = true
			} else {
				continue
			}
		}
		o.Store.UpdateRunStage(runID, string(s.stage))
		if err := s.run(ctx, run, nil); err != nil {
			run.errors = append(run.errors, fmt.Errorf("%s: %w", s.stage, err))
			log.Errorw("orchestrator: stage failed", "stage", s.stage, "error", err)
			if s.stage == config.StageCrawler || s.stage == config.StageAxe {
				fatal = true
				break
			}
			run.degraded = true
		}
		if ctx.Err() != nil {
			run.errors = append(run.errors, fmt.Errorf("%s: %w", s.stage, ctx.Err()))
			fatal = true
			break
		}
	}

	status := "completed"
	if fatal {
		status = "failed"
	} else if run.degraded {
		status = "degraded"
	}
	errMsg := ""
	if len(run.errors) > 0 {
		errMsg = run.errors[len(run.errors)-1].Error()
	}
	o.Store.CompleteRun(runID, status, errMsg)

	result := DomainResult{
		Domain:    host,
		OK:        !fatal,
		Degraded:  run.degraded,
		Artifacts: o.domainResultPaths(slug),
		Errors:    run.errors,
	}
	o.notifyCompletion(ctx, result)
	return result
}

// zapLike is a placeholder parameter type kept so stage funcs share a
// single method signature regardless of whether they need a logger;
// every stage currently uses o.Log directly instead.
type zapLike struct{}

// needsPool reports whether this run will reach a stage that drives a
// real browser. Axe injection always needs one, so the only way to
// skip launching Chromium is to start past it, at StageAnalysis, which
// only reads already-persisted violations.
func needsPool(cfg *config.Config) bool {
	return cfg.Start != config.StageAnalysis
}

func (o *Orchestrator) loadOrNewState(run *domainRun) *model.DomainCrawlState {
	if cs, err := run.ckpt.Load(); err == nil && cs != nil {
		if d, ok := cs.DomainData[run.domain]; ok {
			return d
		}
	}
	return model.NewDomainCrawlState(run.domain)
}

func (o *Orchestrator) runCrawlStage(ctx context.Context, run *domainRun, _ *zapLike) error {
	c := crawler.New(run.domain, o.Config.Crawl, run.state, run.pool, run.authn)
	defer c.Close()

	if err := c.Seed(run.baseURL); err != nil {
		return fmt.Errorf("seeding crawler: %w", err)
	}

	results := make(chan *crawler.PageResult, o.Config.Crawl.Concurrency*2+1)
	run.ckpt.StartAutoSave(o.Config.Scan.AutoSaveInterval, func() *model.CrawlState {
		cs := model.NewCrawlState()
		cs.DomainData[run.domain] = run.state
		return cs
	})
	defer run.ckpt.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for res := range results {
			o.consumeCrawlResult(run, res)
		}
	}()

	c.Run(ctx, results)
	close(results)
	<-done

	return run.ckpt.Save(o.snapshotState(run))
}

func (o *Orchestrator) snapshotState(run *domainRun) *model.CrawlState {
	cs := model.NewCrawlState()
	cs.DomainData[run.domain] = run.state
	return cs
}

func (o *Orchestrator) consumeCrawlResult(run *domainRun, res *crawler.PageResult) {
	if res == nil || res.Error != nil || res.HTML == "" {
		return
	}

	doc, err := urlutil.ParseDocument(res.HTML)
	if err != nil {
		return
	}
	tmpl := urlutil.TemplateFingerprint(run.domain, doc)
	run.state.RecordFetch(res.Item.NormalizedURL, tmpl)

	rec := pageRecord(run.domain, res, tmpl)
	if err := o.Store.UpsertPage(rec); err != nil {
		o.Log.Warnw("orchestrator: persisting page failed", "domain", run.domain, "url", res.Item.URL, "error", err)
	}
	if err := o.Store.MarkVisited(run.domain, res.Item.NormalizedURL); err != nil {
		o.Log.Warnw("orchestrator: marking visited failed", "domain", run.domain, "url", res.Item.URL, "error", err)
	}
}

func pageRecord(domain string, res *crawler.PageResult, tmpl model.TemplateID) store.PageRecord {
	return store.PageRecord{
		Domain:        domain,
		URL:           res.Item.URL,
		NormalizedURL: string(res.Item.NormalizedURL),
		TemplateID:    string(tmpl),
		PageType:      urlutil.PageType(res.Item.NormalizedURL),
		Depth:         res.Item.Depth,
		FirstSeen:     time.Now(),
		CrawlStatus:   "ok",
	}
}

func (o *Orchestrator) runAuthStage(ctx context.Context, run *domainRun, _ *zapLike) error {
	if o.Config.Auth.Type == config.AuthNone {
		return nil
	}
	if err := run.authn.Authenticate(ctx, run.pool); err != nil {
		o.Log.Warnw("orchestrator: authentication failed, restricted URLs will be skipped", "domain", run.domain, "error", err)
		return fmt.Errorf("authenticating: %w", err)
	}
	return nil
}

func (o *Orchestrator) runAxeStage(ctx context.Context, run *domainRun, _ *zapLike) error {
	visited, err := o.Store.LoadVisited(run.domain)
	if err != nil {
		return fmt.Errorf("loading visited set: %w", err)
	}

	s := scanner.New(o.Config.Scan, run.pool, run.authn, o.Layout, run.domainSlug, o.Log)
	s.SeedVisited(visited)

	jobs := scanner.RepresentativeJobs(run.state.RepresentativeURLs(), run.authn.IsRestrictedURL)
	jobs = s.Pending(jobs)

	vs, err := s.Run(ctx, jobs)
	if err != nil {
		return fmt.Errorf("running driver pool: %w", err)
	}
	return o.Store.InsertViolations(run.domain, vs.Violations)
}

func (o *Orchestrator) runFunnelStage(ctx context.Context, run *domainRun, _ *zapLike) error {
	if !o.Config.Funnel.Enabled || len(o.Config.Funnel.DefinitionPaths) == 0 {
		return nil
	}

	defs, err := funnel.LoadDefinitions(run.domain, o.Config.Funnel.DefinitionPaths)
	if err != nil {
		return fmt.Errorf("loading funnel definitions: %w", err)
	}

	exec := funnel.New(run.pool, run.authn, o.Layout, o.Config.Crawl.RenderTimeout)
	s := scanner.New(o.Config.Scan, run.pool, run.authn, o.Layout, run.domainSlug, o.Log)

	var stepErrs []error
	for _, def := range defs {
		if def.AuthRequired && !run.authn.IsAuthenticated() {
			continue
		}
		artifacts, err := exec.Run(ctx, run.domainSlug, def)
		if err != nil {
			stepErrs = append(stepErrs, fmt.Errorf("funnel %s: %w", def.ID, err))
			continue
		}
		for i, a := range artifacts {
			if err := o.Store.InsertFunnelArtifact(run.domain, a); err != nil {
				o.Log.Warnw("orchestrator: persisting funnel artifact failed", "funnel", def.ID, "step", a.StepName, "error", err)
			}
			if !a.Success || a.HTMLSnapshotPath == "" {
				continue
			}
			job := scanner.FunnelJob(a.HTMLSnapshotPath, def.ID, a.StepName, i)
			vs, err := s.Run(ctx, []scanner.Job{job})
			if err != nil {
				stepErrs = append(stepErrs, fmt.Errorf("funnel %s step %s: axe scan: %w", def.ID, a.StepName, err))
				continue
			}
			if err := o.Store.InsertViolations(run.domain, vs.Violations); err != nil {
				o.Log.Warnw("orchestrator: persisting funnel violations failed", "funnel", def.ID, "error", err)
			}
		}
	}

	if len(stepErrs) > 0 {
		return fmt.Errorf("%d funnel step(s) failed: %v", len(stepErrs), stepErrs)
	}
	return nil
}

func (o *Orchestrator) runAnalysisStage(ctx context.Context, run *domainRun, _ *zapLike) error {
	vs, err := o.Store.ViolationsByDomain(run.domain)
	if err != nil {
		return fmt.Errorf("loading violations: %w", err)
	}

	rpt := analyzer.Analyze(vs, analyzer.Options{Domain: run.domain, State: run.state})

	data := report.WorkbookData{
		Domain:  run.domain,
		Report:  rpt,
		Funnels: o.loadFunnelSummaries(run.domain),
	}

	writer := report.NewExcelWorkbookWriter(o.Charts)
	path := filepath.Join(o.Layout.Dir(run.domainSlug, layout.DirReports), "accessibility-report.xlsx")
	if err := writer.Write(path, data); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func (o *Orchestrator) loadFunnelSummaries(domain string) []report.FunnelSummary {
	records, err := o.Store.FunnelArtifactsByDomain(domain)
	if err != nil {
		o.Log.Warnw("orchestrator: loading funnel artifacts failed", "domain", domain, "error", err)
		return nil
	}

	byFunnel := map[string]*report.FunnelSummary{}
	order := make([]string, 0)
	for _, r := range records {
		fs, ok := byFunnel[r.FunnelID]
		if !ok {
			fs = &report.FunnelSummary{FunnelID: r.FunnelID}
			byFunnel[r.FunnelID] = fs
			order = append(order, r.FunnelID)
		}
		fs.TotalSteps++
		if r.Success {
			fs.StepsCompleted++
		}
		fs.StepResults = append(fs.StepResults, r.Success)
	}

	summaries := make([]report.FunnelSummary, 0, len(order))
	for _, id := range order {
		summaries = append(summaries, *byFunnel[id])
	}
	return summaries
}

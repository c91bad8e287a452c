// Package analyzer consolidates a ViolationSet (optionally joined with
// a CrawlState) into aggregated tables, per-template projections, and
// a heuristic conformance score, per spec §4.6.
package analyzer

import "github.com/a11y-auditor/auditor/internal/model"

// Report is the analyzer's full output: summary metrics, every
// aggregation table, the template projection, and the conformance
// score. Chart rendering is delegated to internal/report.
type Report struct {
	Domain string

	Rows []Row

	ByImpact     []ImpactStat
	ByPage       []PageStat
	ByViolation  []ViolationStat
	ByPageType   []GroupStat
	ByTemplate   []GroupStat
	ByFunnel     []GroupStat
	ByFunnelStep []GroupStat

	TemplateProjections []TemplateProjection
	Score               ConformanceScore
}

// Options configures one Analyze call. Weights and ScoreWeights fall
// back to their package defaults when left nil.
type Options struct {
	Domain            string
	Weights           *model.SeverityWeights
	ScoreWeights      *ScoreWeights
	FunnelMultipliers FunnelMultipliers
	State             *model.DomainCrawlState
}

// Analyze runs the full cleaning/enrichment/aggregation/projection/
// scoring pipeline over a ViolationSet.
func Analyze(vs model.ViolationSet, opts Options) *Report {
	weights := model.DefaultSeverityWeights()
	if opts.Weights != nil {
		weights = *opts.Weights
	}
	scoreWeights := DefaultScoreWeights()
	if opts.ScoreWeights != nil {
		scoreWeights = *opts.ScoreWeights
	}

	rows := Clean(vs, weights, opts.FunnelMultipliers)

	uniquePages := make(map[model.NormalizedURL]struct{})
	for _, r := range rows {
		uniquePages[r.PageURL] = struct{}{}
	}

	report := &Report{
		Domain:       opts.Domain,
		Rows:         rows,
		ByImpact:     ByImpact(rows, len(uniquePages)),
		ByPage:       ByPage(rows),
		ByViolation:  ByViolation(rows, weights),
		ByPageType:   ByPageType(rows),
		ByFunnel:     ByFunnel(rows),
		ByFunnelStep: ByFunnelStep(rows),
		Score:        Score(rows, scoreWeights),
	}

	if opts.State != nil && len(opts.State.Templates) > 1 {
		index := PageTemplateIndex(opts.State)
		report.ByTemplate = ByTemplate(rows, index)
	}
	if opts.State != nil {
		report.TemplateProjections = Project(rows, opts.State, weights)
	}

	return report
}

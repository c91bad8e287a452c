package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a11y-auditor/auditor/internal/model"
)

func sampleViolations() model.ViolationSet {
	return model.ViolationSet{Violations: []model.Violation{
		{PageURL: "https://e.test/", ViolationID: "color-contrast", Impact: model.ImpactSerious, HTMLFragment: "<p>a</p>"},
		{PageURL: "https://e.test/", ViolationID: "image-alt", Impact: model.ImpactCritical, HTMLFragment: "<img>"},
		{PageURL: "https://e.test/about", ViolationID: "color-contrast", Impact: model.ImpactSerious, HTMLFragment: "<p>b</p>"},
	}}
}

func TestClean_DropsRowsMissingRequiredFields(t *testing.T) {
	vs := model.ViolationSet{Violations: []model.Violation{
		{PageURL: "", ViolationID: "image-alt", Impact: model.ImpactCritical},
		{PageURL: "https://e.test/", ViolationID: "", Impact: model.ImpactCritical},
		{PageURL: "https://e.test/", ViolationID: "image-alt", Impact: ""},
		{PageURL: "https://e.test/", ViolationID: "image-alt", Impact: model.ImpactCritical},
	}}

	rows := Clean(vs, model.DefaultSeverityWeights(), nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "image-alt", rows[0].ViolationID)
}

func TestClean_DeduplicatesOnDedupeKey(t *testing.T) {
	v := model.Violation{PageURL: "https://e.test/", ViolationID: "image-alt", Impact: model.ImpactCritical, HTMLFragment: "<img>"}
	vs := model.ViolationSet{Violations: []model.Violation{v, v}}

	rows := Clean(vs, model.DefaultSeverityWeights(), nil)
	assert.Len(t, rows, 1)
}

func TestClean_CoercesUnknownImpact(t *testing.T) {
	vs := model.ViolationSet{Violations: []model.Violation{
		{PageURL: "https://e.test/", ViolationID: "image-alt", Impact: model.Impact("bogus")},
	}}
	rows := Clean(vs, model.DefaultSeverityWeights(), nil)
	require.Len(t, rows, 1)
	assert.Equal(t, model.ImpactUnknown, rows[0].Impact)
}

func TestClean_AppliesFunnelMultiplier(t *testing.T) {
	vs := model.ViolationSet{Violations: []model.Violation{
		{PageURL: "https://e.test/checkout", ViolationID: "image-alt", Impact: model.ImpactCritical, FunnelName: "checkout"},
	}}
	weights := model.DefaultSeverityWeights()
	rows := Clean(vs, weights, FunnelMultipliers{"checkout": 1.5})

	require.Len(t, rows, 1)
	assert.Equal(t, weights.Critical*1.5, rows[0].FunnelSeverityScore)
}

func TestByImpact_CountsAndPercentages(t *testing.T) {
	rows := Clean(sampleViolations(), model.DefaultSeverityWeights(), nil)
	stats := ByImpact(rows, 2)

	require.Len(t, stats, 2)
	for _, s := range stats {
		if s.Impact == model.ImpactSerious {
			assert.Equal(t, 2, s.Count)
			assert.InDelta(t, 66.66, s.Percentage, 0.1)
			assert.Equal(t, 1.0, s.PerPageAvg)
		}
	}
}

func TestByPage_SortsDescendingByPriority(t *testing.T) {
	rows := Clean(sampleViolations(), model.DefaultSeverityWeights(), nil)
	stats := ByPage(rows)

	require.Len(t, stats, 2)
	assert.Equal(t, model.NormalizedURL("https://e.test/"), stats[0].PageURL)
	assert.GreaterOrEqual(t, stats[0].PriorityScore, stats[1].PriorityScore)
}

func TestByViolation_AggregatesOccurrencesAndSolution(t *testing.T) {
	rows := Clean(sampleViolations(), model.DefaultSeverityWeights(), nil)
	stats := ByViolation(rows, model.DefaultSeverityWeights())

	require.NotEmpty(t, stats)
	var contrast *ViolationStat
	for i := range stats {
		if stats[i].ViolationID == "color-contrast" {
			contrast = &stats[i]
		}
	}
	require.NotNil(t, contrast)
	assert.Equal(t, 2, contrast.Occurrences)
	assert.Equal(t, 2, contrast.AffectedPages)
	assert.NotEmpty(t, contrast.Solution.Description)
}

func TestByPageType_GroupsAndComputesAveragePriority(t *testing.T) {
	rows := Clean(sampleViolations(), model.DefaultSeverityWeights(), nil)
	stats := ByPageType(rows)
	assert.NotEmpty(t, stats)
}

func TestByFunnel_ExcludesRowsWithoutFunnel(t *testing.T) {
	rows := Clean(sampleViolations(), model.DefaultSeverityWeights(), nil)
	stats := ByFunnel(rows)
	assert.Empty(t, stats)
}

func TestByFunnelStep_KeysOnFunnelAndStep(t *testing.T) {
	vs := model.ViolationSet{Violations: []model.Violation{
		{PageURL: "https://e.test/checkout", ViolationID: "image-alt", Impact: model.ImpactCritical, FunnelName: "checkout", FunnelStep: "payment"},
	}}
	rows := Clean(vs, model.DefaultSeverityWeights(), nil)
	stats := ByFunnelStep(rows)

	require.Len(t, stats, 1)
	assert.Equal(t, "checkout#payment", stats[0].Key)
}

func TestWCAGLookup_LongestPrefixWins(t *testing.T) {
	assert.Equal(t, "1.1.1", WCAGLookup("image-alt").Criterion)
	assert.Equal(t, model.PrincipleOther, WCAGLookup("totally-unknown-rule").Principle)
}

func TestScore_EmptySetYieldsNAWithZeroPages(t *testing.T) {
	score := Score(nil, DefaultScoreWeights())
	assert.Equal(t, "N/A (No pages analyzed)", score.Level)
	assert.Equal(t, 0, score.UniquePages)
}

func TestScore_ComputesReductionAndLevel(t *testing.T) {
	rows := Clean(sampleViolations(), model.DefaultSeverityWeights(), nil)
	score := Score(rows, DefaultScoreWeights())

	assert.Greater(t, score.Weighted, 0.0)
	assert.Greater(t, score.CriticalFraction, 0.0)
	assert.LessOrEqual(t, score.Score, 100.0)
	assert.NotEmpty(t, score.Level)
}

func TestProject_MultipliesByOccurrenceCount(t *testing.T) {
	state := model.NewDomainCrawlState("e.test")
	cluster := model.NewTemplateCluster("tmpl-1", "https://e.test/")
	cluster.AddMember("https://e.test/p2")
	cluster.AddMember("https://e.test/p3")
	state.Templates["tmpl-1"] = cluster

	vs := model.ViolationSet{Violations: []model.Violation{
		{PageURL: "https://e.test/", ViolationID: "image-alt", Impact: model.ImpactCritical},
	}}
	rows := Clean(vs, model.DefaultSeverityWeights(), nil)

	projections := Project(rows, state, model.DefaultSeverityWeights())
	require.Len(t, projections, 1)
	assert.Equal(t, 3, projections[0].OccurrenceCount)
	assert.Equal(t, 3, projections[0].ProjectedCounts[model.ImpactCritical])
	assert.True(t, projections[0].Estimated)
}

func TestAnalyze_ProducesFullReport(t *testing.T) {
	report := Analyze(sampleViolations(), Options{Domain: "e.test"})

	assert.Equal(t, "e.test", report.Domain)
	assert.NotEmpty(t, report.ByImpact)
	assert.NotEmpty(t, report.ByPage)
	assert.NotEmpty(t, report.ByViolation)
	assert.Nil(t, report.ByTemplate)
	assert.Nil(t, report.TemplateProjections)
}

func TestAnalyze_IncludesByTemplateWhenMultipleTemplatesKnown(t *testing.T) {
	state := model.NewDomainCrawlState("e.test")
	state.Templates["tmpl-a"] = model.NewTemplateCluster("tmpl-a", "https://e.test/")
	state.Templates["tmpl-b"] = model.NewTemplateCluster("tmpl-b", "https://e.test/about")

	report := Analyze(sampleViolations(), Options{Domain: "e.test", State: state})
	assert.NotNil(t, report.ByTemplate)
	assert.NotNil(t, report.TemplateProjections)
}

func TestSmokeAnalyzer_FlagsMissingAltAndLabelsAndLang(t *testing.T) {
	html := `<html><body><img src="x.png"><input type="text"></body></html>`
	violations := NewSmokeAnalyzer().Analyze("https://e.test/", html)

	ids := make(map[string]bool)
	for _, v := range violations {
		ids[v.ViolationID] = true
	}
	assert.True(t, ids["smoke-image-alt"])
	assert.True(t, ids["smoke-form-label"])
	assert.True(t, ids["smoke-html-has-lang"])
}

func TestSmokeAnalyzer_CleanPageYieldsNoFindings(t *testing.T) {
	html := `<html lang="en"><body><img src="x.png" alt="a logo"><label for="q">Search</label><input id="q" type="text"></body></html>`
	violations := NewSmokeAnalyzer().Analyze("https://e.test/", html)
	assert.Empty(t, violations)
}

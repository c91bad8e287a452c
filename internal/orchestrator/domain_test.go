package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/a11y-auditor/auditor/internal/config"
	"github.com/a11y-auditor/auditor/internal/crawler"
	"github.com/a11y-auditor/auditor/internal/model"
	"github.com/a11y-auditor/auditor/internal/store"
)

func TestNeedsPool_TrueUnlessStartingAtAnalysis(t *testing.T) {
	assert.True(t, needsPool(&config.Config{Start: config.StageCrawler}))
	assert.True(t, needsPool(&config.Config{Start: config.StageAxe}))
	assert.True(t, needsPool(&config.Config{Start: config.StageFunnel}))
	assert.False(t, needsPool(&config.Config{Start: config.StageAnalysis}))
}

func TestMaxInt(t *testing.T) {
	assert.Equal(t, 3, maxInt(3, 1))
	assert.Equal(t, 5, maxInt(2, 5))
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "ok", statusLabel(DomainResult{OK: true}))
	assert.Equal(t, "degraded", statusLabel(DomainResult{OK: false, Degraded: true}))
	assert.Equal(t, "failed", statusLabel(DomainResult{OK: false}))
}

func TestPageRecord_CopiesFetchedFields(t *testing.T) {
	item := &crawler.URLItem{
		URL:           "https://example.com/about",
		NormalizedURL: model.NormalizedURL("https://example.com/about"),
		Depth:         2,
	}
	res := &crawler.PageResult{Item: item}

	rec := pageRecord("example.com", res, model.TemplateID("tmpl-1"))

	assert.Equal(t, "example.com", rec.Domain)
	assert.Equal(t, "https://example.com/about", rec.URL)
	assert.Equal(t, "tmpl-1", rec.TemplateID)
	assert.Equal(t, 2, rec.Depth)
	assert.Equal(t, "ok", rec.CrawlStatus)
	assert.False(t, rec.FirstSeen.IsZero())
}

func TestLoadFunnelSummaries_GroupsArtifactsByFunnel(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	domain := "example.com"
	require.NoError(t, st.InsertFunnelArtifact(domain, model.FunnelArtifact{
		FunnelID: "checkout", StepIndex: 0, StepName: "add-to-cart", Success: true,
	}))
	require.NoError(t, st.InsertFunnelArtifact(domain, model.FunnelArtifact{
		FunnelID: "checkout", StepIndex: 1, StepName: "pay", Success: false,
	}))

	o := &Orchestrator{Store: st, Log: zap.NewNop().Sugar(), Now: time.Now}
	summaries := o.loadFunnelSummaries(domain)

	require.Len(t, summaries, 1)
	assert.Equal(t, "checkout", summaries[0].FunnelID)
	assert.Equal(t, 2, summaries[0].TotalSteps)
	assert.Equal(t, 1, summaries[0].StepsCompleted)
	assert.Equal(t, []bool{true, false}, summaries[0].StepResults)
}

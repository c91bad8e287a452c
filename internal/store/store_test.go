package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a11y-auditor/auditor/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertPage_InsertsThenUpdatesOnConflict(t *testing.T) {
	s := openTestStore(t)

	err := s.UpsertPage(PageRecord{Domain: "e.test", URL: "https://e.test/", NormalizedURL: "https://e.test/", CrawlStatus: "pending"})
	require.NoError(t, err)

	err = s.UpsertPage(PageRecord{Domain: "e.test", URL: "https://e.test/", NormalizedURL: "https://e.test/", CrawlStatus: "crawled", TemplateID: "tmpl-1"})
	require.NoError(t, err)

	pages, err := s.PagesByDomain("e.test")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "crawled", pages[0].CrawlStatus)
	assert.Equal(t, "tmpl-1", pages[0].TemplateID)
}

func TestInsertViolations_DeduplicatesOnDedupeKey(t *testing.T) {
	s := openTestStore(t)

	v := model.Violation{PageURL: "https://e.test/", ViolationID: "image-alt", HTMLFragment: "<img>"}
	err := s.InsertViolations("e.test", []model.Violation{v, v})
	require.NoError(t, err)

	vs, err := s.ViolationsByDomain("e.test")
	require.NoError(t, err)
	assert.Len(t, vs.Violations, 1)
}

func TestViolationsByDomain_RoundTripsFields(t *testing.T) {
	s := openTestStore(t)

	v := model.Violation{
		PageURL:     "https://e.test/checkout",
		ViolationID: "color-contrast",
		Impact:      model.ImpactSerious,
		FunnelName:  "checkout",
		FunnelStep:  "payment",
		StepNumber:  2,
	}
	require.NoError(t, s.InsertViolation("e.test", v))

	vs, err := s.ViolationsByDomain("e.test")
	require.NoError(t, err)
	require.Len(t, vs.Violations, 1)
	got := vs.Violations[0]
	assert.Equal(t, v.PageURL, got.PageURL)
	assert.Equal(t, v.Impact, got.Impact)
	assert.Equal(t, v.FunnelName, got.FunnelName)
	assert.Equal(t, v.StepNumber, got.StepNumber)
}

func TestMarkVisitedAndLoadVisited_RoundTrips(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.MarkVisited("e.test", "https://e.test/"))
	require.NoError(t, s.MarkVisited("e.test", "https://e.test/about"))
	require.NoError(t, s.MarkVisited("e.test", "https://e.test/")) // idempotent

	visited, err := s.LoadVisited("e.test")
	require.NoError(t, err)
	assert.Len(t, visited, 2)
	_, ok := visited["https://e.test/about"]
	assert.True(t, ok)
}

func TestFunnelArtifacts_InsertAndRetrieveOrderedByStep(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.InsertFunnelArtifact("e.test", model.FunnelArtifact{FunnelID: "checkout", StepIndex: 1, StepName: "cart", Success: true}))
	require.NoError(t, s.InsertFunnelArtifact("e.test", model.FunnelArtifact{FunnelID: "checkout", StepIndex: 0, StepName: "product", Success: true}))

	artifacts, err := s.FunnelArtifactsByDomain("e.test")
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, "product", artifacts[0].StepName)
	assert.Equal(t, "cart", artifacts[1].StepName)
}

func TestRunLifecycle_StartUpdateComplete(t *testing.T) {
	s := openTestStore(t)

	runID, err := s.StartRun("e.test")
	require.NoError(t, err)
	assert.NotZero(t, runID)

	require.NoError(t, s.UpdateRunStage(runID, "analyze"))
	require.NoError(t, s.CompleteRun(runID, RunStatusCompleted, ""))
}

func TestStatsForDomain_CountsPagesAndViolationsByImpact(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.UpsertPage(PageRecord{Domain: "e.test", URL: "https://e.test/", NormalizedURL: "https://e.test/", CrawlStatus: "crawled"}))
	require.NoError(t, s.InsertViolation("e.test", model.Violation{PageURL: "https://e.test/", ViolationID: "image-alt", Impact: model.ImpactCritical}))
	require.NoError(t, s.InsertViolation("e.test", model.Violation{PageURL: "https://e.test/", ViolationID: "color-contrast", Impact: model.ImpactSerious}))

	stats, err := s.StatsForDomain("e.test")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalPages)
	assert.Equal(t, 1, stats.CrawledPages)
	assert.Equal(t, 2, stats.TotalViolations)
	assert.Equal(t, 1, stats.ByImpact["critical"])
	assert.Equal(t, 1, stats.ByImpact["serious"])
}

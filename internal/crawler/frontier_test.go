package crawler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a11y-auditor/auditor/internal/model"
)

func TestFrontier_PushPopFIFO(t *testing.T) {
	f := NewFrontier(0, 0)
	require.True(t, f.Push(NewURLItem("https://a.com/1", "https://a.com/1", "a.com", 0, "")))
	require.True(t, f.Push(NewURLItem("https://a.com/2", "https://a.com/2", "a.com", 1, "https://a.com/1")))

	first := f.Pop()
	require.NotNil(t, first)
	assert.Equal(t, "https://a.com/1", first.URL)

	second := f.Pop()
	require.NotNil(t, second)
	assert.Equal(t, "https://a.com/2", second.URL)

	assert.Nil(t, f.Pop())
}

func TestFrontier_RejectsDuplicates(t *testing.T) {
	f := NewFrontier(0, 0)
	item := NewURLItem("https://a.com/1", "https://a.com/1", "a.com", 0, "")
	assert.True(t, f.Push(item))
	assert.False(t, f.Push(NewURLItem("https://a.com/1", "https://a.com/1", "a.com", 0, "")))
	assert.Equal(t, 1, f.Stats().Duplicates)
}

func TestFrontier_RejectsBeyondDepthLimit(t *testing.T) {
	f := NewFrontier(2, 0)
	assert.False(t, f.Push(NewURLItem("https://a.com/deep", "https://a.com/deep", "a.com", 3, "")))
}

func TestFrontier_RejectsBeyondMaxURLs(t *testing.T) {
	f := NewFrontier(0, 1)
	assert.True(t, f.Push(NewURLItem("https://a.com/1", "https://a.com/1", "a.com", 0, "")))
	assert.False(t, f.Push(NewURLItem("https://a.com/2", "https://a.com/2", "a.com", 0, "")))
}

func TestFrontier_MarkVisitedPreventsRequeue(t *testing.T) {
	f := NewFrontier(0, 0)
	f.MarkVisited(model.NormalizedURL("https://a.com/1"))
	assert.False(t, f.Push(NewURLItem("https://a.com/1", "https://a.com/1", "a.com", 0, "")))
	assert.True(t, f.HasVisited("https://a.com/1"))
}

func TestURLItem_IncrementRetrySchedulesFuture(t *testing.T) {
	item := NewURLItem("https://a.com/1", "https://a.com/1", "a.com", 0, "")
	before := item.ScheduledAt
	item.IncrementRetry(10*time.Millisecond, nil)
	assert.True(t, item.ScheduledAt.After(before))
	assert.Equal(t, 1, item.RetryCount)
	assert.False(t, item.CanCrawl())
}

func TestSeedVisited(t *testing.T) {
	f := NewFrontier(0, 0)
	f.SeedVisited(map[model.NormalizedURL]struct{}{"https://a.com/1": {}})
	assert.True(t, f.HasVisited("https://a.com/1"))
}

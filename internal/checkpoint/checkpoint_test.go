package checkpoint

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a11y-auditor/auditor/internal/layout"
	"github.com/a11y-auditor/auditor/internal/model"
)

func TestManager_SaveAndLoad_RoundTrip(t *testing.T) {
	root := t.TempDir()
	l := layout.New(root)
	require.NoError(t, l.EnsureDomain("example_com"))

	m := NewManager(l, "example_com")

	state := model.NewCrawlState()
	d := state.Domain("example.com")
	d.RecordFetch("https://example.com/", "example.com:abc")
	d.Visited["https://example.com/"] = struct{}{}

	require.NoError(t, m.Save(state))

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Len(t, loaded.DomainData, 1)
	assert.Contains(t, loaded.DomainData["example.com"].Visited, model.NormalizedURL("https://example.com/"))
}

func TestManager_Load_NoPriorState(t *testing.T) {
	root := t.TempDir()
	l := layout.New(root)
	require.NoError(t, l.EnsureDomain("example_com"))

	m := NewManager(l, "example_com")
	_, err := m.Load()
	assert.True(t, errors.Is(err, ErrNoState))
}

func TestManager_AutoSave_PersistsAndStops(t *testing.T) {
	root := t.TempDir()
	l := layout.New(root)
	require.NoError(t, l.EnsureDomain("example_com"))

	m := NewManager(l, "example_com")
	state := model.NewCrawlState()
	state.Domain("example.com")

	m.StartAutoSave(20*time.Millisecond, func() *model.CrawlState { return state })
	time.Sleep(80 * time.Millisecond)
	m.Stop()

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Contains(t, loaded.DomainData, "example.com")
}

// Package checkpoint persists and recovers a crawl's CrawlState across
// restarts. Unlike the gob+gzip snapshot format this package once
// used, state is written as JSON via an atomic temp-file-then-rename
// so a reader never observes a partially written file (spec §5, §8).
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/a11y-auditor/auditor/internal/layout"
	"github.com/a11y-auditor/auditor/internal/model"
)

// fileName is the state file's name within a domain's crawler_output
// directory, per spec §6: crawler_state_<slug>.<ext>.
func fileName(domainSlug string) string {
	return fmt.Sprintf("crawler_state_%s.json", domainSlug)
}

// Manager saves and loads a model.CrawlState for one domain, and can
// run an autosave ticker driven by a caller-supplied state accessor.
type Manager struct {
	layout     *layout.Layout
	domainSlug string

	mu       sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewManager returns a Manager that persists state under
// l.Dir(domainSlug, layout.DirCrawlerOutput).
func NewManager(l *layout.Layout, domainSlug string) *Manager {
	return &Manager{layout: l, domainSlug: domainSlug}
}

func (m *Manager) path() string {
	return filepath.Join(m.layout.Dir(m.domainSlug, layout.DirCrawlerOutput), fileName(m.domainSlug))
}

// Save writes state atomically. The only required top-level keys
// (per spec §6) are {structures, visited, url_tree, stats} or the
// multi-domain envelope {domain_data: {slug: ...}}; model.CrawlState
// and model.DomainCrawlState already carry exactly those fields.
func (m *Manager) Save(state *model.CrawlState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint: marshaling state: %w", err)
	}

	if err := layout.WriteAtomic(m.path(), data, 0o644); err != nil {
		return fmt.Errorf("checkpoint: saving state: %w", err)
	}
	return nil
}

// ErrNoState indicates no prior checkpoint was found or the existing
// one was unreadable; per spec §7's StateCorruption handling, callers
// treat this the same as "no prior state" and continue from scratch.
var ErrNoState = fmt.Errorf("checkpoint: no saved state")

// Load reads the persisted state.
func (m *Manager) Load() (*model.CrawlState, error) {
	data, err := os.ReadFile(m.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("checkpoint: reading state: %w", err)
	}

	var state model.CrawlState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoState, err)
	}
	return &state, nil
}

// StartAutoSave periodically calls Save with whatever getState
// returns, until Stop is called. A zero interval disables autosave.
func (m *Manager) StartAutoSave(interval time.Duration, getState func() *model.CrawlState) {
	if interval <= 0 {
		return
	}

	m.stopChan = make(chan struct{})
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.stopChan:
				return
			case <-ticker.C:
				if state := getState(); state != nil {
					_ = m.Save(state)
				}
			}
		}
	}()
}

// Stop halts autosave and waits for the background goroutine to exit.
func (m *Manager) Stop() {
	if m.stopChan == nil {
		return
	}
	close(m.stopChan)
	m.wg.Wait()
}

package scanner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/a11y-auditor/auditor/internal/layout"
	"github.com/a11y-auditor/auditor/internal/model"
)

func visitedPath(l *layout.Layout, domainSlug string) string {
	return filepath.Join(l.Dir(domainSlug, layout.DirAxeOutput), fmt.Sprintf("visited_%s.json", domainSlug))
}

// LoadVisited reads a previously persisted visited set for domainSlug.
// A missing file is not an error: it means this is the first scan.
func LoadVisited(l *layout.Layout, domainSlug string) (map[model.NormalizedURL]struct{}, error) {
	data, err := os.ReadFile(visitedPath(l, domainSlug))
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[model.NormalizedURL]struct{}), nil
		}
		return nil, fmt.Errorf("scanner: reading visited set: %w", err)
	}

	var urls []model.NormalizedURL
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("scanner: decoding visited set: %w", err)
	}

	visited := make(map[model.NormalizedURL]struct{}, len(urls))
	for _, u := range urls {
		visited[u] = struct{}{}
	}
	return visited, nil
}

// saveVisited atomically persists the current visited set.
func (s *Scanner) saveVisited() error {
	s.mu.Lock()
	urls := make([]model.NormalizedURL, 0, len(s.visited))
	for u := range s.visited {
		urls = append(urls, u)
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(urls, "", "  ")
	if err != nil {
		return fmt.Errorf("scanner: marshaling visited set: %w", err)
	}
	if err := layout.WriteAtomic(visitedPath(s.layout, s.domainSlug), data, 0o644); err != nil {
		return fmt.Errorf("scanner: writing visited set: %w", err)
	}
	return nil
}

// startAutoSave periodically persists the visited set while the pool
// runs, per spec's auto_save_interval.
func (s *Scanner) startAutoSave() {
	if s.cfg.AutoSaveInterval <= 0 {
		return
	}

	s.saveMu.Lock()
	s.stopSave = make(chan struct{})
	stop := s.stopSave
	s.saveMu.Unlock()

	s.saveWG.Add(1)
	go func() {
		defer s.saveWG.Done()
		ticker := time.NewTicker(s.cfg.AutoSaveInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := s.saveVisited(); err != nil {
					s.log.Warnw("scanner: autosave failed", "domain", s.domainSlug, "error", err)
				}
			}
		}
	}()
}

func (s *Scanner) stopAutoSave() {
	s.saveMu.Lock()
	stop := s.stopSave
	s.saveMu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	s.saveWG.Wait()
}

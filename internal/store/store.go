// Package store provides SQLite-backed persistence for crawl/scan
// state, violations, funnel artifacts and run bookkeeping, so a
// pipeline run can resume after an interruption without replaying
// every stage from scratch.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/a11y-auditor/auditor/internal/model"
)

// Store handles all database operations for the audit pipeline.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates a new database connection at path and ensures its
// schema exists.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_journal=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("store: pinging database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("store: creating schema: %w", err)
	}
	if _, err := s.db.Exec(ViewsSchema); err != nil {
		return fmt.Errorf("store: creating views: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// --- Page operations ---

// UpsertPage inserts a page or refreshes its template/status on
// conflict.
func (s *Store) UpsertPage(p PageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO pages (domain, url, normalized_url, template_id, page_type, is_representative, depth, crawl_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain, normalized_url) DO UPDATE SET
			template_id = excluded.template_id,
			page_type = excluded.page_type,
			is_representative = excluded.is_representative,
			crawl_status = excluded.crawl_status
	`, p.Domain, p.URL, p.NormalizedURL, p.TemplateID, p.PageType, p.IsRepresentative, p.Depth, p.CrawlStatus)
	return err
}

// PagesByDomain retrieves every known page for a domain.
func (s *Store) PagesByDomain(domain string) ([]PageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, domain, url, normalized_url, template_id, page_type, is_representative, depth, first_seen, crawl_status
		FROM pages WHERE domain = ?
	`, domain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []PageRecord
	for rows.Next() {
		var p PageRecord
		var templateID, pageType sql.NullString
		if err := rows.Scan(&p.ID, &p.Domain, &p.URL, &p.NormalizedURL, &templateID, &pageType,
			&p.IsRepresentative, &p.Depth, &p.FirstSeen, &p.CrawlStatus); err != nil {
			return nil, err
		}
		p.TemplateID = templateID.String
		p.PageType = pageType.String
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// --- Violation operations ---

// InsertViolation inserts a single violation, silently ignoring a
// duplicate dedupe key (the analyzer's own Clean pass still re-checks
// this defensively).
func (s *Store) InsertViolation(domain string, v model.Violation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertViolation(s.db, domain, v)
}

func (s *Store) insertViolation(exec execer, domain string, v model.Violation) error {
	_, err := exec.Exec(`
		INSERT INTO violations (domain, page_url, violation_id, impact, description, help, target_selector,
			html_fragment, failure_summary, auth_required, funnel_name, funnel_step, step_number, dedupe_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain, dedupe_key) DO NOTHING
	`, domain, string(v.PageURL), v.ViolationID, string(v.Impact), v.Description, v.Help, v.TargetSelector,
		v.HTMLFragment, v.FailureSummary, v.AuthRequired, v.FunnelName, v.FunnelStep, v.StepNumber, v.DedupeKey())
	return err
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// InsertViolations inserts a batch of violations inside one
// transaction.
func (s *Store) InsertViolations(domain string, violations []model.Violation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, v := range violations {
		if err := s.insertViolation(tx, domain, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ViolationsByDomain retrieves every persisted violation for a domain,
// reconstructed as model.Violation values ready for the analyzer.
func (s *Store) ViolationsByDomain(domain string) (model.ViolationSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT page_url, violation_id, impact, description, help, target_selector,
			html_fragment, failure_summary, auth_required, funnel_name, funnel_step, step_number
		FROM violations WHERE domain = ?
	`, domain)
	if err != nil {
		return model.ViolationSet{}, err
	}
	defer rows.Close()

	var vs model.ViolationSet
	for rows.Next() {
		var v model.Violation
		var pageURL, impact, funnelName, funnelStep string
		if err := rows.Scan(&pageURL, &v.ViolationID, &impact, &v.Description, &v.Help, &v.TargetSelector,
			&v.HTMLFragment, &v.FailureSummary, &v.AuthRequired, &funnelName, &funnelStep, &v.StepNumber); err != nil {
			return model.ViolationSet{}, err
		}
		v.PageURL = model.NormalizedURL(pageURL)
		v.Impact = model.Impact(impact)
		v.FunnelName = funnelName
		v.FunnelStep = funnelStep
		vs.Violations = append(vs.Violations, v)
	}
	return vs, rows.Err()
}

// --- Funnel artifact operations ---

// InsertFunnelArtifact persists one executed funnel step's evidence.
func (s *Store) InsertFunnelArtifact(domain string, a model.FunnelArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO funnel_artifacts (domain, funnel_id, step_index, step_name, url, html_snapshot_path, screenshot_path, success)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, domain, a.FunnelID, a.StepIndex, a.StepName, a.URL, a.HTMLSnapshotPath, a.ScreenshotPath, a.Success)
	return err
}

// FunnelArtifactsByDomain retrieves every funnel artifact for a
// domain, ordered by funnel then step.
func (s *Store) FunnelArtifactsByDomain(domain string) ([]FunnelArtifactRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, domain, funnel_id, step_index, step_name, url, html_snapshot_path, screenshot_path, success, captured_at
		FROM funnel_artifacts WHERE domain = ?
		ORDER BY funnel_id, step_index
	`, domain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []FunnelArtifactRecord
	for rows.Next() {
		var a FunnelArtifactRecord
		if err := rows.Scan(&a.ID, &a.Domain, &a.FunnelID, &a.StepIndex, &a.StepName, &a.URL,
			&a.HTMLSnapshotPath, &a.ScreenshotPath, &a.Success, &a.CapturedAt); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}

// --- Visited-set operations ---

// MarkVisited records a URL as visited for a domain, idempotently.
func (s *Store) MarkVisited(domain string, u model.NormalizedURL) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO visited (domain, normalized_url) VALUES (?, ?)
		ON CONFLICT(domain, normalized_url) DO NOTHING
	`, domain, string(u))
	return err
}

// LoadVisited retrieves the persisted visited set for a domain.
func (s *Store) LoadVisited(domain string) (map[model.NormalizedURL]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT normalized_url FROM visited WHERE domain = ?`, domain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	visited := make(map[model.NormalizedURL]struct{})
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		visited[model.NormalizedURL(u)] = struct{}{}
	}
	return visited, rows.Err()
}

// --- Run operations ---

// StartRun creates a new run row for a domain, returning its ID.
func (s *Store) StartRun(domain string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`
		INSERT INTO runs (domain, status, stage) VALUES (?, ?, ?)
	`, domain, RunStatusRunning, "crawl")
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// UpdateRunStage records the run's current stage.
func (s *Store) UpdateRunStage(runID int64, stage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`UPDATE runs SET stage = ? WHERE id = ?`, stage, runID)
	return err
}

// CompleteRun marks a run finished with a terminal status.
func (s *Store) CompleteRun(runID int64, status string, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE runs SET status = ?, error_message = ?, completed_at = CURRENT_TIMESTAMP WHERE id = ?
	`, status, errMsg, runID)
	return err
}

// --- Statistics ---

// Stats holds summary counts for a domain's persisted audit data.
type Stats struct {
	TotalPages      int
	CrawledPages    int
	TotalViolations int
	ByImpact        map[string]int
}

// StatsForDomain computes summary statistics for a domain.
func (s *Store) StatsForDomain(domain string) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{ByImpact: make(map[string]int)}

	s.db.QueryRow(`SELECT COUNT(*) FROM pages WHERE domain = ?`, domain).Scan(&stats.TotalPages)
	s.db.QueryRow(`SELECT COUNT(*) FROM pages WHERE domain = ? AND crawl_status = 'crawled'`, domain).Scan(&stats.CrawledPages)
	s.db.QueryRow(`SELECT COUNT(*) FROM violations WHERE domain = ?`, domain).Scan(&stats.TotalViolations)

	rows, err := s.db.Query(`SELECT impact, COUNT(*) FROM violations WHERE domain = ? GROUP BY impact`, domain)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var impact string
			var count int
			rows.Scan(&impact, &count)
			stats.ByImpact[impact] = count
		}
	}

	return stats, nil
}

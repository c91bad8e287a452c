package store

// Schema contains SQL statements to create the audit database's tables.
const Schema = `
-- Pages table: every URL discovered by the crawler for a domain.
CREATE TABLE IF NOT EXISTS pages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    domain TEXT NOT NULL,
    url TEXT NOT NULL,
    normalized_url TEXT NOT NULL,
    template_id TEXT,
    page_type TEXT,
    is_representative BOOLEAN DEFAULT 0,
    depth INTEGER DEFAULT 0,
    first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
    crawl_status TEXT DEFAULT 'pending',
    UNIQUE(domain, normalized_url)
);

CREATE INDEX IF NOT EXISTS idx_pages_domain ON pages(domain);
CREATE INDEX IF NOT EXISTS idx_pages_template ON pages(template_id);
CREATE INDEX IF NOT EXISTS idx_pages_status ON pages(crawl_status);

-- Violations table: one row per axe-core (or smoke-check) finding on a
-- single DOM node.
CREATE TABLE IF NOT EXISTS violations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    domain TEXT NOT NULL,
    page_url TEXT NOT NULL,
    violation_id TEXT NOT NULL,
    impact TEXT NOT NULL,
    description TEXT,
    help TEXT,
    target_selector TEXT,
    html_fragment TEXT,
    failure_summary TEXT,
    auth_required BOOLEAN DEFAULT 0,
    funnel_name TEXT,
    funnel_step TEXT,
    step_number INTEGER DEFAULT 0,
    detected_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    dedupe_key TEXT NOT NULL,
    UNIQUE(domain, dedupe_key)
);

CREATE INDEX IF NOT EXISTS idx_violations_domain ON violations(domain);
CREATE INDEX IF NOT EXISTS idx_violations_page_url ON violations(page_url);
CREATE INDEX IF NOT EXISTS idx_violations_violation_id ON violations(violation_id);
CREATE INDEX IF NOT EXISTS idx_violations_impact ON violations(impact);
CREATE INDEX IF NOT EXISTS idx_violations_funnel ON violations(funnel_name);

-- Funnel artifacts table: the captured evidence for each executed
-- funnel step.
CREATE TABLE IF NOT EXISTS funnel_artifacts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    domain TEXT NOT NULL,
    funnel_id TEXT NOT NULL,
    step_index INTEGER NOT NULL,
    step_name TEXT,
    url TEXT,
    html_snapshot_path TEXT,
    screenshot_path TEXT,
    success BOOLEAN DEFAULT 0,
    captured_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_funnel_artifacts_domain ON funnel_artifacts(domain);
CREATE INDEX IF NOT EXISTS idx_funnel_artifacts_funnel ON funnel_artifacts(funnel_id);

-- Visited table: the scanner's resumable visited-URL set, persisted
-- independently of the in-memory JSON checkpoint so a database-backed
-- run can resume without it.
CREATE TABLE IF NOT EXISTS visited (
    domain TEXT NOT NULL,
    normalized_url TEXT NOT NULL,
    visited_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (domain, normalized_url)
);

-- Runs table: one row per pipeline run, tracking stage progress.
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    domain TEXT NOT NULL,
    started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    completed_at DATETIME,
    status TEXT DEFAULT 'running',
    stage TEXT,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_domain ON runs(domain);
`

// ViewsSchema contains SQL for reporting-facing views.
const ViewsSchema = `
-- View: violation counts by impact per domain.
CREATE VIEW IF NOT EXISTS v_violations_by_impact AS
SELECT
    domain,
    impact,
    COUNT(*) as count
FROM violations
GROUP BY domain, impact
ORDER BY
    CASE impact
        WHEN 'critical' THEN 1
        WHEN 'serious' THEN 2
        WHEN 'moderate' THEN 3
        WHEN 'minor' THEN 4
        ELSE 5
    END;

-- View: violation counts by rule id per domain.
CREATE VIEW IF NOT EXISTS v_violations_by_rule AS
SELECT
    domain,
    violation_id,
    COUNT(*) as occurrences,
    COUNT(DISTINCT page_url) as affected_pages
FROM violations
GROUP BY domain, violation_id
ORDER BY occurrences DESC;

-- View: pages with no recorded violations (clean pages).
CREATE VIEW IF NOT EXISTS v_clean_pages AS
SELECT p.domain, p.url
FROM pages p
WHERE p.crawl_status = 'crawled'
AND NOT EXISTS (
    SELECT 1 FROM violations v WHERE v.page_url = p.normalized_url AND v.domain = p.domain
);

-- View: funnel step success rates.
CREATE VIEW IF NOT EXISTS v_funnel_step_success AS
SELECT
    domain,
    funnel_id,
    step_index,
    step_name,
    success
FROM funnel_artifacts
ORDER BY domain, funnel_id, step_index;
`

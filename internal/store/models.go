package store

import "time"

// PageRecord is a discovered URL's persisted row.
type PageRecord struct {
	ID               int64     `json:"id"`
	Domain           string    `json:"domain"`
	URL              string    `json:"url"`
	NormalizedURL    string    `json:"normalized_url"`
	TemplateID       string    `json:"template_id,omitempty"`
	PageType         string    `json:"page_type,omitempty"`
	IsRepresentative bool      `json:"is_representative"`
	Depth            int       `json:"depth"`
	FirstSeen        time.Time `json:"first_seen"`
	CrawlStatus      string    `json:"crawl_status"`
}

// ViolationRecord is one axe-core (or smoke-check) finding's persisted
// row, mirroring model.Violation plus its storage-only dedupe key.
type ViolationRecord struct {
	ID             int64     `json:"id"`
	Domain         string    `json:"domain"`
	PageURL        string    `json:"page_url"`
	ViolationID    string    `json:"violation_id"`
	Impact         string    `json:"impact"`
	Description    string    `json:"description"`
	Help           string    `json:"help"`
	TargetSelector string    `json:"target_selector"`
	HTMLFragment   string    `json:"html_fragment"`
	FailureSummary string    `json:"failure_summary"`
	AuthRequired   bool      `json:"auth_required"`
	FunnelName     string    `json:"funnel_name,omitempty"`
	FunnelStep     string    `json:"funnel_step,omitempty"`
	StepNumber     int       `json:"step_number"`
	DetectedAt     time.Time `json:"detected_at"`
	DedupeKey      string    `json:"dedupe_key"`
}

// FunnelArtifactRecord is one executed funnel step's persisted row.
type FunnelArtifactRecord struct {
	ID               int64     `json:"id"`
	Domain           string    `json:"domain"`
	FunnelID         string    `json:"funnel_id"`
	StepIndex        int       `json:"step_index"`
	StepName         string    `json:"step_name"`
	URL              string    `json:"url"`
	HTMLSnapshotPath string    `json:"html_snapshot_path"`
	ScreenshotPath   string    `json:"screenshot_path"`
	Success          bool      `json:"success"`
	CapturedAt       time.Time `json:"captured_at"`
}

// RunRecord tracks one pipeline run's stage progress for a domain.
type RunRecord struct {
	ID           int64      `json:"id"`
	Domain       string     `json:"domain"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Status       string     `json:"status"`
	Stage        string     `json:"stage"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
	RunStatusDegraded  = "degraded"
)

// Package config defines pipeline configuration and its precedence
// merge: CLI flags override environment variables, which override a
// config file, which overrides built-in defaults.
package config

import (
	"fmt"
	"time"
)

// AuthType selects the authentication strategy the Auth Driver uses.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBasic  AuthType = "basic"
	AuthForm   AuthType = "form"
	AuthCookie AuthType = "cookie"
)

// Stage names the pipeline's starting point for `--start`.
type Stage string

const (
	StageCrawler  Stage = "crawler"
	StageAuth     Stage = "auth"
	StageAxe      Stage = "axe"
	StageFunnel   Stage = "funnel"
	StageAnalysis Stage = "analysis"
)

// CrawlConfig holds the bounds the crawler enforces per spec §4.2.
type CrawlConfig struct {
	MaxURLsPerDomain int           `json:"max_urls_per_domain" yaml:"max_urls_per_domain" toml:"max_urls_per_domain"`
	MaxTotalURLs     int           `json:"max_total_urls" yaml:"max_total_urls" toml:"max_total_urls"`
	DepthLimit       int           `json:"depth_limit" yaml:"depth_limit" toml:"depth_limit"`
	RequestDelay     time.Duration `json:"request_delay" yaml:"request_delay" toml:"request_delay"`
	PendingThreshold int           `json:"pending_threshold" yaml:"pending_threshold" toml:"pending_threshold"`
	PerHostRPS       float64       `json:"per_host_rps" yaml:"per_host_rps" toml:"per_host_rps"`
	Concurrency      int           `json:"concurrency" yaml:"concurrency" toml:"concurrency"`
	MaxRetries       int           `json:"max_retries" yaml:"max_retries" toml:"max_retries"`
	RetryBackoff     time.Duration `json:"retry_backoff" yaml:"retry_backoff" toml:"retry_backoff"`
	RequestTimeout   time.Duration `json:"request_timeout" yaml:"request_timeout" toml:"request_timeout"`
	RenderTimeout    time.Duration `json:"render_timeout" yaml:"render_timeout" toml:"render_timeout"`
	StripWWW         bool          `json:"strip_www" yaml:"strip_www" toml:"strip_www"`
	RetryStatusCodes []int         `json:"retry_status_codes" yaml:"retry_status_codes" toml:"retry_status_codes"`
	UserAgent        string        `json:"user_agent" yaml:"user_agent" toml:"user_agent"`
	MaxRedirects     int           `json:"max_redirects" yaml:"max_redirects" toml:"max_redirects"`
}

// AuthConfig holds credentials and restricted-URL matching rules for
// the Auth Driver.
type AuthConfig struct {
	Type            AuthType          `json:"type" yaml:"type" toml:"type"`
	Username        string            `json:"username,omitempty" yaml:"username,omitempty" toml:"username,omitempty"`
	Password        string            `json:"password,omitempty" yaml:"password,omitempty" toml:"password,omitempty"`
	LoginURL        string            `json:"login_url,omitempty" yaml:"login_url,omitempty" toml:"login_url,omitempty"`
	FormFields      map[string]string `json:"form_fields,omitempty" yaml:"form_fields,omitempty" toml:"form_fields,omitempty"`
	SuccessURL      string            `json:"success_url,omitempty" yaml:"success_url,omitempty" toml:"success_url,omitempty"`
	SuccessText     string            `json:"success_text,omitempty" yaml:"success_text,omitempty" toml:"success_text,omitempty"`
	RestrictedURLs  []string          `json:"restricted_urls,omitempty" yaml:"restricted_urls,omitempty" toml:"restricted_urls,omitempty"`
	UseBrowserLogin bool              `json:"use_browser_login" yaml:"use_browser_login" toml:"use_browser_login"`
}

// FunnelConfig toggles funnel analysis and points at the funnel
// definitions to run.
type FunnelConfig struct {
	Enabled         bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	DefinitionPaths []string `json:"definition_paths,omitempty" yaml:"definition_paths,omitempty" toml:"definition_paths,omitempty"`
}

// ScanConfig bounds the Scanner's driver pool per spec §4.5.
type ScanConfig struct {
	PoolSize          int           `json:"pool_size" yaml:"pool_size" toml:"pool_size"`
	PageLoadTimeout   time.Duration `json:"page_load_timeout" yaml:"page_load_timeout" toml:"page_load_timeout"`
	SleepTime         time.Duration `json:"sleep_time" yaml:"sleep_time" toml:"sleep_time"`
	AxeRetries        int           `json:"axe_retries" yaml:"axe_retries" toml:"axe_retries"`
	AutoSaveInterval  time.Duration `json:"auto_save_interval" yaml:"auto_save_interval" toml:"auto_save_interval"`
	Resume            bool          `json:"resume" yaml:"resume" toml:"resume"`
}

// ResourceConfig bounds the orchestrator's resource-monitor task.
type ResourceConfig struct {
	CPUThreshold    float64       `json:"cpu_threshold" yaml:"cpu_threshold" toml:"cpu_threshold"`
	MemoryThreshold float64       `json:"memory_threshold" yaml:"memory_threshold" toml:"memory_threshold"`
	SampleInterval  time.Duration `json:"sample_interval" yaml:"sample_interval" toml:"sample_interval"`
	DrainWindow     time.Duration `json:"drain_window" yaml:"drain_window" toml:"drain_window"`
}

// Config is the fully resolved configuration threaded through every
// stage. It is a plain value, never a package-level singleton.
type Config struct {
	OutputDir string         `json:"output_dir" yaml:"output_dir" toml:"output_dir"`
	LogLevel  string         `json:"log_level" yaml:"log_level" toml:"log_level"`
	BaseURLs  []string       `json:"base_urls" yaml:"base_urls" toml:"base_urls"`
	Domains   []string       `json:"domains,omitempty" yaml:"domains,omitempty" toml:"domains,omitempty"`
	Start     Stage          `json:"start" yaml:"start" toml:"start"`
	Debug     bool           `json:"debug" yaml:"debug" toml:"debug"`
	Crawl     CrawlConfig    `json:"crawl" yaml:"crawl" toml:"crawl"`
	Scan      ScanConfig     `json:"scan" yaml:"scan" toml:"scan"`
	Auth      AuthConfig     `json:"auth" yaml:"auth" toml:"auth"`
	Funnel    FunnelConfig   `json:"funnel" yaml:"funnel" toml:"funnel"`
	Resources ResourceConfig `json:"resources" yaml:"resources" toml:"resources"`
}

// Default returns the built-in baseline configuration, the lowest tier
// in the precedence chain.
func Default() *Config {
	return &Config{
		OutputDir: "./output",
		LogLevel:  "info",
		Start:     StageCrawler,
		Crawl: CrawlConfig{
			MaxURLsPerDomain: 200,
			MaxTotalURLs:     2000,
			DepthLimit:       10,
			RequestDelay:     500 * time.Millisecond,
			PendingThreshold: 20,
			PerHostRPS:       2,
			Concurrency:      5,
			MaxRetries:       3,
			RetryBackoff:     time.Second,
			RequestTimeout:   30 * time.Second,
			RenderTimeout:    45 * time.Second,
			StripWWW:         true,
			RetryStatusCodes: []int{500, 502, 503, 504, 408, 429, 403, 520, 521, 522, 523, 524},
			UserAgent:        "a11y-auditor/1.0 (+accessibility audit bot)",
			MaxRedirects:     10,
		},
		Scan: ScanConfig{
			PoolSize:         3,
			PageLoadTimeout:  30 * time.Second,
			SleepTime:        2 * time.Second,
			AxeRetries:       3,
			AutoSaveInterval: 30 * time.Second,
			Resume:           true,
		},
		Auth: AuthConfig{Type: AuthNone},
		Funnel: FunnelConfig{
			Enabled: false,
		},
		Resources: ResourceConfig{
			CPUThreshold:    90,
			MemoryThreshold: 90,
			SampleInterval:  5 * time.Second,
			DrainWindow:     30 * time.Second,
		},
	}
}

// Validate checks invariants that must hold before a run starts.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("config: output_dir must not be empty")
	}
	if c.Crawl.MaxURLsPerDomain < 0 {
		return fmt.Errorf("config: max_urls_per_domain must be >= 0")
	}
	if c.Crawl.Concurrency < 1 {
		c.Crawl.Concurrency = 1
	}
	if c.Crawl.RequestTimeout < time.Second {
		c.Crawl.RequestTimeout = time.Second
	}
	if c.Scan.PoolSize < 1 {
		c.Scan.PoolSize = 1
	}
	if c.Scan.AxeRetries < 0 {
		c.Scan.AxeRetries = 0
	}
	switch c.Start {
	case StageCrawler, StageAuth, StageAxe, StageFunnel, StageAnalysis:
	default:
		return fmt.Errorf("config: unknown start stage %q", c.Start)
	}
	return nil
}

// Clone returns a deep copy so callers can mutate a resolved config
// without aliasing shared slices/maps.
func (c *Config) Clone() *Config {
	clone := *c

	clone.BaseURLs = append([]string(nil), c.BaseURLs...)
	clone.Domains = append([]string(nil), c.Domains...)
	clone.Crawl.RetryStatusCodes = append([]int(nil), c.Crawl.RetryStatusCodes...)
	clone.Funnel.DefinitionPaths = append([]string(nil), c.Funnel.DefinitionPaths...)
	clone.Auth.RestrictedURLs = append([]string(nil), c.Auth.RestrictedURLs...)

	if c.Auth.FormFields != nil {
		clone.Auth.FormFields = make(map[string]string, len(c.Auth.FormFields))
		for k, v := range c.Auth.FormFields {
			clone.Auth.FormFields[k] = v
		}
	}

	return &clone
}

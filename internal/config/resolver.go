package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Resolver merges configuration from the built-in defaults, an
// optional file, environment variables, and CLI flag overrides, in
// that increasing order of precedence. It is a plain value: callers
// construct one per run rather than reading a package-level global.
type Resolver struct {
	FilePath string
	Env      map[string]string // overridable for tests; nil means os.Environ()
}

// NewResolver returns a Resolver that reads the process environment.
func NewResolver(filePath string) *Resolver {
	return &Resolver{FilePath: filePath}
}

// Resolve produces the final Config: defaults, then file, then env,
// then the supplied CLI overrides.
func (r *Resolver) Resolve(cliOverrides *CLIOverrides) (*Config, error) {
	cfg := Default()

	if r.FilePath != "" {
		fileCfg, err := loadFile(r.FilePath)
		if err != nil {
			return nil, fmt.Errorf("config: loading file %s: %w", r.FilePath, err)
		}
		mergeFile(cfg, fileCfg)
	}

	r.applyEnv(cfg)

	if cliOverrides != nil {
		cliOverrides.apply(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// loadFile reads a JSON, YAML, or TOML config file, dispatching on
// extension, into a fresh Default() so unset fields keep their
// built-in values.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config extension %q", ext)
	}
	return cfg, nil
}

// mergeFile overlays a loaded file config onto the running config.
// Since loadFile starts from Default(), this is a full replace of the
// file-backed struct: fields the file omits keep the built-in
// defaults, while a field the file sets explicitly, even to a zero
// value, overrides its default.
func mergeFile(dst, src *Config) {
	*dst = *src
}

// envAliases maps AXE_* environment variables to config field setters,
// resolving the documented alias table (spec §6).
var envAliases = map[string]func(c *Config, value string){
	"AXE_OUTPUT_DIR": func(c *Config, v string) { c.OutputDir = v },
	"AXE_LOG_LEVEL":  func(c *Config, v string) { c.LogLevel = v },
	"AXE_BASE_URLS": func(c *Config, v string) {
		c.BaseURLs = splitCSV(v)
	},
	"AXE_CRAWLER_MAX_URLS": func(c *Config, v string) {
		if n, err := strconv.Atoi(v); err == nil {
			c.Crawl.MaxURLsPerDomain = n
		}
	},
	"AXE_CRAWLER_HYBRID_MODE": func(c *Config, v string) {
		if n, err := strconv.Atoi(v); err == nil {
			c.Crawl.PendingThreshold = n
		}
	},
	"AXE_AUTH_USERNAME": func(c *Config, v string) { c.Auth.Username = v },
	"AXE_AUTH_PASSWORD": func(c *Config, v string) { c.Auth.Password = v },
	"AXE_AUTH_TYPE":     func(c *Config, v string) { c.Auth.Type = AuthType(v) },
	"AXE_FUNNEL_ANALYSIS_ENABLED": func(c *Config, v string) {
		c.Funnel.Enabled = parseBool(v)
	},
	"AXE_CPU_THRESHOLD": func(c *Config, v string) {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Resources.CPUThreshold = f
		}
	},
	"AXE_MEMORY_THRESHOLD": func(c *Config, v string) {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Resources.MemoryThreshold = f
		}
	},
}

func (r *Resolver) applyEnv(cfg *Config) {
	lookup := os.LookupEnv
	if r.Env != nil {
		lookup = func(key string) (string, bool) {
			v, ok := r.Env[key]
			return v, ok
		}
	}
	for key, setter := range envAliases {
		if v, ok := lookup(key); ok && v != "" {
			setter(cfg, v)
		}
	}
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

// CLIOverrides carries flag values from cmd/auditor; a nil field means
// "flag not set, keep the lower-precedence value".
type CLIOverrides struct {
	Domains  []string
	Start    *Stage
	MaxURLs  *int
	Debug    *bool
	OutputDir *string
}

func (o *CLIOverrides) apply(cfg *Config) {
	if len(o.Domains) > 0 {
		cfg.Domains = o.Domains
	}
	if o.Start != nil {
		cfg.Start = *o.Start
	}
	if o.MaxURLs != nil {
		cfg.Crawl.MaxURLsPerDomain = *o.MaxURLs
	}
	if o.Debug != nil {
		cfg.Debug = *o.Debug
		if *o.Debug {
			cfg.LogLevel = "debug"
		}
	}
	if o.OutputDir != nil {
		cfg.OutputDir = *o.OutputDir
	}
}

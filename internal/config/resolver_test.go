package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_DefaultsOnly(t *testing.T) {
	r := NewResolver("")
	cfg, err := r.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Crawl.MaxURLsPerDomain)
	assert.Equal(t, StageCrawler, cfg.Start)
}

func TestResolver_FilePrecedesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "output_dir: /tmp/custom\ncrawl:\n  max_urls_per_domain: 50\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	r := NewResolver(path)
	cfg, err := r.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom", cfg.OutputDir)
	assert.Equal(t, 50, cfg.Crawl.MaxURLsPerDomain)
}

func TestResolver_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"crawl": {"max_urls_per_domain": 50}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	r := &Resolver{FilePath: path, Env: map[string]string{"AXE_CRAWLER_MAX_URLS": "75"}}
	cfg, err := r.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, 75, cfg.Crawl.MaxURLsPerDomain)
}

func TestResolver_CLIOverridesEverything(t *testing.T) {
	r := &Resolver{Env: map[string]string{"AXE_CRAWLER_MAX_URLS": "75"}}
	maxURLs := 10
	debug := true
	cfg, err := r.Resolve(&CLIOverrides{MaxURLs: &maxURLs, Debug: &debug})
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Crawl.MaxURLsPerDomain)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestResolver_TOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "output_dir = \"/tmp/toml-out\"\n\n[crawl]\nmax_urls_per_domain = 33\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	r := NewResolver(path)
	cfg, err := r.Resolve(nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/toml-out", cfg.OutputDir)
	assert.Equal(t, 33, cfg.Crawl.MaxURLsPerDomain)
}

func TestResolver_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(path, []byte("x=1"), 0644))

	r := NewResolver(path)
	_, err := r.Resolve(nil)
	assert.Error(t, err)
}

func TestConfig_CloneIsIndependent(t *testing.T) {
	cfg := Default()
	cfg.BaseURLs = []string{"https://a.test"}

	clone := cfg.Clone()
	clone.BaseURLs[0] = "https://b.test"

	assert.Equal(t, "https://a.test", cfg.BaseURLs[0])
	assert.Equal(t, "https://b.test", clone.BaseURLs[0])
}

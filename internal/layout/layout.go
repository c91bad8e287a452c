// Package layout manages the on-disk directory tree for a pipeline
// run: one subtree per domain, plus timestamped archival of prior
// runs, and the atomic temp-file-then-rename write primitive every
// stage's persisted artifacts build on.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Subdirectories created under every domain's root, per spec §6.
const (
	DirCrawlerOutput  = "crawler_output"
	DirAxeOutput      = "axe_output"
	DirAnalysisOutput = "analysis_output"
	DirReports        = "reports"
	DirLogs           = "logs"
	DirCharts         = "charts"
	DirTemp           = "temp"
	DirScreenshots    = "screenshots"
	DirFunnels        = "funnels"
)

var domainSubdirs = []string{
	DirCrawlerOutput, DirAxeOutput, DirAnalysisOutput, DirReports,
	DirLogs, DirCharts, DirTemp, DirScreenshots, DirFunnels,
}

// Layout resolves every path a pipeline run writes to, rooted at
// OutputRoot.
type Layout struct {
	OutputRoot string
}

// New returns a Layout rooted at root.
func New(root string) *Layout {
	return &Layout{OutputRoot: root}
}

// DomainRoot returns <output_root>/<domain_slug>.
func (l *Layout) DomainRoot(domainSlug string) string {
	return filepath.Join(l.OutputRoot, domainSlug)
}

// Dir returns <output_root>/<domain_slug>/<sub>.
func (l *Layout) Dir(domainSlug, sub string) string {
	return filepath.Join(l.DomainRoot(domainSlug), sub)
}

// RunsRoot returns <output_root>/runs.
func (l *Layout) RunsRoot() string {
	return filepath.Join(l.OutputRoot, "runs")
}

// EnsureDomain creates the full subdirectory tree for a domain,
// idempotently.
func (l *Layout) EnsureDomain(domainSlug string) error {
	for _, sub := range domainSubdirs {
		dir := l.Dir(domainSlug, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("layout: creating %s: %w", dir, err)
		}
	}
	return nil
}

// ArchivePriorRun moves an existing domain directory out of the way to
// <output_root>/runs/<domain_slug>_<timestamp> before a fresh run
// starts, so the new run never writes into stale state. A missing
// domain directory is not an error — there is nothing to archive on a
// first run.
func (l *Layout) ArchivePriorRun(domainSlug string, timestamp time.Time) error {
	src := l.DomainRoot(domainSlug)
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("layout: stat %s: %w", src, err)
	}

	runsRoot := l.RunsRoot()
	if err := os.MkdirAll(runsRoot, 0o755); err != nil {
		return fmt.Errorf("layout: creating %s: %w", runsRoot, err)
	}

	dst := filepath.Join(runsRoot, fmt.Sprintf("%s_%d", domainSlug, timestamp.Unix()))
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("layout: archiving %s to %s: %w", src, dst, err)
	}
	return nil
}

// WriteAtomic writes data to path via a temp file in the same
// directory followed by a rename, so a concurrent reader observes
// either the pre-write or the post-write content, never a partial
// file.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("layout: creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("layout: creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("layout: writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("layout: syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("layout: closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("layout: chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("layout: renaming into place: %w", err)
	}
	return nil
}

// Slugify converts a domain name into a filesystem-safe slug (dots and
// colons replaced with underscores).
func Slugify(domain string) string {
	out := make([]rune, 0, len(domain))
	for _, r := range domain {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

package funnel

import (
	"fmt"
	"path/filepath"

	"github.com/a11y-auditor/auditor/internal/layout"
)

func snapshotPath(l *layout.Layout, domainSlug, funnelID string, stepIndex int) string {
	name := fmt.Sprintf("%s_step%d.html", funnelID, stepIndex)
	return filepath.Join(l.Dir(domainSlug, layout.DirFunnels), name)
}

func screenshotPath(l *layout.Layout, domainSlug, funnelID string, stepIndex int, filename string) string {
	if filename == "" {
		filename = fmt.Sprintf("%s_step%d.png", funnelID, stepIndex)
	}
	return filepath.Join(l.Dir(domainSlug, layout.DirScreenshots), filename)
}

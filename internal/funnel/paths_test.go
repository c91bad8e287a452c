package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/a11y-auditor/auditor/internal/layout"
)

func TestSnapshotPath(t *testing.T) {
	l := layout.New("/tmp/output")
	path := snapshotPath(l, "example_com", "checkout", 2)
	assert.Equal(t, "/tmp/output/example_com/funnels/checkout_step2.html", path)
}

func TestScreenshotPath_DefaultsFilename(t *testing.T) {
	l := layout.New("/tmp/output")
	path := screenshotPath(l, "example_com", "checkout", 1, "")
	assert.Equal(t, "/tmp/output/example_com/screenshots/checkout_step1.png", path)
}

func TestScreenshotPath_HonorsExplicitFilename(t *testing.T) {
	l := layout.New("/tmp/output")
	path := screenshotPath(l, "example_com", "checkout", 1, "custom.png")
	assert.Equal(t, "/tmp/output/example_com/screenshots/custom.png", path)
}

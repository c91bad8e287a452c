// Package funnel executes scripted user journeys (FunnelDefinitions)
// against a live browser session, capturing an HTML snapshot and
// screenshot at each step and evaluating the step's success
// condition, grounded on internal/renderer's chromedp action helpers.
package funnel

import (
	"context"
	"fmt"
	"time"

	"github.com/a11y-auditor/auditor/internal/auth"
	"github.com/a11y-auditor/auditor/internal/layout"
	"github.com/a11y-auditor/auditor/internal/model"
	"github.com/a11y-auditor/auditor/internal/renderer"
)

// Executor runs FunnelDefinitions against a shared renderer pool.
type Executor struct {
	pool    *renderer.Pool
	authn   *auth.Authenticator
	layout  *layout.Layout
	timeout time.Duration
}

// New returns an Executor that writes step artifacts under
// l.Dir(domainSlug, layout.DirFunnels). authn may be nil when no
// funnel definition requires authentication.
func New(pool *renderer.Pool, authn *auth.Authenticator, l *layout.Layout, stepTimeout time.Duration) *Executor {
	if stepTimeout <= 0 {
		stepTimeout = 15 * time.Second
	}
	return &Executor{pool: pool, authn: authn, layout: l, timeout: stepTimeout}
}

// Run executes every step of def in order against one browser
// session, stopping at the first step whose success condition fails
// (later steps typically depend on earlier ones having succeeded).
// def.AuthRequired journeys get the session's cookies injected before
// the first navigation, per spec §4.3's apply_to_browser contract.
func (e *Executor) Run(ctx context.Context, domainSlug string, def model.FunnelDefinition) ([]model.FunnelArtifact, error) {
	browserCtx, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("funnel: acquiring browser context: %w", err)
	}
	defer e.pool.Release(browserCtx)

	if def.AuthRequired && e.authn != nil {
		if err := e.authn.ApplyToBrowser(browserCtx); err != nil {
			return nil, fmt.Errorf("funnel: injecting session cookies: %w", err)
		}
	}

	artifacts := make([]model.FunnelArtifact, 0, len(def.Steps))

	for i, step := range def.Steps {
		artifact, err := e.runStep(browserCtx, domainSlug, def.ID, i, step)
		if err != nil {
			return artifacts, fmt.Errorf("funnel: step %d (%s): %w", i, step.Name, err)
		}
		artifacts = append(artifacts, artifact)
		if !artifact.Success {
			break
		}
	}
	return artifacts, nil
}

func (e *Executor) runStep(browserCtx context.Context, domainSlug, funnelID string, index int, step model.FunnelStep) (model.FunnelArtifact, error) {
	timeout := step.Timeout
	if timeout <= 0 {
		timeout = e.timeout
	}

	artifact := model.FunnelArtifact{
		FunnelID:  funnelID,
		StepIndex: index,
		StepName:  step.Name,
		URL:       step.URL,
	}

	if step.URL != "" {
		waitSelector := step.WaitForSelector
		result := renderer.Render(browserCtx, step.URL, waitSelector, timeout)
		if result.Error != nil {
			return artifact, fmt.Errorf("navigating: %w", result.Error)
		}
	}

	for _, action := range step.Actions {
		if err := renderer.ExecuteAction(browserCtx, action, timeout); err != nil {
			return artifact, fmt.Errorf("action %s: %w", action.Kind, err)
		}
		if action.Kind == model.ActionScreenshot {
			if err := e.captureScreenshot(browserCtx, domainSlug, funnelID, index, action.Filename, &artifact, timeout); err != nil {
				return artifact, err
			}
		}
	}

	if err := e.captureSnapshot(browserCtx, domainSlug, funnelID, index, &artifact, timeout); err != nil {
		return artifact, err
	}

	if step.SuccessCond != nil {
		ok, err := renderer.EvaluateCondition(browserCtx, *step.SuccessCond, timeout)
		if err != nil {
			return artifact, fmt.Errorf("evaluating success condition: %w", err)
		}
		artifact.Success = ok
	} else {
		artifact.Success = true
	}

	return artifact, nil
}

func (e *Executor) captureSnapshot(browserCtx context.Context, domainSlug, funnelID string, index int, artifact *model.FunnelArtifact, timeout time.Duration) error {
	html, err := renderer.OuterHTML(browserCtx, timeout)
	if err != nil {
		return fmt.Errorf("capturing HTML snapshot: %w", err)
	}

	path := snapshotPath(e.layout, domainSlug, funnelID, index)
	if err := layout.WriteAtomic(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("writing HTML snapshot: %w", err)
	}
	artifact.HTMLSnapshotPath = path
	return nil
}

func (e *Executor) captureScreenshot(browserCtx context.Context, domainSlug, funnelID string, index int, filename string, artifact *model.FunnelArtifact, timeout time.Duration) error {
	data, err := renderer.Screenshot(browserCtx, timeout)
	if err != nil {
		return fmt.Errorf("capturing screenshot: %w", err)
	}

	path := screenshotPath(e.layout, domainSlug, funnelID, index, filename)
	if err := layout.WriteAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("writing screenshot: %w", err)
	}
	artifact.ScreenshotPath = path
	return nil
}

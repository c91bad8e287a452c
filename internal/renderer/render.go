package renderer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Result holds the outcome of a heavy-mode (browser-rendered) fetch.
type Result struct {
	HTML       string
	FinalURL   string
	Title      string
	StatusCode int
	Headers    map[string]string
	RenderTime time.Duration
	Error      error
}

// Render navigates browserCtx to rawURL, waits for the body to be
// ready (or waitSelector, when non-empty, to become visible), and
// returns the final DOM's outer HTML. Network events are watched only
// long enough to capture the main document's status/headers.
func Render(browserCtx context.Context, rawURL, waitSelector string, timeout time.Duration) *Result {
	result := &Result{Headers: make(map[string]string)}
	start := time.Now()

	timeoutCtx, cancel := context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var mu sync.Mutex
	chromedp.ListenTarget(timeoutCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventResponseReceived:
			if e.Type == network.ResourceTypeDocument {
				mu.Lock()
				for k, v := range e.Response.Headers {
					if s, ok := v.(string); ok {
						result.Headers[k] = s
					}
				}
				result.StatusCode = int(e.Response.Status)
				mu.Unlock()
			}
		case *page.EventJavascriptDialogOpening:
			go chromedp.Run(timeoutCtx, page.HandleJavaScriptDialog(true))
		}
	})

	if err := chromedp.Run(timeoutCtx, network.Enable()); err != nil {
		result.Error = fmt.Errorf("renderer: enabling network tracking: %w", err)
		return result
	}

	var waitAction chromedp.Action = chromedp.WaitReady("body", chromedp.ByQuery)
	if waitSelector != "" {
		waitAction = chromedp.WaitVisible(waitSelector, chromedp.ByQuery)
	}

	var html, title, finalURL string
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(rawURL),
		waitAction,
		chromedp.Location(&finalURL),
		chromedp.Title(&title),
		chromedp.ActionFunc(func(ctx context.Context) error {
			node, err := dom.GetDocument().Do(ctx)
			if err != nil {
				return err
			}
			html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
			return err
		}),
	)
	if err != nil {
		result.Error = fmt.Errorf("renderer: navigating to %s: %w", rawURL, err)
		return result
	}

	result.HTML = html
	result.Title = title
	result.FinalURL = finalURL
	result.RenderTime = time.Since(start)
	return result
}

// Screenshot captures a full-page PNG screenshot of the page currently
// loaded in browserCtx.
func Screenshot(browserCtx context.Context, timeout time.Duration) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(timeoutCtx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, fmt.Errorf("renderer: capturing screenshot: %w", err)
	}
	return buf, nil
}

// Evaluate runs script against the page currently loaded in
// browserCtx and decodes the result into out.
func Evaluate(browserCtx context.Context, script string, out interface{}, timeout time.Duration) error {
	timeoutCtx, cancel := context.WithTimeout(browserCtx, timeout)
	defer cancel()

	if err := chromedp.Run(timeoutCtx, chromedp.Evaluate(script, out)); err != nil {
		return fmt.Errorf("renderer: evaluating script: %w", err)
	}
	return nil
}

// OuterHTML returns the current document's outer HTML without
// navigating, used after a funnel action mutates the DOM in place.
func OuterHTML(browserCtx context.Context, timeout time.Duration) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(timeoutCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		node, err := dom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
		return err
	}))
	if err != nil {
		return "", fmt.Errorf("renderer: capturing outer HTML: %w", err)
	}
	return html, nil
}

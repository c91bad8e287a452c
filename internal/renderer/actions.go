package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/a11y-auditor/auditor/internal/model"
)

// ExecuteAction runs a single funnel Action against the page currently
// loaded in browserCtx.
func ExecuteAction(browserCtx context.Context, action model.Action, timeout time.Duration) error {
	timeoutCtx, cancel := context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var act chromedp.Action
	switch action.Kind {
	case model.ActionWait:
		seconds := action.Seconds
		if seconds <= 0 {
			seconds = 1
		}
		act = chromedp.Sleep(time.Duration(seconds * float64(time.Second)))
	case model.ActionClick:
		act = chromedp.Click(action.Selector, chromedp.ByQuery)
	case model.ActionInput:
		act = chromedp.SetValue(action.Selector, action.Value, chromedp.ByQuery)
	case model.ActionSelect:
		act = chromedp.SetValue(action.Selector, action.Value, chromedp.ByQuery)
	case model.ActionSubmitForm:
		act = chromedp.Submit(action.Selector, chromedp.ByQuery)
	case model.ActionScript:
		var discard interface{}
		act = chromedp.Evaluate(action.Code, &discard)
	case model.ActionScreenshot:
		// Screenshots are captured by the caller via Screenshot, using
		// action.Filename to name the artifact; no browser action here.
		return nil
	case model.ActionCookieBanner:
		act = dismissCookieBanner(action.Selector)
	default:
		return fmt.Errorf("renderer: unknown action kind %q", action.Kind)
	}

	if err := chromedp.Run(timeoutCtx, act); err != nil {
		return fmt.Errorf("renderer: executing %s action: %w", action.Kind, err)
	}
	return nil
}

// dismissCookieBanner clicks selector if present, tolerating its
// absence since not every page shows a consent banner.
func dismissCookieBanner(selector string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var exists bool
		if err := chromedp.Evaluate(
			fmt.Sprintf(`!!document.querySelector(%q)`, selector), &exists,
		).Do(ctx); err != nil {
			return err
		}
		if !exists {
			return nil
		}
		return chromedp.Click(selector, chromedp.ByQuery).Do(ctx)
	})
}

// EvaluateCondition checks a funnel step's SuccessCondition against
// the page currently loaded in browserCtx.
func EvaluateCondition(browserCtx context.Context, cond model.SuccessCondition, timeout time.Duration) (bool, error) {
	timeoutCtx, cancel := context.WithTimeout(browserCtx, timeout)
	defer cancel()

	switch cond.Kind {
	case model.ConditionElementVisible, model.ConditionElementClickable:
		var visible bool
		script := fmt.Sprintf(`(function(){
			const el = document.querySelector(%q);
			if (!el) return false;
			const rect = el.getBoundingClientRect();
			const style = window.getComputedStyle(el);
			return rect.width > 0 && rect.height > 0 && style.visibility !== 'hidden' && style.display !== 'none';
		})()`, cond.Selector)
		if err := chromedp.Run(timeoutCtx, chromedp.Evaluate(script, &visible)); err != nil {
			return false, fmt.Errorf("renderer: evaluating element condition: %w", err)
		}
		return visible, nil

	case model.ConditionURLContains:
		var currentURL string
		if err := chromedp.Run(timeoutCtx, chromedp.Location(&currentURL)); err != nil {
			return false, fmt.Errorf("renderer: reading location: %w", err)
		}
		return containsSubstring(currentURL, cond.Text), nil

	case model.ConditionTextContains:
		var bodyText string
		if err := chromedp.Run(timeoutCtx, chromedp.Text("body", &bodyText, chromedp.ByQuery)); err != nil {
			return false, fmt.Errorf("renderer: reading body text: %w", err)
		}
		return containsSubstring(bodyText, cond.Text), nil

	default:
		return false, fmt.Errorf("renderer: unknown success condition kind %q", cond.Kind)
	}
}

func containsSubstring(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

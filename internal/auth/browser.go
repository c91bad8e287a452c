package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

func setBrowserField(browserCtx context.Context, selector, value string) error {
	return chromedp.Run(browserCtx, chromedp.SetValue(selector, value, chromedp.ByQuery))
}

func submitBrowserForm(browserCtx context.Context) error {
	return chromedp.Run(browserCtx,
		chromedp.Evaluate(`document.querySelector('form') && document.querySelector('form').submit()`, nil),
		chromedp.Sleep(0),
	)
}

func browserLoginOutcome(browserCtx context.Context) (currentURL, bodyText string, err error) {
	err = chromedp.Run(browserCtx,
		chromedp.Location(&currentURL),
		chromedp.Text("body", &bodyText, chromedp.ByQuery),
	)
	return currentURL, bodyText, err
}

// setBrowserCookies injects cookies into the browser session via CDP's
// Network.setCookie, one call per cookie since SetCookie (unlike
// SetCookies) takes a single name/value pair.
func setBrowserCookies(browserCtx context.Context, cookies []*http.Cookie) error {
	return chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			params := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithSecure(c.Secure).
				WithHTTPOnly(c.HttpOnly)
			if _, err := params.Do(ctx); err != nil {
				return fmt.Errorf("setting cookie %s: %w", c.Name, err)
			}
		}
		return nil
	}))
}

// browserCookies reads every cookie the browser holds for currentURL's
// origin, translated into the stdlib's http.Cookie so it can be merged
// into the shared cookiejar.
func browserCookies(browserCtx context.Context, currentURL string) ([]*http.Cookie, error) {
	var cdpCookies []*network.Cookie
	err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		cdpCookies = cookies
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("reading cdp cookies: %w", err)
	}

	if _, err := url.Parse(currentURL); err != nil {
		return nil, err
	}

	cookies := make([]*http.Cookie, 0, len(cdpCookies))
	for _, c := range cdpCookies {
		cookies = append(cookies, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}
	return cookies, nil
}

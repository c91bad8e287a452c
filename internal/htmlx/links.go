// Package htmlx extracts hyperlinks and structural signals from parsed
// HTML documents, feeding both the crawler's frontier and the
// template-clustering fingerprint in internal/urlutil.
package htmlx

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Link is a single outbound reference discovered on a page.
type Link struct {
	URL      string
	Text     string
	NoFollow bool
}

// ExtractLinks walks a parsed document and resolves every anchor,
// area, and meta-refresh target against base. The same href can be
// discovered by more than one strategy (anchor scan, meta-refresh,
// regex fallback); callers dedupe via urlutil.Normalize before
// enqueuing.
func ExtractLinks(doc *html.Node, base string) []Link {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil
	}

	var links []Link
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a", "area":
				if l, ok := anchorLink(n, baseURL); ok {
					links = append(links, l)
				}
			case "meta":
				if l, ok := metaRefreshLink(n, baseURL); ok {
					links = append(links, l)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

func anchorLink(n *html.Node, base *url.URL) (Link, bool) {
	href := attr(n, "href")
	if href == "" || strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "#") {
		return Link{}, false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return Link{}, false
	}

	rel := strings.ToLower(attr(n, "rel"))
	return Link{
		URL:      base.ResolveReference(ref).String(),
		Text:     strings.TrimSpace(textContent(n)),
		NoFollow: strings.Contains(rel, "nofollow"),
	}, true
}

var refreshContentPattern = regexp.MustCompile(`(?i)url\s*=\s*(.+)$`)

func metaRefreshLink(n *html.Node, base *url.URL) (Link, bool) {
	if strings.ToLower(attr(n, "http-equiv")) != "refresh" {
		return Link{}, false
	}
	content := attr(n, "content")
	m := refreshContentPattern.FindStringSubmatch(content)
	if m == nil {
		return Link{}, false
	}
	target := strings.Trim(strings.TrimSpace(m[1]), `"'`)
	if target == "" {
		return Link{}, false
	}
	ref, err := url.Parse(target)
	if err != nil {
		return Link{}, false
	}
	return Link{URL: base.ResolveReference(ref).String()}, true
}

// ExtractLinksRegex is a fallback extractor for malformed HTML that
// golang.org/x/net/html tolerates but may still skip href values in
// broken attribute contexts. Results are unioned with ExtractLinks by
// callers, keyed on normalized URL, so duplicates are harmless.
var hrefPattern = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']+)["']`)

func ExtractLinksRegex(rawHTML, base string) []Link {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil
	}

	matches := hrefPattern.FindAllStringSubmatch(rawHTML, -1)
	if matches == nil {
		return nil
	}

	links := make([]Link, 0, len(matches))
	for _, m := range matches {
		href := m[1]
		if href == "" || strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "#") {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		links = append(links, Link{URL: baseURL.ResolveReference(ref).String()})
	}
	return links
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(n *html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}

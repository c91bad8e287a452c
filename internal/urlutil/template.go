package urlutil

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/a11y-auditor/auditor/internal/model"
)

// structuralSelectors is the fixed set of structural landmarks whose
// direct-child counts feed the DOM fingerprint, per spec §3.
var structuralSelectors = []string{"header", "footer", "main", "nav", "aside"}

// structuralSignature is the counted tuple a TemplateID is derived
// from. Two pages with identical signatures produce identical
// TemplateIDs regardless of path.
type structuralSignature struct {
	childCounts   map[string]int
	headingCounts map[string]int // h1, h2, h3
}

// TemplateFingerprint computes the DOM-structure fingerprint of a
// parsed page and prefixes it with host, per spec §4.1.
func TemplateFingerprint(host string, doc *html.Node) model.TemplateID {
	sig := computeSignature(doc)
	return model.TemplateID(host + ":" + sig.hash())
}

func computeSignature(doc *html.Node) structuralSignature {
	sig := structuralSignature{
		childCounts:   make(map[string]int, len(structuralSelectors)),
		headingCounts: map[string]int{"h1": 0, "h2": 0, "h3": 0},
	}
	for _, sel := range structuralSelectors {
		sig.childCounts[sel] = 0
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			switch tag {
			case "header", "footer", "main", "nav", "aside":
				sig.childCounts[tag] += countDirectChildren(n)
			case "h1", "h2", "h3":
				sig.headingCounts[tag]++
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sig
}

func countDirectChildren(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			count++
		}
	}
	return count
}

// hash produces a stable digest of the ordered tuple built from the
// signature's counts. Order is fixed (structuralSelectors order, then
// h1,h2,h3) so equal signatures always hash equal.
func (s structuralSignature) hash() string {
	h := fnv.New64a()
	for _, sel := range structuralSelectors {
		fmt.Fprintf(h, "%s=%d;", sel, s.childCounts[sel])
	}
	for _, tag := range []string{"h1", "h2", "h3"} {
		fmt.Fprintf(h, "%s=%d;", tag, s.headingCounts[tag])
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// ParseDocument parses raw HTML into a DOM tree suitable for
// TemplateFingerprint and link extraction.
func ParseDocument(rawHTML string) (*html.Node, error) {
	return html.Parse(strings.NewReader(rawHTML))
}

// PageType tags. Unmatched paths fall back to "other".
const (
	PageTypeHomepage = "homepage"
	PageTypeSearch   = "search"
	PageTypeProduct  = "product"
	PageTypeCategory = "category"
	PageTypeCart     = "cart"
	PageTypeCheckout = "checkout"
	PageTypeLogin    = "login"
	PageTypeRegister = "register"
	PageTypeAccount  = "account"
	PageTypeContact  = "contact"
	PageTypeArticle  = "article"
	PageTypeAbout    = "about"
	PageTypeOther    = "other"
)

// pageTypeRules is ordered: the first matching pattern wins.
var pageTypeRules = []struct {
	tag     string
	pattern *regexp.Regexp
}{
	{PageTypeHomepage, regexp.MustCompile(`^/?$`)},
	{PageTypeSearch, regexp.MustCompile(`(?i)/(search|s)(/|$|\?)`)},
	{PageTypeCart, regexp.MustCompile(`(?i)/(cart|basket|bag)(/|$)`)},
	{PageTypeCheckout, regexp.MustCompile(`(?i)/checkout(/|$)`)},
	{PageTypeLogin, regexp.MustCompile(`(?i)/(login|signin|sign-in)(/|$)`)},
	{PageTypeRegister, regexp.MustCompile(`(?i)/(register|signup|sign-up)(/|$)`)},
	{PageTypeAccount, regexp.MustCompile(`(?i)/(account|profile|my-account)(/|$)`)},
	{PageTypeContact, regexp.MustCompile(`(?i)/contact(-us)?(/|$)`)},
	{PageTypeAbout, regexp.MustCompile(`(?i)/about(-us)?(/|$)`)},
	{PageTypeProduct, regexp.MustCompile(`(?i)/(product|item|p)/[^/]+`)},
	{PageTypeCategory, regexp.MustCompile(`(?i)/(category|categories|collections?|c)/[^/]+`)},
	{PageTypeArticle, regexp.MustCompile(`(?i)/(blog|article|news|post)s?/[^/]+`)},
}

// PageType classifies a normalized URL's path against the ordered
// regex groups of spec §4.1, falling back to "other".
func PageType(u model.NormalizedURL) string {
	path := pathOf(u)
	for _, rule := range pageTypeRules {
		if rule.pattern.MatchString(path) {
			return rule.tag
		}
	}
	return PageTypeOther
}

func pathOf(u model.NormalizedURL) string {
	s := string(u)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if j := strings.Index(s, "/"); j >= 0 {
		return s[j:]
	}
	return "/"
}

var (
	numericSegment  = regexp.MustCompile(`^\d+$`)
	hexOrGUIDSeg    = regexp.MustCompile(`^[0-9a-fA-F-]{8,}$`)
	longSlugSegment = regexp.MustCompile(`^[a-zA-Z0-9]+(-[a-zA-Z0-9]+){2,}$`)
)

// URLTemplate replaces numeric, hex/GUID, and long hyphenated-slug
// path segments with placeholders, prefixed by host. It is not used
// for clustering (the DOM fingerprint is authoritative, spec Open
// Question #1), and no pipeline stage or report sheet calls it.
func URLTemplate(host string, u model.NormalizedURL) string {
	segments := strings.Split(strings.Trim(pathOf(u), "/"), "/")
	for i, seg := range segments {
		switch {
		case seg == "":
			continue
		case numericSegment.MatchString(seg):
			segments[i] = "{num}"
		case hexOrGUIDSeg.MatchString(seg) && len(seg) >= 8:
			segments[i] = "{id}"
		case longSlugSegment.MatchString(seg):
			segments[i] = "{slug}"
		}
	}
	return host + "/" + strings.Join(segments, "/")
}

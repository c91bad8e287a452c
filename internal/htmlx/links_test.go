package htmlx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parse(t *testing.T, raw string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(raw))
	require.NoError(t, err)
	return doc
}

func TestExtractLinks_AnchorsResolved(t *testing.T) {
	doc := parse(t, `<html><body>
		<a href="/about">About</a>
		<a href="https://other.com/page">Other</a>
		<a href="#section">Skip</a>
		<a href="javascript:void(0)">Skip</a>
		<a href="mailto:a@b.com">Skip</a>
	</body></html>`)

	links := ExtractLinks(doc, "https://example.com/")

	var urls []string
	for _, l := range links {
		urls = append(urls, l.URL)
	}
	assert.Contains(t, urls, "https://example.com/about")
	assert.Contains(t, urls, "https://other.com/page")
	assert.Len(t, urls, 2)
}

func TestExtractLinks_NoFollow(t *testing.T) {
	doc := parse(t, `<html><body><a href="/x" rel="nofollow sponsored">x</a></body></html>`)
	links := ExtractLinks(doc, "https://example.com/")
	require.Len(t, links, 1)
	assert.True(t, links[0].NoFollow)
}

func TestExtractLinks_MetaRefresh(t *testing.T) {
	doc := parse(t, `<html><head><meta http-equiv="refresh" content="0;url=/next-page"></head><body></body></html>`)
	links := ExtractLinks(doc, "https://example.com/")
	require.Len(t, links, 1)
	assert.Equal(t, "https://example.com/next-page", links[0].URL)
}

func TestExtractLinksRegex_Fallback(t *testing.T) {
	raw := `<div><a href='/broken-attr'>link</a></div>`
	links := ExtractLinksRegex(raw, "https://example.com/")
	require.Len(t, links, 1)
	assert.Equal(t, "https://example.com/broken-attr", links[0].URL)
}

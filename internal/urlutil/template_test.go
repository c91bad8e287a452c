package urlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a11y-auditor/auditor/internal/model"
)

const sampleLayoutA = `
<html><body>
<header><div>logo</div><nav>menu</nav></header>
<main><h1>Title</h1><p>body</p></main>
<footer><div>copyright</div></footer>
</body></html>
`

const sampleLayoutB = `
<html><body>
<header><div>logo</div></header>
<main><h1>Title</h1><h2>sub</h2><p>body</p></main>
<aside><div>widget</div></aside>
<footer><div>copyright</div><div>links</div></footer>
</body></html>
`

func TestTemplateFingerprint_SameStructureSameID(t *testing.T) {
	docA1, err := ParseDocument(sampleLayoutA)
	require.NoError(t, err)
	docA2, err := ParseDocument(sampleLayoutA)
	require.NoError(t, err)

	idA1 := TemplateFingerprint("example.com", docA1)
	idA2 := TemplateFingerprint("example.com", docA2)

	assert.Equal(t, idA1, idA2)
}

func TestTemplateFingerprint_DifferentStructureDifferentID(t *testing.T) {
	docA, err := ParseDocument(sampleLayoutA)
	require.NoError(t, err)
	docB, err := ParseDocument(sampleLayoutB)
	require.NoError(t, err)

	idA := TemplateFingerprint("example.com", docA)
	idB := TemplateFingerprint("example.com", docB)

	assert.NotEqual(t, idA, idB)
}

func TestTemplateFingerprint_HostPrefixed(t *testing.T) {
	doc, err := ParseDocument(sampleLayoutA)
	require.NoError(t, err)

	id := TemplateFingerprint("shop.example.com", doc)
	assert.Contains(t, string(id), "shop.example.com:")
}

func TestPageType(t *testing.T) {
	tests := []struct {
		url  model.NormalizedURL
		want string
	}{
		{"https://example.com/", PageTypeHomepage},
		{"https://example.com/search?q=shoes", PageTypeSearch},
		{"https://example.com/cart", PageTypeCart},
		{"https://example.com/checkout", PageTypeCheckout},
		{"https://example.com/login", PageTypeLogin},
		{"https://example.com/account/profile", PageTypeAccount},
		{"https://example.com/product/blue-widget", PageTypeProduct},
		{"https://example.com/category/shoes", PageTypeCategory},
		{"https://example.com/blog/my-post", PageTypeArticle},
		{"https://example.com/something-else", PageTypeOther},
	}

	for _, tt := range tests {
		t.Run(string(tt.url), func(t *testing.T) {
			assert.Equal(t, tt.want, PageType(tt.url))
		})
	}
}

func TestURLTemplate(t *testing.T) {
	tests := []struct {
		url  model.NormalizedURL
		want string
	}{
		{"https://example.com/product/12345", "example.com/product/{num}"},
		{"https://example.com/blog/my-long-article-slug", "example.com/blog/{slug}"},
		{"https://example.com/order/550e8400-e29b-41d4-a716", "example.com/order/{id}"},
	}

	for _, tt := range tests {
		t.Run(string(tt.url), func(t *testing.T) {
			got := URLTemplate("example.com", tt.url)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Package urlutil normalizes URLs and derives the structural template
// identity used to cluster pages for representative sampling.
package urlutil

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/a11y-auditor/auditor/internal/model"
)

// ErrInvalidURL is returned for inputs that cannot be parsed as a URL.
var ErrInvalidURL = fmt.Errorf("invalid url")

// Normalizer canonicalizes raw URL strings into model.NormalizedURL
// values. Two URLs are the same page iff their normalized forms are
// byte-equal; normalization is idempotent.
type Normalizer struct {
	// StripWWW strips a leading "www." from the host when enabled.
	StripWWW bool

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	value model.NormalizedURL
	err   error
}

// NewNormalizer returns a Normalizer with the given www-stripping
// policy.
func NewNormalizer(stripWWW bool) *Normalizer {
	return &Normalizer{StripWWW: stripWWW, cache: make(map[string]cacheEntry)}
}

// Normalize canonicalizes a raw URL. Results are cached per distinct
// input string.
func (n *Normalizer) Normalize(raw string) (model.NormalizedURL, error) {
	n.mu.RLock()
	if e, ok := n.cache[raw]; ok {
		n.mu.RUnlock()
		return e.value, e.err
	}
	n.mu.RUnlock()

	value, err := n.normalize(raw)

	n.mu.Lock()
	n.cache[raw] = cacheEntry{value: value, err: err}
	n.mu.Unlock()

	return value, err
}

func (n *Normalizer) normalize(raw string) (model.NormalizedURL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" || !u.IsAbs() {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if n.StripWWW {
		u.Host = strings.TrimPrefix(u.Host, "www.")
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	// Preserve the fragment only when it is non-empty and not a bare
	// "#"; otherwise it carries no page identity.
	fragment := u.Fragment
	hasFragment := fragment != ""

	// Remove a trailing slash from the path only when there is no
	// fragment to disambiguate against.
	if !hasFragment && len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	u.Path = path

	if u.RawQuery != "" {
		u.RawQuery = canonicalQuery(u.RawQuery)
	}

	if !hasFragment {
		u.Fragment = ""
	}

	return model.NormalizedURL(u.String()), nil
}

// canonicalQuery re-encodes a raw query string in its original
// parameter order, per spec's "query (order-preserving)" invariant —
// only the escaping is canonicalized (so "%61=1" and "a=1" normalize
// identically), order and duplicate parameters are left untouched.
func canonicalQuery(raw string) string {
	if raw == "" {
		return ""
	}
	pairs := strings.Split(raw, "&")
	kept := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		k, v, hasValue := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			key = k
		}
		encoded := url.QueryEscape(key)
		if hasValue {
			val, err := url.QueryUnescape(v)
			if err != nil {
				val = v
			}
			if val != "" {
				encoded += "=" + url.QueryEscape(val)
			}
		}
		kept = append(kept, encoded)
	}
	return strings.Join(kept, "&")
}

// ExtractHost returns the lowercased host of a raw URL.
func ExtractHost(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}
	return strings.ToLower(u.Hostname()), nil
}

// ResolveURL resolves a (possibly relative) reference against a base
// URL.
func ResolveURL(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

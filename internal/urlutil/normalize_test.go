package urlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer(true)

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "strips trailing slash",
			input: "https://Example.com/foo/",
			want:  "https://example.com/foo",
		},
		{
			name:  "strips www when enabled",
			input: "https://www.example.com/foo",
			want:  "https://example.com/foo",
		},
		{
			name:  "preserves query parameter order",
			input: "https://example.com/foo?b=2&a=1",
			want:  "https://example.com/foo?b=2&a=1",
		},
		{
			name:  "preserves non-empty fragment",
			input: "https://example.com/foo#section",
			want:  "https://example.com/foo#section",
		},
		{
			name:  "drops empty fragment",
			input: "https://example.com/foo#",
			want:  "https://example.com/foo",
		},
		{
			name:  "root path stays as slash",
			input: "https://example.com",
			want:  "https://example.com/",
		},
		{
			name:    "relative url is invalid",
			input:   "/foo/bar",
			wantErr: true,
		},
		{
			name:    "empty input is invalid",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestNormalizer_Idempotent(t *testing.T) {
	n := NewNormalizer(true)

	first, err := n.Normalize("https://www.Example.com/Foo/?z=1&a=2#frag")
	require.NoError(t, err)

	second, err := n.Normalize(string(first))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNormalizer_CachesResults(t *testing.T) {
	n := NewNormalizer(false)

	raw := "https://example.com/path"
	first, err := n.Normalize(raw)
	require.NoError(t, err)

	second, err := n.Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, n.cache, 1)
}

func TestExtractHost(t *testing.T) {
	host, err := ExtractHost("https://Example.COM/path")
	require.NoError(t, err)
	assert.Equal(t, "example.com", host)
}

func TestResolveURL(t *testing.T) {
	resolved, err := ResolveURL("https://example.com/a/b", "../c")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/c", resolved)
}

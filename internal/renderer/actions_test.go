package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsSubstring(t *testing.T) {
	assert.True(t, containsSubstring("https://example.com/cart/checkout", "checkout"))
	assert.False(t, containsSubstring("https://example.com/cart", "checkout"))
	assert.True(t, containsSubstring("anything", ""), "empty needle always matches")
}

func TestIndexOf(t *testing.T) {
	assert.Equal(t, 7, indexOf("hello, world", "world"))
	assert.Equal(t, -1, indexOf("hello, world", "nope"))
}

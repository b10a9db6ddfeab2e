package algolia

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleCache_BasicGetPut(t *testing.T) {
	c := newHandleCache(3)
	fires := &Index{name: "fires"}

	c.put("fires", fires)
	c.put("shelters", &Index{name: "shelters"})

	got, ok := c.get("fires")
	assert.True(t, ok)
	assert.Same(t, fires, got)

	_, ok = c.get("aqi")
	assert.False(t, ok)
	assert.Equal(t, 2, c.size())
}

func TestHandleCache_Eviction(t *testing.T) {
	c := newHandleCache(2)

	c.put("a", &Index{name: "a"})
	c.put("b", &Index{name: "b"})
	c.put("c", &Index{name: "c"}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	got, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, "b", got.Name())

	got, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "c", got.Name())
	assert.Equal(t, 2, c.size())
}

func TestHandleCache_AccessPromotesEntry(t *testing.T) {
	c := newHandleCache(2)

	c.put("a", &Index{name: "a"})
	c.put("b", &Index{name: "b"})

	c.get("a")

	// "b" is now least recently used.
	c.put("c", &Index{name: "c"})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestHandleCache_UpdateExisting(t *testing.T) {
	c := newHandleCache(2)
	replacement := &Index{name: "a", queryURL: "http://second"}

	c.put("a", &Index{name: "a", queryURL: "http://first"})
	c.put("a", replacement)

	got, ok := c.get("a")
	assert.True(t, ok)
	assert.Same(t, replacement, got)
	assert.Equal(t, 1, c.size())
}

package lru

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	c, err := New[string](4)
	require.NoError(t, err)

	c.Set("печать", "Проверьте драйвер ККТ", time.Hour)

	got, ok := c.Get("печать")
	assert.True(t, ok)
	assert.Equal(t, "Проверьте драйвер ККТ", got)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := New[int](2)
	require.NoError(t, err)

	c.Set("a", 1, time.Hour)
	c.Set("b", 2, time.Hour)
	_, _ = c.Get("a")
	c.Set("c", 3, time.Hour)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCache_Expiry(t *testing.T) {
	c, err := New[int](4)
	require.NoError(t, err)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", 1, time.Minute)
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry is removed on read")
}

func TestCache_Delete(t *testing.T) {
	c, err := New[string](0)
	require.NoError(t, err)

	c.Set("k", "v", time.Hour)
	c.Delete("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
	c.Stop()
}

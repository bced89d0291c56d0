package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestCache_ExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := New[string, int](30 * time.Minute).WithClock(clock.Now)

	c.Set("a", 1)

	clock.Advance(29 * time.Minute)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	clock.Advance(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_LastWriteWins(t *testing.T) {
	c := New[string, string](time.Minute)

	c.Set("k", "first")
	c.Set("k", "second")

	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "second", v)
}

func TestCache_DeleteFunc(t *testing.T) {
	c := New[string, int](time.Minute)
	c.Set("u1|2026-03-01", 1)
	c.Set("u1|2026-03-02", 2)
	c.Set("u2|2026-03-01", 3)

	removed := c.DeleteFunc(func(k string) bool { return strings.HasPrefix(k, "u1|") })

	assert.Equal(t, 2, removed)
	_, ok := c.Get("u2|2026-03-01")
	assert.True(t, ok)
}

func TestCache_CleanupExpired(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	c := New[int, int](time.Minute).WithClock(clock.Now)

	c.Set(1, 1)
	clock.Advance(2 * time.Minute)
	c.Set(2, 2)

	assert.Equal(t, 1, c.CleanupExpired())
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Delete(2))
	assert.False(t, c.Delete(2))
}

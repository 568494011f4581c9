package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestCache(ttl time.Duration) (*QueryCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := New(ttl)
	c.now = clock.Now
	return c, clock
}

func TestGetSetAndExpiry(t *testing.T) {
	c, clock := newTestCache(time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", 42)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	clock.Advance(59 * time.Second)
	_, ok = c.Get("a")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok, "entrada expirada não deve ser retornada")
	assert.Equal(t, 0, c.Len())
}

func TestZeroTTLDisablesCache(t *testing.T) {
	c := New(0)
	assert.False(t, c.Enabled())
	c.Set("a", 1)
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())

	assert.False(t, New(-time.Second).Enabled())
}

func TestInvalidateAll(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	c.Set(Key(ResourceReceipts, "PageNumber=1"), "p1")
	c.Set(Key(ResourceFarms, ""), "farms")
	require.Equal(t, 2, c.Len())

	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get(Key(ResourceFarms, ""))
	assert.False(t, ok)
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *QueryCache
	assert.False(t, c.Enabled())
	_, ok := c.Get("x")
	assert.False(t, ok)
	c.Set("x", 1)
	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())

	calls := 0
	v, err := Fetch(context.Background(), c, "x", func(context.Context) (int, error) {
		calls++
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, calls)
}

func TestFetchLoadsOnceUntilInvalidated(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"SOL"}, nil
	}

	for i := 0; i < 3; i++ {
		v, err := Fetch(ctx, c, "k", load)
		require.NoError(t, err)
		assert.Equal(t, []string{"SOL"}, v)
	}
	assert.Equal(t, 1, calls)

	c.InvalidateAll()
	_, err := Fetch(ctx, c, "k", load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	boom := errors.New("boom")
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, boom
		}
		return 5, nil
	}

	_, err := Fetch(context.Background(), c, "k", load)
	assert.ErrorIs(t, err, boom)

	v, err := Fetch(context.Background(), c, "k", load)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.Equal(t, 2, calls)
}

func TestConcurrentAccess(t *testing.T) {
	c := New(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := Key(ResourceReceipts, string(rune('a'+i%5)))
			c.Set(key, i)
			c.Get(key)
			if i%7 == 0 {
				c.InvalidateAll()
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 5)
}

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldsync/internal/canvass/models"
	"fieldsync/pkg/platform/circuit"
)

func newCache(t *testing.T, ttl time.Duration) (*HouseholdCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewHouseholdCache(client, ttl), mr
}

func TestHouseholdCache(t *testing.T) {
	ctx := context.Background()
	members := []models.Member{
		{ID: "m-1", HouseholdID: "12 main st|springfield|il|62701", LastName: "Lee", LastStatus: models.StatusNotHome},
		{ID: "m-2", HouseholdID: "12 main st|springfield|il|62701", LastName: "Ng", LastStatus: models.StatusUnvisited},
	}

	t.Run("miss then hit", func(t *testing.T) {
		c, _ := newCache(t, time.Minute)

		_, ok, err := c.Get(ctx, members[0].HouseholdID)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, c.Set(ctx, members[0].HouseholdID, members))
		got, ok, err := c.Get(ctx, members[0].HouseholdID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, members, got)
	})

	t.Run("invalidate drops the entry", func(t *testing.T) {
		c, _ := newCache(t, time.Minute)
		require.NoError(t, c.Set(ctx, "hh", members))

		require.NoError(t, c.Invalidate(ctx, "hh"))
		_, ok, err := c.Get(ctx, "hh")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("entries expire", func(t *testing.T) {
		c, mr := newCache(t, 30*time.Second)
		require.NoError(t, c.Set(ctx, "hh", members))

		mr.FastForward(31 * time.Second)
		_, ok, err := c.Get(ctx, "hh")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("corrupt entry is a miss", func(t *testing.T) {
		c, mr := newCache(t, time.Minute)
		require.NoError(t, mr.Set(householdKey("hh"), "{not json"))

		_, ok, err := c.Get(ctx, "hh")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("connection failure surfaces", func(t *testing.T) {
		c, mr := newCache(t, time.Minute)
		mr.Close()

		_, _, err := c.Get(ctx, "hh")
		assert.Error(t, err)
	})
}

func TestHouseholdCacheBreaker(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	breaker := circuit.New("household-cache", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	c := NewHouseholdCache(client, time.Minute, WithBreaker(breaker))

	_, _, err := c.Get(ctx, "hh")
	require.NoError(t, err)

	mr.SetError("ERR injected failure")
	_, _, err = c.Get(ctx, "hh")
	require.Error(t, err)
	_, _, err = c.Get(ctx, "hh")
	require.Error(t, err)
	require.True(t, breaker.IsOpen())

	// open: reads short-circuit to a miss and writes are skipped
	_, ok, err := c.Get(ctx, "hh")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Set(ctx, "hh", nil))

	mr.SetError("")
	breaker.Reset()
	require.NoError(t, c.Set(ctx, "hh", []models.Member{{ID: "m-1"}}))
	_, ok, err = c.Get(ctx, "hh")
	require.NoError(t, err)
	assert.True(t, ok)
}

//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldsync/internal/canvass/models"
	"fieldsync/internal/platform/config"
	platformredis "fieldsync/internal/platform/redis"
	"fieldsync/pkg/testutil/containers"
)

func TestHouseholdCache_Redis(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	client, err := platformredis.New(ctx, config.Redis{URL: rc.Addr, PoolSize: 2, DialTimeout: 5 * time.Second})
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Health(ctx))

	c := NewHouseholdCache(client.Client, time.Minute)
	members := []models.Member{{ID: "m-1", HouseholdID: "hh-a", LastStatus: models.StatusSurveyed}}

	require.NoError(t, c.Set(ctx, "hh-a", members))
	ttl, err := rc.Client.TTL(ctx, householdKey("hh-a")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)

	got, ok, err := c.Get(ctx, "hh-a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, members, got)

	require.NoError(t, c.Invalidate(ctx, "hh-a"))
	_, ok, err = c.Get(ctx, "hh-a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rc.FlushAll(ctx))
}

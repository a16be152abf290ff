package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldsync/internal/platform/config"
)

func TestNewWithoutURLIsDisabled(t *testing.T) {
	c, err := New(context.Background(), config.Redis{})
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, c.Health(context.Background()))
	assert.NoError(t, c.Close())
}

func TestNewConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := New(context.Background(), config.Redis{URL: "redis://" + mr.Addr(), PoolSize: 2})
	require.NoError(t, err)
	require.NotNil(t, c)
	defer c.Close()

	assert.NoError(t, c.Health(context.Background()))
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(context.Background(), config.Redis{URL: "://nope"})
	assert.ErrorContains(t, err, "redis url")
}

package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldsync/internal/platform/config"
)

func TestNewWithoutBrokersIsDisabled(t *testing.T) {
	client, err := New(config.Kafka{Topic: "fieldsync.visits"})
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.NoError(t, EnsureTopic(context.Background(), client, "fieldsync.visits", 1))
	assert.NoError(t, Health(context.Background(), client))
}

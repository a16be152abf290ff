package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3001", cfg.Server.Addr)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, 75.0, cfg.Canvass.SuspectDistanceMeters)
	assert.Equal(t, 200, cfg.Rollup.DefaultLimit)
	assert.Equal(t, 500, cfg.Rollup.MaxLimit)
	assert.Equal(t, "fieldsync.visits", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 1024, cfg.Kafka.AsyncBuffer)
	assert.Equal(t, 30*time.Second, cfg.Redis.HouseholdTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FIELDSYNC_ADDR", ":9000")
	t.Setenv("FIELDSYNC_DB_DRIVER", "memory")
	t.Setenv("FIELDSYNC_SUSPECT_DISTANCE_METERS", "120")
	t.Setenv("FIELDSYNC_KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("FIELDSYNC_ROLLUP_MAX_LIMIT", "1000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 120.0, cfg.Canvass.SuspectDistanceMeters)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 1000, cfg.Rollup.MaxLimit)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("FIELDSYNC_DB_DRIVER", "mongo")
		_, err := Load()
		assert.ErrorContains(t, err, "unsupported store driver")
	})
	t.Run("non-positive threshold", func(t *testing.T) {
		t.Setenv("FIELDSYNC_SUSPECT_DISTANCE_METERS", "0")
		_, err := Load()
		assert.ErrorContains(t, err, "suspect distance")
	})
	t.Run("default above max", func(t *testing.T) {
		t.Setenv("FIELDSYNC_ROLLUP_DEFAULT_LIMIT", "600")
		_, err := Load()
		assert.ErrorContains(t, err, "invalid rollup limits")
	})
}

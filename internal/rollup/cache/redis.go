// Package cache keeps household member lists in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fieldsync/internal/canvass/models"
	"fieldsync/pkg/platform/circuit"
)

const householdKeyPrefix = "fieldsync:household:"

// HouseholdCache is a cache-aside store for household member lists. Entries
// expire after the TTL and are deleted when a visit for the household is
// accepted.
//
// With a breaker attached, reads and writes are skipped while Redis is
// failing: Get reports a miss and Set does nothing. Invalidate always tries.
type HouseholdCache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *circuit.Breaker
}

// Option configures a HouseholdCache.
type Option func(*HouseholdCache)

// WithBreaker guards Redis calls with b.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *HouseholdCache) { c.breaker = b }
}

// NewHouseholdCache creates a cache on client. ttl <= 0 stores entries
// without expiry.
func NewHouseholdCache(client *redis.Client, ttl time.Duration, opts ...Option) *HouseholdCache {
	c := &HouseholdCache{client: client, ttl: ttl}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HouseholdCache) record(err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

func householdKey(householdID string) string {
	return householdKeyPrefix + householdID
}

// Get returns the cached members; ok is false on a miss.
func (c *HouseholdCache) Get(ctx context.Context, householdID string) ([]models.Member, bool, error) {
	if !c.breaker.Allow() {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, householdKey(householdID)).Bytes()
	c.record(err)
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get household %s: %w", householdID, err)
	}
	var members []models.Member
	if err := json.Unmarshal(raw, &members); err != nil {
		// a corrupt entry is a miss; the caller overwrites it
		return nil, false, nil
	}
	return members, true, nil
}

// Set stores members under the household key.
func (c *HouseholdCache) Set(ctx context.Context, householdID string, members []models.Member) error {
	if !c.breaker.Allow() {
		return nil
	}
	raw, err := json.Marshal(members)
	if err != nil {
		return fmt.Errorf("encode household %s: %w", householdID, err)
	}
	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	err = c.client.Set(ctx, householdKey(householdID), raw, ttl).Err()
	c.record(err)
	return err
}

// Invalidate drops the household entry.
func (c *HouseholdCache) Invalidate(ctx context.Context, householdID string) error {
	err := c.client.Del(ctx, householdKey(householdID)).Err()
	c.record(err)
	return err
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shiftwise/shiftwise-api/internal/models"
)

// ScheduleCache keeps the latest canonical schedule per business in Redis.
// Cache failures are never fatal; callers fall back to the store.
type ScheduleCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScheduleCache constructs the cache wrapper.
func NewScheduleCache(client *redis.Client, ttl time.Duration) *ScheduleCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ScheduleCache{client: client, ttl: ttl}
}

func scheduleKey(businessID string) string {
	return fmt.Sprintf("schedule:latest:%s", businessID)
}

// SetLatest stores the business's most recent canonical schedule.
func (c *ScheduleCache) SetLatest(ctx context.Context, schedule *models.CanonicalSchedule) error {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := json.Marshal(schedule)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, scheduleKey(schedule.BusinessID), payload, c.ttl).Err()
}

// GetLatest returns the cached schedule, or (nil, nil) on a miss.
func (c *ScheduleCache) GetLatest(ctx context.Context, businessID string) (*models.CanonicalSchedule, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, scheduleKey(businessID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var schedule models.CanonicalSchedule
	if err := json.Unmarshal(raw, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

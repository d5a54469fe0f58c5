package automation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/adpilot/internal/domain"
)

const counterDateFormat = "2006-01-02"

// Counters keeps rolling per-day task counts in Redis so dashboards can
// read activity without scanning the record store. Keys expire on their
// own after the configured window.
type Counters struct {
	rdb        *redis.Client
	windowDays int
}

// NewCounters creates a counter backend over an existing Redis client.
func NewCounters(rdb *redis.Client, windowDays int) *Counters {
	return &Counters{rdb: rdb, windowDays: windowDays}
}

func counterKey(taskType domain.TaskType, status domain.TaskStatus, day time.Time) string {
	return fmt.Sprintf("automation:count:%s:%s:%s", taskType, status, day.UTC().Format(counterDateFormat))
}

// Record bumps the day's counter for the task type and status.
func (c *Counters) Record(ctx context.Context, taskType domain.TaskType, status domain.TaskStatus, at time.Time) error {
	key := counterKey(taskType, status, at)
	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, time.Duration(c.windowDays)*24*time.Hour)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("recording counter %s: %w", key, err)
	}
	return nil
}

// CountInWindow sums the task type's counters for the given status over
// the trailing window ending at now.
func (c *Counters) CountInWindow(ctx context.Context, taskType domain.TaskType, status domain.TaskStatus, now time.Time) (int64, error) {
	keys := make([]string, 0, c.windowDays)
	for i := 0; i < c.windowDays; i++ {
		keys = append(keys, counterKey(taskType, status, now.AddDate(0, 0, -i)))
	}

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("reading counters: %w", err)
	}
	var total int64
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		total += n
	}
	return total, nil
}

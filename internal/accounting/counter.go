package accounting

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/cache"
)

// Counter tracks upstream requests per UTC day
type Counter struct {
	store cache.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewCounter creates a daily request counter backed by store
func NewCounter(store cache.Store, ttl time.Duration) *Counter {
	if ttl <= 0 {
		ttl = cache.CounterTTL
	}
	return &Counter{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// WithClock overrides the time source (for tests)
func (c *Counter) WithClock(now func() time.Time) *Counter {
	c.now = now
	return c
}

// Increment bumps today's counter and returns the new value. The expiry is
// set whenever the key has none, so repeated calls don't extend it and a key
// left without one is repaired on the next call.
func (c *Counter) Increment(ctx context.Context) (int64, error) {
	key := cache.RequestCounterKey(c.now())

	n, err := c.store.Incr(ctx, key, c.ttl)
	if err != nil {
		return 0, fmt.Errorf("incrementing %s: %w", key, err)
	}
	return n, nil
}

// DailyUsage is today's and yesterday's request counts
type DailyUsage struct {
	Date      string
	Today     int64
	Yesterday int64
	Total     int64
}

// Usage reads today's and yesterday's counts. Missing keys count as zero.
func (c *Counter) Usage(ctx context.Context) (DailyUsage, error) {
	now := c.now().UTC()

	today, err := c.read(ctx, cache.RequestCounterKey(now))
	if err != nil {
		return DailyUsage{}, err
	}
	yesterday, err := c.read(ctx, cache.RequestCounterKey(now.AddDate(0, 0, -1)))
	if err != nil {
		return DailyUsage{}, err
	}

	return DailyUsage{
		Date:      now.Format("2006-01-02"),
		Today:     today,
		Yesterday: yesterday,
		Total:     today + yesterday,
	}, nil
}

func (c *Counter) read(ctx context.Context, key string) (int64, error) {
	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", key, err)
	}
	if !found {
		return 0, nil
	}

	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}

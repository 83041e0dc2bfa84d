package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/cache"
)

func newTestStore(t *testing.T) (*cache.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewRedisStore(client), mr
}

func TestRedisStore_GetMiss(t *testing.T) {
	store, _ := newTestStore(t)

	data, found, err := store.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)
}

func TestRedisStore_SetRequiresTTL(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Set(ctx, "k", []byte("v"), 0), cache.ErrNoExpiration)
	assert.ErrorIs(t, store.Set(ctx, "k", []byte("v"), -time.Second), cache.ErrNoExpiration)

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_EntryExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 5*time.Minute))
	assert.Equal(t, 5*time.Minute, mr.TTL("k"))

	data, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), data)

	mr.FastForward(5*time.Minute + time.Second)

	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_IncrKeys(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	n, err := store.Incr(ctx, "api_requests:2024-01-01", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, time.Hour, mr.TTL("api_requests:2024-01-01"))

	mr.FastForward(10 * time.Minute)

	n, err = store.Incr(ctx, "api_requests:2024-01-01", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 50*time.Minute, mr.TTL("api_requests:2024-01-01"))

	_, err = store.Incr(ctx, "api_requests:2024-01-01", 0)
	assert.ErrorIs(t, err, cache.ErrNoExpiration)

	require.NoError(t, store.Set(ctx, "events:basketball_nba", []byte("[]"), time.Minute))

	keys, err := store.Keys(ctx, "api_requests:*")
	require.NoError(t, err)
	assert.Equal(t, []string{"api_requests:2024-01-01"}, keys)

	require.NoError(t, store.Delete(ctx, "events:basketball_nba"))
	assert.False(t, mr.Exists("events:basketball_nba"))
}

func TestJSONHelpers(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Price int    `json:"price"`
	}

	require.NoError(t, cache.SetJSON(ctx, store, "j", payload{Name: "Lakers", Price: -110}, time.Minute))

	var got payload
	found, err := cache.GetJSON(ctx, store, "j", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "Lakers", Price: -110}, got)

	found, err = cache.GetJSON(ctx, store, "nope", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "events:basketball_nba", cache.EventsKey("basketball_nba"))
	assert.Equal(t,
		cache.OddsKey("basketball_nba", []string{"spreads", "h2h"}, []string{"us", "eu"}, nil),
		cache.OddsKey("basketball_nba", []string{"h2h", "spreads"}, []string{"eu", "us"}, nil),
	)
	assert.Equal(t, "odds:basketball_nba:h2h,spreads:eu,us:draftkings",
		cache.OddsKey("basketball_nba", []string{"spreads", "h2h"}, []string{"us", "eu"}, []string{"draftkings"}))
	assert.Equal(t, "props:evt1:player_points:us", cache.PropsKey("evt1", []string{"player_points"}, []string{"us"}))
	assert.Equal(t, "ev:basketball_nba:h2h:2.5:false:us:weighted",
		cache.EVKey("basketball_nba", []string{"h2h"}, 2.5, false, []string{"us"}, "weighted", nil))
	assert.Equal(t, "ev:basketball_nba:h2h:2:true:us:sharp:circa,pinnacle",
		cache.EVKey("basketball_nba", []string{"h2h"}, 2, true, []string{"us"}, "sharp", []string{"pinnacle", "circa"}))

	ts := time.Date(2024, 3, 10, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	assert.Equal(t, "api_requests:2024-03-11", cache.RequestCounterKey(ts))

	ttl := cache.DefaultTTLPolicy()
	assert.Equal(t, 24*time.Hour, ttl.Sports)
	assert.Equal(t, 15*time.Minute, ttl.Events)
	assert.Equal(t, 48*time.Hour, ttl.Counter)
}

package provider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/cache"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/provider"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/ratelimit"
)

const oddsPayload = `[
  {
    "id": "evt1",
    "sport_key": "basketball_nba",
    "sport_title": "NBA",
    "commence_time": "2030-01-15T00:00:00Z",
    "home_team": "Boston Celtics",
    "away_team": "Miami Heat",
    "bookmakers": [
      {
        "key": "draftkings",
        "title": "DraftKings",
        "last_update": "2030-01-14T20:00:00Z",
        "markets": [
          {"key": "h2h", "outcomes": [
            {"name": "Boston Celtics", "price": -150},
            {"name": "Miami Heat", "price": 130}
          ]},
          {"key": "alternate_spreads", "outcomes": [
            {"name": "Boston Celtics", "price": 105, "point": -7.5},
            {"name": "Miami Heat", "price": 50, "point": 7.5}
          ]}
        ]
      }
    ]
  }
]`

type countingCounter struct{ n atomic.Int64 }

func (c *countingCounter) Increment(context.Context) (int64, error) {
	return c.n.Add(1), nil
}

func fastLimiter() provider.Option {
	return provider.WithLimiter(ratelimit.NewLimiter(time.Millisecond))
}

func newFlagStore(t *testing.T) (*cache.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewRedisStore(client), mr
}

func TestFetchOdds_ParsesAndTagsRegion(t *testing.T) {
	counter := &countingCounter{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sports/basketball_nba/odds", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		assert.Equal(t, "us", r.URL.Query().Get("regions"))
		assert.Equal(t, "h2h,alternate_spreads", r.URL.Query().Get("markets"))
		assert.Equal(t, "american", r.URL.Query().Get("oddsFormat"))

		w.Header().Set("x-requests-remaining", "480")
		w.Header().Set("x-requests-used", "20")
		w.Write([]byte(oddsPayload))
	}))
	defer server.Close()

	client := provider.NewClient(server.URL, "test-key", fastLimiter(), provider.WithCounter(counter))

	events, err := client.FetchOdds(context.Background(), "basketball_nba", []string{"h2h", "alternate_spreads"}, []string{"us"}, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, "Miami Heat @ Boston Celtics", event.Name())
	require.Len(t, event.Bookmakers, 1)

	book := event.Bookmakers[0]
	assert.Equal(t, "us", book.Region)
	assert.Equal(t, []string{"us"}, book.Regions)
	require.Len(t, book.Markets, 2)

	assert.False(t, book.Markets[0].IsAlternate)
	assert.Equal(t, -150, book.Markets[0].Outcomes[0].Price)

	alt := book.Markets[1]
	assert.True(t, alt.IsAlternate)
	// The +50 outcome is not a legal price and is dropped at the boundary.
	require.Len(t, alt.Outcomes, 1)
	assert.Equal(t, -7.5, *alt.Outcomes[0].Point)

	assert.Equal(t, int64(1), counter.n.Load())
	quota := client.Quota()
	require.NotNil(t, quota.Remaining)
	assert.Equal(t, 480, *quota.Remaining)
	assert.Equal(t, 20, *quota.Used)
	assert.Equal(t, provider.ModeLive, client.Mode())
}

func TestFetch_NonSuccessIsTypedError(t *testing.T) {
	counter := &countingCounter{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"upstream unavailable"}`))
	}))
	defer server.Close()

	client := provider.NewClient(server.URL, "test-key", fastLimiter(), provider.WithCounter(counter))

	_, err := client.FetchEvents(context.Background(), "basketball_nba")
	require.Error(t, err)

	var apiErr *provider.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "upstream unavailable", apiErr.Message)
	assert.True(t, apiErr.Temporary())
	assert.True(t, provider.IsTemporary(err))
	assert.False(t, provider.IsQuotaExhausted(err))

	assert.Zero(t, counter.n.Load())
	assert.Equal(t, provider.ModeLive, client.Mode())
}

func TestFetch_UnauthorizedWithoutQuotaCodeIsNotFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid api key","error_code":"INVALID_KEY"}`))
	}))
	defer server.Close()

	client := provider.NewClient(server.URL, "bad-key", fastLimiter())

	_, err := client.FetchSports(context.Background())
	require.Error(t, err)
	assert.False(t, provider.IsTemporary(err))
	assert.Equal(t, provider.ModeLive, client.Mode())
}

func TestQuotaExhaustion_FallsBackAndPersists(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Usage quota has been reached","error_code":"OUT_OF_USAGE_CREDITS"}`))
	}))
	defer server.Close()

	flags, mr := newFlagStore(t)
	client := provider.NewClient(server.URL, "test-key",
		fastLimiter(),
		provider.WithFlagStore(flags),
		provider.WithLogger(zerolog.Nop()),
	)
	ctx := context.Background()

	events, err := client.FetchOdds(ctx, "basketball_nba", []string{"h2h"}, []string{"us"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, events)
	assert.Equal(t, provider.ModeDegraded, client.Mode())

	value, err := mr.Get(provider.ModeFlagKey)
	require.NoError(t, err)
	assert.Equal(t, "degraded", value)
	assert.Equal(t, provider.ModeFlagTTL, mr.TTL(provider.ModeFlagKey))

	// Degraded mode never calls upstream again.
	_, err = client.FetchEvents(ctx, "basketball_nba")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	// A fresh client picks the durable flag back up.
	restarted := provider.NewClient(server.URL, "test-key", fastLimiter(), provider.WithFlagStore(flags))
	require.NoError(t, restarted.LoadMode(ctx))
	assert.Equal(t, provider.ModeDegraded, restarted.Mode())

	require.NoError(t, restarted.ResetMode(ctx))
	assert.Equal(t, provider.ModeLive, restarted.Mode())
	assert.False(t, mr.Exists(provider.ModeFlagKey))
}

func TestNoAPIKey_StartsDegraded(t *testing.T) {
	client := provider.NewClient("http://127.0.0.1:0", "", fastLimiter())
	assert.Equal(t, provider.ModeDegraded, client.Mode())

	sports, err := client.FetchSports(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, sports)

	assert.ErrorIs(t, client.ResetMode(context.Background()), provider.ErrNoAPIKey)
}

func TestNetworkFailureIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := provider.NewClient(server.URL, "test-key", fastLimiter())

	_, err := client.FetchSports(context.Background())
	require.Error(t, err)
	assert.True(t, provider.IsTemporary(err))
}

func TestRateLimit_SerializesConcurrentRequests(t *testing.T) {
	var (
		mu       sync.Mutex
		arrivals []time.Time
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		arrivals = append(arrivals, time.Now())
		mu.Unlock()
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	interval := 50 * time.Millisecond
	client := provider.NewClient(server.URL, "test-key", provider.WithLimiter(ratelimit.NewLimiter(interval)))

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.FetchEvents(context.Background(), "basketball_nba")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, arrivals, 3)
	first, last := arrivals[0], arrivals[0]
	for _, a := range arrivals {
		if a.Before(first) {
			first = a
		}
		if a.After(last) {
			last = a
		}
	}
	assert.GreaterOrEqual(t, last.Sub(first), 2*interval-10*time.Millisecond)
}

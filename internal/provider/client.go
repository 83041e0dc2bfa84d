package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/cache"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/ratelimit"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
)

// ErrNoAPIKey is returned when live mode is requested without credentials
var ErrNoAPIKey = errors.New("odds api key not configured")

// RequestCounter records successful upstream requests
type RequestCounter interface {
	Increment(ctx context.Context) (int64, error)
}

// Quota is the request allowance reported by the provider's response headers
type Quota struct {
	Remaining *int
	Used      *int
}

// Client talks to the odds provider. Every request passes through one shared
// limiter. After quota exhaustion it serves synthetic data until reset.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	counter    RequestCounter
	flags      cache.Store
	mock       *MockGenerator
	logger     zerolog.Logger

	mode atomic.Int32

	quotaMu sync.RWMutex
	quota   Quota
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLimiter shares an existing limiter
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithCounter sets the request accounting sink
func WithCounter(counter RequestCounter) Option {
	return func(c *Client) {
		c.counter = counter
	}
}

// WithFlagStore persists the fallback flag across restarts
func WithFlagStore(store cache.Store) Option {
	return func(c *Client) {
		c.flags = store
	}
}

// WithMockGenerator replaces the synthetic data generator
func WithMockGenerator(g *MockGenerator) Option {
	return func(c *Client) {
		c.mock = g
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "odds_client").Logger()
	}
}

// NewClient creates an odds provider client. Without an API key it starts degraded.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: ratelimit.NewLimiter(ratelimit.DefaultInterval),
		mock:    NewMockGenerator(time.Now),
		logger:  zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if apiKey == "" {
		c.mode.Store(int32(ModeDegraded))
		c.logger.Warn().Msg("no odds api key configured, serving synthetic data")
	}

	return c
}

// Quota returns the most recent allowance reported by the provider
func (c *Client) Quota() Quota {
	c.quotaMu.RLock()
	defer c.quotaMu.RUnlock()
	return c.quota
}

// FetchSports returns every sport the provider covers
func (c *Client) FetchSports(ctx context.Context) ([]models.Sport, error) {
	if c.Mode() == ModeDegraded {
		return c.mock.Sports(), nil
	}

	var wire []wireSport
	if err := c.get(ctx, "/sports", nil, &wire); err != nil {
		if c.fallback(ctx, err) {
			return c.mock.Sports(), nil
		}
		return nil, err
	}

	sports := make([]models.Sport, 0, len(wire))
	for _, s := range wire {
		sports = append(sports, s.toModel())
	}
	return sports, nil
}

// FetchEvents returns upcoming and in-progress events for a sport
func (c *Client) FetchEvents(ctx context.Context, sportKey string) ([]models.Event, error) {
	if c.Mode() == ModeDegraded {
		return c.mock.Events(sportKey), nil
	}

	params := url.Values{}
	params.Set("dateFormat", "iso")

	var wire []wireEvent
	if err := c.get(ctx, fmt.Sprintf("/sports/%s/events", url.PathEscape(sportKey)), params, &wire); err != nil {
		if c.fallback(ctx, err) {
			return c.mock.Events(sportKey), nil
		}
		return nil, err
	}

	events := make([]models.Event, 0, len(wire))
	for _, e := range wire {
		events = append(events, e.toEvent())
	}
	return events, nil
}

// FetchOdds returns bookmaker quotes per event. When exactly one region is
// requested every quote is tagged with it.
func (c *Client) FetchOdds(ctx context.Context, sportKey string, markets, regions, bookmakers []string) ([]models.EventOdds, error) {
	if c.Mode() == ModeDegraded {
		return c.mock.Odds(sportKey, markets, regions, bookmakers), nil
	}

	params := url.Values{}
	params.Set("regions", strings.Join(regions, ","))
	params.Set("markets", strings.Join(markets, ","))
	params.Set("oddsFormat", "american")
	params.Set("dateFormat", "iso")
	if len(bookmakers) > 0 {
		params.Set("bookmakers", strings.Join(bookmakers, ","))
	}

	var wire []wireEvent
	if err := c.get(ctx, fmt.Sprintf("/sports/%s/odds", url.PathEscape(sportKey)), params, &wire); err != nil {
		if c.fallback(ctx, err) {
			return c.mock.Odds(sportKey, markets, regions, bookmakers), nil
		}
		return nil, err
	}

	region := singleRegion(regions)
	events := make([]models.EventOdds, 0, len(wire))
	for _, e := range wire {
		events = append(events, e.toEventOdds(region))
	}
	return events, nil
}

// FetchPlayerProps returns prop markets for a single event
func (c *Client) FetchPlayerProps(ctx context.Context, sportKey, eventID string, markets, regions []string) (*models.PlayerProps, error) {
	if c.Mode() == ModeDegraded {
		return c.mock.PlayerProps(sportKey, eventID, markets, regions), nil
	}

	params := url.Values{}
	params.Set("regions", strings.Join(regions, ","))
	params.Set("markets", strings.Join(markets, ","))
	params.Set("oddsFormat", "american")
	params.Set("dateFormat", "iso")

	var wire wireEvent
	path := fmt.Sprintf("/sports/%s/events/%s/odds", url.PathEscape(sportKey), url.PathEscape(eventID))
	if err := c.get(ctx, path, params, &wire); err != nil {
		if c.fallback(ctx, err) {
			return c.mock.PlayerProps(sportKey, eventID, markets, regions), nil
		}
		return nil, err
	}

	return &models.PlayerProps{EventOdds: wire.toEventOdds(singleRegion(regions))}, nil
}

// fallback degrades the client on quota exhaustion and reports whether the
// caller should serve synthetic data instead of failing.
func (c *Client) fallback(ctx context.Context, err error) bool {
	if !IsQuotaExhausted(err) {
		return false
	}
	c.degrade(ctx, err)
	return true
}

// get performs a rate-limited GET against the provider and decodes the JSON body into dst
func (c *Client) get(ctx context.Context, path string, params url.Values, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Endpoint: path, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Endpoint: path, Message: fmt.Sprintf("reading body: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return parseAPIError(resp.StatusCode, path, body)
	}

	c.recordQuota(resp.Header)
	if c.counter != nil {
		if _, err := c.counter.Increment(ctx); err != nil {
			c.logger.Warn().Err(err).Msg("failed to record upstream request")
		}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func parseAPIError(status int, path string, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Endpoint: path}

	var we wireError
	if err := json.Unmarshal(body, &we); err == nil && (we.Message != "" || we.ErrorCode != "") {
		apiErr.Code = we.ErrorCode
		apiErr.Message = we.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	// Some responses carry the code only in free text.
	if apiErr.Code == "" && strings.Contains(string(body), QuotaExhaustedCode) {
		apiErr.Code = QuotaExhaustedCode
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func (c *Client) recordQuota(h http.Header) {
	remaining := headerInt(h, "x-requests-remaining")
	used := headerInt(h, "x-requests-used")
	if remaining == nil && used == nil {
		return
	}

	c.quotaMu.Lock()
	c.quota = Quota{Remaining: remaining, Used: used}
	c.quotaMu.Unlock()
}

func headerInt(h http.Header, name string) *int {
	v := h.Get(name)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	n := int(f)
	return &n
}

func singleRegion(regions []string) string {
	if len(regions) == 1 {
		return regions[0]
	}
	return ""
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/accounting"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/cache"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/consensus"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/provider"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/retry"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/contracts"
)

var (
	// ErrAllRegionsFailed is returned when no region produced data
	ErrAllRegionsFailed = errors.New("all regions failed")

	// ErrInvalidRequest wraps caller input problems
	ErrInvalidRequest = errors.New("invalid request")
)

// DefaultRegions is used when a request names none
var DefaultRegions = []string{"us"}

// DataSource exposes the provider client's fallback state
type DataSource interface {
	Mode() provider.DataSourceMode
	Quota() provider.Quota
	ResetMode(ctx context.Context) error
}

// Service implements the engine entry points on top of the cache, the
// provider client, and the consensus/detection pipeline.
type Service struct {
	provider   contracts.OddsProvider
	store      cache.Store
	ttl        cache.TTLPolicy
	counter    *accounting.Counter
	dataSource DataSource
	sharpBooks contracts.SharpBookSource
	weights    consensus.WeightTable
	retry      *retry.Policy
	logger     zerolog.Logger
	now        func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithTTLPolicy overrides the default expirations
func WithTTLPolicy(p cache.TTLPolicy) Option {
	return func(s *Service) {
		s.ttl = p
	}
}

// WithCounter enables usage reporting
func WithCounter(c *accounting.Counter) Option {
	return func(s *Service) {
		s.counter = c
	}
}

// WithDataSource enables quota and fallback reporting and reset
func WithDataSource(ds DataSource) Option {
	return func(s *Service) {
		s.dataSource = ds
	}
}

// WithSharpBookSource sets where sharp lists come from when a request has none
func WithSharpBookSource(src contracts.SharpBookSource) Option {
	return func(s *Service) {
		s.sharpBooks = src
	}
}

// WithWeights replaces the weighted consensus table
func WithWeights(w consensus.WeightTable) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithRetryPolicy replaces the region fetch retry policy
func WithRetryPolicy(p *retry.Policy) Option {
	return func(s *Service) {
		s.retry = p
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger.With().Str("component", "service").Logger()
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates the engine service
func New(p contracts.OddsProvider, store cache.Store, opts ...Option) *Service {
	s := &Service{
		provider: p,
		store:    store,
		ttl:      cache.DefaultTTLPolicy(),
		weights:  consensus.DefaultWeights(),
		retry:    retry.NewPolicy(2, 500*time.Millisecond, provider.IsTemporary),
		logger:   zerolog.Nop(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// readCache is advisory: any failure is logged and treated as a miss
func (s *Service) readCache(ctx context.Context, key string, dst any) bool {
	if s.store == nil {
		return false
	}
	found, err := cache.GetJSON(ctx, s.store, key, dst)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache read failed, treating as miss")
		return false
	}
	return found
}

func (s *Service) writeCache(ctx context.Context, key string, value any, ttl time.Duration) {
	if s.store == nil {
		return
	}
	if err := cache.SetJSON(ctx, s.store, key, value, ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

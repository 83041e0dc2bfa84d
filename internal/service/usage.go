package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/kelly"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/provider"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
)

// KellyRequest sizes one wager
type KellyRequest struct {
	Bankroll      float64
	OfferedOdds   int
	ReferenceOdds int
	Fraction      float64 // Defaults to quarter Kelly
}

// DefaultKellyFraction is used when a request leaves Fraction unset
const DefaultKellyFraction = 0.25

// KellyStake sizes a wager against a bankroll
func (s *Service) KellyStake(req KellyRequest) (*models.StakeResult, error) {
	if req.Fraction == 0 {
		req.Fraction = DefaultKellyFraction
	}
	result, err := kelly.Stake(req.Bankroll, req.OfferedOdds, req.ReferenceOdds, req.Fraction)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return result, nil
}

// Usage reports daily upstream request counts and the provider's own quota
func (s *Service) Usage(ctx context.Context) (*models.Usage, error) {
	usage := &models.Usage{DataSource: provider.ModeLive.String()}

	if s.counter != nil {
		daily, err := s.counter.Usage(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading request counters: %w", err)
		}
		usage.Date = daily.Date
		usage.Today = daily.Today
		usage.Yesterday = daily.Yesterday
		usage.Total = daily.Total
	}

	if s.dataSource != nil {
		quota := s.dataSource.Quota()
		usage.RequestsRemaining = quota.Remaining
		usage.RequestsUsed = quota.Used
		usage.DataSource = s.dataSource.Mode().String()
	}

	return usage, nil
}

// ResetDataSource returns the provider client to live mode
func (s *Service) ResetDataSource(ctx context.Context) error {
	if s.dataSource == nil {
		return errors.New("data source reset not supported")
	}
	if err := s.dataSource.ResetMode(ctx); err != nil {
		return fmt.Errorf("resetting data source: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/cache"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/consensus"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/detector"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
)

// EVRequest parameterizes an opportunity scan
type EVRequest struct {
	SportKey     string
	Markets      []string
	Threshold    float64 // Minimum EV %
	ForceRefresh bool
	IncludeLive  bool
	Regions      []string
	Method       models.ConsensusMethod // Defaults to weighted
	SharpBooks   []string               // Sharp mode only
}

// FindEVOpportunities scans merged odds for offers beating consensus by at
// least Threshold percent. When every region fails the result is empty with
// FailedRegions set, and no error is returned.
func (s *Service) FindEVOpportunities(ctx context.Context, req EVRequest) (*models.EVResult, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	key := cache.EVKey(req.SportKey, req.Markets, req.Threshold, req.IncludeLive, req.Regions, string(req.Method), req.SharpBooks)
	if !req.ForceRefresh {
		var cached models.EVResult
		if s.readCache(ctx, key, &cached) {
			cached.Source = models.SourceCache
			return &cached, nil
		}
	}

	events, failures, fetched, err := s.loadScanEvents(ctx, req)
	if err != nil {
		return nil, err
	}
	if !fetched {
		s.logger.Warn().Str("sport", req.SportKey).Msg("no odds available, returning empty opportunity set")
		return &models.EVResult{
			Opportunities: []models.Opportunity{},
			LastUpdated:   s.now(),
			Source:        models.SourceAPI,
			FailedRegions: failures,
		}, nil
	}

	strategy, err := consensus.New(req.Method, consensus.Options{
		SharpBooks: s.resolveSharpBooks(ctx, req),
		Weights:    s.weights,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	now := s.now()
	opportunities := detector.New(strategy, s.logger).Detect(events, detector.Params{
		Markets:     req.Markets,
		Threshold:   req.Threshold,
		IncludeLive: req.IncludeLive,
		Now:         now,
	})
	if opportunities == nil {
		opportunities = []models.Opportunity{}
	}

	result := &models.EVResult{
		Opportunities: opportunities,
		LastUpdated:   now,
		Source:        models.SourceAPI,
		FailedRegions: failures,
	}

	if len(result.FailedRegions) == 0 {
		s.writeCache(ctx, key, result, s.ttl.EV)
	}

	s.logger.Info().
		Str("sport", req.SportKey).
		Str("method", string(req.Method)).
		Int("events", len(events)).
		Int("opportunities", len(opportunities)).
		Msg("ev scan complete")

	return result, nil
}

// loadScanEvents gathers the quotes a scan runs over. Game markets come from
// the sport-wide odds endpoint; player-prop markets are only served per event,
// so they are fetched once for each event on the board. fetched is false when
// every upstream call failed.
func (s *Service) loadScanEvents(ctx context.Context, req EVRequest) ([]models.EventOdds, []models.RegionFailure, bool, error) {
	gameMarkets, propMarkets := splitMarkets(req.Markets)

	var (
		events    []models.EventOdds
		failures  []models.RegionFailure
		attempted int
		succeeded int
	)

	if len(gameMarkets) > 0 {
		attempted++
		odds, err := s.loadOdds(ctx, OddsRequest{
			SportKey: req.SportKey,
			Markets:  gameMarkets,
			Regions:  req.Regions,
		}, req.ForceRefresh)
		switch {
		case err == nil:
			succeeded++
			events = append(events, odds.Events...)
		case !errors.Is(err, ErrAllRegionsFailed):
			return nil, nil, false, err
		}
		failures = appendFailures(failures, odds.FailedRegions)
	}

	if len(propMarkets) > 0 {
		board, _, err := s.GetEvents(ctx, req.SportKey)
		if err != nil {
			return nil, nil, false, fmt.Errorf("listing events for props: %w", err)
		}

		now := s.now()
		for _, event := range board {
			if event.IsLive(now) && !req.IncludeLive {
				continue
			}

			attempted++
			props, err := s.loadProps(ctx, PropsRequest{
				SportKey: req.SportKey,
				EventID:  event.ID,
				Markets:  propMarkets,
				Regions:  req.Regions,
			}, req.ForceRefresh)
			switch {
			case err == nil:
				succeeded++
				quotes := props.Props.EventOdds
				if quotes.HomeTeam == "" {
					quotes.Event = event
				}
				events = append(events, quotes)
			case !errors.Is(err, ErrAllRegionsFailed):
				return nil, nil, false, err
			}
			failures = appendFailures(failures, props.FailedRegions)
		}
	}

	return events, failures, attempted == 0 || succeeded > 0, nil
}

// splitMarkets separates prop keys from sport-wide game keys
func splitMarkets(markets []string) (game, props []string) {
	for _, m := range markets {
		if models.IsPlayerPropMarket(m) {
			props = append(props, m)
		} else {
			game = append(game, m)
		}
	}
	return game, props
}

// appendFailures keeps the first failure reported for each region
func appendFailures(dst, src []models.RegionFailure) []models.RegionFailure {
	for _, f := range src {
		seen := false
		for _, existing := range dst {
			if existing.Region == f.Region {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, f)
		}
	}
	return dst
}

// resolveSharpBooks prefers the request's list, then the configured source,
// then the static default.
func (s *Service) resolveSharpBooks(ctx context.Context, req EVRequest) []string {
	if req.Method != models.MethodSharp {
		return nil
	}
	if len(req.SharpBooks) > 0 {
		return req.SharpBooks
	}
	if s.sharpBooks != nil {
		books, err := s.sharpBooks.SharpBooks(ctx, req.SportKey)
		if err != nil {
			s.logger.Warn().Err(err).Str("sport", req.SportKey).Msg("sharp book lookup failed, using defaults")
		} else if len(books) > 0 {
			return books
		}
	}
	return consensus.DefaultSharpBooks
}

func (r *EVRequest) normalize() error {
	if r.SportKey == "" {
		return fmt.Errorf("%w: sport is required", ErrInvalidRequest)
	}
	r.Markets = normalizeList(r.Markets)
	if len(r.Markets) == 0 {
		return fmt.Errorf("%w: at least one market is required", ErrInvalidRequest)
	}
	if math.IsNaN(r.Threshold) || math.IsInf(r.Threshold, 0) {
		return fmt.Errorf("%w: threshold must be finite", ErrInvalidRequest)
	}
	r.Regions = normalizeList(r.Regions)
	if len(r.Regions) == 0 {
		r.Regions = DefaultRegions
	}
	if r.Method == "" {
		r.Method = models.MethodWeighted
	}
	if !r.Method.Valid() {
		return fmt.Errorf("%w: unknown comparison method %q", ErrInvalidRequest, r.Method)
	}
	r.SharpBooks = normalizeList(r.SharpBooks)
	return nil
}

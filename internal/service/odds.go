package service

import (
	"context"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/cache"
	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/merge"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
)

// OddsRequest selects merged game odds for a sport
type OddsRequest struct {
	SportKey   string
	Markets    []string
	Regions    []string
	Bookmakers []string // Optional
}

// PropsRequest selects merged player props for one event
type PropsRequest struct {
	SportKey string
	EventID  string
	Markets  []string
	Regions  []string
}

// GetSports returns the provider's sports list
func (s *Service) GetSports(ctx context.Context) ([]models.Sport, models.Source, error) {
	var sports []models.Sport
	if s.readCache(ctx, cache.SportsKey, &sports) {
		return sports, models.SourceCache, nil
	}

	sports, err := s.provider.FetchSports(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("fetching sports: %w", err)
	}

	s.writeCache(ctx, cache.SportsKey, sports, s.ttl.Sports)
	return sports, models.SourceAPI, nil
}

// GetEvents returns upcoming and in-progress events for a sport
func (s *Service) GetEvents(ctx context.Context, sportKey string) ([]models.Event, models.Source, error) {
	if sportKey == "" {
		return nil, "", fmt.Errorf("%w: sport is required", ErrInvalidRequest)
	}

	key := cache.EventsKey(sportKey)
	var events []models.Event
	if s.readCache(ctx, key, &events) {
		return events, models.SourceCache, nil
	}

	events, err := s.provider.FetchEvents(ctx, sportKey)
	if err != nil {
		return nil, "", fmt.Errorf("fetching events for %s: %w", sportKey, err)
	}

	s.writeCache(ctx, key, events, s.ttl.Events)
	return events, models.SourceAPI, nil
}

// GetOdds returns odds merged across regions. Regions that fail are reported
// in FailedRegions; the call only fails when every region does.
func (s *Service) GetOdds(ctx context.Context, req OddsRequest) (*models.OddsResult, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	result, err := s.loadOdds(ctx, req, false)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// loadOdds also returns the failure list alongside ErrAllRegionsFailed
func (s *Service) loadOdds(ctx context.Context, req OddsRequest, bypassCache bool) (*models.OddsResult, error) {
	key := cache.OddsKey(req.SportKey, req.Markets, req.Regions, req.Bookmakers)

	if !bypassCache {
		var events []models.EventOdds
		if s.readCache(ctx, key, &events) {
			return &models.OddsResult{Events: events, Source: models.SourceCache}, nil
		}
	}

	results, failures := fanOut(ctx, s, req.Regions, func(ctx context.Context, region string) ([]models.EventOdds, error) {
		return s.provider.FetchOdds(ctx, req.SportKey, req.Markets, []string{region}, req.Bookmakers)
	})
	if len(results) == 0 {
		return &models.OddsResult{Events: []models.EventOdds{}, Source: models.SourceAPI, FailedRegions: failures}, allFailedError(failures)
	}

	perRegion := make([]merge.RegionOdds, 0, len(results))
	for _, r := range results {
		perRegion = append(perRegion, merge.RegionOdds{Region: r.region, Events: r.value})
	}
	events := merge.Odds(perRegion)

	// Partial results are served but not cached, so the next read retries the failed regions.
	if len(failures) == 0 {
		s.writeCache(ctx, key, events, s.ttl.Odds)
	}

	return &models.OddsResult{Events: events, Source: models.SourceAPI, FailedRegions: failures}, nil
}

// GetPlayerProps returns props for one event merged across regions
func (s *Service) GetPlayerProps(ctx context.Context, req PropsRequest) (*models.PropsResult, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	result, err := s.loadProps(ctx, req, false)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// loadProps also returns the failure list alongside ErrAllRegionsFailed
func (s *Service) loadProps(ctx context.Context, req PropsRequest, bypassCache bool) (*models.PropsResult, error) {
	key := cache.PropsKey(req.EventID, req.Markets, req.Regions)

	if !bypassCache {
		var props models.PlayerProps
		if s.readCache(ctx, key, &props) {
			return &models.PropsResult{Props: &props, Source: models.SourceCache}, nil
		}
	}

	results, failures := fanOut(ctx, s, req.Regions, func(ctx context.Context, region string) (*models.PlayerProps, error) {
		return s.provider.FetchPlayerProps(ctx, req.SportKey, req.EventID, req.Markets, []string{region})
	})
	if len(results) == 0 {
		return &models.PropsResult{Source: models.SourceAPI, FailedRegions: failures}, allFailedError(failures)
	}

	perRegion := make([]merge.RegionProps, 0, len(results))
	for _, r := range results {
		perRegion = append(perRegion, merge.RegionProps{Region: r.region, Props: r.value})
	}
	merged := merge.Props(perRegion)
	if merged == nil {
		merged = &models.PlayerProps{EventOdds: models.EventOdds{
			Event:      models.Event{ID: req.EventID, SportKey: req.SportKey},
			Bookmakers: []models.BookmakerQuote{},
		}}
	}

	if len(failures) == 0 {
		s.writeCache(ctx, key, merged, s.ttl.Props)
	}

	return &models.PropsResult{Props: merged, Source: models.SourceAPI, FailedRegions: failures}, nil
}

func (r *OddsRequest) normalize() error {
	if r.SportKey == "" {
		return fmt.Errorf("%w: sport is required", ErrInvalidRequest)
	}
	r.Markets = normalizeList(r.Markets)
	if len(r.Markets) == 0 {
		return fmt.Errorf("%w: at least one market is required", ErrInvalidRequest)
	}
	r.Regions = normalizeList(r.Regions)
	if len(r.Regions) == 0 {
		r.Regions = DefaultRegions
	}
	r.Bookmakers = normalizeList(r.Bookmakers)
	return nil
}

func (r *PropsRequest) normalize() error {
	if r.SportKey == "" || r.EventID == "" {
		return fmt.Errorf("%w: sport and event are required", ErrInvalidRequest)
	}
	r.Markets = normalizeList(r.Markets)
	if len(r.Markets) == 0 {
		return fmt.Errorf("%w: at least one market is required", ErrInvalidRequest)
	}
	r.Regions = normalizeList(r.Regions)
	if len(r.Regions) == 0 {
		r.Regions = DefaultRegions
	}
	return nil
}

package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
)

// regionResult is one region's outcome of a fan-out
type regionResult[T any] struct {
	region string
	value  T
	err    error
}

// fanOut runs fetch once per region concurrently and waits for all of them.
// Failures are collected per region rather than cancelling the others;
// results keep the caller's region order.
func fanOut[T any](ctx context.Context, s *Service, regions []string, fetch func(ctx context.Context, region string) (T, error)) ([]regionResult[T], []models.RegionFailure) {
	results := make([]regionResult[T], len(regions))
	var g errgroup.Group

	for i, region := range regions {
		i, region := i, region
		results[i].region = region
		g.Go(func() error {
			var value T
			err := s.retry.Execute(ctx, func(ctx context.Context) error {
				v, err := fetch(ctx, region)
				if err != nil {
					return err
				}
				value = v
				return nil
			})
			results[i].value = value
			results[i].err = err
			return nil
		})
	}
	_ = g.Wait()

	var (
		ok       []regionResult[T]
		failures []models.RegionFailure
	)
	for _, r := range results {
		if r.err != nil {
			s.logger.Warn().Err(r.err).Str("region", r.region).Msg("region fetch failed")
			failures = append(failures, models.RegionFailure{Region: r.region, Error: r.err.Error()})
			continue
		}
		ok = append(ok, r)
	}
	return ok, failures
}

func allFailedError(failures []models.RegionFailure) error {
	return fmt.Errorf("%w: %d regions", ErrAllRegionsFailed, len(failures))
}

// normalizeList drops blanks and duplicates, preserving order
func normalizeList(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

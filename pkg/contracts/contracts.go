package contracts

import (
	"context"

	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
)

// OddsProvider defines the upstream odds source
type OddsProvider interface {
	// FetchSports returns every sport the provider covers
	FetchSports(ctx context.Context) ([]models.Sport, error)

	// FetchEvents returns upcoming and in-progress events for a sport
	FetchEvents(ctx context.Context, sportKey string) ([]models.Event, error)

	// FetchOdds returns bookmaker quotes per event for the requested markets and regions.
	// bookmakers is optional and narrows the quote set.
	FetchOdds(ctx context.Context, sportKey string, markets, regions, bookmakers []string) ([]models.EventOdds, error)

	// FetchPlayerProps returns prop markets for a single event
	FetchPlayerProps(ctx context.Context, sportKey, eventID string, markets, regions []string) (*models.PlayerProps, error)
}

// ConsensusStrategy computes a reference price for one outcome
type ConsensusStrategy interface {
	// Method returns the strategy identifier
	Method() models.ConsensusMethod

	// Consensus returns the reference price for target across bookmakers,
	// excluding target.ExcludeBook. A zero Price means no consensus.
	Consensus(target models.Target, bookmakers []models.BookmakerQuote) models.ConsensusResult
}

// SharpBookSource supplies the bookmakers treated as sharp for a sport
type SharpBookSource interface {
	SharpBooks(ctx context.Context, sportKey string) ([]string, error)
}

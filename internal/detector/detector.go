package detector

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/oddsmath"
)

// DefaultMinBooks is the fewest bookmakers an event needs on the requested markets
const DefaultMinBooks = 2

var opportunityNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("fortuna/ev-engine/opportunity"))

// Params controls one detection pass
type Params struct {
	Markets     []string
	Threshold   float64 // Minimum EV %
	IncludeLive bool
	MinBooks    int
	Now         time.Time
}

// Detector compares every bookmaker offer against a consensus price
type Detector struct {
	strategy contracts.ConsensusStrategy
	logger   zerolog.Logger
}

// New creates a detector using strategy for reference prices
func New(strategy contracts.ConsensusStrategy, logger zerolog.Logger) *Detector {
	return &Detector{
		strategy: strategy,
		logger:   logger.With().Str("component", "ev_detector").Str("method", string(strategy.Method())).Logger(),
	}
}

// Detect returns every offer whose EV % meets params.Threshold, best first
func (d *Detector) Detect(events []models.EventOdds, params Params) []models.Opportunity {
	if params.MinBooks <= 0 {
		params.MinBooks = DefaultMinBooks
	}
	if params.Now.IsZero() {
		params.Now = time.Now()
	}

	requested := make(map[string]bool, len(params.Markets))
	for _, m := range params.Markets {
		requested[m] = true
	}

	var (
		opportunities []models.Opportunity
		skippedThin   int
		skippedLive   int
	)

	for _, event := range events {
		if booksOffering(event, requested) < params.MinBooks {
			skippedThin++
			continue
		}

		live := event.IsLive(params.Now)
		if live && !params.IncludeLive {
			skippedLive++
			continue
		}

		for _, book := range event.Bookmakers {
			for _, market := range book.Markets {
				if !requested[market.Key] {
					continue
				}
				for _, outcome := range market.Outcomes {
					opp, ok := d.evaluate(event, book, market, outcome, params)
					if !ok {
						continue
					}
					opp.IsLive = live
					opportunities = append(opportunities, opp)
				}
			}
		}
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		if opportunities[i].EVPercent != opportunities[j].EVPercent {
			return opportunities[i].EVPercent > opportunities[j].EVPercent
		}
		return opportunities[i].ID < opportunities[j].ID
	})

	d.logger.Debug().
		Int("events", len(events)).
		Int("skipped_thin", skippedThin).
		Int("skipped_live", skippedLive).
		Int("opportunities", len(opportunities)).
		Msg("detection pass complete")

	return opportunities
}

func (d *Detector) evaluate(event models.EventOdds, book models.BookmakerQuote, market models.Market, outcome models.Outcome, params Params) (models.Opportunity, bool) {
	target := models.Target{
		SportKey:    event.SportKey,
		MarketKey:   market.Key,
		OutcomeName: outcome.Name,
		Description: outcome.Description,
		Point:       outcome.Point,
		ExcludeBook: book.Key,
	}

	consensus := d.strategy.Consensus(target, event.Bookmakers)
	if !consensus.Found() {
		return models.Opportunity{}, false
	}

	offeredProb, err := oddsmath.ImpliedProbability(outcome.Price)
	if err != nil {
		return models.Opportunity{}, false
	}
	consensusProb, err := oddsmath.ImpliedProbability(consensus.Price)
	if err != nil {
		return models.Opportunity{}, false
	}
	ev, err := oddsmath.ExpectedValuePercent(outcome.Price, consensusProb)
	if err != nil || ev < params.Threshold {
		return models.Opportunity{}, false
	}
	edge, err := oddsmath.ProbabilityEdge(consensusProb, offeredProb)
	if err != nil {
		return models.Opportunity{}, false
	}

	selection := SelectionLabel(market.Key, outcome)
	return models.Opportunity{
		ID:              OpportunityID(event.ID, market.Key, selection, book.Key),
		SportKey:        event.SportKey,
		EventID:         event.ID,
		EventName:       event.Name(),
		CommenceTime:    event.CommenceTime,
		MarketKey:       market.Key,
		Selection:       selection,
		OutcomeName:     outcome.Name,
		Description:     outcome.Description,
		Point:           outcome.Point,
		BookKey:         book.Key,
		OfferedPrice:    outcome.Price,
		ConsensusPrice:  consensus.Price,
		OfferedProb:     offeredProb,
		ConsensusProb:   consensusProb,
		EVPercent:       ev,
		ProbabilityEdge: edge,
		BookHoldPercent: holdFor(market, outcome),
		ContributorCnt:  len(consensus.Contributors),
		DetectedAt:      params.Now,
		Region:          book.Region,
		Method:          d.strategy.Method(),
	}, true
}

func booksOffering(event models.EventOdds, requested map[string]bool) int {
	n := 0
	for _, book := range event.Bookmakers {
		for _, m := range book.Markets {
			if requested[m.Key] && len(m.Outcomes) > 0 {
				n++
				break
			}
		}
	}
	return n
}

// SelectionLabel renders the human-readable pick: "Lakers", "Lakers -3.5",
// "Over 224.5", or "Jalen Brown Over 22.5" for props.
func SelectionLabel(marketKey string, o models.Outcome) string {
	parts := make([]string, 0, 3)
	if o.Description != "" {
		parts = append(parts, o.Description)
	}
	parts = append(parts, o.Name)

	if o.Point != nil {
		point := strconv.FormatFloat(*o.Point, 'f', -1, 64)
		if strings.Contains(marketKey, "spreads") && *o.Point > 0 {
			point = "+" + point
		}
		parts = append(parts, point)
	}
	return strings.Join(parts, " ")
}

// OpportunityID is stable across refreshes for the same pick at the same book
func OpportunityID(eventID, marketKey, selection, bookKey string) string {
	name := strings.Join([]string{eventID, marketKey, selection, bookKey}, "|")
	return uuid.NewSHA1(opportunityNamespace, []byte(name)).String()
}

// holdFor computes the book's margin over the outcomes that complete o's
// side of the market: same player and same absolute line.
func holdFor(market models.Market, o models.Outcome) *float64 {
	var prices []int
	for _, sibling := range market.Outcomes {
		if sibling.Description != o.Description || !sameLine(sibling.Point, o.Point) {
			continue
		}
		prices = append(prices, sibling.Price)
	}

	hold, err := oddsmath.CalculateHoldPercentage(prices)
	if err != nil {
		return nil
	}
	return &hold
}

func sameLine(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return math.Abs(math.Abs(*a)-math.Abs(*b)) < 0.01
}

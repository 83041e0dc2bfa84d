package models

import "time"

// ConsensusMethod selects how a reference price is computed
type ConsensusMethod string

const (
	MethodWeighted ConsensusMethod = "weighted" // Weighted multi-book average
	MethodSharp    ConsensusMethod = "sharp"    // Sharp-book anchor
	MethodSimple   ConsensusMethod = "simple"   // Median of all books
)

// Valid reports whether m names a known consensus method
func (m ConsensusMethod) Valid() bool {
	switch m {
	case MethodWeighted, MethodSharp, MethodSimple:
		return true
	}
	return false
}

// Target identifies the outcome a consensus price is computed for
type Target struct {
	SportKey    string
	MarketKey   string
	OutcomeName string
	Description string   // Player for props
	Point       *float64 // nil for non-point markets
	ExcludeBook string   // Bookmaker under evaluation
}

// Contributor is one bookmaker's input to a consensus price
type Contributor struct {
	BookKey string  `json:"book_key"`
	Price   int     `json:"price"`
	Weight  float64 `json:"weight,omitempty"` // Weighted mode only
}

// ConsensusResult is the reference price for an (event, market, outcome, point) tuple.
// Price 0 is the "no consensus" sentinel.
type ConsensusResult struct {
	Price        int             `json:"price"`
	Method       ConsensusMethod `json:"method"`
	Contributors []Contributor   `json:"contributors,omitempty"`
}

// Found reports whether a consensus price could be computed
func (r ConsensusResult) Found() bool {
	return r.Price != 0
}

// Opportunity represents a bookmaker offer priced better than consensus
type Opportunity struct {
	ID              string          `json:"id"`
	SportKey        string          `json:"sport_key"`
	EventID         string          `json:"event_id"`
	EventName       string          `json:"event_name"`
	CommenceTime    time.Time       `json:"commence_time"`
	MarketKey       string          `json:"market_key"`
	Selection       string          `json:"selection"`
	OutcomeName     string          `json:"outcome_name"`
	Description     string          `json:"description,omitempty"` // Player for props
	Point           *float64        `json:"point,omitempty"`
	BookKey         string          `json:"book_key"`
	OfferedPrice    int             `json:"offered_price"`
	ConsensusPrice  int             `json:"consensus_price"`
	OfferedProb     float64         `json:"offered_implied_prob"`
	ConsensusProb   float64         `json:"consensus_implied_prob"`
	EVPercent       float64         `json:"ev_pct"`
	ProbabilityEdge float64         `json:"prob_edge"` // Consensus minus offered implied probability
	BookHoldPercent *float64        `json:"book_hold_pct,omitempty"`
	ContributorCnt  int             `json:"contributor_count"`
	DetectedAt      time.Time       `json:"detected_at"`
	IsLive          bool            `json:"is_live"`
	Region          string          `json:"region,omitempty"`
	Method          ConsensusMethod `json:"method"`
}

// Source tags where a response came from
type Source string

const (
	SourceCache Source = "cache"
	SourceAPI   Source = "api"
)

// RegionFailure records a region whose fetch failed during a merged request
type RegionFailure struct {
	Region string `json:"region"`
	Error  string `json:"error"`
}

// OddsResult is the merged odds for a sport
type OddsResult struct {
	Events        []EventOdds     `json:"events"`
	Source        Source          `json:"source"`
	FailedRegions []RegionFailure `json:"failed_regions,omitempty"`
}

// PropsResult is the merged player props for an event
type PropsResult struct {
	Props         *PlayerProps    `json:"props"`
	Source        Source          `json:"source"`
	FailedRegions []RegionFailure `json:"failed_regions,omitempty"`
}

// EVResult is a ranked set of opportunities
type EVResult struct {
	Opportunities []Opportunity   `json:"opportunities"`
	LastUpdated   time.Time       `json:"last_updated"`
	Source        Source          `json:"source"`
	FailedRegions []RegionFailure `json:"failed_regions,omitempty"`
}

// Usage reports upstream request accounting
type Usage struct {
	Date              string `json:"date"`
	Today             int64  `json:"today"`
	Yesterday         int64  `json:"yesterday"`
	Total             int64  `json:"total"`
	RequestsRemaining *int   `json:"requests_remaining,omitempty"`
	RequestsUsed      *int   `json:"requests_used,omitempty"`
	DataSource        string `json:"data_source"`
}

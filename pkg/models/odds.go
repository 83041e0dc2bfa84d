package models

import (
	"strings"
	"time"
)

// Common market keys
const (
	MarketH2H     = "h2h"     // Moneyline
	MarketSpreads = "spreads" // Point spread
	MarketTotals  = "totals"  // Over/under
)

// Sport represents a sport offered by the odds provider
type Sport struct {
	Key          string `json:"key"`
	Group        string `json:"group"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	HasOutrights bool   `json:"has_outrights"`
}

// Score is a team's running score for an in-progress or finished event
type Score struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}

// Event represents a sporting event
type Event struct {
	ID           string    `json:"id"`
	SportKey     string    `json:"sport_key"`
	SportTitle   string    `json:"sport_title,omitempty"`
	CommenceTime time.Time `json:"commence_time"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	Completed    *bool     `json:"completed,omitempty"`
	Scores       []Score   `json:"scores,omitempty"`
}

// Name returns the human-readable "Away @ Home" label
func (e Event) Name() string {
	return e.AwayTeam + " @ " + e.HomeTeam
}

// IsCompleted returns the completion flag, treating a missing flag as false
func (e Event) IsCompleted() bool {
	return e.Completed != nil && *e.Completed
}

// IsLive reports whether the event should be treated as in progress at now:
// it started and is not flagged completed, or the provider already attached scores.
func (e Event) IsLive(now time.Time) bool {
	if e.CommenceTime.Before(now) && !e.IsCompleted() {
		return true
	}
	return len(e.Scores) > 0
}

// Outcome represents a single priced selection in a market
type Outcome struct {
	Name        string   `json:"name"`                  // Team, Over/Under, or Yes/No
	Price       int      `json:"price"`                 // American odds
	Point       *float64 `json:"point,omitempty"`       // Spread, total, or prop line
	Description string   `json:"description,omitempty"` // Player name for props
}

// Market represents one bookmaker's prices for a market key
type Market struct {
	Key         string    `json:"key"`
	LastUpdate  time.Time `json:"last_update,omitempty"`
	IsAlternate bool      `json:"is_alternate"`
	Outcomes    []Outcome `json:"outcomes"`
}

// BookmakerQuote is one bookmaker's markets for an event
type BookmakerQuote struct {
	Key        string    `json:"key"`
	Title      string    `json:"title"`
	LastUpdate time.Time `json:"last_update"`
	Region     string    `json:"region,omitempty"`  // Last contributing region
	Regions    []string  `json:"regions,omitempty"` // Every contributing region
	Markets    []Market  `json:"markets"`
}

// EventOdds combines event details with every bookmaker quoting it
type EventOdds struct {
	Event
	Bookmakers []BookmakerQuote `json:"bookmakers"`
}

// PlayerProps holds prop markets for a single event
type PlayerProps struct {
	EventOdds
}

// IsPlayerPropMarket reports whether a market key is priced per player
// (player_points, batter_hits, pitcher_strikeouts, ...)
func IsPlayerPropMarket(key string) bool {
	for _, prefix := range []string{"player_", "batter_", "pitcher_"} {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// IsAlternateMarket reports whether a market key names an alternate line set
// (alternate_spreads, player_points_alternate, ...)
func IsAlternateMarket(key string) bool {
	return strings.HasPrefix(key, "alternate_") || strings.HasSuffix(key, "_alternate")
}

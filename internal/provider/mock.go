package provider

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/oddsmath"
)

const (
	mockEventsPerSport = 6
	mockPlayersPerProp = 4
	mockVig            = 0.045
)

// mockRegionBooks mirrors which bookmakers the provider lists per region
var mockRegionBooks = map[string][]string{
	"us":  {"draftkings", "fanduel", "betmgm", "williamhill_us", "betrivers"},
	"us2": {"espnbet", "fliff", "hardrockbet"},
	"uk":  {"williamhill", "skybet", "paddypower"},
	"eu":  {"pinnacle", "betfair_ex_eu", "unibet_eu", "betonlineag"},
	"au":  {"sportsbet", "tab", "neds"},
}

var mockTeams = map[string][]string{
	"basketball_nba": {
		"Boston Celtics", "Denver Nuggets", "Los Angeles Lakers", "Milwaukee Bucks",
		"Phoenix Suns", "Golden State Warriors", "Miami Heat", "New York Knicks",
		"Dallas Mavericks", "Philadelphia 76ers", "Sacramento Kings", "Cleveland Cavaliers",
	},
	"americanfootball_nfl": {
		"Kansas City Chiefs", "Buffalo Bills", "San Francisco 49ers", "Philadelphia Eagles",
		"Dallas Cowboys", "Baltimore Ravens", "Detroit Lions", "Miami Dolphins",
		"Cincinnati Bengals", "Green Bay Packers", "Jacksonville Jaguars", "Houston Texans",
	},
	"baseball_mlb": {
		"Atlanta Braves", "Los Angeles Dodgers", "Houston Astros", "Texas Rangers",
		"Philadelphia Phillies", "Baltimore Orioles", "Tampa Bay Rays", "Seattle Mariners",
		"Toronto Blue Jays", "Minnesota Twins", "Arizona Diamondbacks", "Chicago Cubs",
	},
	"icehockey_nhl": {
		"Vegas Golden Knights", "Florida Panthers", "Colorado Avalanche", "Boston Bruins",
		"Dallas Stars", "New York Rangers", "Edmonton Oilers", "Carolina Hurricanes",
		"Toronto Maple Leafs", "New Jersey Devils", "Winnipeg Jets", "Vancouver Canucks",
	},
}

var mockTotals = map[string]float64{
	"basketball_nba":       224.5,
	"americanfootball_nfl": 44.5,
	"baseball_mlb":         8.5,
	"icehockey_nhl":        6.5,
}

var mockPropLines = map[string]float64{
	"player_points":   21.5,
	"player_rebounds": 7.5,
	"player_assists":  5.5,
	"player_threes":   2.5,
}

var (
	mockFirstNames = []string{"Marcus", "Jalen", "Tyrese", "Devin", "Anthony", "Jaylen", "Luka", "Darius", "Trae", "Donovan"}
	mockLastNames  = []string{"Harris", "Brown", "Mitchell", "Williams", "Johnson", "Edwards", "Green", "Murray", "Young", "Booker"}
)

// MockGenerator produces deterministic synthetic provider data. The same
// inputs on the same UTC day always yield the same events and prices.
type MockGenerator struct {
	now func() time.Time
}

// NewMockGenerator creates a generator anchored to now's UTC day
func NewMockGenerator(now func() time.Time) *MockGenerator {
	if now == nil {
		now = time.Now
	}
	return &MockGenerator{now: now}
}

// Sports returns a fixed sports list
func (g *MockGenerator) Sports() []models.Sport {
	return []models.Sport{
		{Key: "americanfootball_nfl", Group: "American Football", Title: "NFL", Description: "US Football", Active: true},
		{Key: "baseball_mlb", Group: "Baseball", Title: "MLB", Description: "Major League Baseball", Active: true},
		{Key: "basketball_nba", Group: "Basketball", Title: "NBA", Description: "US Basketball", Active: true},
		{Key: "icehockey_nhl", Group: "Ice Hockey", Title: "NHL", Description: "US Ice Hockey", Active: true},
	}
}

// Events returns upcoming synthetic events for a sport
func (g *MockGenerator) Events(sportKey string) []models.Event {
	day := g.now().UTC().Truncate(24 * time.Hour)
	teams := teamsFor(sportKey)
	rng := newRand(sportKey, day.Format("2006-01-02"))
	order := rng.Perm(len(teams))

	events := make([]models.Event, 0, mockEventsPerSport)
	for i := 0; i < mockEventsPerSport && 2*i+1 < len(order); i++ {
		completed := false
		events = append(events, models.Event{
			ID:           fmt.Sprintf("%016x", hash64(sportKey, day.Format("2006-01-02"), fmt.Sprint(i))),
			SportKey:     sportKey,
			SportTitle:   sportTitle(sportKey),
			CommenceTime: day.Add(time.Duration(24+i*3) * time.Hour),
			HomeTeam:     teams[order[2*i]],
			AwayTeam:     teams[order[2*i+1]],
			Completed:    &completed,
		})
	}
	return events
}

// Odds returns synthetic game-line quotes for every event of a sport
func (g *MockGenerator) Odds(sportKey string, markets, regions, bookmakers []string) []models.EventOdds {
	events := g.Events(sportKey)
	result := make([]models.EventOdds, 0, len(events))

	for _, event := range events {
		odds := models.EventOdds{Event: event}
		for _, book := range mockBooks(regions, bookmakers) {
			quote := book.quote(event)
			for _, key := range markets {
				if m, ok := gameMarket(event, key, book.key); ok {
					quote.Markets = append(quote.Markets, m)
				}
			}
			if len(quote.Markets) > 0 {
				odds.Bookmakers = append(odds.Bookmakers, quote)
			}
		}
		result = append(result, odds)
	}
	return result
}

// PlayerProps returns synthetic Over/Under prop quotes for one event
func (g *MockGenerator) PlayerProps(sportKey, eventID string, markets, regions []string) *models.PlayerProps {
	event := models.Event{ID: eventID, SportKey: sportKey, SportTitle: sportTitle(sportKey)}
	for _, e := range g.Events(sportKey) {
		if e.ID == eventID {
			event = e
			break
		}
	}

	players := mockPlayers(eventID)
	props := &models.PlayerProps{EventOdds: models.EventOdds{Event: event}}

	for _, book := range mockBooks(regions, nil) {
		quote := book.quote(event)
		for _, key := range markets {
			market := models.Market{Key: key, LastUpdate: quote.LastUpdate, IsAlternate: models.IsAlternateMarket(key)}
			for _, player := range players {
				line := propLine(eventID, key, player)
				over := jitteredProb(0.5, eventID, key, player, book.key)
				point := line
				market.Outcomes = append(market.Outcomes,
					models.Outcome{Name: "Over", Price: vigPrice(over), Point: &point, Description: player},
					models.Outcome{Name: "Under", Price: vigPrice(1 - over), Point: &point, Description: player},
				)
			}
			quote.Markets = append(quote.Markets, market)
		}
		if len(quote.Markets) > 0 {
			props.Bookmakers = append(props.Bookmakers, quote)
		}
	}
	return props
}

type mockBook struct {
	key    string
	region string
	single bool
}

func (b mockBook) quote(event models.Event) models.BookmakerQuote {
	q := models.BookmakerQuote{
		Key:        b.key,
		Title:      bookTitle(b.key),
		LastUpdate: event.CommenceTime.Add(-time.Duration(hash64(event.ID, b.key)%360) * time.Minute),
	}
	if b.single {
		q.Region = b.region
		q.Regions = []string{b.region}
	}
	return q
}

func mockBooks(regions, bookmakers []string) []mockBook {
	allow := make(map[string]bool, len(bookmakers))
	for _, b := range bookmakers {
		allow[b] = true
	}

	var books []mockBook
	seen := make(map[string]bool)
	for _, region := range regions {
		for _, key := range mockRegionBooks[region] {
			if seen[key] || (len(allow) > 0 && !allow[key]) {
				continue
			}
			seen[key] = true
			books = append(books, mockBook{key: key, region: region, single: len(regions) == 1})
		}
	}
	return books
}

func gameMarket(event models.Event, key, book string) (models.Market, bool) {
	market := models.Market{Key: key, IsAlternate: models.IsAlternateMarket(key)}
	homeProb := 0.3 + newRand(event.ID, "strength").Float64()*0.4

	switch key {
	case models.MarketH2H:
		p := jitteredProb(homeProb, event.ID, key, book)
		market.Outcomes = []models.Outcome{
			{Name: event.HomeTeam, Price: vigPrice(p)},
			{Name: event.AwayTeam, Price: vigPrice(1 - p)},
		}
	case models.MarketSpreads:
		line := math.Round((0.5-homeProb)*30*2) / 2
		if line == 0 {
			line = -1.5
		}
		home, away := line, -line
		p := jitteredProb(0.5, event.ID, key, book)
		market.Outcomes = []models.Outcome{
			{Name: event.HomeTeam, Price: vigPrice(p), Point: &home},
			{Name: event.AwayTeam, Price: vigPrice(1 - p), Point: &away},
		}
	case models.MarketTotals:
		base, ok := mockTotals[event.SportKey]
		if !ok {
			base = 50.5
		}
		offset := math.Round((newRand(event.ID, "total").Float64() - 0.5) * base * 0.1)
		total := base + offset
		over, under := total, total
		p := jitteredProb(0.5, event.ID, key, book)
		market.Outcomes = []models.Outcome{
			{Name: "Over", Price: vigPrice(p), Point: &over},
			{Name: "Under", Price: vigPrice(1 - p), Point: &under},
		}
	default:
		return models.Market{}, false
	}
	return market, true
}

func propLine(eventID, market, player string) float64 {
	base, ok := mockPropLines[market]
	if !ok {
		base = 10.5
	}
	offset := math.Round((newRand(eventID, market, player).Float64() - 0.5) * base * 0.4)
	return base + offset
}

// jitteredProb moves a fair probability by up to two points per book
func jitteredProb(fair float64, parts ...string) float64 {
	p := fair + (newRand(parts...).Float64()-0.5)*0.04
	return math.Min(math.Max(p, 0.05), 0.9)
}

// vigPrice converts a fair probability to a price carrying half the book's margin
func vigPrice(p float64) int {
	price, err := oddsmath.ProbabilityToAmerican(p * (1 + mockVig/2))
	if err != nil {
		return -110
	}
	return price
}

func mockPlayers(eventID string) []string {
	rng := newRand(eventID, "players")
	players := make([]string, 0, mockPlayersPerProp)
	seen := make(map[string]bool)
	for len(players) < mockPlayersPerProp {
		name := mockFirstNames[rng.Intn(len(mockFirstNames))] + " " + mockLastNames[rng.Intn(len(mockLastNames))]
		if !seen[name] {
			seen[name] = true
			players = append(players, name)
		}
	}
	return players
}

func teamsFor(sportKey string) []string {
	if teams, ok := mockTeams[sportKey]; ok {
		return teams
	}
	teams := make([]string, 12)
	for i := range teams {
		teams[i] = fmt.Sprintf("Team %c", 'A'+i)
	}
	return teams
}

func sportTitle(sportKey string) string {
	parts := strings.Split(sportKey, "_")
	return strings.ToUpper(parts[len(parts)-1])
}

func bookTitle(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func hash64(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

func newRand(parts ...string) *rand.Rand {
	return rand.New(rand.NewSource(int64(hash64(parts...))))
}

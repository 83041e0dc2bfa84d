package merge_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/ev-engine/internal/merge"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
)

var commence = time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC)

func event(id string) models.Event {
	return models.Event{ID: id, SportKey: "basketball_nba", CommenceTime: commence, HomeTeam: "Home", AwayTeam: "Away"}
}

func h2h(home, away int) models.Market {
	return models.Market{Key: "h2h", Outcomes: []models.Outcome{{Name: "Home", Price: home}, {Name: "Away", Price: away}}}
}

func spreads(line float64, price int) models.Market {
	home, away := line, -line
	return models.Market{Key: "spreads", Outcomes: []models.Outcome{
		{Name: "Home", Price: price, Point: &home},
		{Name: "Away", Price: price, Point: &away},
	}}
}

func TestOdds_UnionsMarketsForSameBookmaker(t *testing.T) {
	regionA := merge.RegionOdds{Region: "us", Events: []models.EventOdds{{
		Event:      event("evt1"),
		Bookmakers: []models.BookmakerQuote{{Key: "X", Markets: []models.Market{h2h(-120, 100)}}},
	}}}
	regionB := merge.RegionOdds{Region: "eu", Events: []models.EventOdds{{
		Event:      event("evt1"),
		Bookmakers: []models.BookmakerQuote{{Key: "X", Markets: []models.Market{spreads(-2.5, -110)}}},
	}}}

	merged := merge.Odds([]merge.RegionOdds{regionA, regionB})
	require.Len(t, merged, 1)
	require.Len(t, merged[0].Bookmakers, 1)

	book := merged[0].Bookmakers[0]
	assert.Equal(t, "X", book.Key)
	require.Len(t, book.Markets, 2)
	assert.Equal(t, "h2h", book.Markets[0].Key)
	assert.Equal(t, "spreads", book.Markets[1].Key)
	assert.Equal(t, "eu", book.Region)
	assert.Equal(t, []string{"us", "eu"}, book.Regions)
}

func TestOdds_DeduplicatesMarketCollisions(t *testing.T) {
	stale := h2h(-120, 100)
	stale.LastUpdate = commence.Add(-2 * time.Hour)
	fresh := h2h(-130, 110)
	fresh.LastUpdate = commence.Add(-time.Hour)

	a := merge.RegionOdds{Region: "us", Events: []models.EventOdds{{
		Event: event("evt1"), Bookmakers: []models.BookmakerQuote{{Key: "X", Markets: []models.Market{stale}}},
	}}}
	b := merge.RegionOdds{Region: "us2", Events: []models.EventOdds{{
		Event: event("evt1"), Bookmakers: []models.BookmakerQuote{{Key: "X", Markets: []models.Market{fresh}}},
	}}}

	for _, order := range [][]merge.RegionOdds{{a, b}, {b, a}} {
		merged := merge.Odds(order)
		require.Len(t, merged, 1)
		markets := merged[0].Bookmakers[0].Markets
		require.Len(t, markets, 1)
		assert.Equal(t, -130, markets[0].Outcomes[0].Price)
	}
}

func TestOdds_AlternateMarketsKeptSeparately(t *testing.T) {
	alt := spreads(-5.5, 150)
	alt.IsAlternate = true

	a := merge.RegionOdds{Region: "us", Events: []models.EventOdds{{
		Event: event("evt1"), Bookmakers: []models.BookmakerQuote{{Key: "X", Markets: []models.Market{spreads(-2.5, -110)}}},
	}}}
	b := merge.RegionOdds{Region: "eu", Events: []models.EventOdds{{
		Event: event("evt1"), Bookmakers: []models.BookmakerQuote{{Key: "X", Markets: []models.Market{alt}}},
	}}}

	markets := merge.Odds([]merge.RegionOdds{a, b})[0].Bookmakers[0].Markets
	require.Len(t, markets, 2)
	assert.False(t, markets[0].IsAlternate)
	assert.True(t, markets[1].IsAlternate)
}

func TestOdds_CommutativeApartFromRegionTag(t *testing.T) {
	a := merge.RegionOdds{Region: "us", Events: []models.EventOdds{
		{Event: event("evt1"), Bookmakers: []models.BookmakerQuote{
			{Key: "draftkings", Markets: []models.Market{h2h(-120, 100)}},
			{Key: "fanduel", Markets: []models.Market{h2h(-115, -105)}},
		}},
		{Event: event("evt2"), Bookmakers: []models.BookmakerQuote{
			{Key: "draftkings", Markets: []models.Market{h2h(150, -170)}},
		}},
	}}
	b := merge.RegionOdds{Region: "eu", Events: []models.EventOdds{
		{Event: event("evt1"), Bookmakers: []models.BookmakerQuote{
			{Key: "pinnacle", Markets: []models.Market{h2h(-118, 104)}},
			{Key: "draftkings", Markets: []models.Market{spreads(-1.5, -110)}},
		}},
	}}

	ab := merge.Odds([]merge.RegionOdds{a, b})
	ba := merge.Odds([]merge.RegionOdds{b, a})

	strip := func(events []models.EventOdds) []models.EventOdds {
		for i := range events {
			for j := range events[i].Bookmakers {
				events[i].Bookmakers[j].Region = ""
				events[i].Bookmakers[j].Regions = nil
			}
		}
		return events
	}
	assert.Equal(t, strip(ab), strip(ba))

	require.Len(t, ab, 2)
	assert.Len(t, ab[0].Bookmakers, 3)
}

func TestOdds_CollisionWithEqualTimestampsIgnoresRegionOrder(t *testing.T) {
	us := merge.RegionOdds{Region: "us", Events: []models.EventOdds{{
		Event:      event("evt1"),
		Bookmakers: []models.BookmakerQuote{{Key: "X", Markets: []models.Market{h2h(-120, 100)}}},
	}}}
	eu := merge.RegionOdds{Region: "eu", Events: []models.EventOdds{{
		Event:      event("evt1"),
		Bookmakers: []models.BookmakerQuote{{Key: "X", Markets: []models.Market{h2h(-140, 120)}}},
	}}}

	for _, order := range [][]merge.RegionOdds{{us, eu}, {eu, us}} {
		merged := merge.Odds(order)
		require.Len(t, merged, 1)
		require.Len(t, merged[0].Bookmakers, 1)

		markets := merged[0].Bookmakers[0].Markets
		require.Len(t, markets, 1)
		assert.Equal(t, -140, markets[0].Outcomes[0].Price)
		assert.Equal(t, 120, markets[0].Outcomes[1].Price)
	}
}

func TestOdds_EventsAbsentFromAllRegionsDropped(t *testing.T) {
	assert.Empty(t, merge.Odds(nil))
	assert.Empty(t, merge.Odds([]merge.RegionOdds{{Region: "us"}, {Region: "eu"}}))

	only := merge.Odds([]merge.RegionOdds{
		{Region: "us"},
		{Region: "eu", Events: []models.EventOdds{{Event: event("evt9")}}},
	})
	require.Len(t, only, 1)
	assert.Equal(t, "evt9", only[0].ID)
}

func TestOdds_PicksUpLateEventState(t *testing.T) {
	done := true
	withScores := event("evt1")
	withScores.Completed = &done
	withScores.Scores = []models.Score{{Name: "Home", Score: "101"}}

	merged := merge.Odds([]merge.RegionOdds{
		{Region: "us", Events: []models.EventOdds{{Event: event("evt1")}}},
		{Region: "eu", Events: []models.EventOdds{{Event: withScores}}},
	})
	require.Len(t, merged, 1)
	assert.True(t, merged[0].IsCompleted())
	assert.Len(t, merged[0].Scores, 1)
}

func TestProps(t *testing.T) {
	point := 21.5
	points := models.Market{Key: "player_points", Outcomes: []models.Outcome{
		{Name: "Over", Price: -115, Point: &point, Description: "Jalen Brown"},
		{Name: "Under", Price: -105, Point: &point, Description: "Jalen Brown"},
	}}
	rebounds := models.Market{Key: "player_rebounds", Outcomes: points.Outcomes}

	merged := merge.Props([]merge.RegionProps{
		{Region: "us", Props: &models.PlayerProps{EventOdds: models.EventOdds{
			Event: event("evt1"), Bookmakers: []models.BookmakerQuote{{Key: "fanduel", Markets: []models.Market{points}}},
		}}},
		{Region: "us2", Props: nil},
		{Region: "eu", Props: &models.PlayerProps{EventOdds: models.EventOdds{
			Event: event("evt1"), Bookmakers: []models.BookmakerQuote{{Key: "fanduel", Markets: []models.Market{rebounds, points}}},
		}}},
	})
	require.NotNil(t, merged)
	require.Len(t, merged.Bookmakers, 1)
	assert.Len(t, merged.Bookmakers[0].Markets, 2)
	assert.Equal(t, []string{"us", "eu"}, merged.Bookmakers[0].Regions)

	assert.Nil(t, merge.Props([]merge.RegionProps{{Region: "us"}}))
}

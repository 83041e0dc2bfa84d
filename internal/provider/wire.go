package provider

import (
	"math"
	"time"

	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/oddsmath"
)

// Wire shapes of the provider's v4 JSON. Converted to models at the boundary
// so nothing downstream sees loosely typed payloads.

type wireSport struct {
	Key          string `json:"key"`
	Group        string `json:"group"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	HasOutrights bool   `json:"has_outrights"`
}

type wireScore struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}

type wireOutcome struct {
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Point       *float64 `json:"point"`
	Description string   `json:"description"`
}

type wireMarket struct {
	Key        string        `json:"key"`
	LastUpdate time.Time     `json:"last_update"`
	Outcomes   []wireOutcome `json:"outcomes"`
}

type wireBookmaker struct {
	Key        string       `json:"key"`
	Title      string       `json:"title"`
	LastUpdate time.Time    `json:"last_update"`
	Markets    []wireMarket `json:"markets"`
}

type wireEvent struct {
	ID           string          `json:"id"`
	SportKey     string          `json:"sport_key"`
	SportTitle   string          `json:"sport_title"`
	CommenceTime time.Time       `json:"commence_time"`
	HomeTeam     string          `json:"home_team"`
	AwayTeam     string          `json:"away_team"`
	Completed    *bool           `json:"completed"`
	Scores       []wireScore     `json:"scores"`
	Bookmakers   []wireBookmaker `json:"bookmakers"`
}

func (s wireSport) toModel() models.Sport {
	return models.Sport{
		Key:          s.Key,
		Group:        s.Group,
		Title:        s.Title,
		Description:  s.Description,
		Active:       s.Active,
		HasOutrights: s.HasOutrights,
	}
}

func (e wireEvent) toEvent() models.Event {
	event := models.Event{
		ID:           e.ID,
		SportKey:     e.SportKey,
		SportTitle:   e.SportTitle,
		CommenceTime: e.CommenceTime,
		HomeTeam:     e.HomeTeam,
		AwayTeam:     e.AwayTeam,
		Completed:    e.Completed,
	}
	for _, s := range e.Scores {
		event.Scores = append(event.Scores, models.Score{Name: s.Name, Score: s.Score})
	}
	return event
}

// toEventOdds converts an event and tags every bookmaker with the region it
// was fetched from. Outcomes with an illegal price are dropped, as are
// markets and bookmakers left empty by that.
func (e wireEvent) toEventOdds(region string) models.EventOdds {
	odds := models.EventOdds{Event: e.toEvent()}

	for _, wb := range e.Bookmakers {
		book := models.BookmakerQuote{
			Key:        wb.Key,
			Title:      wb.Title,
			LastUpdate: wb.LastUpdate,
		}
		if region != "" {
			book.Region = region
			book.Regions = []string{region}
		}

		for _, wm := range wb.Markets {
			market := models.Market{
				Key:         wm.Key,
				LastUpdate:  wm.LastUpdate,
				IsAlternate: models.IsAlternateMarket(wm.Key),
			}
			for _, wo := range wm.Outcomes {
				price := int(math.Round(wo.Price))
				if !oddsmath.IsValidAmerican(price) {
					continue
				}
				market.Outcomes = append(market.Outcomes, models.Outcome{
					Name:        wo.Name,
					Price:       price,
					Point:       wo.Point,
					Description: wo.Description,
				})
			}
			if len(market.Outcomes) > 0 {
				book.Markets = append(book.Markets, market)
			}
		}

		if len(book.Markets) > 0 {
			odds.Bookmakers = append(odds.Bookmakers, book)
		}
	}

	return odds
}

type wireError struct {
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
}

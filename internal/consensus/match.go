package consensus

import (
	"math"

	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
)

// PointTolerance absorbs float noise on half-point lines
const PointTolerance = 0.01

// quote is one bookmaker's price for the target outcome
type quote struct {
	book  string
	price int
}

// collect returns at most one price per bookmaker for target, skipping target.ExcludeBook
func collect(target models.Target, books []models.BookmakerQuote) []quote {
	var quotes []quote
	for _, book := range books {
		if book.Key == target.ExcludeBook {
			continue
		}
		if price, ok := priceFor(target, book); ok {
			quotes = append(quotes, quote{book: book.Key, price: price})
		}
	}
	return quotes
}

func priceFor(target models.Target, book models.BookmakerQuote) (int, bool) {
	for _, market := range book.Markets {
		if market.Key != target.MarketKey {
			continue
		}
		for _, o := range market.Outcomes {
			if Matches(target, o) {
				return o.Price, true
			}
		}
	}
	return 0, false
}

// Matches reports whether o prices the same selection as target. Point
// markets must agree on the line within PointTolerance; props must also
// agree on the player.
func Matches(target models.Target, o models.Outcome) bool {
	if o.Name != target.OutcomeName {
		return false
	}
	if target.Description != "" && o.Description != target.Description {
		return false
	}
	if target.Point == nil {
		return true
	}
	return o.Point != nil && math.Abs(*o.Point-*target.Point) <= PointTolerance
}

func contributors(quotes []quote, weights []float64) []models.Contributor {
	out := make([]models.Contributor, len(quotes))
	for i, q := range quotes {
		out[i] = models.Contributor{BookKey: q.book, Price: q.price}
		if weights != nil {
			out[i].Weight = weights[i]
		}
	}
	return out
}

func prices(quotes []quote) []float64 {
	out := make([]float64, len(quotes))
	for i, q := range quotes {
		out[i] = float64(q.price)
	}
	return out
}

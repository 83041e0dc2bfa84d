package consensus

import (
	"gonum.org/v1/gonum/stat"

	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/oddsmath"
)

// DefaultSharpReference is the bookmaker whose price is taken verbatim when present
const DefaultSharpReference = "pinnacle"

// DefaultSharpBooks are used when no sharp list is configured or supplied
var DefaultSharpBooks = []string{"pinnacle", "circa", "bookmaker"}

// Sharp anchors on the reference book, then the average of the sharp list,
// then falls back to the median of all books.
type Sharp struct {
	reference string
	books     map[string]bool
	fallback  *Simple
}

// NewSharp creates the sharp strategy
func NewSharp(reference string, sharpBooks []string) *Sharp {
	if reference == "" {
		reference = DefaultSharpReference
	}
	books := make(map[string]bool, len(sharpBooks))
	for _, b := range sharpBooks {
		books[b] = true
	}
	return &Sharp{
		reference: reference,
		books:     books,
		fallback:  NewSimple(),
	}
}

func (s *Sharp) Method() models.ConsensusMethod {
	return models.MethodSharp
}

func (s *Sharp) Consensus(target models.Target, books []models.BookmakerQuote) models.ConsensusResult {
	quotes := collect(target, books)

	for _, q := range quotes {
		if q.book == s.reference {
			return models.ConsensusResult{
				Price:        q.price,
				Method:       models.MethodSharp,
				Contributors: contributors([]quote{q}, nil),
			}
		}
	}

	var sharp []quote
	for _, q := range quotes {
		if s.books[q.book] {
			sharp = append(sharp, q)
		}
	}
	if len(sharp) > 0 {
		return models.ConsensusResult{
			Price:        oddsmath.SnapToLegal(stat.Mean(prices(sharp), nil)),
			Method:       models.MethodSharp,
			Contributors: contributors(sharp, nil),
		}
	}

	return s.fallback.Consensus(target, books)
}

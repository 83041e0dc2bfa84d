package consensus

import (
	"sort"

	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/oddsmath"
)

// Simple takes the median price across every other bookmaker
type Simple struct{}

// NewSimple creates the median strategy
func NewSimple() *Simple {
	return &Simple{}
}

func (s *Simple) Method() models.ConsensusMethod {
	return models.MethodSimple
}

func (s *Simple) Consensus(target models.Target, books []models.BookmakerQuote) models.ConsensusResult {
	quotes := collect(target, books)
	if len(quotes) == 0 {
		return models.ConsensusResult{Method: models.MethodSimple}
	}

	return models.ConsensusResult{
		Price:        oddsmath.SnapToLegal(median(prices(quotes))),
		Method:       models.MethodSimple,
		Contributors: contributors(quotes, nil),
	}
}

// median averages the two middle values for even counts
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

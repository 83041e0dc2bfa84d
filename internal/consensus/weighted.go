package consensus

import (
	"gonum.org/v1/gonum/stat"

	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/oddsmath"
)

const (
	// MinWeightedContributors is the fewest books a weighted price is built from
	MinWeightedContributors = 2

	// missingReferenceBoost scales every weight when the sharp reference is absent
	missingReferenceBoost = 1.5
)

// Weighted averages every other bookmaker's price using a
// (sport, market, bookmaker) weight table and quantizes the result.
type Weighted struct {
	weights   WeightTable
	reference string
}

// NewWeighted creates the weighted strategy. A nil table uses DefaultWeights.
func NewWeighted(weights WeightTable, reference string) *Weighted {
	if weights == nil {
		weights = DefaultWeights()
	}
	if reference == "" {
		reference = DefaultSharpReference
	}
	return &Weighted{weights: weights, reference: reference}
}

func (w *Weighted) Method() models.ConsensusMethod {
	return models.MethodWeighted
}

func (w *Weighted) Consensus(target models.Target, books []models.BookmakerQuote) models.ConsensusResult {
	quotes := collect(target, books)
	if len(quotes) < MinWeightedContributors {
		return models.ConsensusResult{Method: models.MethodWeighted}
	}

	hasReference := false
	weights := make([]float64, len(quotes))
	for i, q := range quotes {
		weights[i] = w.weights.Weight(target.SportKey, target.MarketKey, q.book)
		if q.book == w.reference {
			hasReference = true
		}
	}
	if !hasReference {
		for i := range weights {
			weights[i] *= missingReferenceBoost
		}
	}

	return models.ConsensusResult{
		Price:        oddsmath.QuantizeAmerican(stat.Mean(prices(quotes), weights)),
		Method:       models.MethodWeighted,
		Contributors: contributors(quotes, weights),
	}
}

package consensus

import (
	"fmt"

	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
)

// Options configures strategy construction
type Options struct {
	SharpReference string      // Book taken verbatim by the sharp strategy
	SharpBooks     []string    // Averaged when the reference is absent
	Weights        WeightTable // nil uses DefaultWeights
}

// New returns the strategy for method
func New(method models.ConsensusMethod, opts Options) (contracts.ConsensusStrategy, error) {
	switch method {
	case models.MethodSimple:
		return NewSimple(), nil
	case models.MethodSharp:
		books := opts.SharpBooks
		if len(books) == 0 {
			books = DefaultSharpBooks
		}
		return NewSharp(opts.SharpReference, books), nil
	case models.MethodWeighted:
		return NewWeighted(opts.Weights, opts.SharpReference), nil
	default:
		return nil, fmt.Errorf("unknown consensus method %q", method)
	}
}

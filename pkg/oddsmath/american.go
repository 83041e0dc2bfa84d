package oddsmath

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidOdds is returned for American prices with magnitude below 100
	ErrInvalidOdds = errors.New("invalid American odds")

	// ErrInvalidProbability is returned for probabilities outside (0, 1)
	ErrInvalidProbability = errors.New("invalid probability")
)

// IsValidAmerican reports whether american is a legal American price (|odds| >= 100)
func IsValidAmerican(american int) bool {
	return american >= 100 || american <= -100
}

// AmericanToDecimal converts American odds to decimal odds
// American +150 → Decimal 2.50
// American -150 → Decimal 1.67
func AmericanToDecimal(american int) (float64, error) {
	if !IsValidAmerican(american) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidOdds, american)
	}

	if american > 0 {
		return (float64(american) / 100.0) + 1.0, nil
	}

	return (100.0 / float64(-american)) + 1.0, nil
}

// DecimalToAmerican converts decimal odds to American odds
// Decimal 2.50 → American +150
// Decimal 1.67 → American -150
func DecimalToAmerican(decimal float64) (int, error) {
	if decimal <= 1.0 {
		return 0, fmt.Errorf("invalid decimal odds %.4f: must be > 1.0", decimal)
	}

	if decimal >= 2.0 {
		return int(math.Round((decimal - 1.0) * 100.0)), nil
	}

	return int(math.Round(-100.0 / (decimal - 1.0))), nil
}

// ImpliedProbability converts American odds to the implied win probability
// +150 → 0.40, -110 → 0.5238
func ImpliedProbability(american int) (float64, error) {
	if !IsValidAmerican(american) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidOdds, american)
	}

	if american > 0 {
		return 100.0 / (float64(american) + 100.0), nil
	}

	abs := float64(-american)
	return abs / (abs + 100.0), nil
}

// ProbabilityToAmerican converts a probability strictly between 0 and 1 to American odds
func ProbabilityToAmerican(probability float64) (int, error) {
	if probability <= 0 || probability >= 1 {
		return 0, fmt.Errorf("%w: %f", ErrInvalidProbability, probability)
	}

	return DecimalToAmerican(1.0 / probability)
}

// SnapToLegal maps a raw price onto the American scale.
// Magnitudes below 100 are not tradeable prices: non-negative values snap to +100,
// negative values to -110.
func SnapToLegal(raw float64) int {
	if math.Abs(raw) < 100 {
		if raw >= 0 {
			return 100
		}
		return -110
	}
	return int(math.Round(raw))
}

// QuantizeAmerican rounds a raw averaged price to the nearest multiple of 5,
// snapping sub-100 magnitudes with SnapToLegal.
func QuantizeAmerican(raw float64) int {
	if math.Abs(raw) < 100 {
		return SnapToLegal(raw)
	}

	return int(math.Round(raw/5.0) * 5)
}

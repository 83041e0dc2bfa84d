package oddsmath

import "fmt"

// ExpectedValuePercent returns the EV of a 1-unit stake at offeredOdds, in percent,
// when the true win probability is fairProbability.
//
// EV% = (fairProbability × decimal(offered) − 1) × 100
//
// Example:
// Offered +150 (decimal 2.5), fair +120 (45.45%)
// EV% = (0.4545 × 2.5 − 1) × 100 = 13.64%
func ExpectedValuePercent(offeredOdds int, fairProbability float64) (float64, error) {
	if fairProbability <= 0 || fairProbability >= 1 {
		return 0, fmt.Errorf("%w: %f", ErrInvalidProbability, fairProbability)
	}

	decimal, err := AmericanToDecimal(offeredOdds)
	if err != nil {
		return 0, err
	}

	return (fairProbability*decimal - 1.0) * 100.0, nil
}

// ProbabilityEdge returns how far the fair win probability sits above the
// offered price's implied probability, as a fraction (0.0545 = 5.45 points).
//
// Example:
// Offered +150 (40.00%), fair +120 (45.45%) → 0.0545
func ProbabilityEdge(fairProbability, impliedProbability float64) (float64, error) {
	for _, p := range []float64{fairProbability, impliedProbability} {
		if p <= 0 || p >= 1 {
			return 0, fmt.Errorf("%w: %f", ErrInvalidProbability, p)
		}
	}
	return fairProbability - impliedProbability, nil
}

// ExpectedProfit returns the expected dollar result of staking stake at
// offeredOdds when the true win probability is fairProbability.
func ExpectedProfit(stake float64, offeredOdds int, fairProbability float64) (float64, error) {
	evPct, err := ExpectedValuePercent(offeredOdds, fairProbability)
	if err != nil {
		return 0, err
	}
	return stake * evPct / 100.0, nil
}

// CalculateHoldPercentage calculates the bookmaker margin (overround) of a market
// from the American prices of all its outcomes.
// Hold% = (Σ implied − 1) × 100
//
// Example:
// -110 / -110 → 52.38% + 52.38% = 104.76% → 4.76% hold
func CalculateHoldPercentage(prices []int) (float64, error) {
	if len(prices) < 2 {
		return 0, fmt.Errorf("need at least 2 outcomes, got %d", len(prices))
	}

	total := 0.0
	for _, price := range prices {
		prob, err := ImpliedProbability(price)
		if err != nil {
			return 0, err
		}
		total += prob
	}

	return (total - 1.0) * 100.0, nil
}

package kelly

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/models"
	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/oddsmath"
)

var (
	// ErrInvalidBankroll is returned for a non-positive bankroll
	ErrInvalidBankroll = errors.New("bankroll must be positive")

	// ErrInvalidFraction is returned for a Kelly multiplier outside (0, 1]
	ErrInvalidFraction = errors.New("kelly fraction must be in (0, 1]")
)

// highStakeShare flags recommendations above this share of bankroll
const highStakeShare = 0.05

// Stake sizes a wager at offeredOdds, treating referenceOdds' implied
// probability as the true win probability.
func Stake(bankroll float64, offeredOdds, referenceOdds int, fraction float64) (*models.StakeResult, error) {
	p, err := oddsmath.ImpliedProbability(referenceOdds)
	if err != nil {
		return nil, fmt.Errorf("reference odds: %w", err)
	}
	return StakeFromProbability(bankroll, offeredOdds, p, fraction)
}

// StakeFromProbability sizes a wager at offeredOdds given a win probability
func StakeFromProbability(bankroll float64, offeredOdds int, probability, fraction float64) (*models.StakeResult, error) {
	if bankroll <= 0 || math.IsNaN(bankroll) || math.IsInf(bankroll, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBankroll, bankroll)
	}
	if fraction <= 0 || fraction > 1 || math.IsNaN(fraction) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFraction, fraction)
	}
	if probability <= 0 || probability >= 1 || math.IsNaN(probability) {
		return nil, fmt.Errorf("%w: %v", oddsmath.ErrInvalidProbability, probability)
	}

	dec, err := oddsmath.AmericanToDecimal(offeredOdds)
	if err != nil {
		return nil, fmt.Errorf("offered odds: %w", err)
	}
	offeredProb, err := oddsmath.ImpliedProbability(offeredOdds)
	if err != nil {
		return nil, fmt.Errorf("offered odds: %w", err)
	}

	b := dec - 1.0 // Net odds
	q := 1.0 - probability
	fullKelly := (b*probability - q) / b

	applied := math.Max(fullKelly, 0) * fraction
	if applied > fraction {
		applied = fraction
	}

	dollars, _ := decimal.NewFromFloat(bankroll).
		Mul(decimal.NewFromFloat(applied)).
		Round(2).
		Float64()

	evPct, err := oddsmath.ExpectedValuePercent(offeredOdds, probability)
	if err != nil {
		return nil, fmt.Errorf("offered odds: %w", err)
	}
	profit, err := oddsmath.ExpectedProfit(dollars, offeredOdds, probability)
	if err != nil {
		return nil, fmt.Errorf("offered odds: %w", err)
	}
	expected, _ := decimal.NewFromFloat(profit).Round(2).Float64()

	result := &models.StakeResult{
		StakeFraction:        applied,
		FullKellyFraction:    fullKelly,
		DollarAmount:         dollars,
		OfferedImpliedProb:   offeredProb,
		ReferenceImpliedProb: probability,
		EdgePercent:          evPct,
		ExpectedProfit:       expected,
	}

	if fullKelly <= 0 {
		result.Warnings = append(result.Warnings, "No edge at this price - stake is zero")
	}
	if applied > highStakeShare {
		result.Warnings = append(result.Warnings, "Recommended bet is >5% of bankroll - high variance")
	}

	return result, nil
}

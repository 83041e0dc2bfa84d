package oddsmath_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/oddsmath"
)

func TestAmericanToDecimal(t *testing.T) {
	tests := []struct {
		name     string
		american int
		want     float64
	}{
		{"Even odds +100", 100, 2.0},
		{"Underdog +150", 150, 2.5},
		{"Underdog +200", 200, 3.0},
		{"Favorite -110", -110, 1.909090909},
		{"Favorite -150", -150, 1.666666667},
		{"Heavy favorite -200", -200, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := oddsmath.AmericanToDecimal(tt.american)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestImpliedProbability(t *testing.T) {
	tests := []struct {
		name     string
		american int
		want     float64
	}{
		{"Even odds +100", 100, 0.50},
		{"Favorite -110", -110, 0.5238},
		{"Heavy favorite -200", -200, 0.6667},
		{"Underdog +150", 150, 0.40},
		{"Underdog +120", 120, 0.4545},
		{"Heavy underdog +300", 300, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := oddsmath.ImpliedProbability(tt.american)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestImpliedProbability_RangeAndMonotonicity(t *testing.T) {
	prev := 1.0
	// Walk from heavy favorite through even money to long shot: probability must fall.
	prices := []int{-1000, -500, -250, -150, -110, -105, -100, 100, 105, 120, 150, 300, 1000, 5000}
	for _, price := range prices {
		prob, err := oddsmath.ImpliedProbability(price)
		require.NoError(t, err)
		assert.Greater(t, prob, 0.0, "price %d", price)
		assert.Less(t, prob, 1.0, "price %d", price)
		assert.LessOrEqual(t, prob, prev, "price %d", price)
		prev = prob
	}

	fav, _ := oddsmath.ImpliedProbability(-150)
	dog, _ := oddsmath.ImpliedProbability(150)
	assert.Greater(t, fav, dog)
}

func TestProbabilityRoundTrip(t *testing.T) {
	for p := 0.05; p < 0.96; p += 0.05 {
		american, err := oddsmath.ProbabilityToAmerican(p)
		require.NoError(t, err)

		back, err := oddsmath.ImpliedProbability(american)
		require.NoError(t, err)

		// American prices are integers, so a one-point rounding error is the tolerance
		assert.InDelta(t, p, back, 0.005, "p=%.2f american=%d", p, american)
	}
}

func TestDecimalToAmerican(t *testing.T) {
	tests := []struct {
		name    string
		decimal float64
		want    int
	}{
		{"Even odds 2.0", 2.0, 100},
		{"Underdog 2.5", 2.5, 150},
		{"Favorite 1.5", 1.5, -200},
		{"Favorite 1.909", 1.909090909, -110},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := oddsmath.DecimalToAmerican(tt.decimal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInvalidInputs(t *testing.T) {
	for _, price := range []int{0, 50, -99, 99} {
		_, err := oddsmath.AmericanToDecimal(price)
		assert.ErrorIs(t, err, oddsmath.ErrInvalidOdds, "price %d", price)

		_, err = oddsmath.ImpliedProbability(price)
		assert.ErrorIs(t, err, oddsmath.ErrInvalidOdds, "price %d", price)
	}

	for _, p := range []float64{0, 1, -0.5, 1.5} {
		_, err := oddsmath.ProbabilityToAmerican(p)
		assert.ErrorIs(t, err, oddsmath.ErrInvalidProbability, "p %f", p)
	}

	_, err := oddsmath.DecimalToAmerican(1.0)
	assert.Error(t, err)
}

func TestQuantizeAmerican(t *testing.T) {
	tests := []struct {
		raw  float64
		want int
	}{
		{-112.4, -110},
		{-112.6, -115},
		{147.4, 145},
		{148, 150},
		{100, 100},
		{-100, -100},
		{99.9, 100},
		{42, 100},
		{0, 100},
		{-42, -110},
		{-99.9, -110},
	}

	for _, tt := range tests {
		got := oddsmath.QuantizeAmerican(tt.raw)
		assert.Equal(t, tt.want, got, "raw=%.2f", tt.raw)
	}
}

func TestQuantizeAmerican_AlwaysLegal(t *testing.T) {
	for raw := -600.0; raw <= 600.0; raw += 0.7 {
		got := oddsmath.QuantizeAmerican(raw)
		assert.True(t, oddsmath.IsValidAmerican(got), "raw=%.2f got=%d", raw, got)
		if math.Abs(raw) >= 100 {
			assert.Zero(t, got%5, "raw=%.2f got=%d", raw, got)
		} else {
			assert.Contains(t, []int{100, -110}, got)
		}
	}
}

func TestSnapToLegal(t *testing.T) {
	assert.Equal(t, 100, oddsmath.SnapToLegal(12))
	assert.Equal(t, -110, oddsmath.SnapToLegal(-12))
	assert.Equal(t, -107, oddsmath.SnapToLegal(-107.4))
	assert.Equal(t, 133, oddsmath.SnapToLegal(132.5))
}

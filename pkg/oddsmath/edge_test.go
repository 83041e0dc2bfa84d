package oddsmath_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/ev-engine/pkg/oddsmath"
)

func TestExpectedValuePercent_AgainstConsensus(t *testing.T) {
	tests := []struct {
		name      string
		offered   int
		consensus int
		want      float64
	}{
		{"Underdog beats consensus", 150, 120, 13.636},
		{"Same price carries the vig back", -110, -110, 0.0},
		{"Worse price is -EV", 110, 150, -16.0},
		{"Favorite improvement", -105, -120, 6.494},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fair, err := oddsmath.ImpliedProbability(tt.consensus)
			require.NoError(t, err)
			got, err := oddsmath.ExpectedValuePercent(tt.offered, fair)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.01)
		})
	}
}

func TestExpectedValuePercent_ConvergesAtFairPrice(t *testing.T) {
	fair := 0.40 // +150 is the no-vig price
	prev := 1e9
	for _, offered := range []int{190, 175, 165, 160, 155, 151} {
		ev, err := oddsmath.ExpectedValuePercent(offered, fair)
		require.NoError(t, err)
		assert.Less(t, ev, prev)
		prev = ev
	}

	ev, err := oddsmath.ExpectedValuePercent(150, fair)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, ev, 1e-9)
}

func TestExpectedValuePercent_Invalid(t *testing.T) {
	_, err := oddsmath.ExpectedValuePercent(150, 0)
	assert.ErrorIs(t, err, oddsmath.ErrInvalidProbability)

	_, err = oddsmath.ExpectedValuePercent(50, 0.5)
	assert.ErrorIs(t, err, oddsmath.ErrInvalidOdds)
}

func TestProbabilityEdge(t *testing.T) {
	edge, err := oddsmath.ProbabilityEdge(100.0/220.0, 0.40)
	require.NoError(t, err)
	assert.InDelta(t, 0.0545, edge, 1e-4)

	edge, err = oddsmath.ProbabilityEdge(0.45, 0.50)
	require.NoError(t, err)
	assert.InDelta(t, -0.05, edge, 1e-9)

	_, err = oddsmath.ProbabilityEdge(1.2, 0.5)
	assert.ErrorIs(t, err, oddsmath.ErrInvalidProbability)
}

func TestExpectedProfit(t *testing.T) {
	// $100 at +150 with a 45.45% fair probability
	profit, err := oddsmath.ExpectedProfit(100, 150, 100.0/220.0)
	require.NoError(t, err)
	assert.InDelta(t, 13.64, profit, 0.01)

	profit, err = oddsmath.ExpectedProfit(0, 150, 0.5)
	require.NoError(t, err)
	assert.Zero(t, profit)

	_, err = oddsmath.ExpectedProfit(100, 50, 0.5)
	assert.ErrorIs(t, err, oddsmath.ErrInvalidOdds)
}

func TestCalculateHoldPercentage(t *testing.T) {
	tests := []struct {
		name   string
		prices []int
		want   float64
	}{
		{"Standard -110/-110", []int{-110, -110}, 4.76},
		{"Heavy vig -120/-120", []int{-120, -120}, 9.09},
		{"No vig +100/+100", []int{100, 100}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := oddsmath.CalculateHoldPercentage(tt.prices)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.01)
		})
	}

	_, err := oddsmath.CalculateHoldPercentage([]int{-110})
	assert.Error(t, err)
}

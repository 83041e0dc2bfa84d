package models

// StakeResult is a fractional Kelly recommendation for one wager
type StakeResult struct {
	StakeFraction        float64  `json:"stake_fraction"`      // Applied fraction of bankroll
	FullKellyFraction    float64  `json:"full_kelly_fraction"` // Unscaled f*, may be negative
	DollarAmount         float64  `json:"dollar_amount"`
	OfferedImpliedProb   float64  `json:"offered_implied_prob"`
	ReferenceImpliedProb float64  `json:"reference_implied_prob"`
	EdgePercent          float64  `json:"edge_pct"`
	ExpectedProfit       float64  `json:"expected_profit"` // Expected dollar result of DollarAmount
	Warnings             []string `json:"warnings,omitempty"`
}

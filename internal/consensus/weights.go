package consensus

// Wildcard matches any sport or market in a weight table entry
const Wildcard = "*"

// WeightKey scopes a bookmaker weight to a sport and market
type WeightKey struct {
	Sport  string
	Market string
	Book   string
}

// WeightTable maps scoped bookmakers to consensus weights
type WeightTable map[WeightKey]float64

// Weight resolves the most specific entry for (sport, market, book),
// defaulting to 1.0.
func (t WeightTable) Weight(sport, market, book string) float64 {
	for _, k := range []WeightKey{
		{sport, market, book},
		{sport, Wildcard, book},
		{Wildcard, market, book},
		{Wildcard, Wildcard, book},
	} {
		if w, ok := t[k]; ok && w > 0 {
			return w
		}
	}
	return 1.0
}

// DefaultWeights returns the static weight table
func DefaultWeights() WeightTable {
	return WeightTable{
		// Market makers
		{Wildcard, Wildcard, "pinnacle"}:      2.0,
		{Wildcard, Wildcard, "circa"}:         1.8,
		{Wildcard, Wildcard, "bookmaker"}:     1.6,
		{Wildcard, Wildcard, "betonlineag"}:   1.3,
		{Wildcard, Wildcard, "betfair_ex_eu"}: 1.3,
		{Wildcard, Wildcard, "betfair_ex_uk"}: 1.3,

		// Books that move first on NBA sides and totals
		{"basketball_nba", "h2h", "pinnacle"}:        2.5,
		{"basketball_nba", "spreads", "pinnacle"}:    2.5,
		{"basketball_nba", "totals", "circa"}:        2.0,
		{"americanfootball_nfl", "spreads", "circa"}: 2.2,

		// Player props: retail books with deep prop menus
		{Wildcard, "player_points", "fanduel"}:    1.2,
		{Wildcard, "player_points", "draftkings"}: 1.2,

		// Recreational books
		{Wildcard, Wildcard, "betmgm"}:         0.8,
		{Wildcard, Wildcard, "williamhill_us"}: 0.8,
		{Wildcard, Wildcard, "betrivers"}:      0.7,
		{Wildcard, Wildcard, "fliff"}:          0.6,
	}
}

package valuation

// PortfolioMetrics is a point-in-time rollup of a holding set.
// AnnualDividend is a run-rate projection (current per-share rate
// annualized), not trailing cash actually received.
type PortfolioMetrics struct {
	AsOf            string  `json:"as_of"`
	TotalValue      float64 `json:"total_value"`
	TotalInvestment float64 `json:"total_investment"`
	AnnualDividend  float64 `json:"annual_dividend"`
	Yield           float64 `json:"yield"`
	ROI             float64 `json:"roi"`
	PricedSymbols   int     `json:"priced_symbols"`
	MissingSymbols  int     `json:"missing_symbols"`
}

// DailyChange is the day-over-day value movement of a holding set.
// Symbols missing either price are excluded from the change sum; the
// percentage denominator is the prior-day value of every symbol with a
// prior-day price.
type DailyChange struct {
	Change  float64 `json:"change"`
	Percent float64 `json:"percent"`
}

// RiskMetrics is a heuristic risk and diversification summary. The
// numbers are coarse estimates derived from holding counts and static
// sector/beta tables - deliberately not statistics computed from
// historical price series. See HeuristicEstimator.
type RiskMetrics struct {
	Volatility           float64            `json:"volatility"`
	Beta                 float64            `json:"beta"`
	MaxDrawdown          float64            `json:"max_drawdown"`
	SectorConcentration  map[string]float64 `json:"sector_concentration"`
	TopFiveConcentration float64            `json:"top_five_concentration"`
	Positions            int                `json:"positions"`
}

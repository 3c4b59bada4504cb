// Package trends samples the portfolio's value over a date range at an
// interval scaled to the range length, and summarizes growth of the
// sampled series.
package trends

// TrendPoint is one sampled snapshot of the portfolio.
type TrendPoint struct {
	Date            string  `json:"date"`
	TotalValue      float64 `json:"total_value"`
	TotalInvestment float64 `json:"total_investment"`
	AnnualDividend  float64 `json:"annual_dividend"`
	Yield           float64 `json:"yield"`
	LotValue        float64 `json:"lot_value"`
	RecurringValue  float64 `json:"recurring_value"`
	PricedSymbols   int     `json:"priced_symbols"`
	MissingSymbols  int     `json:"missing_symbols"`
}

// GrowthSummary condenses a sampled series into growth statistics.
type GrowthSummary struct {
	Start       string    `json:"start"`
	End         string    `json:"end"`
	Points      int       `json:"points"`
	CAGR        float64   `json:"cagr"`
	TrendSlope  float64   `json:"trend_slope"`
	Volatility  float64   `json:"volatility"`
	MaxDrawdown float64   `json:"max_drawdown"`
	Smoothed    []float64 `json:"smoothed,omitempty"`
}

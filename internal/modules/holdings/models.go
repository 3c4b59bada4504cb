package holdings

import "github.com/aristath/dividend-tracker/internal/domain"

// WeightedStockInfo is a derived, non-persisted rollup of the holdings
// for one (symbol, account, mode) partition. Lump-sum lots and
// recurring plans for the same symbol in the same account produce two
// separate entries - their cost-basis semantics differ and they are
// never merged.
type WeightedStockInfo struct {
	Symbol                   string                   `json:"symbol"`
	Account                  string                   `json:"account"`
	Recurring                bool                     `json:"recurring"`
	TotalShares              float64                  `json:"total_shares"`
	WeightedDividendPerShare float64                  `json:"weighted_dividend_per_share"`
	WeightedPurchasePrice    float64                  `json:"weighted_purchase_price"`
	DividendFrequency        domain.DividendFrequency `json:"dividend_frequency"`
	Holdings                 []domain.Holding         `json:"holdings"`
}

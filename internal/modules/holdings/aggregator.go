// Package holdings manages acquisition lots: persistence, HTTP
// handlers, and the aggregator that rolls raw lots up into per-symbol
// weighted summaries.
package holdings

import (
	"sort"

	"github.com/aristath/dividend-tracker/internal/domain"
	"github.com/rs/zerolog"
)

// Aggregator rolls raw holdings up into weighted per-symbol summaries.
// It is a pure computation over the holdings it is handed; a recurring
// holding's economics come entirely from its plan's executed
// transactions, its own Shares field is a placeholder and contributes
// nothing.
type Aggregator struct {
	log zerolog.Logger
}

// NewAggregator creates a new lot aggregator
func NewAggregator(log zerolog.Logger) *Aggregator {
	return &Aggregator{
		log: log.With().Str("service", "aggregator").Logger(),
	}
}

type partitionKey struct {
	symbol    string
	account   string
	recurring bool
}

// Aggregate partitions holdings by (symbol, account, mode) and computes
// a weighted summary per partition. An empty account filter matches all
// accounts. Output is sorted for deterministic display and testing.
func (a *Aggregator) Aggregate(hs []domain.Holding, accountFilter string) []WeightedStockInfo {
	partitions := make(map[partitionKey][]domain.Holding)
	var order []partitionKey

	for _, h := range hs {
		if accountFilter != "" && h.Account != accountFilter {
			continue
		}
		key := partitionKey{symbol: h.Symbol, account: h.Account, recurring: h.IsRecurring()}
		if _, seen := partitions[key]; !seen {
			order = append(order, key)
		}
		partitions[key] = append(partitions[key], h)
	}

	out := make([]WeightedStockInfo, 0, len(order))
	for _, key := range order {
		out = append(out, a.summarize(key, partitions[key]))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		if out[i].Account != out[j].Account {
			return out[i].Account < out[j].Account
		}
		return !out[i].Recurring && out[j].Recurring
	})

	return out
}

// summarize computes the weighted rollup for one partition.
func (a *Aggregator) summarize(key partitionKey, hs []domain.Holding) WeightedStockInfo {
	info := WeightedStockInfo{
		Symbol:    key.symbol,
		Account:   key.account,
		Recurring: key.recurring,
		Holdings:  hs,
	}

	// Dividend frequency comes from the first holding; all holdings for
	// one symbol within one account are assumed to share it.
	if len(hs) > 0 {
		info.DividendFrequency = hs[0].DividendFrequency
	}

	dividendWeighted := 0.0
	costWeighted := 0.0
	costShares := 0.0

	for _, h := range hs {
		shares := EffectiveShares(h)
		info.TotalShares += shares
		dividendWeighted += h.DividendPerShare * shares

		if h.IsRecurring() {
			// Every executed transaction has a known price.
			for _, tx := range h.Plan.Transactions {
				if tx.Executed {
					costWeighted += tx.Price * tx.Shares
					costShares += tx.Shares
				}
			}
		} else if h.PurchasePrice != nil {
			costWeighted += *h.PurchasePrice * h.Shares
			costShares += h.Shares
		}
		// Lots with unknown price are excluded from both numerator and
		// denominator, not treated as zero-cost.
	}

	if info.TotalShares > 0 {
		info.WeightedDividendPerShare = dividendWeighted / info.TotalShares
	}
	if costShares > 0 {
		info.WeightedPurchasePrice = costWeighted / costShares
	}

	return info
}

// EffectiveShares returns the share count a holding contributes: its
// own shares for a one-time lot, the sum of executed transaction shares
// for a recurring holding.
func EffectiveShares(h domain.Holding) float64 {
	if !h.IsRecurring() {
		return h.Shares
	}
	total := 0.0
	for _, tx := range h.Plan.Transactions {
		if tx.Executed {
			total += tx.Shares
		}
	}
	return total
}

// Package valuation computes point-in-time portfolio metrics: cost
// basis, market value, run-rate dividend income, yield, ROI and a
// heuristic risk summary, all relative to an explicit as-of date.
package valuation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/dividend-tracker/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentLookups bounds the price fan-out per valuation pass.
const maxConcurrentLookups = 8

// Engine computes valuation metrics for an arbitrary holding set. It
// holds no state between calls; every computation is a function of the
// holdings, the as-of date, and the injected price source.
type Engine struct {
	prices domain.PriceSource
	risk   RiskEstimator
	log    zerolog.Logger
}

// NewEngine creates a new valuation engine
func NewEngine(prices domain.PriceSource, risk RiskEstimator, log zerolog.Logger) *Engine {
	return &Engine{
		prices: prices,
		risk:   risk,
		log:    log.With().Str("service", "valuation").Logger(),
	}
}

// ValueAsOf computes portfolio metrics as of the given date. Prices
// for the distinct symbols are fetched concurrently; a symbol with no
// price for the date is excluded from the value sum (never
// zero-filled), while a transport failure aborts the pass so the
// caller can retry instead of silently understating value.
func (e *Engine) ValueAsOf(ctx context.Context, hs []domain.Holding, asOf time.Time) (PortfolioMetrics, error) {
	asOf = domain.Day(asOf)

	prices, err := e.FetchPrices(ctx, symbolsOf(hs), asOf)
	if err != nil {
		return PortfolioMetrics{}, fmt.Errorf("valuation price fetch failed: %w", err)
	}

	return e.ValueWithPrices(hs, prices, asOf), nil
}

// SummaryAsOf computes portfolio metrics and the risk summary off a
// single price fetch, for callers that present both together.
func (e *Engine) SummaryAsOf(ctx context.Context, hs []domain.Holding, asOf time.Time) (PortfolioMetrics, RiskMetrics, error) {
	asOf = domain.Day(asOf)

	prices, err := e.FetchPrices(ctx, symbolsOf(hs), asOf)
	if err != nil {
		return PortfolioMetrics{}, RiskMetrics{}, fmt.Errorf("valuation price fetch failed: %w", err)
	}

	return e.ValueWithPrices(hs, prices, asOf), e.riskWithPrices(hs, prices, asOf), nil
}

// ValueWithPrices is the pure core of ValueAsOf: it computes metrics
// from an already-resolved price map. The trend sampler and tests call
// it directly.
func (e *Engine) ValueWithPrices(hs []domain.Holding, prices map[string]float64, asOf time.Time) PortfolioMetrics {
	asOf = domain.Day(asOf)

	m := PortfolioMetrics{AsOf: domain.FormatDay(asOf)}

	sharesBySymbol := make(map[string]float64)
	for _, h := range hs {
		shares := SharesAsOf(h, asOf)
		sharesBySymbol[h.Symbol] += shares

		m.TotalInvestment += investmentAsOf(h, asOf)
		m.AnnualDividend += shares * h.DividendPerShare * float64(h.DividendFrequency)
	}

	for symbol, shares := range sharesBySymbol {
		if shares <= 0 {
			continue
		}
		price, ok := prices[symbol]
		if !ok {
			m.MissingSymbols++
			continue
		}
		m.TotalValue += shares * price
		m.PricedSymbols++
	}

	if m.TotalInvestment > 0 {
		m.Yield = m.AnnualDividend / m.TotalInvestment * 100
		m.ROI = (m.TotalValue - m.TotalInvestment) / m.TotalInvestment * 100
	}

	return m
}

// DailyChangeAsOf fetches prices for the given day and the day before
// and computes the day-over-day movement.
func (e *Engine) DailyChangeAsOf(ctx context.Context, hs []domain.Holding, day time.Time) (DailyChange, error) {
	day = domain.Day(day)
	symbols := symbolsOf(hs)

	var current, previous map[string]float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = e.FetchPrices(gctx, symbols, day)
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = e.FetchPrices(gctx, symbols, day.AddDate(0, 0, -1))
		return err
	})
	if err := g.Wait(); err != nil {
		return DailyChange{}, fmt.Errorf("daily change price fetch failed: %w", err)
	}

	return e.Change(hs, current, previous, day), nil
}

// Change computes the day-over-day movement from already-resolved
// price maps. Symbols missing either price contribute nothing to the
// change sum; the percentage denominator is the prior-day value of all
// symbols that have a prior-day price, mirroring the value exclusion
// rule.
func (e *Engine) Change(hs []domain.Holding, current, previous map[string]float64, asOf time.Time) DailyChange {
	asOf = domain.Day(asOf)

	sharesBySymbol := make(map[string]float64)
	for _, h := range hs {
		sharesBySymbol[h.Symbol] += SharesAsOf(h, asOf)
	}

	var change, previousValue float64
	for symbol, shares := range sharesBySymbol {
		if shares <= 0 {
			continue
		}
		prev, hasPrev := previous[symbol]
		if !hasPrev {
			continue
		}
		previousValue += shares * prev
		if cur, hasCur := current[symbol]; hasCur {
			change += shares * (cur - prev)
		}
	}

	out := DailyChange{Change: change}
	if previousValue > 0 {
		out.Percent = change / previousValue * 100
	}
	return out
}

// Risk returns the heuristic risk summary for the holding set, using
// per-symbol market values as weights when prices are available and
// cost basis otherwise.
func (e *Engine) Risk(ctx context.Context, hs []domain.Holding, asOf time.Time) (RiskMetrics, error) {
	asOf = domain.Day(asOf)

	prices, err := e.FetchPrices(ctx, symbolsOf(hs), asOf)
	if err != nil {
		return RiskMetrics{}, fmt.Errorf("risk price fetch failed: %w", err)
	}

	return e.riskWithPrices(hs, prices, asOf), nil
}

// riskWithPrices runs the risk estimator with per-symbol market values
// as weights, falling back to cost basis for unpriced symbols.
func (e *Engine) riskWithPrices(hs []domain.Holding, prices map[string]float64, asOf time.Time) RiskMetrics {
	values := make(map[string]float64)
	for _, h := range hs {
		shares := SharesAsOf(h, asOf)
		if shares <= 0 {
			continue
		}
		if price, ok := prices[h.Symbol]; ok {
			values[h.Symbol] += shares * price
		} else {
			values[h.Symbol] += investmentAsOf(h, asOf)
		}
	}

	return e.risk.Estimate(hs, values)
}

// FetchPrices resolves prices for the given symbols on one day,
// fanning the lookups out concurrently. Symbols with no price for the
// day are simply absent from the result; the first transport failure
// cancels the remaining lookups and is returned.
func (e *Engine) FetchPrices(ctx context.Context, symbols []string, day time.Time) (map[string]float64, error) {
	day = domain.Day(day)

	var mu sync.Mutex
	out := make(map[string]float64, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)

	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			price, ok, err := e.prices.Price(gctx, symbol, day)
			if err != nil {
				return err
			}
			if !ok {
				e.log.Debug().
					Str("symbol", symbol).
					Str("date", domain.FormatDay(day)).
					Msg("No price for symbol, excluded from valuation")
				return nil
			}
			mu.Lock()
			out[symbol] = price
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// SharesAsOf returns the shares a holding contributes as of a date: a
// one-time lot counts only once its purchase date has passed, a
// recurring holding counts its executed transactions dated on or
// before the date.
func SharesAsOf(h domain.Holding, asOf time.Time) float64 {
	if h.IsRecurring() {
		return h.Plan.ExecutedShares(asOf)
	}
	if h.PurchaseDate.After(asOf) {
		return 0
	}
	return h.Shares
}

// investmentAsOf returns the cost contributed by a holding as of a
// date: lot price x shares for one-time lots (unknown-price lots
// contribute nothing), the sum of executed contribution amounts for
// recurring holdings.
func investmentAsOf(h domain.Holding, asOf time.Time) float64 {
	if h.IsRecurring() {
		return h.Plan.ExecutedAmount(asOf)
	}
	if h.PurchaseDate.After(asOf) || h.PurchasePrice == nil {
		return 0
	}
	return *h.PurchasePrice * h.Shares
}

// symbolsOf returns the distinct symbols of a holding set, in first-seen order.
func symbolsOf(hs []domain.Holding) []string {
	seen := make(map[string]bool)
	var out []string
	for _, h := range hs {
		if !seen[h.Symbol] {
			seen[h.Symbol] = true
			out = append(out, h.Symbol)
		}
	}
	return out
}

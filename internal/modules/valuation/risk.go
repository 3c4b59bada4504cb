package valuation

import (
	"math"
	"sort"

	"github.com/aristath/dividend-tracker/internal/domain"
)

// RiskEstimator produces a risk/diversification summary for a holding
// set. The default implementation is heuristic; swapping in a
// statistically rigorous estimator requires no change to the Engine
// contract.
type RiskEstimator interface {
	Estimate(hs []domain.Holding, values map[string]float64) RiskMetrics
}

// Reference scale for the volatility heuristic: a broad equity index
// runs at roughly 16% annualized.
const marketVolatility = 0.16

// HeuristicEstimator derives risk numbers from holding counts, a
// static symbol-to-sector table and a static symbol-to-beta table.
// These are coarse estimates, not statistics over historical price
// series, and callers rely on exactly these outputs - any move to a
// real statistical model needs a product decision, not a code fix.
type HeuristicEstimator struct {
	sectors domain.SectorLookup
	betas   domain.BetaLookup
}

// NewHeuristicEstimator creates the default risk estimator
func NewHeuristicEstimator(sectors domain.SectorLookup, betas domain.BetaLookup) *HeuristicEstimator {
	return &HeuristicEstimator{
		sectors: sectors,
		betas:   betas,
	}
}

// Estimate computes the heuristic summary. Weights come from the given
// per-symbol values; with no values every symbol weighs equally.
func (e *HeuristicEstimator) Estimate(hs []domain.Holding, values map[string]float64) RiskMetrics {
	symbols := make(map[string]bool)
	for _, h := range hs {
		symbols[h.Symbol] = true
	}

	m := RiskMetrics{
		SectorConcentration: make(map[string]float64),
		Positions:           len(symbols),
	}
	if len(symbols) == 0 {
		m.Beta = 1.0
		return m
	}

	total := 0.0
	for s := range symbols {
		total += values[s]
	}

	// Value-weighted beta and sector split; equal weights when no
	// values are known.
	weights := make(map[string]float64, len(symbols))
	for s := range symbols {
		if total > 0 {
			weights[s] = values[s] / total
		} else {
			weights[s] = 1.0 / float64(len(symbols))
		}
	}

	for s, w := range weights {
		m.Beta += w * e.betas.Beta(s)
		m.SectorConcentration[e.sectors.Sector(s)] += w
	}

	// Fraction of value held in the five largest positions.
	sorted := make([]float64, 0, len(weights))
	for _, w := range weights {
		sorted = append(sorted, w)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	for i, w := range sorted {
		if i >= 5 {
			break
		}
		m.TopFiveConcentration += w
	}

	// Volatility scales with beta and concentration: a concentrated
	// book of high-beta names is assumed rougher than a spread-out one.
	diversification := 1.0 / math.Sqrt(float64(len(symbols)))
	m.Volatility = marketVolatility * m.Beta * (1 + 0.5*m.TopFiveConcentration*diversification)

	// Rule of thumb: worst peak-to-trough around 2.5x annual volatility.
	m.MaxDrawdown = 2.5 * m.Volatility

	return m
}

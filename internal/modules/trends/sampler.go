package trends

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/dividend-tracker/internal/domain"
	"github.com/aristath/dividend-tracker/internal/modules/valuation"
	"github.com/rs/zerolog"
)

// Sampler produces portfolio value series over a date range. Each
// point is a full valuation recomputed as of that day, so a point
// reflects only the shares actually held by then.
type Sampler struct {
	engine *valuation.Engine
	log    zerolog.Logger
}

// NewSampler creates a new trend sampler
func NewSampler(engine *valuation.Engine, log zerolog.Logger) *Sampler {
	return &Sampler{
		engine: engine,
		log:    log.With().Str("service", "trends").Logger(),
	}
}

// IntervalMonths returns the sampling step for a range of the given
// length in whole months. Short ranges get fine steps, long ranges
// coarse ones, keeping the point count bounded.
func IntervalMonths(rangeMonths int) int {
	switch {
	case rangeMonths <= 3:
		return 1
	case rangeMonths <= 12:
		return 2
	case rangeMonths <= 36:
		return 6
	default:
		return 12
	}
}

// Series samples the portfolio between start and end inclusive. Points
// step by IntervalMonths of the range; the final point is always the
// end date itself even when the step would overshoot it. A transport
// failure on any point aborts the whole series.
func (s *Sampler) Series(ctx context.Context, hs []domain.Holding, start, end time.Time) ([]TrendPoint, error) {
	start, end = domain.Day(start), domain.Day(end)
	if start.After(end) {
		return nil, fmt.Errorf("trend range start %s after end %s", domain.FormatDay(start), domain.FormatDay(end))
	}

	interval := IntervalMonths(domain.MonthsBetween(start, end))

	// Steps are anchored to the start date (i x interval months from
	// start) rather than compounded per step, so a month-end anchor
	// does not drift: a step landing past a short month normalizes
	// forward once and the following step snaps back to the anchor day.
	var dates []time.Time
	for i := 0; ; i += interval {
		d := start.AddDate(0, i, 0)
		if d.After(end) {
			break
		}
		dates = append(dates, d)
	}
	if last := dates[len(dates)-1]; !last.Equal(end) {
		dates = append(dates, end)
	}

	points := make([]TrendPoint, 0, len(dates))
	for _, d := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		point, err := s.sample(ctx, hs, d)
		if err != nil {
			return nil, fmt.Errorf("trend sample at %s failed: %w", domain.FormatDay(d), err)
		}
		points = append(points, point)
	}

	s.log.Debug().
		Str("start", domain.FormatDay(start)).
		Str("end", domain.FormatDay(end)).
		Int("interval_months", interval).
		Int("points", len(points)).
		Msg("Sampled trend series")

	return points, nil
}

// sample values the portfolio as of one day and splits the value
// between one-time lots and recurring holdings.
func (s *Sampler) sample(ctx context.Context, hs []domain.Holding, day time.Time) (TrendPoint, error) {
	prices, err := s.engine.FetchPrices(ctx, symbolsOf(hs), day)
	if err != nil {
		return TrendPoint{}, err
	}

	metrics := s.engine.ValueWithPrices(hs, prices, day)

	point := TrendPoint{
		Date:            metrics.AsOf,
		TotalValue:      metrics.TotalValue,
		TotalInvestment: metrics.TotalInvestment,
		AnnualDividend:  metrics.AnnualDividend,
		Yield:           metrics.Yield,
		PricedSymbols:   metrics.PricedSymbols,
		MissingSymbols:  metrics.MissingSymbols,
	}

	for _, h := range hs {
		price, ok := prices[h.Symbol]
		if !ok {
			continue
		}
		value := valuation.SharesAsOf(h, day) * price
		if h.IsRecurring() {
			point.RecurringValue += value
		} else {
			point.LotValue += value
		}
	}

	return point, nil
}

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

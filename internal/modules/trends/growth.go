package trends

import (
	"github.com/aristath/dividend-tracker/internal/domain"
	"github.com/aristath/dividend-tracker/pkg/formulas"
	"github.com/markcheno/go-talib"
)

// smoothingPeriod is the moving-average window applied to the sampled
// value series for the smoothed overlay.
const smoothingPeriod = 3

// Growth summarizes a sampled trend series: compound annual growth,
// least-squares trend slope per sample step, volatility of
// point-over-point returns and the worst peak-to-trough decline.
func Growth(points []TrendPoint) GrowthSummary {
	if len(points) == 0 {
		return GrowthSummary{}
	}

	summary := GrowthSummary{
		Start:  points[0].Date,
		End:    points[len(points)-1].Date,
		Points: len(points),
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.TotalValue
	}

	if len(points) > 1 {
		summary.CAGR = formulas.CAGR(values[0], values[len(values)-1], yearsBetween(points[0].Date, points[len(points)-1].Date))
		_, summary.TrendSlope = formulas.LinearTrend(values)
		summary.Volatility = formulas.StdDev(formulas.Returns(values))
		summary.MaxDrawdown = formulas.MaxDrawdown(values)
	}

	if len(values) >= smoothingPeriod {
		summary.Smoothed = talib.Sma(values, smoothingPeriod)
	}

	return summary
}

func yearsBetween(start, end string) float64 {
	s, err := domain.ParseDay(start)
	if err != nil {
		return 0
	}
	e, err := domain.ParseDay(end)
	if err != nil {
		return 0
	}
	return e.Sub(s).Hours() / 24 / 365.25
}

package valuation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristath/dividend-tracker/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func lot(symbol string, shares float64, price *float64, dps float64, freq domain.DividendFrequency) domain.Holding {
	return domain.Holding{
		Symbol:            symbol,
		Account:           "main",
		Shares:            shares,
		PurchasePrice:     price,
		PurchaseDate:      domain.NewDay(2024, time.January, 2),
		DividendPerShare:  dps,
		DividendFrequency: freq,
	}
}

// priceTable serves per-symbol prices; symbols absent from the table
// have no price for any date.
func priceTable(prices map[string]float64) domain.PriceSource {
	return domain.PriceFunc(func(ctx context.Context, symbol string, day time.Time) (float64, bool, error) {
		p, ok := prices[symbol]
		return p, ok, nil
	})
}

func newTestEngine(prices domain.PriceSource) *Engine {
	risk := NewHeuristicEstimator(
		NewStaticSectorLookup(DefaultSectors()),
		NewStaticBetaLookup(DefaultBetas()),
	)
	return NewEngine(prices, risk, zerolog.Nop())
}

func TestValueAsOfMetrics(t *testing.T) {
	e := newTestEngine(priceTable(map[string]float64{"KO": 60}))

	hs := []domain.Holding{lot("KO", 100, fp(50), 2, domain.FrequencyQuarterly)}
	asOf := domain.NewDay(2024, time.June, 1)

	m, err := e.ValueAsOf(context.Background(), hs, asOf)
	require.NoError(t, err)

	assert.Equal(t, 6000.0, m.TotalValue)
	assert.Equal(t, 5000.0, m.TotalInvestment)
	assert.Equal(t, 800.0, m.AnnualDividend)
	assert.InDelta(t, 16.0, m.Yield, 1e-9)
	assert.InDelta(t, 20.0, m.ROI, 1e-9)
	assert.Equal(t, 1, m.PricedSymbols)
	assert.Zero(t, m.MissingSymbols)
}

func TestValueWithPricesConservation(t *testing.T) {
	e := newTestEngine(nil)

	hs := []domain.Holding{
		lot("KO", 100, fp(50), 2, domain.FrequencyQuarterly),
		lot("PEP", 10, fp(170), 5.42, domain.FrequencyQuarterly),
		lot("XOM", 25, fp(95), 3.8, domain.FrequencyQuarterly),
	}
	prices := map[string]float64{"KO": 60, "PEP": 165, "XOM": 110}
	asOf := domain.NewDay(2024, time.June, 1)

	m := e.ValueWithPrices(hs, prices, asOf)

	// With every price and cost known, total gain equals the sum of
	// per-lot gains.
	perLot := 0.0
	for _, h := range hs {
		perLot += h.Shares * (prices[h.Symbol] - *h.PurchasePrice)
	}
	assert.InDelta(t, perLot, m.TotalValue-m.TotalInvestment, 1e-9)
}

func TestValueAsOfMissingPriceExcludesSymbol(t *testing.T) {
	e := newTestEngine(priceTable(map[string]float64{"KO": 60}))

	hs := []domain.Holding{
		lot("KO", 100, fp(50), 2, domain.FrequencyQuarterly),
		lot("PEP", 10, fp(170), 5.42, domain.FrequencyQuarterly),
	}
	asOf := domain.NewDay(2024, time.June, 1)

	m, err := e.ValueAsOf(context.Background(), hs, asOf)
	require.NoError(t, err)

	// PEP has no price: excluded from value, never zero-filled. Its
	// cost and dividends still count.
	assert.Equal(t, 6000.0, m.TotalValue)
	assert.Equal(t, 6700.0, m.TotalInvestment)
	assert.InDelta(t, 800.0+216.8, m.AnnualDividend, 1e-9)
	assert.Equal(t, 1, m.PricedSymbols)
	assert.Equal(t, 1, m.MissingSymbols)
}

func TestSummaryAsOf(t *testing.T) {
	e := newTestEngine(priceTable(map[string]float64{"KO": 60}))

	hs := []domain.Holding{lot("KO", 100, fp(50), 2, domain.FrequencyQuarterly)}
	asOf := domain.NewDay(2024, time.June, 1)

	m, risk, err := e.SummaryAsOf(context.Background(), hs, asOf)
	require.NoError(t, err)

	// Metrics and risk come off the same price fetch.
	assert.Equal(t, 6000.0, m.TotalValue)
	assert.InDelta(t, 16.0, m.Yield, 1e-9)
	assert.Equal(t, 1, risk.Positions)
	assert.Greater(t, risk.Beta, 0.0)
	assert.Greater(t, risk.Volatility, 0.0)
}

func TestValueAsOfIgnoresFuturePurchases(t *testing.T) {
	e := newTestEngine(priceTable(map[string]float64{"KO": 60}))

	future := lot("KO", 50, fp(55), 2, domain.FrequencyQuarterly)
	future.PurchaseDate = domain.NewDay(2024, time.December, 1)

	hs := []domain.Holding{
		lot("KO", 100, fp(50), 2, domain.FrequencyQuarterly),
		future,
	}

	m, err := e.ValueAsOf(context.Background(), hs, domain.NewDay(2024, time.June, 1))
	require.NoError(t, err)

	// Only the first lot exists as of June.
	assert.Equal(t, 6000.0, m.TotalValue)
	assert.Equal(t, 5000.0, m.TotalInvestment)
}

func TestValueAsOfRecurringHoldingUsesExecutedLedger(t *testing.T) {
	e := newTestEngine(priceTable(map[string]float64{"KO": 110}))

	h := lot("KO", 0, nil, 0.48, domain.FrequencyQuarterly)
	h.Plan = &domain.RecurringPlan{
		ID: "p1", Title: "KO monthly", Symbol: "KO", Amount: 3000,
		Frequency: domain.PlanMonthly, StartDate: domain.NewDay(2024, time.January, 15),
		Transactions: []domain.ContributionTransaction{
			{Date: domain.NewDay(2024, time.January, 15), Amount: 3000, Shares: 30, Price: 100, Executed: true},
			{Date: domain.NewDay(2024, time.February, 14), Amount: 3000, Shares: 25, Price: 120, Executed: true},
		},
	}

	m, err := e.ValueAsOf(context.Background(), []domain.Holding{h}, domain.NewDay(2024, time.March, 1))
	require.NoError(t, err)

	assert.Equal(t, 55*110.0, m.TotalValue)
	assert.Equal(t, 6000.0, m.TotalInvestment)

	// As of before the second contribution, only the first counts.
	m, err = e.ValueAsOf(context.Background(), []domain.Holding{h}, domain.NewDay(2024, time.January, 31))
	require.NoError(t, err)
	assert.Equal(t, 30*110.0, m.TotalValue)
	assert.Equal(t, 3000.0, m.TotalInvestment)
}

func TestValueAsOfPropagatesTransportFailure(t *testing.T) {
	src := domain.PriceFunc(func(ctx context.Context, symbol string, day time.Time) (float64, bool, error) {
		return 0, false, &domain.TransportError{Symbol: symbol, Op: "get price", Err: errors.New("timeout")}
	})
	e := newTestEngine(src)

	hs := []domain.Holding{lot("KO", 100, fp(50), 2, domain.FrequencyQuarterly)}
	_, err := e.ValueAsOf(context.Background(), hs, domain.NewDay(2024, time.June, 1))

	require.Error(t, err)
	assert.True(t, domain.IsTransport(err), "Transport failures must stay recognizable through wrapping")
}

func TestDailyChange(t *testing.T) {
	e := newTestEngine(nil)

	hs := []domain.Holding{
		lot("KO", 100, fp(50), 2, domain.FrequencyQuarterly),
		lot("PEP", 10, fp(170), 5.42, domain.FrequencyQuarterly),
	}
	day := domain.NewDay(2024, time.June, 3)

	current := map[string]float64{"KO": 61, "PEP": 171}
	previous := map[string]float64{"KO": 60, "PEP": 170}

	change := e.Change(hs, current, previous, day)
	assert.InDelta(t, 100*1.0+10*1.0, change.Change, 1e-9)
	assert.InDelta(t, 110.0/(100*60+10*170)*100, change.Percent, 1e-9)
}

func TestDailyChangeSkipsSymbolsMissingEitherPrice(t *testing.T) {
	e := newTestEngine(nil)

	hs := []domain.Holding{
		lot("KO", 100, fp(50), 2, domain.FrequencyQuarterly),
		lot("PEP", 10, fp(170), 5.42, domain.FrequencyQuarterly),
	}
	day := domain.NewDay(2024, time.June, 3)

	// PEP has no prior-day price: it contributes to neither the change
	// nor the denominator.
	change := e.Change(hs, map[string]float64{"KO": 61, "PEP": 171}, map[string]float64{"KO": 60}, day)
	assert.InDelta(t, 100.0, change.Change, 1e-9)
	assert.InDelta(t, 100.0/6000.0*100, change.Percent, 1e-9)
}

func TestFetchPricesBoundsConcurrency(t *testing.T) {
	var inFlight, peak int64
	var mu sync.Mutex

	src := domain.PriceFunc(func(ctx context.Context, symbol string, day time.Time) (float64, bool, error) {
		n := atomic.AddInt64(&inFlight, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return 100, true, nil
	})
	e := newTestEngine(src)

	symbols := make([]string, 40)
	for i := range symbols {
		symbols[i] = string(rune('A' + i%26))
	}

	prices, err := e.FetchPrices(context.Background(), symbols, domain.NewDay(2024, time.June, 1))
	require.NoError(t, err)
	assert.NotEmpty(t, prices)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int64(maxConcurrentLookups))
}

func TestFetchPricesOmitsUnpricedSymbols(t *testing.T) {
	e := newTestEngine(priceTable(map[string]float64{"KO": 60}))

	prices, err := e.FetchPrices(context.Background(), []string{"KO", "PEP"}, domain.NewDay(2024, time.June, 1))
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"KO": 60}, prices)
}

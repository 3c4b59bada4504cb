package holdings

import (
	"testing"
	"time"

	"github.com/aristath/dividend-tracker/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lot(symbol, account string, shares float64, price *float64, dps float64) domain.Holding {
	return domain.Holding{
		Symbol:            symbol,
		Account:           account,
		Shares:            shares,
		PurchasePrice:     price,
		PurchaseDate:      domain.NewDay(2024, time.January, 2),
		DividendPerShare:  dps,
		DividendFrequency: domain.FrequencyQuarterly,
	}
}

func fp(v float64) *float64 { return &v }

func TestAggregateWeightedMath(t *testing.T) {
	agg := NewAggregator(zerolog.Nop())

	hs := []domain.Holding{
		lot("KO", "main", 10, fp(50), 0.40),
		lot("KO", "main", 30, fp(60), 0.48),
	}

	out := agg.Aggregate(hs, "")
	require.Len(t, out, 1)

	info := out[0]
	assert.Equal(t, 40.0, info.TotalShares)
	// (0.40*10 + 0.48*30) / 40 = 0.46
	assert.InDelta(t, 0.46, info.WeightedDividendPerShare, 1e-9)
	// (50*10 + 60*30) / 40 = 57.5
	assert.InDelta(t, 57.5, info.WeightedPurchasePrice, 1e-9)
	assert.Equal(t, domain.FrequencyQuarterly, info.DividendFrequency)
}

func TestAggregateUnknownPriceExcludedFromCostBasis(t *testing.T) {
	agg := NewAggregator(zerolog.Nop())

	hs := []domain.Holding{
		lot("KO", "main", 10, fp(50), 0.40),
		lot("KO", "main", 10, nil, 0.40), // unknown entry price
	}

	out := agg.Aggregate(hs, "")
	require.Len(t, out, 1)

	info := out[0]
	// Both lots count toward shares and dividends.
	assert.Equal(t, 20.0, info.TotalShares)
	// Cost basis uses only the known-price lot, not zero for the other.
	assert.InDelta(t, 50.0, info.WeightedPurchasePrice, 1e-9)
}

func TestAggregateSplitsRecurringFromLots(t *testing.T) {
	agg := NewAggregator(zerolog.Nop())

	plan := &domain.RecurringPlan{
		ID: "p1", Title: "KO monthly", Symbol: "KO", Amount: 3000,
		Frequency: domain.PlanMonthly, StartDate: domain.NewDay(2024, time.January, 15),
		Transactions: []domain.ContributionTransaction{
			{Date: domain.NewDay(2024, time.January, 15), Amount: 3000, Shares: 30, Price: 100, Executed: true},
			{Date: domain.NewDay(2024, time.February, 14), Amount: 3000, Shares: 25, Price: 120, Executed: true},
			{Date: domain.NewDay(2024, time.March, 15), Amount: 3000, Shares: 20, Price: 150, Executed: false},
		},
	}

	recurring := lot("KO", "main", 0, nil, 0.48)
	recurring.Plan = plan

	hs := []domain.Holding{
		lot("KO", "main", 10, fp(50), 0.48),
		recurring,
	}

	out := agg.Aggregate(hs, "")
	// Same symbol, same account, but one lot entry and one recurring
	// entry: they are never merged.
	require.Len(t, out, 2)

	assert.False(t, out[0].Recurring)
	assert.Equal(t, 10.0, out[0].TotalShares)

	assert.True(t, out[1].Recurring)
	// Only executed transactions count: 30 + 25.
	assert.Equal(t, 55.0, out[1].TotalShares)
	// (100*30 + 120*25) / 55 = 109.09...
	assert.InDelta(t, 6000.0/55.0, out[1].WeightedPurchasePrice, 1e-9)
}

func TestAggregateAccountFilterAndOrdering(t *testing.T) {
	agg := NewAggregator(zerolog.Nop())

	hs := []domain.Holding{
		lot("PEP", "main", 5, fp(170), 1.35),
		lot("KO", "isa", 10, fp(55), 0.48),
		lot("KO", "main", 10, fp(50), 0.48),
	}

	all := agg.Aggregate(hs, "")
	require.Len(t, all, 3)
	// Sorted by symbol then account.
	assert.Equal(t, "KO", all[0].Symbol)
	assert.Equal(t, "isa", all[0].Account)
	assert.Equal(t, "KO", all[1].Symbol)
	assert.Equal(t, "main", all[1].Account)
	assert.Equal(t, "PEP", all[2].Symbol)

	main := agg.Aggregate(hs, "main")
	require.Len(t, main, 2)
	for _, info := range main {
		assert.Equal(t, "main", info.Account)
	}
}

func TestEffectiveShares(t *testing.T) {
	plain := lot("KO", "main", 12, fp(50), 0.4)
	assert.Equal(t, 12.0, EffectiveShares(plain))

	recurring := lot("KO", "main", 999, nil, 0.4) // Shares field ignored
	recurring.Plan = &domain.RecurringPlan{
		Transactions: []domain.ContributionTransaction{
			{Shares: 3, Executed: true},
			{Shares: 4, Executed: true},
			{Shares: 5, Executed: false},
		},
	}
	assert.Equal(t, 7.0, EffectiveShares(recurring))
}

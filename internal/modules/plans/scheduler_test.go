package plans

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/dividend-tracker/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPriceSource serves fixed prices per date, optionally failing or
// reporting no price for chosen dates.
type stubPriceSource struct {
	price       float64
	unavailable map[string]bool // dates with no price
	failing     map[string]bool // dates that fail with a transport error
	calls       int
}

func (s *stubPriceSource) Price(ctx context.Context, symbol string, day time.Time) (float64, bool, error) {
	s.calls++
	key := domain.FormatDay(day)
	if s.failing[key] {
		return 0, false, &domain.TransportError{Symbol: symbol, Op: "get price", Err: errors.New("connection refused")}
	}
	if s.unavailable[key] {
		return 0, false, nil
	}
	return s.price, true, nil
}

func monthlyPlan(start time.Time) domain.RecurringPlan {
	return domain.RecurringPlan{
		ID:        "p1",
		Title:     "KO monthly",
		Symbol:    "KO",
		Account:   "main",
		Amount:    3000,
		Frequency: domain.PlanMonthly,
		StartDate: start,
		Active:    true,
	}
}

func TestReconcileMonthlyPlan(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	plan := monthlyPlan(domain.NewDay(2024, time.January, 15))
	src := &stubPriceSource{price: 100}

	// Jan 15 + 3 fixed 30-day steps: Feb 14, Mar 15, Apr 14.
	asOf := domain.NewDay(2024, time.April, 20)
	out, err := s.Reconcile(context.Background(), plan, src, asOf)
	require.NoError(t, err)
	require.Len(t, out.Transactions, 4)

	expected := []string{"2024-01-15", "2024-02-14", "2024-03-15", "2024-04-14"}
	for i, tx := range out.Transactions {
		assert.Equal(t, expected[i], domain.FormatDay(tx.Date))
		assert.Equal(t, 3000.0, tx.Amount)
		assert.Equal(t, 100.0, tx.Price)
		assert.Equal(t, 30.0, tx.Shares)
		assert.True(t, tx.Executed)
	}

	// The input plan is never mutated.
	assert.Empty(t, plan.Transactions)
}

func TestReconcileIsIdempotent(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	plan := monthlyPlan(domain.NewDay(2024, time.January, 15))
	src := &stubPriceSource{price: 100}
	asOf := domain.NewDay(2024, time.April, 20)

	first, err := s.Reconcile(context.Background(), plan, src, asOf)
	require.NoError(t, err)

	second, err := s.Reconcile(context.Background(), first, src, asOf)
	require.NoError(t, err)

	assert.Equal(t, first.Transactions, second.Transactions)
}

func TestReconcileGrowsMonotonically(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	plan := monthlyPlan(domain.NewDay(2024, time.January, 15))
	src := &stubPriceSource{price: 100}

	out, err := s.Reconcile(context.Background(), plan, src, domain.NewDay(2024, time.February, 20))
	require.NoError(t, err)
	require.Len(t, out.Transactions, 2)

	// Advancing the as-of date only ever appends.
	later, err := s.Reconcile(context.Background(), out, src, domain.NewDay(2024, time.March, 20))
	require.NoError(t, err)
	require.Len(t, later.Transactions, 3)
	assert.Equal(t, out.Transactions, later.Transactions[:2])
}

func TestReconcileSkipsUnpriceableDatesAndRetriesLater(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	plan := monthlyPlan(domain.NewDay(2024, time.January, 15))
	asOf := domain.NewDay(2024, time.March, 20)

	src := &stubPriceSource{price: 100, unavailable: map[string]bool{"2024-02-14": true}}
	out, err := s.Reconcile(context.Background(), plan, src, asOf)
	require.NoError(t, err)
	require.Len(t, out.Transactions, 2)

	_, exists := out.TransactionOn(domain.NewDay(2024, time.February, 14))
	assert.False(t, exists, "Unpriceable date must not produce a transaction")

	// Next pass, the price exists: the gap is filled in.
	src.unavailable = nil
	filled, err := s.Reconcile(context.Background(), out, src, asOf)
	require.NoError(t, err)
	require.Len(t, filled.Transactions, 3)

	tx, exists := filled.TransactionOn(domain.NewDay(2024, time.February, 14))
	require.True(t, exists)
	assert.Equal(t, 30.0, tx.Shares)
}

func TestReconcileSwallowsTransportFailuresPerDate(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	plan := monthlyPlan(domain.NewDay(2024, time.January, 15))
	asOf := domain.NewDay(2024, time.March, 20)

	src := &stubPriceSource{price: 100, failing: map[string]bool{"2024-02-14": true}}
	out, err := s.Reconcile(context.Background(), plan, src, asOf)

	// One bad date never fails the pass; the other dates still fill.
	require.NoError(t, err)
	assert.Len(t, out.Transactions, 2)
}

func TestReconcileSharesAreWholeUnits(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	plan := monthlyPlan(domain.NewDay(2024, time.January, 15))
	plan.Amount = 1000
	src := &stubPriceSource{price: 333}

	out, err := s.Reconcile(context.Background(), plan, src, domain.NewDay(2024, time.January, 15))
	require.NoError(t, err)
	require.Len(t, out.Transactions, 1)

	// 1000 / 333 = 3.003..., truncated to 3.
	assert.Equal(t, 3.0, out.Transactions[0].Shares)
}

func TestReconcileStartEqualsEnd(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	start := domain.NewDay(2024, time.June, 1)
	plan := monthlyPlan(start)
	plan.EndDate = &start
	src := &stubPriceSource{price: 50}

	out, err := s.Reconcile(context.Background(), plan, src, domain.NewDay(2024, time.December, 1))
	require.NoError(t, err)
	assert.Len(t, out.Transactions, 1, "Degenerate one-day window yields at most one transaction")
}

func TestReconcileEndBeforeStartRejected(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	plan := monthlyPlan(domain.NewDay(2024, time.June, 1))
	end := domain.NewDay(2024, time.January, 1)
	plan.EndDate = &end

	_, err := s.Reconcile(context.Background(), plan, &stubPriceSource{price: 50}, domain.NewDay(2024, time.December, 1))
	assert.ErrorIs(t, err, domain.ErrEndBeforeStart)
}

func TestReconcileStopsAtEndDate(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	plan := monthlyPlan(domain.NewDay(2024, time.January, 15))
	end := domain.NewDay(2024, time.February, 20)
	plan.EndDate = &end
	src := &stubPriceSource{price: 100}

	// As-of far past the end date: only dates up to the end date fill.
	out, err := s.Reconcile(context.Background(), plan, src, domain.NewDay(2025, time.January, 1))
	require.NoError(t, err)
	assert.Len(t, out.Transactions, 2)
}

func TestReconcileFutureStartYieldsNothing(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	plan := monthlyPlan(domain.NewDay(2030, time.January, 1))
	src := &stubPriceSource{price: 100}

	out, err := s.Reconcile(context.Background(), plan, src, domain.NewDay(2024, time.June, 1))
	require.NoError(t, err)
	assert.Empty(t, out.Transactions)
	assert.Zero(t, src.calls, "No price lookups for a plan that has not started")
}

func TestReconcileCancellation(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	plan := monthlyPlan(domain.NewDay(2024, time.January, 15))
	src := &stubPriceSource{price: 100}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := s.Reconcile(ctx, plan, src, domain.NewDay(2024, time.June, 1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.Transactions)
}

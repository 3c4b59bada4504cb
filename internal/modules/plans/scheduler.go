// Package plans manages recurring contribution plans: persistence,
// HTTP handlers, and the scheduler that expands a plan definition into
// its contribution-transaction ledger.
package plans

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aristath/dividend-tracker/internal/domain"
	"github.com/rs/zerolog"
)

// Scheduler expands a recurring plan into contribution transactions and
// reconciles them against the transactions already on the ledger.
//
// Reconciliation is a pure function of its inputs: the given plan is
// never mutated, the returned plan's transaction list is always a
// superset of the input's, and re-running with no new prices available
// yields an identical result. Transactions are only ever added, one per
// scheduled date at most.
type Scheduler struct {
	log zerolog.Logger
}

// NewScheduler creates a new contribution scheduler
func NewScheduler(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		log: log.With().Str("service", "plan_scheduler").Logger(),
	}
}

// Reconcile generates the candidate contribution dates for plan up to
// min(endDate, asOf) - or asOf when the plan is open-ended - and fills
// in the transactions that are missing and priceable.
//
// Per-date price failures (both "no price exists" and transport
// failures) skip that date; the date stays eligible for the next pass.
// Shares are truncated to whole units (floor of amount / price).
// Executed is evaluated once at creation time and never revisited.
func (s *Scheduler) Reconcile(ctx context.Context, plan domain.RecurringPlan, src domain.PriceSource, asOf time.Time) (domain.RecurringPlan, error) {
	if err := plan.Validate(); err != nil {
		return plan, err
	}

	out := plan.Clone()
	asOf = domain.Day(asOf)

	stop := asOf
	if plan.EndDate != nil && domain.Day(*plan.EndDate).Before(asOf) {
		stop = domain.Day(*plan.EndDate)
	}

	step := plan.Frequency.StepDays()
	created := 0
	skipped := 0

	for d := domain.Day(plan.StartDate); !d.After(stop); d = d.AddDate(0, 0, step) {
		select {
		case <-ctx.Done():
			// Append-only growth is safe to cancel between dates: every
			// transaction added so far is fully written.
			out.SortTransactions()
			return out, fmt.Errorf("reconciliation cancelled: %w", ctx.Err())
		default:
		}

		if _, exists := out.TransactionOn(d); exists {
			continue
		}

		price, ok, err := src.Price(ctx, plan.Symbol, d)
		if err != nil {
			skipped++
			s.log.Warn().
				Err(err).
				Str("plan", plan.ID).
				Str("symbol", plan.Symbol).
				Str("date", domain.FormatDay(d)).
				Msg("Price lookup failed, date will be retried next pass")
			continue
		}
		if !ok || price <= 0 {
			skipped++
			s.log.Debug().
				Str("plan", plan.ID).
				Str("symbol", plan.Symbol).
				Str("date", domain.FormatDay(d)).
				Msg("No price for date, skipping")
			continue
		}

		out.Transactions = append(out.Transactions, domain.ContributionTransaction{
			Date:     d,
			Amount:   plan.Amount,
			Shares:   math.Floor(plan.Amount / price),
			Price:    price,
			Executed: !d.After(asOf),
		})
		created++
	}

	out.SortTransactions()

	s.log.Info().
		Str("plan", plan.ID).
		Str("symbol", plan.Symbol).
		Str("as_of", domain.FormatDay(asOf)).
		Int("created", created).
		Int("skipped", skipped).
		Int("total", len(out.Transactions)).
		Msg("Plan reconciled")

	return out, nil
}

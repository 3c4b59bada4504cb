// Package domain holds the core entity types shared across modules.
// These types carry no infrastructure dependencies; repositories and
// services operate on them and return derived values.
package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DividendFrequency is the number of dividend payments per year.
type DividendFrequency int

const (
	FrequencyAnnual     DividendFrequency = 1
	FrequencySemiAnnual DividendFrequency = 2
	FrequencyQuarterly  DividendFrequency = 4
	FrequencyMonthly    DividendFrequency = 12
)

// Valid reports whether f is one of the supported payment frequencies.
func (f DividendFrequency) Valid() bool {
	switch f {
	case FrequencyAnnual, FrequencySemiAnnual, FrequencyQuarterly, FrequencyMonthly:
		return true
	}
	return false
}

// PlanFrequency is the cadence of a recurring contribution plan.
// Each cadence maps to a fixed day-count step, not a calendar unit.
// Fixed steps drift against calendar boundaries over multi-year plans;
// this matches the behaviour callers already depend on.
type PlanFrequency string

const (
	PlanWeekly    PlanFrequency = "weekly"
	PlanMonthly   PlanFrequency = "monthly"
	PlanQuarterly PlanFrequency = "quarterly"
)

// StepDays returns the fixed interval in days for the plan frequency.
func (f PlanFrequency) StepDays() int {
	switch f {
	case PlanWeekly:
		return 7
	case PlanMonthly:
		return 30
	case PlanQuarterly:
		return 90
	}
	return 0
}

// Valid reports whether f is a supported plan frequency.
func (f PlanFrequency) Valid() bool {
	return f.StepDays() > 0
}

// Holding is an immutable record of a single acquisition event.
// PurchasePrice is nil when the entry price is unknown; such lots are
// excluded from cost-basis math rather than treated as zero-cost.
// When Plan is set the holding is a recurring-contribution holding and
// its Shares field is informational only - executed plan transactions
// are the source of truth for its economics.
type Holding struct {
	ID                string            `json:"id"`
	Symbol            string            `json:"symbol"`
	Account           string            `json:"account"`
	Shares            float64           `json:"shares"`
	PurchasePrice     *float64          `json:"purchase_price,omitempty"`
	PurchaseDate      time.Time         `json:"purchase_date"`
	DividendPerShare  float64           `json:"dividend_per_share"`
	DividendFrequency DividendFrequency `json:"dividend_frequency"`
	Plan              *RecurringPlan    `json:"plan,omitempty"`
}

// IsRecurring reports whether the holding is backed by a contribution plan.
func (h *Holding) IsRecurring() bool {
	return h.Plan != nil
}

// Validate checks holding data at construction time.
func (h *Holding) Validate() error {
	if strings.TrimSpace(h.Symbol) == "" {
		return fmt.Errorf("%w: symbol cannot be empty", ErrInvalidHolding)
	}
	if h.Shares < 0 {
		return fmt.Errorf("%w: shares cannot be negative", ErrInvalidHolding)
	}
	if h.PurchasePrice != nil && *h.PurchasePrice < 0 {
		return fmt.Errorf("%w: purchase price cannot be negative", ErrInvalidHolding)
	}
	if h.DividendPerShare < 0 {
		return fmt.Errorf("%w: dividend per share cannot be negative", ErrInvalidHolding)
	}
	if !h.DividendFrequency.Valid() {
		return fmt.Errorf("%w: dividend frequency must be 1, 2, 4 or 12", ErrInvalidHolding)
	}
	if h.PurchaseDate.IsZero() {
		return fmt.Errorf("%w: purchase date is required", ErrInvalidHolding)
	}
	h.Symbol = strings.ToUpper(strings.TrimSpace(h.Symbol))
	if h.Plan != nil {
		return h.Plan.Validate()
	}
	return nil
}

// ContributionTransaction is one executed or pending contribution of a
// recurring plan. Executed is evaluated once at creation time
// (date <= asOf) and never retroactively flipped; transactions are only
// created once their date is in reach of the reconciliation pass, so a
// false value degenerates harmlessly in practice.
type ContributionTransaction struct {
	Date     time.Time `json:"date"`
	Amount   float64   `json:"amount"`
	Shares   float64   `json:"shares"`
	Price    float64   `json:"price"`
	Executed bool      `json:"executed"`
}

// RecurringPlan is a schedule of periodic equal-amount contributions
// into one symbol. Transactions are strictly ordered by date and hold
// at most one entry per scheduled date; they are authoritative for the
// plan's executed economics.
type RecurringPlan struct {
	ID           string                    `json:"id"`
	Title        string                    `json:"title"`
	Symbol       string                    `json:"symbol"`
	Account      string                    `json:"account"`
	Amount       float64                   `json:"amount"`
	Frequency    PlanFrequency             `json:"frequency"`
	StartDate    time.Time                 `json:"start_date"`
	EndDate      *time.Time                `json:"end_date,omitempty"`
	Active       bool                      `json:"active"`
	Note         string                    `json:"note,omitempty"`
	Transactions []ContributionTransaction `json:"transactions"`
}

// Validate checks plan data at construction time. An end date before
// the start date is rejected here rather than deep inside the
// scheduler.
func (p *RecurringPlan) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidPlan)
	}
	if strings.TrimSpace(p.Symbol) == "" {
		return fmt.Errorf("%w: symbol cannot be empty", ErrInvalidPlan)
	}
	p.Symbol = strings.ToUpper(strings.TrimSpace(p.Symbol))
	if p.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidPlan)
	}
	if !p.Frequency.Valid() {
		return fmt.Errorf("%w: frequency must be weekly, monthly or quarterly", ErrInvalidPlan)
	}
	if p.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidPlan)
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("%w: end date %s is before start date %s",
			ErrEndBeforeStart, FormatDay(*p.EndDate), FormatDay(p.StartDate))
	}
	return nil
}

// ExecutedShares returns the total shares across executed transactions
// dated on or before asOf.
func (p *RecurringPlan) ExecutedShares(asOf time.Time) float64 {
	total := 0.0
	for _, tx := range p.Transactions {
		if tx.Executed && !tx.Date.After(asOf) {
			total += tx.Shares
		}
	}
	return total
}

// ExecutedAmount returns the total contributed amount across executed
// transactions dated on or before asOf.
func (p *RecurringPlan) ExecutedAmount(asOf time.Time) float64 {
	total := 0.0
	for _, tx := range p.Transactions {
		if tx.Executed && !tx.Date.After(asOf) {
			total += tx.Amount
		}
	}
	return total
}

// TransactionOn returns the transaction scheduled at exactly day, if any.
func (p *RecurringPlan) TransactionOn(day time.Time) (ContributionTransaction, bool) {
	day = Day(day)
	for _, tx := range p.Transactions {
		if tx.Date.Equal(day) {
			return tx, true
		}
	}
	return ContributionTransaction{}, false
}

// Clone returns a deep copy of the plan. Reconciliation operates on a
// copy so the caller's value is never mutated through a shared slice.
func (p *RecurringPlan) Clone() RecurringPlan {
	out := *p
	if p.EndDate != nil {
		end := *p.EndDate
		out.EndDate = &end
	}
	out.Transactions = make([]ContributionTransaction, len(p.Transactions))
	copy(out.Transactions, p.Transactions)
	return out
}

// SortTransactions orders the plan's transactions by date ascending.
func (p *RecurringPlan) SortTransactions() {
	sort.Slice(p.Transactions, func(i, j int) bool {
		return p.Transactions[i].Date.Before(p.Transactions[j].Date)
	})
}

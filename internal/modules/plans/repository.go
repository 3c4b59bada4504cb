package plans

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/dividend-tracker/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository handles recurring plan database operations. Plans are
// loaded with their transactions ordered by date.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new plan repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "plans").Logger(),
	}
}

// Create validates and stores a new plan, assigning it an ID.
func (r *Repository) Create(plan *domain.RecurringPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}

	query := `
		INSERT INTO plans (id, title, symbol, account, amount, frequency, start_date, end_date, active, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		plan.ID,
		plan.Title,
		strings.ToUpper(plan.Symbol),
		plan.Account,
		plan.Amount,
		string(plan.Frequency),
		domain.FormatDay(plan.StartDate),
		nullDay(plan.EndDate),
		boolToInt(plan.Active),
		plan.Note,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	r.log.Info().
		Str("plan", plan.ID).
		Str("symbol", plan.Symbol).
		Str("frequency", string(plan.Frequency)).
		Msg("Plan created")

	return nil
}

// GetByID retrieves a plan and its transaction ledger. Returns nil when
// the plan does not exist.
func (r *Repository) GetByID(id string) (*domain.RecurringPlan, error) {
	query := `
		SELECT id, title, symbol, account, amount, frequency, start_date, end_date, active, note
		FROM plans WHERE id = ?
	`

	plan, err := r.scanPlan(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan by ID: %w", err)
	}

	if err := r.loadTransactions(plan); err != nil {
		return nil, err
	}

	return plan, nil
}

// GetAll retrieves every plan with its transactions.
func (r *Repository) GetAll() ([]domain.RecurringPlan, error) {
	return r.query("SELECT id, title, symbol, account, amount, frequency, start_date, end_date, active, note FROM plans ORDER BY symbol, title")
}

// GetActive retrieves plans eligible for scheduled reconciliation.
func (r *Repository) GetActive() ([]domain.RecurringPlan, error) {
	return r.query("SELECT id, title, symbol, account, amount, frequency, start_date, end_date, active, note FROM plans WHERE active = 1 ORDER BY symbol, title")
}

// SaveTransactions persists a reconciled plan's ledger. Inserts are
// keyed by (plan, date) and ignored when present, matching the
// append-only growth contract: rows are never updated or removed.
func (r *Repository) SaveTransactions(plan *domain.RecurringPlan) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT OR IGNORE INTO plan_transactions (plan_id, date, amount, shares, price, executed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC().Format(time.RFC3339)
	inserted := 0
	for _, t := range plan.Transactions {
		res, err := tx.Exec(query,
			plan.ID,
			domain.FormatDay(t.Date),
			t.Amount,
			t.Shares,
			t.Price,
			boolToInt(t.Executed),
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transactions: %w", err)
	}

	if inserted > 0 {
		r.log.Info().
			Str("plan", plan.ID).
			Int("inserted", inserted).
			Msg("Plan transactions saved")
	}

	return nil
}

// SetActive flips the plan's active flag.
func (r *Repository) SetActive(id string, active bool) error {
	res, err := r.db.Exec("UPDATE plans SET active = ? WHERE id = ?", boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("plan %s not found", id)
	}
	return nil
}

// Delete removes a plan and, via cascade, its transactions. Explicit
// user removal is the only path that deletes ledger rows.
func (r *Repository) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM plans WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("plan %s not found", id)
	}

	r.log.Info().Str("plan", id).Msg("Plan deleted")
	return nil
}

func (r *Repository) query(query string, args ...interface{}) ([]domain.RecurringPlan, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []domain.RecurringPlan
	for rows.Next() {
		plan, err := r.scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, *plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}

	for i := range plans {
		if err := r.loadTransactions(&plans[i]); err != nil {
			return nil, err
		}
	}

	return plans, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scanPlan(row rowScanner) (*domain.RecurringPlan, error) {
	var plan domain.RecurringPlan
	var frequency, startDate string
	var endDate sql.NullString
	var active int

	err := row.Scan(
		&plan.ID,
		&plan.Title,
		&plan.Symbol,
		&plan.Account,
		&plan.Amount,
		&frequency,
		&startDate,
		&endDate,
		&active,
		&plan.Note,
	)
	if err != nil {
		return nil, err
	}

	plan.Frequency = domain.PlanFrequency(frequency)
	plan.Active = active != 0

	plan.StartDate, err = domain.ParseDay(startDate)
	if err != nil {
		return nil, fmt.Errorf("corrupt start_date for plan %s: %w", plan.ID, err)
	}
	if endDate.Valid && endDate.String != "" {
		end, err := domain.ParseDay(endDate.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt end_date for plan %s: %w", plan.ID, err)
		}
		plan.EndDate = &end
	}

	return &plan, nil
}

func (r *Repository) loadTransactions(plan *domain.RecurringPlan) error {
	query := `
		SELECT date, amount, shares, price, executed
		FROM plan_transactions
		WHERE plan_id = ?
		ORDER BY date ASC
	`

	rows, err := r.db.Query(query, plan.ID)
	if err != nil {
		return fmt.Errorf("failed to query plan transactions: %w", err)
	}
	defer rows.Close()

	plan.Transactions = nil
	for rows.Next() {
		var t domain.ContributionTransaction
		var date string
		var executed int

		if err := rows.Scan(&date, &t.Amount, &t.Shares, &t.Price, &executed); err != nil {
			return fmt.Errorf("failed to scan transaction: %w", err)
		}

		t.Date, err = domain.ParseDay(date)
		if err != nil {
			return fmt.Errorf("corrupt transaction date for plan %s: %w", plan.ID, err)
		}
		t.Executed = executed != 0

		plan.Transactions = append(plan.Transactions, t)
	}

	return rows.Err()
}

func nullDay(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return domain.FormatDay(*t)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

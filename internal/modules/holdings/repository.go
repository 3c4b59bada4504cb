package holdings

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/dividend-tracker/internal/domain"
	"github.com/aristath/dividend-tracker/internal/modules/plans"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository handles holding database operations. Recurring holdings
// are hydrated with their plan (and its transaction ledger) from the
// plans repository.
type Repository struct {
	db       *sql.DB
	planRepo *plans.Repository
	log      zerolog.Logger
}

// NewRepository creates a new holding repository
func NewRepository(db *sql.DB, planRepo *plans.Repository, log zerolog.Logger) *Repository {
	return &Repository{
		db:       db,
		planRepo: planRepo,
		log:      log.With().Str("repo", "holdings").Logger(),
	}
}

// Create validates and stores a new holding, assigning it an ID.
func (r *Repository) Create(h *domain.Holding) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}

	var planID interface{}
	if h.Plan != nil {
		planID = h.Plan.ID
	}

	query := `
		INSERT INTO holdings (id, symbol, account, shares, purchase_price, purchase_date,
		                      dividend_per_share, dividend_frequency, plan_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		h.ID,
		strings.ToUpper(h.Symbol),
		h.Account,
		h.Shares,
		nullFloat(h.PurchasePrice),
		domain.FormatDay(h.PurchaseDate),
		h.DividendPerShare,
		int(h.DividendFrequency),
		planID,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create holding: %w", err)
	}

	r.log.Info().
		Str("holding", h.ID).
		Str("symbol", h.Symbol).
		Float64("shares", h.Shares).
		Msg("Holding created")

	return nil
}

// GetByID retrieves a holding. Returns nil when it does not exist.
func (r *Repository) GetByID(id string) (*domain.Holding, error) {
	query := selectColumns + " WHERE id = ?"

	h, err := r.scanHolding(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding by ID: %w", err)
	}

	return h, nil
}

// GetAll retrieves every holding, recurring ones with their plan attached.
func (r *Repository) GetAll() ([]domain.Holding, error) {
	return r.query(selectColumns + " ORDER BY symbol, account")
}

// GetByAccount retrieves holdings for one account.
func (r *Repository) GetByAccount(account string) ([]domain.Holding, error) {
	return r.query(selectColumns+" WHERE account = ? ORDER BY symbol", account)
}

// UpdateDividend corrects a holding's dividend metadata, the only
// mutation holdings support besides removal.
func (r *Repository) UpdateDividend(id string, perShare float64, frequency domain.DividendFrequency) error {
	if perShare < 0 {
		return fmt.Errorf("%w: dividend per share cannot be negative", domain.ErrInvalidHolding)
	}
	if !frequency.Valid() {
		return fmt.Errorf("%w: dividend frequency must be 1, 2, 4 or 12", domain.ErrInvalidHolding)
	}

	res, err := r.db.Exec(
		"UPDATE holdings SET dividend_per_share = ?, dividend_frequency = ? WHERE id = ?",
		perShare, int(frequency), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update dividend metadata: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("holding %s not found", id)
	}
	return nil
}

// Delete removes a holding. Explicit user removal is the only deletion path.
func (r *Repository) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM holdings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("holding %s not found", id)
	}

	r.log.Info().Str("holding", id).Msg("Holding deleted")
	return nil
}

const selectColumns = `
	SELECT id, symbol, account, shares, purchase_price, purchase_date,
	       dividend_per_share, dividend_frequency, plan_id
	FROM holdings`

func (r *Repository) query(query string, args ...interface{}) ([]domain.Holding, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var out []domain.Holding
	for rows.Next() {
		h, err := r.scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		out = append(out, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scanHolding(row rowScanner) (*domain.Holding, error) {
	var h domain.Holding
	var price sql.NullFloat64
	var purchaseDate string
	var frequency int
	var planID sql.NullString

	err := row.Scan(
		&h.ID,
		&h.Symbol,
		&h.Account,
		&h.Shares,
		&price,
		&purchaseDate,
		&h.DividendPerShare,
		&frequency,
		&planID,
	)
	if err != nil {
		return nil, err
	}

	if price.Valid {
		p := price.Float64
		h.PurchasePrice = &p
	}
	h.DividendFrequency = domain.DividendFrequency(frequency)

	h.PurchaseDate, err = domain.ParseDay(purchaseDate)
	if err != nil {
		return nil, fmt.Errorf("corrupt purchase_date for holding %s: %w", h.ID, err)
	}

	if planID.Valid && planID.String != "" {
		plan, err := r.planRepo.GetByID(planID.String)
		if err != nil {
			return nil, fmt.Errorf("failed to load plan for holding %s: %w", h.ID, err)
		}
		if plan == nil {
			r.log.Warn().
				Str("holding", h.ID).
				Str("plan", planID.String).
				Msg("Holding references missing plan")
		}
		h.Plan = plan
	}

	return &h, nil
}

func nullFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

package marketdata

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/dividend-tracker/internal/database"
	"github.com/aristath/dividend-tracker/internal/domain"
	"github.com/rs/zerolog"
)

// CacheSchema backs the daily close price cache.
var CacheSchema = database.Schema{
	Name: "price_cache",
	DDL: `
CREATE TABLE IF NOT EXISTS price_cache (
    symbol TEXT NOT NULL,
    date TEXT NOT NULL,
    close REAL NOT NULL,
    fetched_at TEXT NOT NULL,
    PRIMARY KEY (symbol, date)
);

CREATE INDEX IF NOT EXISTS idx_price_cache_date ON price_cache(date);
`,
}

// CacheRepository stores fetched daily closes so repeated valuation and
// trend passes do not refetch the same (symbol, day) pair. Only
// confirmed prices are cached; "no price exists" answers are never
// stored, so skipped reconciliation dates stay eligible for retry.
type CacheRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCacheRepository creates a new price cache repository
func NewCacheRepository(db *sql.DB, log zerolog.Logger) *CacheRepository {
	return &CacheRepository{
		db:  db,
		log: log.With().Str("repo", "price_cache").Logger(),
	}
}

// Get returns the cached close for symbol on day, if present.
func (r *CacheRepository) Get(symbol string, day time.Time) (price float64, fetchedAt time.Time, found bool, err error) {
	query := "SELECT close, fetched_at FROM price_cache WHERE symbol = ? AND date = ?"

	var fetched string
	row := r.db.QueryRow(query, symbol, domain.FormatDay(day))
	if err := row.Scan(&price, &fetched); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, time.Time{}, false, nil
		}
		return 0, time.Time{}, false, fmt.Errorf("failed to read price cache: %w", err)
	}

	fetchedAt, err = time.Parse(time.RFC3339, fetched)
	if err != nil {
		return 0, time.Time{}, false, fmt.Errorf("corrupt fetched_at in price cache: %w", err)
	}

	return price, fetchedAt, true, nil
}

// Put stores a confirmed close for symbol on day.
func (r *CacheRepository) Put(symbol string, day time.Time, price float64, fetchedAt time.Time) error {
	query := `
		INSERT INTO price_cache (symbol, date, close, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET close = excluded.close, fetched_at = excluded.fetched_at
	`

	_, err := r.db.Exec(query, symbol, domain.FormatDay(day), price, fetchedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to cache price: %w", err)
	}
	return nil
}

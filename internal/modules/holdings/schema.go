package holdings

import "github.com/aristath/dividend-tracker/internal/database"

// HoldingsSchema holds one-time and recurring acquisition lots.
// plan_id links a recurring holding to its plan (see the plans module);
// purchase_price is NULL when the entry price is unknown.
var HoldingsSchema = database.Schema{
	Name: "holdings",
	DDL: `
CREATE TABLE IF NOT EXISTS holdings (
    id TEXT PRIMARY KEY,
    symbol TEXT NOT NULL,
    account TEXT NOT NULL DEFAULT '',
    shares REAL NOT NULL,
    purchase_price REAL,
    purchase_date TEXT NOT NULL,
    dividend_per_share REAL NOT NULL DEFAULT 0,
    dividend_frequency INTEGER NOT NULL DEFAULT 4,
    plan_id TEXT,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_holdings_symbol ON holdings(symbol);
CREATE INDEX IF NOT EXISTS idx_holdings_account ON holdings(account);
`,
}

package plans

import "github.com/aristath/dividend-tracker/internal/database"

// PlansSchema holds recurring plans and their contribution ledgers.
// plan_transactions is append-only: one row per (plan, date), written
// by reconciliation and never updated or deleted.
var PlansSchema = database.Schema{
	Name: "plans",
	DDL: `
CREATE TABLE IF NOT EXISTS plans (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    symbol TEXT NOT NULL,
    account TEXT NOT NULL DEFAULT '',
    amount REAL NOT NULL,
    frequency TEXT NOT NULL,
    start_date TEXT NOT NULL,
    end_date TEXT,
    active INTEGER NOT NULL DEFAULT 1,
    note TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS plan_transactions (
    plan_id TEXT NOT NULL,
    date TEXT NOT NULL,
    amount REAL NOT NULL,
    shares REAL NOT NULL,
    price REAL NOT NULL,
    executed INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (plan_id, date),
    FOREIGN KEY (plan_id) REFERENCES plans(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_plan_transactions_date ON plan_transactions(date);
CREATE INDEX IF NOT EXISTS idx_plans_symbol ON plans(symbol);
`,
}

package sqlite

import "database/sql"

// schema sets up the session tables. Runs on startup; IF NOT EXISTS keeps
// it idempotent. Optional columns are nullable so older rows keep loading
// with defaults.
const schema = `
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    is_chosen INTEGER NOT NULL DEFAULT 0,
    card_type INTEGER NOT NULL DEFAULT 0,
    color INTEGER NOT NULL DEFAULT 0,
    position INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    raw_value REAL NOT NULL,
    tx_type INTEGER NOT NULL DEFAULT 0,
    label TEXT,
    locked INTEGER NOT NULL DEFAULT 0,
    box_x REAL,
    box_y REAL,
    box_width REAL,
    box_height REAL
);

CREATE TABLE IF NOT EXISTS card_transactions (
    card_id TEXT NOT NULL,
    transaction_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (card_id, transaction_id),
    FOREIGN KEY (card_id) REFERENCES cards(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS shares (
    transaction_id TEXT NOT NULL,
    card_id TEXT NOT NULL,
    value REAL,
    manually_adjusted INTEGER NOT NULL DEFAULT 0,
    locked INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (transaction_id, card_id),
    FOREIGN KEY (transaction_id) REFERENCES transactions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_card_transactions_card_id ON card_transactions(card_id);
CREATE INDEX IF NOT EXISTS idx_shares_transaction_id ON shares(transaction_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

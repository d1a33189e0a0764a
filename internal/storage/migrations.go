package storage

// Migration represents a database migration
type Migration struct {
	Version     string
	Description string
	SQL         string
}

// GetSQLiteMigrations returns SQLite migration scripts. Event times are
// stored as unix nanoseconds so range filters compare numerically, and
// decimal amounts as text so balances round-trip exactly.
func GetSQLiteMigrations() []*Migration {
	return []*Migration{
		{
			Version:     "001",
			Description: "Create balance_changes table",
			SQL: `
				CREATE TABLE IF NOT EXISTS balance_changes (
					account_id TEXT NOT NULL,
					block_height INTEGER NOT NULL,
					event_time INTEGER NOT NULL, -- unix nanoseconds, UTC
					token_id TEXT NOT NULL,
					counterparty TEXT NOT NULL,
					amount TEXT NOT NULL,
					balance_before TEXT NOT NULL,
					balance_after TEXT NOT NULL,
					transaction_hashes TEXT NOT NULL, -- JSON array
					receipt_id TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_balance_changes_account_time
					ON balance_changes(account_id, event_time, block_height);
				CREATE INDEX IF NOT EXISTS idx_balance_changes_account_token
					ON balance_changes(account_id, token_id);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_balance_changes_unique
					ON balance_changes(account_id, token_id, block_height, receipt_id);
			`,
		},
		{
			Version:     "002",
			Description: "Create token_metadata table",
			SQL: `
				CREATE TABLE IF NOT EXISTS token_metadata (
					token_id TEXT PRIMARY KEY,
					symbol TEXT NOT NULL,
					decimals INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				);

				INSERT OR IGNORE INTO token_metadata (token_id, symbol, decimals)
					VALUES ('near', 'NEAR', 24);
			`,
		},
	}
}

// GetPostgresMigrations returns PostgreSQL migration scripts
func GetPostgresMigrations() []*Migration {
	return []*Migration{
		{
			Version:     "001",
			Description: "Create balance_changes table",
			SQL: `
				CREATE TABLE IF NOT EXISTS balance_changes (
					account_id TEXT NOT NULL,
					block_height BIGINT NOT NULL,
					event_time BIGINT NOT NULL,
					token_id TEXT NOT NULL,
					counterparty TEXT NOT NULL,
					amount TEXT NOT NULL,
					balance_before TEXT NOT NULL,
					balance_after TEXT NOT NULL,
					transaction_hashes TEXT NOT NULL,
					receipt_id TEXT NOT NULL,
					created_at TIMESTAMPTZ DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_balance_changes_account_time
					ON balance_changes(account_id, event_time, block_height);
				CREATE INDEX IF NOT EXISTS idx_balance_changes_account_token
					ON balance_changes(account_id, token_id);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_balance_changes_unique
					ON balance_changes(account_id, token_id, block_height, receipt_id);
			`,
		},
		{
			Version:     "002",
			Description: "Create token_metadata table",
			SQL: `
				CREATE TABLE IF NOT EXISTS token_metadata (
					token_id TEXT PRIMARY KEY,
					symbol TEXT NOT NULL,
					decimals INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMPTZ DEFAULT NOW()
				);

				INSERT INTO token_metadata (token_id, symbol, decimals)
					VALUES ('near', 'NEAR', 24)
					ON CONFLICT (token_id) DO NOTHING;
			`,
		},
	}
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/smartdevs17/balance-history/internal/models"
	"github.com/smartdevs17/balance-history/pkg/utils"
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db         *sql.DB
	config     *StoreConfig
	logger     *logrus.Logger
	migrations []*Migration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(config *StoreConfig) *SQLiteStore {
	return &SQLiteStore{
		config:     config,
		logger:     utils.GetLogger(),
		migrations: GetSQLiteMigrations(),
	}
}

// Connect establishes the database connection
func (s *SQLiteStore) Connect() error {
	dir := filepath.Dir(s.config.ConnectionString)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to create database directory", err.Error())
		}
	}

	db, err := sql.Open("sqlite", s.config.ConnectionString)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to open SQLite database", err.Error())
	}

	db.SetMaxOpenConns(s.config.MaxConnections)
	db.SetMaxIdleConns(s.config.MaxConnections / 2)
	db.SetConnMaxLifetime(s.config.MaxIdleTime)

	// WAL mode for better read concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to enable WAL mode", err.Error())
	}

	s.db = db
	s.logger.WithField("path", s.config.ConnectionString).Info("SQLite database connected")

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		s.logger.Info("SQLite database connection closed")
		return err
	}
	return nil
}

// Ping checks database connectivity
func (s *SQLiteStore) Ping() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected")
	}
	return s.db.Ping()
}

// Migrate runs database migrations
func (s *SQLiteStore) Migrate() error {
	if s.db == nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Database not connected")
	}

	for _, migration := range s.migrations {
		s.logger.WithFields(logrus.Fields{
			"version":     migration.Version,
			"description": migration.Description,
		}).Info("Applying migration")

		if _, err := s.db.Exec(migration.SQL); err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase,
				fmt.Sprintf("Migration %s failed", migration.Version),
				err.Error())
		}
	}

	return nil
}

// SaveRecords inserts a batch of ledger records in one transaction. The
// ledger is append-only: duplicates of an already stored record are
// rejected by the unique index, never overwritten.
func (s *SQLiteStore) SaveRecords(ctx context.Context, records []*models.BalanceChangeRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to begin transaction", err.Error())
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO balance_changes (
			account_id, block_height, event_time, token_id, counterparty,
			amount, balance_before, balance_after, transaction_hashes, receipt_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to prepare insert", err.Error())
	}
	defer stmt.Close()

	for _, record := range records {
		hashes, err := json.Marshal(record.TransactionHashes)
		if err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to marshal transaction hashes", err.Error())
		}

		_, err = stmt.ExecContext(ctx,
			record.AccountID,
			record.BlockHeight,
			record.EventTime.UTC().UnixNano(),
			record.TokenID,
			record.Counterparty,
			record.Amount.String(),
			record.BalanceBefore.String(),
			record.BalanceAfter.String(),
			string(hashes),
			record.ReceiptID,
		)
		if err != nil {
			return utils.NewAppError(utils.ErrCodeDatabase, "Failed to insert record", err.Error())
		}
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to commit records", err.Error())
	}

	return nil
}

// GetBalanceChanges returns records matching the filter in chain order
// (event_time, block_height ascending). From is inclusive, To exclusive.
func (s *SQLiteStore) GetBalanceChanges(ctx context.Context, filter models.RecordFilter) ([]*models.BalanceChangeRecord, error) {
	query := `
		SELECT account_id, block_height, event_time, token_id, counterparty,
		       amount, balance_before, balance_after, transaction_hashes, receipt_id
		FROM balance_changes WHERE account_id = ?
	`
	args := []interface{}{filter.AccountID}

	if filter.From != nil {
		query += " AND event_time >= ?"
		args = append(args, filter.From.UTC().UnixNano())
	}

	if filter.To != nil {
		query += " AND event_time < ?"
		args = append(args, filter.To.UTC().UnixNano())
	}

	if len(filter.TokenIDs) > 0 {
		query += " AND token_id IN (?" + strings.Repeat(", ?", len(filter.TokenIDs)-1) + ")"
		for _, tokenID := range filter.TokenIDs {
			args = append(args, tokenID)
		}
	}

	query += " ORDER BY event_time ASC, block_height ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query balance changes", err.Error())
	}
	defer rows.Close()

	var records []*models.BalanceChangeRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to iterate balance changes", err.Error())
	}

	return records, nil
}

// ListTokenIDs returns every token observed for an account, sorted.
func (s *SQLiteStore) ListTokenIDs(ctx context.Context, accountID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT token_id FROM balance_changes WHERE account_id = ? ORDER BY token_id ASC",
		accountID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to list token IDs", err.Error())
	}
	defer rows.Close()

	var tokenIDs []string
	for rows.Next() {
		var tokenID string
		if err := rows.Scan(&tokenID); err != nil {
			return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan token ID", err.Error())
		}
		tokenIDs = append(tokenIDs, tokenID)
	}

	return tokenIDs, rows.Err()
}

// SaveTokenMetadata registers or updates a token's display metadata
func (s *SQLiteStore) SaveTokenMetadata(ctx context.Context, metadata *models.TokenMetadata) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO token_metadata (token_id, symbol, decimals)
		VALUES (?, ?, ?)
		ON CONFLICT (token_id) DO UPDATE SET symbol = excluded.symbol, decimals = excluded.decimals
	`, metadata.TokenID, metadata.Symbol, metadata.Decimals)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDatabase, "Failed to save token metadata", err.Error())
	}
	return nil
}

// GetTokenMetadata returns metadata for a token, or nil when the token is
// not registered.
func (s *SQLiteStore) GetTokenMetadata(ctx context.Context, tokenID string) (*models.TokenMetadata, error) {
	var metadata models.TokenMetadata
	err := s.db.QueryRowContext(ctx,
		"SELECT token_id, symbol, decimals FROM token_metadata WHERE token_id = ?",
		tokenID).Scan(&metadata.TokenID, &metadata.Symbol, &metadata.Decimals)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query token metadata", err.Error())
	}
	return &metadata, nil
}

// GetStats returns ledger statistics
func (s *SQLiteStore) GetStats(ctx context.Context) (*StoreStats, error) {
	stats := &StoreStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT account_id), COUNT(DISTINCT token_id)
		FROM balance_changes
	`).Scan(&stats.TotalRecords, &stats.TotalAccounts, &stats.TotalTokens)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query ledger stats", err.Error())
	}

	var oldest, latest sql.NullInt64
	err = s.db.QueryRowContext(ctx,
		"SELECT MIN(event_time), MAX(event_time) FROM balance_changes").Scan(&oldest, &latest)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to query event time bounds", err.Error())
	}
	if oldest.Valid {
		t := time.Unix(0, oldest.Int64).UTC()
		stats.OldestEvent = &t
	}
	if latest.Valid {
		t := time.Unix(0, latest.Int64).UTC()
		stats.LatestEvent = &t
	}

	return stats, nil
}

// GetHealth reports store health
func (s *SQLiteStore) GetHealth() HealthStatus {
	if err := s.Ping(); err != nil {
		return HealthStatus{Healthy: false, Error: err.Error()}
	}
	return HealthStatus{Healthy: true}
}

// scanRecord reads one balance_changes row
func scanRecord(rows *sql.Rows) (*models.BalanceChangeRecord, error) {
	var (
		record     models.BalanceChangeRecord
		eventNanos int64
		amount     string
		before     string
		after      string
		hashesJSON string
	)

	err := rows.Scan(&record.AccountID, &record.BlockHeight, &eventNanos, &record.TokenID,
		&record.Counterparty, &amount, &before, &after, &hashesJSON, &record.ReceiptID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan record", err.Error())
	}

	record.EventTime = time.Unix(0, eventNanos).UTC()

	if record.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to parse amount", err.Error())
	}
	if record.BalanceBefore, err = decimal.NewFromString(before); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to parse balance_before", err.Error())
	}
	if record.BalanceAfter, err = decimal.NewFromString(after); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to parse balance_after", err.Error())
	}

	if err := json.Unmarshal([]byte(hashesJSON), &record.TransactionHashes); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to unmarshal transaction hashes", err.Error())
	}

	return &record, nil
}

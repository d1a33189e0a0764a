// Package storage persists the append-only ledger of balance-change records
// and the token metadata registry. From this service's point of view the
// ledger is read-mostly: records are inserted in batches by the import path
// and never updated or deleted.
package storage

import (
	"context"
	"time"

	"github.com/smartdevs17/balance-history/internal/models"
)

// Store defines the ledger record store interface
type Store interface {
	// Connection management
	Connect() error
	Close() error
	Ping() error
	Migrate() error

	// Ledger operations
	SaveRecords(ctx context.Context, records []*models.BalanceChangeRecord) error
	GetBalanceChanges(ctx context.Context, filter models.RecordFilter) ([]*models.BalanceChangeRecord, error)
	ListTokenIDs(ctx context.Context, accountID string) ([]string, error)

	// Token metadata operations
	SaveTokenMetadata(ctx context.Context, metadata *models.TokenMetadata) error
	GetTokenMetadata(ctx context.Context, tokenID string) (*models.TokenMetadata, error)

	// Statistics and monitoring
	GetStats(ctx context.Context) (*StoreStats, error)
	GetHealth() HealthStatus
}

// StoreStats provides ledger statistics
type StoreStats struct {
	TotalRecords  int64      `json:"total_records"`
	TotalAccounts int64      `json:"total_accounts"`
	TotalTokens   int64      `json:"total_tokens"`
	OldestEvent   *time.Time `json:"oldest_event,omitempty"`
	LatestEvent   *time.Time `json:"latest_event,omitempty"`
}

// HealthStatus reports store health
type HealthStatus struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// StoreConfig holds store configuration
type StoreConfig struct {
	Type             string        `json:"type"`
	ConnectionString string        `json:"connection_string"`
	MaxConnections   int           `json:"max_connections"`
	MaxIdleTime      time.Duration `json:"max_idle_time"`
}

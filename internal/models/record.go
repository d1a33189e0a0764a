package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// NativeTokenID is the sentinel token identifier for the chain's native asset.
const NativeTokenID = "near"

// Sentinel counterparty values written by the indexer. Records carrying them
// are structural ledger artifacts, not real transfers, and are excluded from
// user-facing exports.
const (
	CounterpartySnapshot      = "SNAPSHOT"
	CounterpartyNotRegistered = "NOT_REGISTERED"
)

// BalanceChangeRecord is one ledger entry for one (account, token): a signed
// balance delta together with the balances immediately before and after it.
// Records are immutable once written; the ledger is append-only.
type BalanceChangeRecord struct {
	AccountID         string          `json:"account_id" db:"account_id"`
	BlockHeight       uint64          `json:"block_height" db:"block_height"`
	EventTime         time.Time       `json:"event_time" db:"event_time"`
	TokenID           string          `json:"token_id" db:"token_id"`
	Counterparty      string          `json:"counterparty" db:"counterparty"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	BalanceBefore     decimal.Decimal `json:"balance_before" db:"balance_before"`
	BalanceAfter      decimal.Decimal `json:"balance_after" db:"balance_after"`
	TransactionHashes []string        `json:"transaction_hashes" db:"transaction_hashes"`
	ReceiptID         string          `json:"receipt_id" db:"receipt_id"`
}

// IsStructural reports whether the record is a ledger-internal artifact
// (checkpoint or unresolved counterparty) rather than a real transfer.
func (r *BalanceChangeRecord) IsStructural() bool {
	return r.Counterparty == CounterpartySnapshot || r.Counterparty == CounterpartyNotRegistered
}

// RecordFilter selects ledger records for one account.
// From is inclusive, To is exclusive; either may be nil for no bound.
type RecordFilter struct {
	AccountID string     `json:"account_id"`
	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"`
	TokenIDs  []string   `json:"token_ids,omitempty"`
}

// TokenMetadata describes an asset known to the service.
type TokenMetadata struct {
	TokenID  string `json:"token_id" db:"token_id"`
	Symbol   string `json:"symbol" db:"symbol"`
	Decimals int    `json:"decimals" db:"decimals"`
}

// Snapshot is a reconstructed balance at one sample instant. Derived per
// request, never persisted.
type Snapshot struct {
	Timestamp time.Time       `json:"timestamp"`
	Balance   decimal.Decimal `json:"balance"`
}

// SortRecords orders records by (event_time, block_height), the canonical
// chain order. Records at the same event_time apply in block_height order.
func SortRecords(records []*BalanceChangeRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].EventTime.Equal(records[j].EventTime) {
			return records[i].BlockHeight < records[j].BlockHeight
		}
		return records[i].EventTime.Before(records[j].EventTime)
	})
}

// GroupByToken splits records into per-token chains, each in chain order.
func GroupByToken(records []*BalanceChangeRecord) map[string][]*BalanceChangeRecord {
	grouped := make(map[string][]*BalanceChangeRecord)
	for _, record := range records {
		grouped[record.TokenID] = append(grouped[record.TokenID], record)
	}
	for _, chain := range grouped {
		SortRecords(chain)
	}
	return grouped
}

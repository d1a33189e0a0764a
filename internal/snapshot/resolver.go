// Package snapshot reconstructs point-in-time balances from a token's
// ordered chain of balance-change records.
package snapshot

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartdevs17/balance-history/internal/models"
)

// Resolve computes the balance in effect at each sample instant for one
// (account, token) chain. Records must be in chain order (event_time,
// block_height ascending) and instants non-decreasing.
//
// The resolution is a single forward merge over both sequences: a cursor
// advances through the records while the next record's event_time <= the
// current instant, carrying the last seen balance_after. Instants before the
// first record resolve to zero; instants inside gaps or past the last record
// carry the last known balance forward. Linear in len(records)+len(instants).
func Resolve(records []*models.BalanceChangeRecord, instants []time.Time) []models.Snapshot {
	snapshots := make([]models.Snapshot, 0, len(instants))

	balance := decimal.Zero
	cursor := 0

	for _, instant := range instants {
		for cursor < len(records) && !records[cursor].EventTime.After(instant) {
			// Records sharing an event_time apply in block_height order, so
			// only the final balance_after of a tie group survives here.
			balance = records[cursor].BalanceAfter
			cursor++
		}
		snapshots = append(snapshots, models.Snapshot{Timestamp: instant, Balance: balance})
	}

	return snapshots
}

package snapshot

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/balance-history/internal/models"
)

func chainRecord(tokenID, eventTime string, height uint64, before, after int64) *models.BalanceChangeRecord {
	r := record(eventTime, height, after)
	r.TokenID = tokenID
	r.BalanceBefore = decimal.NewFromInt(before)
	return r
}

func TestCheckChainConsistent(t *testing.T) {
	records := []*models.BalanceChangeRecord{
		chainRecord("near", "2025-01-01T00:00:00", 100, 0, 100),
		chainRecord("near", "2025-01-02T00:00:00", 200, 100, 150),
		chainRecord("near", "2025-01-03T00:00:00", 300, 150, 120),
	}

	assert.Empty(t, CheckChain(records))
}

func TestCheckChainDetectsBrokenLink(t *testing.T) {
	records := []*models.BalanceChangeRecord{
		chainRecord("near", "2025-01-01T00:00:00", 100, 0, 100),
		chainRecord("near", "2025-01-02T00:00:00", 200, 90, 150), // should start at 100
	}

	inconsistencies := CheckChain(records)
	require.Len(t, inconsistencies, 1)
	assert.Equal(t, uint64(200), inconsistencies[0].Record.BlockHeight)
	assert.Equal(t, "100", inconsistencies[0].ExpectedBalanceBefore.String())
	// The record itself is surfaced unmodified.
	assert.Equal(t, "90", inconsistencies[0].Record.BalanceBefore.String())
}

func TestCheckChainPerTokenChains(t *testing.T) {
	// A break in one token's chain must not implicate another token.
	records := []*models.BalanceChangeRecord{
		chainRecord("near", "2025-01-01T00:00:00", 100, 0, 100),
		chainRecord("usdt.tether-token.near", "2025-01-01T12:00:00", 150, 0, 500),
		chainRecord("near", "2025-01-02T00:00:00", 200, 100, 150),
		chainRecord("usdt.tether-token.near", "2025-01-02T12:00:00", 250, 400, 600),
	}

	inconsistencies := CheckChain(records)
	require.Len(t, inconsistencies, 1)
	assert.Equal(t, "usdt.tether-token.near", inconsistencies[0].Record.TokenID)
}

func TestCheckChainFirstRecordNeverFlagged(t *testing.T) {
	// A nonzero opening balance_before has no predecessor to disagree with.
	records := []*models.BalanceChangeRecord{
		chainRecord("near", "2025-01-01T00:00:00", 100, 42, 142),
	}

	assert.Empty(t, CheckChain(records))
}

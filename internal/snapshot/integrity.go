package snapshot

import (
	"github.com/shopspring/decimal"

	"github.com/smartdevs17/balance-history/internal/models"
)

// Inconsistency flags a record whose balance_before disagrees with its
// predecessor's balance_after in the same (account, token) chain. The record
// is surfaced as stored; the service never fabricates a consistent value.
type Inconsistency struct {
	Record                *models.BalanceChangeRecord `json:"record"`
	ExpectedBalanceBefore decimal.Decimal             `json:"expected_balance_before"`
}

// CheckChain walks every token chain in the given records and reports each
// link where balance_before != the previous record's balance_after. The
// first record of a chain has no predecessor and is never flagged.
func CheckChain(records []*models.BalanceChangeRecord) []Inconsistency {
	var inconsistencies []Inconsistency

	for _, chain := range models.GroupByToken(records) {
		for i := 1; i < len(chain); i++ {
			expected := chain[i-1].BalanceAfter
			if !chain[i].BalanceBefore.Equal(expected) {
				inconsistencies = append(inconsistencies, Inconsistency{
					Record:                chain[i],
					ExpectedBalanceBefore: expected,
				})
			}
		}
	}

	return inconsistencies
}

// Package export renders ledger records into the flat CSV audit schema.
package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/smartdevs17/balance-history/internal/models"
	"github.com/smartdevs17/balance-history/pkg/utils"
)

// BlockTimeLayout is the human-readable block_time rendering used in export
// rows.
const BlockTimeLayout = "2006-01-02 15:04:05 UTC"

// Header is the fixed export column order.
var Header = []string{
	"block_height",
	"block_time",
	"token_id",
	"token_symbol",
	"counterparty",
	"amount",
	"balance_before",
	"balance_after",
	"transaction_hashes",
	"receipt_id",
}

// Row is one formatted export line. All values are already rendered; the CSV
// writer only handles quoting.
type Row struct {
	BlockHeight       uint64
	BlockTime         string
	TokenID           string
	TokenSymbol       string
	Counterparty      string
	Amount            string
	BalanceBefore     string
	BalanceAfter      string
	TransactionHashes string
	ReceiptID         string
}

// SymbolResolver looks up the display symbol for a token. Unknown tokens
// must not fail the export; implementations fall back to the token_id.
type SymbolResolver interface {
	TokenSymbol(ctx context.Context, tokenID string) (string, error)
}

// Eligible reports whether a record belongs in an export. SNAPSHOT and
// NOT_REGISTERED counterparties are ledger-internal artifacts and carry no
// export meaning.
func Eligible(record *models.BalanceChangeRecord) bool {
	return !record.IsStructural()
}

// BuildRows selects the eligible records and renders them into export rows,
// in chain order. Records arrive already restricted to the requested
// timeframe and tokens by the store query; no snapshot resolution happens on
// this path.
func BuildRows(ctx context.Context, records []*models.BalanceChangeRecord, symbols SymbolResolver) ([]Row, error) {
	ordered := make([]*models.BalanceChangeRecord, len(records))
	copy(ordered, records)
	models.SortRecords(ordered)

	symbolCache := make(map[string]string)

	rows := make([]Row, 0, len(ordered))
	for _, record := range ordered {
		if !Eligible(record) {
			continue
		}

		symbol, cached := symbolCache[record.TokenID]
		if !cached {
			resolved, err := symbols.TokenSymbol(ctx, record.TokenID)
			if err != nil {
				return nil, utils.NewAppError(utils.ErrCodeInternal,
					"Failed to resolve token symbol", err.Error())
			}
			symbol = resolved
			symbolCache[record.TokenID] = symbol
		}

		rows = append(rows, Row{
			BlockHeight:       record.BlockHeight,
			BlockTime:         record.EventTime.UTC().Format(BlockTimeLayout),
			TokenID:           record.TokenID,
			TokenSymbol:       symbol,
			Counterparty:      record.Counterparty,
			Amount:            record.Amount.String(),
			BalanceBefore:     record.BalanceBefore.String(),
			BalanceAfter:      record.BalanceAfter.String(),
			TransactionHashes: strings.Join(record.TransactionHashes, ","),
			ReceiptID:         record.ReceiptID,
		})
	}

	return rows, nil
}

// WriteCSV writes the header and rows to w. The transaction_hashes field is
// comma-joined inside its cell; encoding/csv quotes it as needed.
func WriteCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return utils.NewAppError(utils.ErrCodeInternal, "Failed to write CSV header", err.Error())
	}

	for _, row := range rows {
		record := []string{
			strconv.FormatUint(row.BlockHeight, 10),
			row.BlockTime,
			row.TokenID,
			row.TokenSymbol,
			row.Counterparty,
			row.Amount,
			row.BalanceBefore,
			row.BalanceAfter,
			row.TransactionHashes,
			row.ReceiptID,
		}
		if err := writer.Write(record); err != nil {
			return utils.NewAppError(utils.ErrCodeInternal, "Failed to write CSV row", err.Error())
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return utils.NewAppError(utils.ErrCodeInternal, "Failed to flush CSV output", err.Error())
	}

	return nil
}

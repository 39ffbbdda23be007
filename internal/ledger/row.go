// Package ledger defines the canonical normalized transaction row and the
// assembler that turns per-exchange row sets into the CSV output schema.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RecordType classifies a ledger row. Empty means the record was kept but
// carries no classification.
type RecordType string

const (
	TypeTrade      RecordType = "trade"
	TypeDeposit    RecordType = "deposit"
	TypeWithdrawal RecordType = "withdrawal"
)

// Row is one canonical transaction record. TradeDate is an ISO-8601
// timestamp string and doubles as the sort key: lexicographic comparison is
// sufficient because timestamps are zero-padded and same-zone. Exchange is
// carried internally but never written to the CSV, whose header declares
// ten columns.
type Row struct {
	TradeDate    string
	BuyAmount    string
	BuyCurrency  string
	SellAmount   string
	SellCurrency string
	FeeAmount    string
	FeeCurrency  string
	ExternalID   string
	Comment      string
	Type         RecordType
	Exchange     string
}

// Fixed8 formats a computed amount with exactly eight fractional digits.
// Passthrough amounts taken verbatim from the API are never run through
// this.
func Fixed8(d decimal.Decimal) string {
	return d.StringFixed(8)
}

// Amount parses a decimal-string amount from a raw record.
func Amount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("bad amount %q: %w", s, err)
	}
	return d, nil
}

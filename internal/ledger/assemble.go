package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
)

// Header is the declared 10-column output schema.
var Header = []string{
	"Trade date",
	"Buy amount",
	"Buy currency",
	"Sell amount",
	"Sell currency",
	"Fee amount",
	"Fee currency",
	"Trade ID",
	"Comment",
	"Type",
}

// Assemble returns a copy of rows stable-sorted ascending by TradeDate.
// Rows with equal timestamps keep their input order so same-source records
// are not reordered. No row is mutated.
func Assemble(rows []Row) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TradeDate < out[j].TradeDate
	})
	return out
}

// WriteCSV serializes rows to w in the declared 10-column schema. The
// internal exchange column is dropped on write to match the header. Fields
// are quoted/escaped by encoding/csv, so commas inside comments stay inside
// their column.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.TradeDate,
			r.BuyAmount,
			r.BuyCurrency,
			r.SellAmount,
			r.SellCurrency,
			r.FeeAmount,
			r.FeeCurrency,
			r.ExternalID,
			r.Comment,
			string(r.Type),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

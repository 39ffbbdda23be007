package ledger

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAssembleSortsByTradeDate(t *testing.T) {
	rows := []Row{
		{TradeDate: "2021-03-01T10:00:00Z", ExternalID: "c"},
		{TradeDate: "2021-01-01T00:00:00Z", ExternalID: "a"},
		{TradeDate: "2021-02-15T23:59:59Z", ExternalID: "b"},
	}
	got := Assemble(rows)
	ids := []string{got[0].ExternalID, got[1].ExternalID, got[2].ExternalID}
	if !reflect.DeepEqual(ids, []string{"a", "b", "c"}) {
		t.Errorf("unexpected order: %v", ids)
	}
	// Input untouched.
	if rows[0].ExternalID != "c" {
		t.Errorf("input slice was mutated")
	}
}

func TestAssembleStableOnTies(t *testing.T) {
	rows := []Row{
		{TradeDate: "2021-01-01T00:00:00Z", ExternalID: "first"},
		{TradeDate: "2021-01-01T00:00:00Z", ExternalID: "second"},
		{TradeDate: "2020-01-01T00:00:00Z", ExternalID: "earliest"},
	}
	got := Assemble(rows)
	if got[0].ExternalID != "earliest" || got[1].ExternalID != "first" || got[2].ExternalID != "second" {
		t.Errorf("tie order not preserved: %+v", got)
	}
}

func TestAssembleIdempotentUnderPermutation(t *testing.T) {
	base := []Row{
		{TradeDate: "2021-01-01T00:00:00Z", ExternalID: "a"},
		{TradeDate: "2021-02-01T00:00:00Z", ExternalID: "b"},
		{TradeDate: "2021-03-01T00:00:00Z", ExternalID: "c"},
		{TradeDate: "2021-04-01T00:00:00Z", ExternalID: "d"},
	}
	perm := []Row{base[2], base[0], base[3], base[1]}

	a := Assemble(base)
	b := Assemble(perm)
	if len(a) != len(b) {
		t.Fatalf("row count changed: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("row %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestWriteCSVSchema(t *testing.T) {
	rows := []Row{
		{
			TradeDate:    "2021-01-01T00:00:00Z",
			BuyAmount:    "2.0",
			BuyCurrency:  "BTC",
			SellAmount:   "200.50000000",
			SellCurrency: "USD",
			FeeAmount:    "0.5",
			FeeCurrency:  "USD",
			ExternalID:   "abc-1",
			Comment:      "Reference: ref, with comma",
			Type:         TypeTrade,
			Exchange:     "Coinbase",
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Trade date,Buy amount,Buy currency,Sell amount,Sell currency,Fee amount,Fee currency,Trade ID,Comment,Type" {
		t.Errorf("unexpected header: %s", lines[0])
	}

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse written csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d records", len(records))
	}
	// The exchange column stays internal: exactly the ten declared columns.
	if len(records[1]) != 10 {
		t.Errorf("expected 10 columns, got %d", len(records[1]))
	}
	if records[1][8] != "Reference: ref, with comma" {
		t.Errorf("comment not preserved through quoting: %q", records[1][8])
	}
	if strings.Contains(buf.String(), "Coinbase") {
		t.Errorf("exchange name leaked into output")
	}
}

func TestFixed8(t *testing.T) {
	d := decimal.RequireFromString("200.5")
	if got := Fixed8(d); got != "200.50000000" {
		t.Errorf("Fixed8 = %q", got)
	}
	neg := decimal.RequireFromString("-0.1")
	if got := Fixed8(neg.Neg()); got != "0.10000000" {
		t.Errorf("Fixed8 negated = %q", got)
	}
}

func TestAmount(t *testing.T) {
	if _, err := Amount("12.34"); err != nil {
		t.Errorf("Amount valid: %v", err)
	}
	if _, err := Amount("12,34"); err == nil {
		t.Errorf("expected parse error")
	}
}

package binance

import (
	"fmt"
	"strings"
	"time"

	binance "github.com/adshao/go-binance/v2"

	"cryptoexport/internal/ledger"
)

const exchangeLabel = "Binance"

// Deposit and withdrawal status codes from the Binance capital endpoints.
const (
	depositStatusSuccess    = 1
	withdrawStatusCompleted = 6
)

// splitPair splits a configured "BASE-QUOTE" pair. The exchange itself uses
// undelimited symbols, so the configuration keeps the dash to make the quote
// currency recoverable.
func splitPair(pair string) (base, quote string, err error) {
	base, quote, found := strings.Cut(pair, "-")
	if !found || base == "" || quote == "" {
		return "", "", fmt.Errorf("malformed trading pair %q, want BASE-QUOTE", pair)
	}
	return base, quote, nil
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

// classifyTrade maps one account trade to a trade row. The commission is
// folded into the quote leg when it is charged in the quote currency; a
// commission in any other asset (base, BNB) stays on the fee columns only.
func classifyTrade(pair string, t *binance.TradeV3) (*ledger.Row, error) {
	base, quote, err := splitPair(pair)
	if err != nil {
		return nil, err
	}

	gross, err := ledger.Amount(t.QuoteQuantity)
	if err != nil {
		return nil, err
	}
	commission, err := ledger.Amount(t.Commission)
	if err != nil {
		return nil, err
	}

	row := &ledger.Row{
		TradeDate:   formatMillis(t.Time),
		FeeAmount:   t.Commission,
		FeeCurrency: t.CommissionAsset,
		ExternalID:  fmt.Sprintf("%d-%d", t.OrderID, t.ID),
		Comment:     fmt.Sprintf("Quote volume: %s %s", t.QuoteQuantity, quote),
		Type:        ledger.TypeTrade,
		Exchange:    exchangeLabel,
	}

	if t.IsBuyer {
		row.BuyAmount = t.Quantity
		row.BuyCurrency = base
		row.SellCurrency = quote
		if t.CommissionAsset == quote {
			row.SellAmount = ledger.Fixed8(gross.Add(commission))
		} else {
			row.SellAmount = ledger.Fixed8(gross)
		}
	} else {
		row.SellAmount = t.Quantity
		row.SellCurrency = base
		row.BuyCurrency = quote
		if t.CommissionAsset == quote {
			row.BuyAmount = ledger.Fixed8(gross.Sub(commission))
		} else {
			row.BuyAmount = ledger.Fixed8(gross)
		}
	}
	return row, nil
}

// classifyDeposit maps a credited network deposit to a deposit row.
// Deposits still pending confirmation yield no row.
func classifyDeposit(d *binance.Deposit) (*ledger.Row, error) {
	if d.Status != depositStatusSuccess {
		return nil, nil
	}
	amt, err := ledger.Amount(d.Amount)
	if err != nil {
		return nil, err
	}
	return &ledger.Row{
		TradeDate:    formatMillis(d.InsertTime),
		BuyAmount:    ledger.Fixed8(amt),
		BuyCurrency:  d.Coin,
		SellAmount:   "0",
		SellCurrency: d.Coin,
		FeeAmount:    "0",
		FeeCurrency:  d.Coin,
		ExternalID:   d.TxID,
		Comment:      "Network deposit",
		Type:         ledger.TypeDeposit,
		Exchange:     exchangeLabel,
	}, nil
}

// classifyWithdrawal maps a completed withdrawal to a withdrawal row. The
// network fee is reported separately by the API and carried on the fee
// columns in the withdrawn coin.
func classifyWithdrawal(w *binance.Withdraw) (*ledger.Row, error) {
	if w.Status != withdrawStatusCompleted {
		return nil, nil
	}
	amt, err := ledger.Amount(w.Amount)
	if err != nil {
		return nil, err
	}
	fee, err := ledger.Amount(w.TransactionFee)
	if err != nil {
		return nil, err
	}
	return &ledger.Row{
		TradeDate:    formatApplyTime(w.ApplyTime),
		BuyAmount:    "0",
		BuyCurrency:  w.Coin,
		SellAmount:   ledger.Fixed8(amt),
		SellCurrency: w.Coin,
		FeeAmount:    ledger.Fixed8(fee),
		FeeCurrency:  w.Coin,
		ExternalID:   w.ID,
		Comment:      "Network withdrawal: " + w.TxID,
		Type:         ledger.TypeWithdrawal,
		Exchange:     exchangeLabel,
	}, nil
}

// formatApplyTime normalizes the withdrawal timestamp, which the API
// reports as "2006-01-02 15:04:05" in UTC. Unparseable values pass through
// so the row is still usable.
func formatApplyTime(s string) string {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return s
	}
	return t.UTC().Format(time.RFC3339)
}

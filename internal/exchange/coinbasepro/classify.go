package coinbasepro

import (
	"fmt"
	"strings"

	"cryptoexport/internal/exchange"
	"cryptoexport/internal/ledger"
)

const exchangeLabel = "Coinbase Pro"

// classifyFill maps one fill to a trade row. The exchange reports the base
// leg and the fee separately, so the quote leg is computed: a buy pays
// size*price plus the fee, a sell receives size*price minus it. Fees are
// always charged in the quote currency.
func classifyFill(f Fill) (*ledger.Row, error) {
	base, quote, found := strings.Cut(f.ProductID, "-")
	if !found {
		return nil, fmt.Errorf("malformed product id %q", f.ProductID)
	}

	size, err := ledger.Amount(f.Size)
	if err != nil {
		return nil, err
	}
	price, err := ledger.Amount(f.Price)
	if err != nil {
		return nil, err
	}
	fee, err := ledger.Amount(f.Fee)
	if err != nil {
		return nil, err
	}
	gross := size.Mul(price)

	row := &ledger.Row{
		TradeDate:   f.CreatedAt,
		FeeAmount:   f.Fee,
		FeeCurrency: quote,
		ExternalID:  fmt.Sprintf("%s-%s", f.OrderID, f.TradeID),
		Comment:     fmt.Sprintf("USD volume: $%s", f.USDVolume),
		Type:        ledger.TypeTrade,
		Exchange:    exchangeLabel,
	}

	switch f.Side {
	case "buy":
		row.BuyAmount = f.Size
		row.BuyCurrency = base
		row.SellAmount = ledger.Fixed8(gross.Add(fee))
		row.SellCurrency = quote
	case "sell":
		row.BuyAmount = ledger.Fixed8(gross.Sub(fee))
		row.BuyCurrency = quote
		row.SellAmount = f.Size
		row.SellCurrency = base
	default:
		return nil, fmt.Errorf("%w: fill side %q", exchange.ErrUnknownType, f.Side)
	}
	return row, nil
}

// classifyLedgerEntry maps one account-history entry to at most one row.
// match and fee entries yield no row: the fills export already carries both
// legs and the fee of every trade.
func classifyLedgerEntry(currency string, e LedgerEntry) (*ledger.Row, error) {
	switch e.Type {
	case "match", "fee":
		return nil, nil

	case "transfer":
		amt, err := ledger.Amount(e.Amount)
		if err != nil {
			return nil, err
		}
		row := &ledger.Row{
			TradeDate:    e.CreatedAt,
			BuyAmount:    "0",
			BuyCurrency:  currency,
			SellAmount:   "0",
			SellCurrency: currency,
			FeeAmount:    "0",
			FeeCurrency:  currency,
			ExternalID:   e.Details.TransferID,
		}
		switch e.Details.TransferType {
		case "deposit":
			row.BuyAmount = ledger.Fixed8(amt)
			row.Type = ledger.TypeDeposit
		case "withdraw":
			row.SellAmount = ledger.Fixed8(amt.Neg())
			row.Type = ledger.TypeWithdrawal
		}
		// An unrecognized transfer_type keeps the zero-amount row so the
		// transfer id still shows up in the export for manual review.
		row.Exchange = exchangeLabel
		return row, nil

	default:
		return nil, fmt.Errorf("%w: ledger entry type %q", exchange.ErrUnknownType, e.Type)
	}
}

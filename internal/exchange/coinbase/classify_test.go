package coinbase

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"cryptoexport/internal/exchange"
	"cryptoexport/internal/ledger"
	"cryptoexport/logger"
)

func sampleBuy() Trade {
	return Trade{
		ID:            "buy-1",
		Status:        "completed",
		CreatedAt:     "2021-01-05T12:00:00Z",
		Amount:        Money{Amount: "0.5", Currency: "BTC"},
		Total:         Money{Amount: "5100.00", Currency: "USD"},
		Subtotal:      Money{Amount: "5000.00", Currency: "USD"},
		UserReference: "ABC123",
	}
}

func TestClassifyBuy(t *testing.T) {
	row, err := classifyBuy(sampleBuy())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if row.BuyAmount != "0.5" || row.BuyCurrency != "BTC" {
		t.Errorf("unexpected buy leg: %s %s", row.BuyAmount, row.BuyCurrency)
	}
	if row.SellAmount != "5100.00" || row.SellCurrency != "USD" {
		t.Errorf("unexpected sell leg: %s %s", row.SellAmount, row.SellCurrency)
	}
	if row.FeeAmount != "100.00000000" || row.FeeCurrency != "USD" {
		t.Errorf("unexpected fee: %s %s", row.FeeAmount, row.FeeCurrency)
	}
	if row.Type != ledger.TypeTrade || row.Comment != "Reference: ABC123" {
		t.Errorf("unexpected row: %+v", row)
	}
}

func TestClassifySell(t *testing.T) {
	sell := Trade{
		ID:        "sell-1",
		Status:    "completed",
		CreatedAt: "2021-01-06T12:00:00Z",
		Amount:    Money{Amount: "0.5", Currency: "BTC"},
		Total:     Money{Amount: "4900.00", Currency: "USD"},
		Subtotal:  Money{Amount: "5000.00", Currency: "USD"},
	}
	row, err := classifySell(sell)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if row.BuyAmount != "4900.00" || row.BuyCurrency != "USD" {
		t.Errorf("unexpected buy leg: %s %s", row.BuyAmount, row.BuyCurrency)
	}
	if row.SellAmount != "0.5" || row.SellCurrency != "BTC" {
		t.Errorf("unexpected sell leg: %s %s", row.SellAmount, row.SellCurrency)
	}
	if row.FeeAmount != "100.00000000" {
		t.Errorf("unexpected fee: %s", row.FeeAmount)
	}
}

func TestClassifyCancelledYieldsNoRow(t *testing.T) {
	buy := sampleBuy()
	buy.Status = "canceled"
	row, err := classifyBuy(buy)
	if err != nil || row != nil {
		t.Errorf("cancelled buy: row=%v err=%v", row, err)
	}
	row, err = classifySell(buy)
	if err != nil || row != nil {
		t.Errorf("cancelled sell: row=%v err=%v", row, err)
	}
}

func TestClassifyTransactionFiatLegs(t *testing.T) {
	tx := Transaction{
		ID:           "tx-1",
		Type:         "buy",
		CreatedAt:    "2021-01-05T12:00:00Z",
		Amount:       Money{Amount: "0.5", Currency: "BTC"},
		NativeAmount: Money{Amount: "5100.00", Currency: "USD"},
	}
	tx.Details.PaymentMethodName = "Bank of Example"

	row, err := classifyTransaction(tx, nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if row.Type != ledger.TypeDeposit {
		t.Errorf("expected deposit, got %s", row.Type)
	}
	if row.BuyAmount != "5100.00" {
		t.Errorf("unexpected buy amount: %s", row.BuyAmount)
	}
	if row.BuyCurrency != "USD" || row.SellCurrency != "USD" || row.FeeCurrency != "USD" {
		t.Errorf("currencies should all be native: %+v", row)
	}
	if row.Comment != "Deposit for 0.5 BTC buy from Bank of Example" {
		t.Errorf("unexpected comment: %s", row.Comment)
	}

	tx.Type = "sell"
	row, err = classifyTransaction(tx, nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if row.Type != ledger.TypeWithdrawal || row.SellAmount != "5100.00" {
		t.Errorf("unexpected sell-triggered row: %+v", row)
	}
}

func TestClassifySendDirection(t *testing.T) {
	out := Transaction{
		ID:           "tx-2",
		Type:         "send",
		CreatedAt:    "2021-02-01T00:00:00Z",
		Amount:       Money{Amount: "-0.25", Currency: "BTC"},
		NativeAmount: Money{Amount: "-2500.00", Currency: "USD"},
		To:           &Party{Resource: "bitcoin_address"},
	}
	row, err := classifyTransaction(out, nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if row.Type != ledger.TypeWithdrawal {
		t.Errorf("expected withdrawal, got %s", row.Type)
	}
	if row.SellAmount != "0.25000000" {
		t.Errorf("expected negated amount, got %s", row.SellAmount)
	}
	if row.Comment != "Native -2500.00 USD: To bitcoin_address" {
		t.Errorf("unexpected comment: %s", row.Comment)
	}

	in := out
	in.To = nil
	in.From = &Party{Resource: "user"}
	in.Amount = Money{Amount: "0.25", Currency: "BTC"}
	row, err = classifyTransaction(in, nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if row.Type != ledger.TypeDeposit || row.BuyAmount != "0.25000000" {
		t.Errorf("unexpected inbound send row: %+v", row)
	}
}

func TestClassifyOffChainSendRederivedFromBuy(t *testing.T) {
	buys := map[string]Trade{
		"buy-9": {
			ID:       "buy-9",
			Total:    Money{Amount: "1050.00", Currency: "USD"},
			Subtotal: Money{Amount: "1000.00", Currency: "USD"},
		},
	}

	tx := Transaction{
		ID:           "tx-3",
		Type:         "send",
		CreatedAt:    "2021-03-01T00:00:00Z",
		Amount:       Money{Amount: "0.1", Currency: "BTC"},
		NativeAmount: Money{Amount: "1050.00", Currency: "USD"},
		From:         &Party{Resource: "user"},
		Buy:          &Party{ResourcePath: "/v2/accounts/x/buys/buy-9"},
	}
	tx.Network.Status = "off_blockchain"

	row, err := classifyTransaction(tx, buys)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if row.FeeAmount != "50.00000000" {
		t.Errorf("fee should be the buy total-subtotal delta, got %s", row.FeeAmount)
	}
	if row.BuyAmount != "1050.00" || row.BuyCurrency != "USD" {
		t.Errorf("expected fiat deposit legs: %+v", row)
	}
	if row.Comment != "Deposit for 0.1 BTC buy from unexpected payment source" {
		t.Errorf("unexpected comment: %s", row.Comment)
	}
}

func TestClassifyOffChainSendUnmatchedBuyRetained(t *testing.T) {
	tx := Transaction{
		ID:           "tx-4",
		Type:         "send",
		CreatedAt:    "2021-03-02T00:00:00Z",
		Amount:       Money{Amount: "0.1", Currency: "BTC"},
		NativeAmount: Money{Amount: "1050.00", Currency: "USD"},
		From:         &Party{Resource: "user"},
		Buy:          &Party{ResourcePath: "/v2/accounts/x/buys/gone"},
	}
	tx.Network.Status = "off_blockchain"

	row, err := classifyTransaction(tx, map[string]Trade{})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	// The send-derived row survives unmodified.
	if row.BuyAmount != "0.10000000" || row.BuyCurrency != "BTC" {
		t.Errorf("expected original send row, got %+v", row)
	}
	if row.Comment != "Native 1050.00 USD: From user" {
		t.Errorf("unexpected comment: %s", row.Comment)
	}
}

func TestClassifyInternalTransferBySign(t *testing.T) {
	tx := Transaction{
		ID:           "tx-5",
		Type:         "pro_deposit",
		CreatedAt:    "2021-04-01T00:00:00Z",
		Amount:       Money{Amount: "-1.5", Currency: "ETH"},
		NativeAmount: Money{Amount: "-3000.00", Currency: "USD"},
	}
	tx.Details.Title = "Transferred Ethereum"
	tx.Details.Subtitle = "To Coinbase Pro"

	row, err := classifyTransaction(tx, nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if row.Type != ledger.TypeWithdrawal || row.SellAmount != "1.50000000" {
		t.Errorf("unexpected row for negative amount: %+v", row)
	}
	if row.Comment != "Native -3000.00 USD: Transferred Ethereum To Coinbase Pro" {
		t.Errorf("unexpected comment: %s", row.Comment)
	}

	tx.Amount = Money{Amount: "1.5", Currency: "ETH"}
	row, err = classifyTransaction(tx, nil)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if row.Type != ledger.TypeDeposit || row.BuyAmount != "1.50000000" {
		t.Errorf("unexpected row for positive amount: %+v", row)
	}
}

func TestClassifyUnknownType(t *testing.T) {
	tx := Transaction{ID: "tx-6", Type: "staking_reward"}
	row, err := classifyTransaction(tx, nil)
	if row != nil {
		t.Errorf("unknown type must not produce a row")
	}
	if !errors.Is(err, exchange.ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
}

func TestExtractRowsSkipsCancelledAndUnknown(t *testing.T) {
	mustRaw := func(v interface{}) json.RawMessage {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return data
	}

	active := sampleBuy()
	cancelled := sampleBuy()
	cancelled.ID = "buy-2"
	cancelled.Status = "canceled"

	acct := accountData{
		Account: Account{ID: "acct-1", Currency: "BTC"},
		Buys:    []json.RawMessage{mustRaw(active), mustRaw(cancelled)},
		Transactions: []json.RawMessage{
			mustRaw(Transaction{ID: "tx-7", Type: "mystery", Amount: Money{Amount: "1", Currency: "BTC"}}),
		},
	}
	fiat := accountData{
		Account: Account{ID: "acct-2", Currency: "USD"},
		Buys:    []json.RawMessage{mustRaw(active)},
	}

	log := logger.GetLogger().WithComponent("test")
	rows, stats := extractRows([]accountData{acct, fiat}, log)

	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if stats.trades != 1 || stats.transfers != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.skipped != 1 {
		t.Errorf("unknown record should be counted as skipped, got %d", stats.skipped)
	}
}

func TestExtractRowsCancelledBatchProperty(t *testing.T) {
	mustRaw := func(v interface{}) json.RawMessage {
		data, _ := json.Marshal(v)
		return data
	}

	var buys []json.RawMessage
	const cancelledCount, activeCount = 4, 3
	for i := 0; i < cancelledCount; i++ {
		b := sampleBuy()
		b.ID = fmt.Sprintf("c-%d", i)
		b.Status = "canceled"
		buys = append(buys, mustRaw(b))
	}
	for i := 0; i < activeCount; i++ {
		b := sampleBuy()
		b.ID = fmt.Sprintf("a-%d", i)
		buys = append(buys, mustRaw(b))
	}

	acct := accountData{Account: Account{ID: "acct", Currency: "BTC"}, Buys: buys}
	rows, _ := extractRows([]accountData{acct}, logger.GetLogger().WithComponent("test"))
	if len(rows) != activeCount {
		t.Errorf("expected %d rows, got %d", activeCount, len(rows))
	}
}

package coinbasepro

import "encoding/json"

// Account is one Coinbase Pro trading account (one per currency).
type Account struct {
	ID        string `json:"id"`
	ProfileID string `json:"profile_id"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	Available string `json:"available"`
	Hold      string `json:"hold"`
}

// accountData is an account plus its fully drained ledger history, kept
// raw for the snapshot.
type accountData struct {
	Account
	History []json.RawMessage `json:"history"`
}

// Product is a tradeable pair, e.g. BTC-USD.
type Product struct {
	ID string `json:"id"`
}

// Fill is one matched execution of an order.
type Fill struct {
	CreatedAt string      `json:"created_at"`
	TradeID   json.Number `json:"trade_id"`
	ProductID string      `json:"product_id"`
	OrderID   string      `json:"order_id"`
	Liquidity string      `json:"liquidity"`
	Price     string      `json:"price"`
	Size      string      `json:"size"`
	Fee       string      `json:"fee"`
	Side      string      `json:"side"`
	Settled   bool        `json:"settled"`
	USDVolume string      `json:"usd_volume"`
}

// LedgerEntry is one account-history entry. match and fee entries mirror
// fills and are excluded during classification.
type LedgerEntry struct {
	ID        json.Number `json:"id"`
	CreatedAt string      `json:"created_at"`
	Amount    string      `json:"amount"`
	Balance   string      `json:"balance"`
	Type      string      `json:"type"`
	Details   struct {
		OrderID      string `json:"order_id"`
		TradeID      string `json:"trade_id"`
		ProductID    string `json:"product_id"`
		TransferID   string `json:"transfer_id"`
		TransferType string `json:"transfer_type"`
	} `json:"details"`
}

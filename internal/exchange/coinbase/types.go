package coinbase

import "encoding/json"

// Money is an amount/currency pair as returned by the v2 wallet API.
type Money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// Account is one wallet account. Collections are kept raw so the snapshot
// stores exactly what the API returned.
type Account struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Currency      string `json:"currency"`
	Balance       Money  `json:"balance"`
	NativeBalance Money  `json:"native_balance"`
}

// accountData is an account enriched with its fully drained collections.
type accountData struct {
	Account
	Transactions []json.RawMessage `json:"transactions"`
	Buys         []json.RawMessage `json:"buys"`
	Sells        []json.RawMessage `json:"sells"`
	Deposits     []json.RawMessage `json:"deposits"`
	Withdrawals  []json.RawMessage `json:"withdrawals"`
}

// Trade is a fiat-settled buy or sell order.
type Trade struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	Amount        Money  `json:"amount"`
	Total         Money  `json:"total"`
	Subtotal      Money  `json:"subtotal"`
	UserReference string `json:"user_reference"`
}

// Party references another resource involved in a transaction.
type Party struct {
	ID           string `json:"id"`
	Resource     string `json:"resource"`
	ResourcePath string `json:"resource_path"`
}

// Transaction is one wallet ledger entry.
type Transaction struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	Amount       Money  `json:"amount"`
	NativeAmount Money  `json:"native_amount"`
	Details      struct {
		Title             string `json:"title"`
		Subtitle          string `json:"subtitle"`
		PaymentMethodName string `json:"payment_method_name"`
	} `json:"details"`
	Network struct {
		Status string `json:"status"`
	} `json:"network"`
	To   *Party `json:"to"`
	From *Party `json:"from"`
	Buy  *Party `json:"buy"`
}
